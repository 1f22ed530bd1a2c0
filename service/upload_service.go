package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var (
	ErrInvalidUploadFile = errors.New("invalid upload file")
	ErrUploadTooLarge    = errors.New("upload file is too large")
)

type UploadResult struct {
	RequestID    string `json:"request_id"`
	OriginalName string `json:"original_name"`
	FileName     string `json:"file_name"`
	SavedPath    string `json:"saved_path"`
	Size         int64  `json:"size"`
}

// UploadService 把上传文件保存到 Dir，文件名带 UUID 前缀，同名并发上传互不覆盖
type UploadService struct {
	Dir      string
	MaxBytes int64 // 0 表示不限制
}

// multipartOverhead 预留给 multipart 边界和表单头的字节数
const multipartOverhead = 1 << 20

func NewUploadService(dir string, maxBytes int64) *UploadService {
	return &UploadService{Dir: dir, MaxBytes: maxBytes}
}

// BodyLimit 是整个请求体允许的最大字节数，0 表示不限制
func (s *UploadService) BodyLimit() int64 {
	if s == nil || s.MaxBytes <= 0 {
		return 0
	}
	return s.MaxBytes + multipartOverhead
}

func (s *UploadService) Save(file *multipart.FileHeader) (UploadResult, error) {
	logger := serviceLogger().With("service", "UploadService", "method", "Save")
	if file == nil || strings.TrimSpace(file.Filename) == "" {
		return UploadResult{}, ErrInvalidUploadFile
	}
	if s.MaxBytes > 0 && file.Size > s.MaxBytes {
		return UploadResult{}, fmt.Errorf("%w: %d bytes, limit %d", ErrUploadTooLarge, file.Size, s.MaxBytes)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return UploadResult{}, fmt.Errorf("create upload dir failed: %w", err)
	}

	requestID := uuid.NewString()
	storedName := fmt.Sprintf("%s_%s", requestID, sanitizeFileName(filepath.Base(file.Filename)))
	savedPath := filepath.Join(s.Dir, storedName)

	src, err := file.Open()
	if err != nil {
		return UploadResult{}, fmt.Errorf("open upload file failed: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(savedPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create target file failed: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(savedPath)
		return UploadResult{}, fmt.Errorf("save upload file failed: %w", err)
	}

	logger.Info("upload saved", "request_id", requestID, "file_name", storedName, "size", n)
	return UploadResult{
		RequestID:    requestID,
		OriginalName: file.Filename,
		FileName:     storedName,
		SavedPath:    savedPath,
		Size:         n,
	}, nil
}

// Cleanup 删除 Save 写入的文件，文件不存在不算错误
func (s *UploadService) Cleanup(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		serviceLogger().Warn("remove upload failed", "path", path, "error", err)
	}
}

// sanitizeFileName 只保留字母、数字、'-'、'_'、'.'，其余字符(含路径分隔符)替换为 '_'
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
