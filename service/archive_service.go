package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"wine_inference/config"
)

var ErrArchiveBucketRequired = errors.New("archive bucket is required")

type s3Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// ArchiveService 将评估过的上传文件归档到 S3，每个请求一个对象
type ArchiveService struct {
	Bucket   string
	Prefix   string
	uploader s3Uploader
}

// NewArchiveService 根据配置创建 S3 uploader；配置了 endpoint(minio/localstack)时使用 path-style
func NewArchiveService(cfg config.ArchiveConfig) (*ArchiveService, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, ErrArchiveBucketRequired
	}

	awsCfg := &aws.Config{}
	if region := strings.TrimSpace(cfg.Region); region != "" {
		awsCfg.Region = aws.String(region)
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		awsCfg.Endpoint = aws.String(endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session failed: %w", err)
	}

	return &ArchiveService{
		Bucket:   bucket,
		Prefix:   cfg.Prefix,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

func (s *ArchiveService) ObjectKey(requestID string) string {
	prefix := strings.Trim(strings.TrimSpace(s.Prefix), "/")
	name := requestID + ".csv"
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Archive 上传 localPath，返回 s3:// 地址
func (s *ArchiveService) Archive(ctx context.Context, requestID, localPath string) (string, error) {
	logger := serviceLogger().With("service", "ArchiveService", "method", "Archive")
	if s == nil || s.uploader == nil {
		return "", ErrArchiveBucketRequired
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open archive source failed: %w", err)
	}
	defer file.Close()

	key := s.ObjectKey(requestID)
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		logger.Error("archive upload failed", "bucket", s.Bucket, "key", key, "error", err)
		return "", fmt.Errorf("upload s3://%s/%s failed: %w", s.Bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.Bucket, key)
	logger.Info("archive upload success", "request_id", requestID, "location", location)
	return location, nil
}
