package service

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"wine_inference/config"
	"wine_inference/ml"
)

const DefaultSSHServerPort = 22

var (
	ErrSSHClientFactoryNil       = errors.New("ssh client factory is nil")
	ErrSSHServerIPRequired       = errors.New("server ip is required")
	ErrSSHServerUserRequired     = errors.New("ssh server user is required")
	ErrSSHPrivateKeyPathRequired = errors.New("ssh private key path is required")
	ErrSSHFilePathRequired       = errors.New("file path is required")
	ErrRemoteArtifactNotFound    = errors.New("remote artifact not found")
)

var defaultSSHTimeout = 15 * time.Second

// 按顺序拉取，先 metadata 再 forest
var modelArtifactFiles = []string{ml.ArtifactMetadataFile, ml.ArtifactForestFile}

type SSHServerConfig struct {
	IP             string
	Port           int
	User           string
	PrivateKeyPath string
	Timeout        time.Duration
}

type ModelSyncResult struct {
	ServerIP  string        `json:"server_ip"`
	RemoteDir string        `json:"remote_dir"`
	LocalDir  string        `json:"local_dir"`
	Files     []string      `json:"files"`
	Bytes     int64         `json:"bytes"`
	Cost      time.Duration `json:"cost"`
}

type remoteFileClient interface {
	DownloadFile(remotePath, localPath string) (int64, error)
	FileExists(remotePath string) (bool, error)
	Close() error
}

type remoteFileClientFactory interface {
	New(server SSHServerConfig) (remoteFileClient, error)
}

// ModelSyncService 启动前通过 SSH/SFTP 把远程模型目录同步到本地
type ModelSyncService struct {
	Server        SSHServerConfig
	RemoteDir     string
	LocalDir      string
	clientFactory remoteFileClientFactory
}

func NewModelSyncService(remote config.RemoteModelConfig, localDir string) *ModelSyncService {
	timeout := defaultSSHTimeout
	if remote.TimeoutSeconds > 0 {
		timeout = time.Duration(remote.TimeoutSeconds) * time.Second
	}
	return &ModelSyncService{
		Server: SSHServerConfig{
			IP:             remote.Host,
			Port:           remote.Port,
			User:           remote.User,
			PrivateKeyPath: expandHome(remote.PrivateKeyPath),
			Timeout:        timeout,
		},
		RemoteDir:     remote.Dir,
		LocalDir:      localDir,
		clientFactory: &sshSFTPClientFactory{},
	}
}

// Sync 先下载到 LocalDir 旁的临时目录，全部成功后再 rename 到 LocalDir
func (s *ModelSyncService) Sync() (ModelSyncResult, error) {
	logger := serviceLogger().With("service", "ModelSyncService", "method", "Sync")
	start := time.Now()

	if s.clientFactory == nil {
		logger.Warn("sync failed: ssh client factory is nil")
		return ModelSyncResult{}, ErrSSHClientFactoryNil
	}
	remoteDir, err := normalizeRemoteFilePath(s.RemoteDir)
	if err != nil {
		logger.Warn("sync failed: invalid remote dir", "remote_dir", s.RemoteDir, "error", err)
		return ModelSyncResult{}, err
	}
	localDir := filepath.Clean(strings.TrimSpace(s.LocalDir))
	if localDir == "" || localDir == "." {
		return ModelSyncResult{}, ErrSSHFilePathRequired
	}

	server, err := normalizeServerConfig(s.Server)
	if err != nil {
		logger.Error("sync failed: invalid server config", "error", err)
		return ModelSyncResult{}, err
	}

	logger.Info("sync begin", "server_ip", server.IP, "port", server.Port, "remote_dir", remoteDir, "local_dir", localDir)

	client, err := s.clientFactory.New(server)
	if err != nil {
		logger.Error("sync failed: create ssh client failed", "server_ip", server.IP, "error", err)
		return ModelSyncResult{}, err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.Error("sync close client failed", "server_ip", server.IP, "error", closeErr)
		}
	}()

	for _, name := range modelArtifactFiles {
		exists, err := client.FileExists(path.Join(remoteDir, name))
		if err != nil {
			return ModelSyncResult{}, fmt.Errorf("check remote %s failed: %w", name, err)
		}
		if !exists {
			logger.Warn("sync failed: remote artifact missing", "file", name, "remote_dir", remoteDir)
			return ModelSyncResult{}, fmt.Errorf("%w: %s", ErrRemoteArtifactNotFound, path.Join(remoteDir, name))
		}
	}

	if err := os.MkdirAll(filepath.Dir(localDir), 0o755); err != nil {
		return ModelSyncResult{}, fmt.Errorf("create local parent dir failed: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(localDir), ".model-sync-")
	if err != nil {
		return ModelSyncResult{}, fmt.Errorf("create staging dir failed: %w", err)
	}
	defer os.RemoveAll(staging)

	var total int64
	for _, name := range modelArtifactFiles {
		written, err := client.DownloadFile(path.Join(remoteDir, name), filepath.Join(staging, name))
		if err != nil {
			logger.Error("sync download failed", "file", name, "error", err)
			return ModelSyncResult{}, err
		}
		total += written
	}

	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return ModelSyncResult{}, fmt.Errorf("create local model dir failed: %w", err)
	}
	for _, name := range modelArtifactFiles {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(localDir, name)); err != nil {
			return ModelSyncResult{}, fmt.Errorf("install %s failed: %w", name, err)
		}
	}

	result := ModelSyncResult{
		ServerIP:  server.IP,
		RemoteDir: remoteDir,
		LocalDir:  localDir,
		Files:     append([]string(nil), modelArtifactFiles...),
		Bytes:     total,
		Cost:      time.Since(start),
	}
	logger.Info("sync success", "server_ip", server.IP, "bytes", total, "cost_ms", result.Cost.Milliseconds())
	return result, nil
}

func expandHome(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(homeDir, p[2:])
}

func normalizeServerConfig(cfg SSHServerConfig) (SSHServerConfig, error) {
	normalized := cfg
	normalized.IP = strings.TrimSpace(normalized.IP)
	normalized.User = strings.TrimSpace(normalized.User)
	normalized.PrivateKeyPath = strings.TrimSpace(normalized.PrivateKeyPath)
	if normalized.Port == 0 {
		normalized.Port = DefaultSSHServerPort
	}
	if normalized.Timeout <= 0 {
		normalized.Timeout = defaultSSHTimeout
	}
	if normalized.IP == "" {
		return SSHServerConfig{}, ErrSSHServerIPRequired
	}
	if normalized.User == "" {
		return SSHServerConfig{}, ErrSSHServerUserRequired
	}
	if normalized.PrivateKeyPath == "" {
		return SSHServerConfig{}, ErrSSHPrivateKeyPathRequired
	}
	return normalized, nil
}

func normalizeRemoteFilePath(rawPath string) (string, error) {
	value := strings.TrimSpace(strings.ReplaceAll(rawPath, "\\", "/"))
	if value == "" {
		return "", ErrSSHFilePathRequired
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	value = path.Clean(value)
	if value == "/" || value == "." {
		return "", ErrSSHFilePathRequired
	}
	return value, nil
}

type sshSFTPClientFactory struct{}

func (f *sshSFTPClientFactory) New(server SSHServerConfig) (remoteFileClient, error) {
	return newSSHSFTPClient(server)
}

type sshSFTPClient struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

func newSSHSFTPClient(server SSHServerConfig) (*sshSFTPClient, error) {
	normalized, err := normalizeServerConfig(server)
	if err != nil {
		return nil, err
	}

	keyBytes, err := os.ReadFile(normalized.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key failed: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key failed: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            normalized.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         normalized.Timeout,
	}

	address := net.JoinHostPort(normalized.IP, strconv.Itoa(normalized.Port))
	sshClient, err := ssh.Dial("tcp", address, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("dial ssh failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("create sftp client failed: %w", err)
	}
	return &sshSFTPClient{sshClient: sshClient, sftpClient: sftpClient}, nil
}

func (c *sshSFTPClient) DownloadFile(remotePath, localPath string) (int64, error) {
	src, err := c.sftpClient.Open(remotePath)
	if err != nil {
		if isNotExistError(err) {
			return 0, ErrRemoteArtifactNotFound
		}
		return 0, fmt.Errorf("open remote file failed: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Clean(localPath))
	if err != nil {
		return 0, fmt.Errorf("create local file failed: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		return 0, fmt.Errorf("write local file failed: %w", err)
	}
	return written, nil
}

func (c *sshSFTPClient) FileExists(remotePath string) (bool, error) {
	_, err := c.sftpClient.Stat(remotePath)
	if err != nil {
		if isNotExistError(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat remote file failed: %w", err)
	}
	return true, nil
}

func (c *sshSFTPClient) Close() error {
	var firstErr error
	if c.sftpClient != nil {
		if err := c.sftpClient.Close(); err != nil {
			firstErr = err
		}
	}
	if c.sshClient != nil {
		if err := c.sshClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func isNotExistError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "not exist") || strings.Contains(message, "no such file")
}
