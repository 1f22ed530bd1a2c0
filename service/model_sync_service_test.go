package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wine_inference/config"
	"wine_inference/ml"
)

type fakeRemoteFileClientFactory struct {
	client      *fakeRemoteFileClient
	serverCalls []SSHServerConfig
	newErr      error
}

func (f *fakeRemoteFileClientFactory) New(server SSHServerConfig) (remoteFileClient, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.serverCalls = append(f.serverCalls, server)
	return f.client, nil
}

type fakeRemoteFileClient struct {
	remoteFiles     map[string][]byte
	downloadErr     error
	existsErr       error
	closed          bool
	downloadedPaths []string
}

func (f *fakeRemoteFileClient) DownloadFile(remotePath, localPath string) (int64, error) {
	if f.downloadErr != nil {
		return 0, f.downloadErr
	}
	content, ok := f.remoteFiles[remotePath]
	if !ok {
		return 0, ErrRemoteArtifactNotFound
	}
	if err := os.WriteFile(localPath, content, 0o644); err != nil {
		return 0, err
	}
	f.downloadedPaths = append(f.downloadedPaths, remotePath)
	return int64(len(content)), nil
}

func (f *fakeRemoteFileClient) FileExists(remotePath string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.remoteFiles[remotePath]
	return ok, nil
}

func (f *fakeRemoteFileClient) Close() error {
	f.closed = true
	return nil
}

// remoteArtifact saves a real forest and returns its files keyed by remote path.
func remoteArtifact(t *testing.T, remoteDir string) map[string][]byte {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, testForest(t).Save(dir, ml.WineSchema().Names()[:11]))

	files := map[string][]byte{}
	for _, name := range []string{ml.ArtifactForestFile, ml.ArtifactMetadataFile} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		files[remoteDir+"/"+name] = content
	}
	return files
}

func newTestSyncService(localDir string, factory remoteFileClientFactory) *ModelSyncService {
	return &ModelSyncService{
		Server: SSHServerConfig{
			IP:             "10.0.0.7",
			User:           "root",
			PrivateKeyPath: "/tmp/id_rsa",
			Timeout:        10 * time.Second,
		},
		RemoteDir:     "/data/wine/trainingweights",
		LocalDir:      localDir,
		clientFactory: factory,
	}
}

func TestModelSyncServiceSync(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "app", "trainingweights")
	client := &fakeRemoteFileClient{remoteFiles: remoteArtifact(t, "/data/wine/trainingweights")}
	factory := &fakeRemoteFileClientFactory{client: client}

	svc := newTestSyncService(localDir, factory)
	result, err := svc.Sync()
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.7", result.ServerIP)
	assert.Equal(t, localDir, result.LocalDir)
	assert.Len(t, result.Files, 2)
	assert.Greater(t, result.Bytes, int64(0))
	assert.True(t, client.closed)
	require.Len(t, factory.serverCalls, 1)
	assert.Equal(t, DefaultSSHServerPort, factory.serverCalls[0].Port)

	// the synced directory loads as a model
	_, _, err = ml.LoadRandomForestModel(localDir)
	assert.NoError(t, err)

	// staging directories are removed
	entries, err := os.ReadDir(filepath.Dir(localDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestModelSyncServiceMissingRemoteFile(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "trainingweights")
	files := remoteArtifact(t, "/data/wine/trainingweights")
	delete(files, "/data/wine/trainingweights/"+ml.ArtifactForestFile)

	client := &fakeRemoteFileClient{remoteFiles: files}
	svc := newTestSyncService(localDir, &fakeRemoteFileClientFactory{client: client})

	_, err := svc.Sync()
	assert.ErrorIs(t, err, ErrRemoteArtifactNotFound)
	assert.Empty(t, client.downloadedPaths)

	_, err = os.Stat(localDir)
	assert.True(t, os.IsNotExist(err))
}

func TestModelSyncServiceDownloadErrorKeepsOldModel(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "trainingweights")
	require.NoError(t, os.MkdirAll(localDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, ml.ArtifactForestFile), []byte("old"), 0o644))

	client := &fakeRemoteFileClient{
		remoteFiles: remoteArtifact(t, "/data/wine/trainingweights"),
		downloadErr: errors.New("connection reset"),
	}
	svc := newTestSyncService(localDir, &fakeRemoteFileClientFactory{client: client})

	_, err := svc.Sync()
	assert.Error(t, err)

	content, err := os.ReadFile(filepath.Join(localDir, ml.ArtifactForestFile))
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))
}

func TestModelSyncServiceInvalidConfig(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "trainingweights")

	svc := newTestSyncService(localDir, &fakeRemoteFileClientFactory{client: &fakeRemoteFileClient{}})
	svc.Server.IP = " "
	_, err := svc.Sync()
	assert.ErrorIs(t, err, ErrSSHServerIPRequired)

	svc = newTestSyncService(localDir, &fakeRemoteFileClientFactory{client: &fakeRemoteFileClient{}})
	svc.RemoteDir = "/"
	_, err = svc.Sync()
	assert.ErrorIs(t, err, ErrSSHFilePathRequired)

	svc = newTestSyncService(localDir, nil)
	_, err = svc.Sync()
	assert.ErrorIs(t, err, ErrSSHClientFactoryNil)

	factoryErr := errors.New("dial refused")
	svc = newTestSyncService(localDir, &fakeRemoteFileClientFactory{newErr: factoryErr})
	_, err = svc.Sync()
	assert.ErrorIs(t, err, factoryErr)
}

func TestNewModelSyncServiceFromConfig(t *testing.T) {
	svc := NewModelSyncService(config.RemoteModelConfig{
		Enabled:        true,
		Host:           "models.internal",
		Port:           2222,
		User:           "deploy",
		PrivateKeyPath: "/keys/id_ed25519",
		Dir:            "/srv/models/wine",
		TimeoutSeconds: 3,
	}, "/app/trainingweights")

	assert.Equal(t, "models.internal", svc.Server.IP)
	assert.Equal(t, 2222, svc.Server.Port)
	assert.Equal(t, 3*time.Second, svc.Server.Timeout)
	assert.Equal(t, "/srv/models/wine", svc.RemoteDir)
	assert.NotNil(t, svc.clientFactory)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/deploy")
	assert.Equal(t, "/home/deploy/.ssh/id_rsa", expandHome("~/.ssh/id_rsa"))
	assert.Equal(t, "/keys/id_rsa", expandHome(" /keys/id_rsa "))
}

func TestNormalizeRemoteFilePath(t *testing.T) {
	value, err := normalizeRemoteFilePath(`data\wine\..\wine\weights`)
	require.NoError(t, err)
	assert.Equal(t, "/data/wine/weights", value)

	_, err = normalizeRemoteFilePath("  ")
	assert.ErrorIs(t, err, ErrSSHFilePathRequired)
}
