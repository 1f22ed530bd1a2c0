package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wine_inference/config"
)

type fakeS3Uploader struct {
	bucket  string
	key     string
	content []byte
	err     error
}

func (f *fakeS3Uploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.StringValue(input.Bucket)
	f.key = aws.StringValue(input.Key)
	content, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.content = content
	return &s3manager.UploadOutput{Location: "https://" + f.bucket + "/" + f.key}, nil
}

func TestArchiveServiceArchive(t *testing.T) {
	src := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(src, []byte(wineHeader), 0o644))

	uploader := &fakeS3Uploader{}
	svc := &ArchiveService{Bucket: "wine-uploads", Prefix: "/predict/", uploader: uploader}

	location, err := svc.Archive(context.Background(), "req-42", src)
	require.NoError(t, err)
	assert.Equal(t, "s3://wine-uploads/predict/req-42.csv", location)
	assert.Equal(t, "wine-uploads", uploader.bucket)
	assert.Equal(t, "predict/req-42.csv", uploader.key)
	assert.Equal(t, wineHeader, string(uploader.content))
}

func TestArchiveServiceArchiveErrors(t *testing.T) {
	svc := &ArchiveService{Bucket: "b", uploader: &fakeS3Uploader{}}
	_, err := svc.Archive(context.Background(), "r", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	src := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	uploadErr := errors.New("access denied")
	svc = &ArchiveService{Bucket: "b", uploader: &fakeS3Uploader{err: uploadErr}}
	_, err = svc.Archive(context.Background(), "r", src)
	assert.ErrorIs(t, err, uploadErr)
}

func TestArchiveServiceObjectKey(t *testing.T) {
	assert.Equal(t, "abc.csv", (&ArchiveService{}).ObjectKey("abc"))
	assert.Equal(t, "a/b/abc.csv", (&ArchiveService{Prefix: "a/b"}).ObjectKey("abc"))
}

func TestNewArchiveService(t *testing.T) {
	_, err := NewArchiveService(config.ArchiveConfig{})
	assert.ErrorIs(t, err, ErrArchiveBucketRequired)

	svc, err := NewArchiveService(config.ArchiveConfig{
		Bucket:   "wine-uploads",
		Region:   "us-east-1",
		Endpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "wine-uploads", svc.Bucket)
	assert.NotNil(t, svc.uploader)
}
