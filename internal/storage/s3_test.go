package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appconfig "github.com/isdelr/datingapp-be/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	put     *s3.PutObjectInput
	body    string
	deleted []string
	err     error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	api := &fakeObjectAPI{}
	st := NewS3PhotoStorageWithClient(api, "photos", "https://cdn.example/photos/")

	url, publicID, err := st.Upload(context.Background(), "users/u-1/p-1", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/photos/users/u-1/p-1", url)
	assert.Equal(t, "users/u-1/p-1", publicID)
	assert.Equal(t, "photos", aws.ToString(api.put.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(api.put.ContentType))
	assert.Equal(t, "jpeg", api.body)
}

func TestDelete(t *testing.T) {
	api := &fakeObjectAPI{}
	st := NewS3PhotoStorageWithClient(api, "photos", "https://cdn.example")

	require.NoError(t, st.Delete(context.Background(), "users/u-1/p-1"))
	assert.Equal(t, []string{"users/u-1/p-1"}, api.deleted)
}

func TestErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	st := NewS3PhotoStorageWithClient(&fakeObjectAPI{err: boom}, "photos", "https://cdn.example")

	_, _, err := st.Upload(context.Background(), "k", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, st.Delete(context.Background(), "k"), boom)
}

func TestNewS3PhotoStorage_DerivesPublicURL(t *testing.T) {
	st, err := NewS3PhotoStorage(context.Background(), appconfig.S3Config{
		Bucket:    "photos",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000/",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/photos", st.publicURL)
}
