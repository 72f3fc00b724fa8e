package storage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["image"][0]
}

func TestValidateImage(t *testing.T) {
	t.Run("Success - PNG", func(t *testing.T) {
		assert.NoError(t, ValidateImage(fileHeader(t, "a.png", "image/png", []byte("png"))))
	})

	t.Run("Missing file", func(t *testing.T) {
		assert.ErrorIs(t, ValidateImage(nil), apperror.ErrValidation)
	})

	t.Run("Wrong type", func(t *testing.T) {
		err := ValidateImage(fileHeader(t, "a.pdf", "application/pdf", []byte("pdf")))
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
}

func TestLocalStorage(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocal(base)
	require.NoError(t, err)
	assert.Equal(t, "local", store.Mode())

	url, err := store.Upload(fileHeader(t, "Cover.JPG", "image/jpeg", []byte("jpeg-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/feature-images/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	onDisk := filepath.Join(base, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/")))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(url))
		_, err := os.Stat(onDisk)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Delete outside uploads", func(t *testing.T) {
		assert.Error(t, store.Delete("/uploads/../../etc/passwd"))
		assert.Error(t, store.Delete("/etc/passwd"))
	})
}

type fakeS3 struct {
	s3iface.S3API
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	putErr  error
}

func (f *fakeS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	t.Run("Success - Upload and delete through bucket URL", func(t *testing.T) {
		client := &fakeS3{}
		store := NewS3WithClient(client, "blog-assets", "eu-west-1", "")

		url, err := store.Upload(fileHeader(t, "hero.png", "image/png", []byte("png")))
		require.NoError(t, err)
		require.Len(t, client.puts, 1)

		key := aws.StringValue(client.puts[0].Key)
		assert.Equal(t, "https://blog-assets.s3.eu-west-1.amazonaws.com/"+key, url)
		assert.Equal(t, "image/png", aws.StringValue(client.puts[0].ContentType))

		require.NoError(t, store.Delete(url))
		require.Len(t, client.deletes, 1)
		assert.Equal(t, key, aws.StringValue(client.deletes[0].Key))
	})

	t.Run("CloudFront URL", func(t *testing.T) {
		client := &fakeS3{}
		store := NewS3WithClient(client, "blog-assets", "eu-west-1", "https://cdn.example.com/")

		url, err := store.Upload(fileHeader(t, "hero.png", "image/png", []byte("png")))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/feature-images/"))
	})

	t.Run("Foreign URL is refused", func(t *testing.T) {
		store := NewS3WithClient(&fakeS3{}, "blog-assets", "eu-west-1", "")
		assert.Error(t, store.Delete("https://elsewhere.example.com/a.png"))
	})

	t.Run("Upload error", func(t *testing.T) {
		store := NewS3WithClient(&fakeS3{putErr: errors.New("denied")}, "b", "r", "")
		_, err := store.Upload(fileHeader(t, "hero.png", "image/png", []byte("png")))
		assert.Error(t, err)
	})
}
