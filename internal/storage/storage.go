// Package storage keeps blog feature images on local disk or in S3.
package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/config"
	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Storage interface {
	// Upload stores file and returns its public URL or path.
	Upload(file *multipart.FileHeader) (string, error)
	Delete(url string) error
	Mode() string
}

func New(cfg *config.Config) (Storage, error) {
	if cfg.UseS3 {
		return NewS3(cfg.S3Bucket, cfg.S3Region, cfg.CloudFrontURL)
	}
	return NewLocal(UploadBasePath)
}

// ValidateImage rejects anything that is not a reasonably sized image.
func ValidateImage(file *multipart.FileHeader) error {
	if file == nil {
		return apperror.ValidationFields(map[string]string{"image": "image is required"})
	}
	if file.Size > MaxImageSize {
		return apperror.ValidationFields(map[string]string{"image": "image must not exceed 5MB"})
	}
	if !allowedImageTypes[file.Header.Get("Content-Type")] {
		return apperror.ValidationFields(map[string]string{"image": "image must be a JPEG, PNG, GIF or WebP file"})
	}
	return nil
}

func objectName(file *multipart.FileHeader, prefix string) string {
	return fmt.Sprintf("%s/%s-%s%s",
		prefix,
		time.Now().Format("20060102-150405"),
		uuid.New().String()[:8],
		strings.ToLower(filepath.Ext(file.Filename)),
	)
}
