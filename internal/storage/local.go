package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

const UploadBasePath = "./uploads"

const featureImageDir = "feature-images"

type Local struct {
	basePath string
}

func NewLocal(basePath string) (*Local, error) {
	dir := filepath.Join(basePath, featureImageDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %v", dir, err)
	}
	return &Local{basePath: basePath}, nil
}

func (l *Local) Mode() string {
	return "local"
}

// Upload returns a path of the form /uploads/feature-images/<name>.
func (l *Local) Upload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	name := objectName(file, featureImageDir)
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(name))

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}

	return "/uploads/" + name, nil
}

func (l *Local) Delete(url string) error {
	rel := strings.TrimPrefix(url, "/uploads/")
	if rel == url {
		return fmt.Errorf("file path outside uploads directory")
	}

	baseAbs, err := filepath.Abs(l.basePath)
	if err != nil {
		return fmt.Errorf("invalid base path: %v", err)
	}
	absPath, err := filepath.Abs(filepath.Join(l.basePath, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("invalid file path: %v", err)
	}
	if !strings.HasPrefix(absPath, baseAbs+string(filepath.Separator)) {
		return fmt.Errorf("file path outside uploads directory")
	}

	if err := os.Remove(absPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", url)
		}
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}
