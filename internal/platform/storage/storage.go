package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedType = errors.New("only image files are allowed")
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FileStore persists uploaded evidence images under a base directory and
// hands out paths relative to it.
type FileStore struct {
	BaseDir  string
	MaxBytes int64
}

func NewFileStore(baseDir string, maxBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{BaseDir: baseDir, MaxBytes: maxBytes}, nil
}

// SaveImage writes a multipart upload to disk under the given prefix and
// returns the stored path relative to the base directory.
func (fs *FileStore) SaveImage(prefix string, header *multipart.FileHeader) (string, error) {
	if header.Size > fs.MaxBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedType
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%s_%d_%s%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	dstPath := filepath.Join(fs.BaseDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// The declared header size is client-supplied; the stream is the
	// authoritative length.
	if _, err := io.Copy(dst, io.LimitReader(src, fs.MaxBytes+1)); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	if info, err := dst.Stat(); err == nil && info.Size() > fs.MaxBytes {
		os.Remove(dstPath)
		return "", ErrTooLarge
	}

	return name, nil
}

// Remove deletes a stored file by its relative path. A missing file is
// not an error.
func (fs *FileStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	clean := filepath.Clean(relPath)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid file path %q", relPath)
	}
	err := os.Remove(filepath.Join(fs.BaseDir, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Resolve returns the absolute path for serving a stored file.
func (fs *FileStore) Resolve(relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid file path %q", relPath)
	}
	return filepath.Join(fs.BaseDir, clean), nil
}
