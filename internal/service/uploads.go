package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/echoshop/pkg/logging"
)

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type UploadService struct {
	Dir      string
	MaxBytes int64
	// PublicPrefix is the URL path the upload dir is served under.
	PublicPrefix string
}

// SaveImage stores the file under a fresh uuid name and returns its public
// path.
func (s *UploadService) SaveImage(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return "", fail(ErrValidation, "Images only (.jpg, .jpeg, .png, .webp)")
	}
	if fh.Size > s.MaxBytes {
		return "", fail(ErrValidation, "Image is larger than %d bytes", s.MaxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	dstPath := filepath.Join(s.Dir, name)
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(src, s.MaxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.MaxBytes {
		err = fail(ErrValidation, "Image is larger than %d bytes", s.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}

	logging.FromContext(ctx).Info("image_uploaded", "file", name, "bytes", n)
	return path.Join(s.PublicPrefix, name), nil
}
