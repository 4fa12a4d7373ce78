package upload

import (
	"DormBiz/internal/app_errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

const MaxImageBytes = 5 << 20

type File struct {
	Name        string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// CheckImage enforces the size limit and an image/* content type, guessing
// the type from the file extension when the client did not send one.
func CheckImage(f *File, limit int64) error {
	if limit <= 0 {
		limit = MaxImageBytes
	}
	if f.Size <= 0 || f.Size > limit {
		return app_errors.ErrFileSize
	}
	if f.ContentType == "" || f.ContentType == "application/octet-stream" {
		f.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return app_errors.ErrNotImage
	}
	return nil
}
