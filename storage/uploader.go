package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedContentType = errors.New("unsupported poster content type")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader - хранилище объектов для постеров событий.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

var posterExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// PosterKey строит ключ объекта вида events/{id}/poster-{uuid}.{ext}.
func PosterKey(eventID int, contentType string) (string, error) {
	ext, ok := posterExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	return path.Join("events", fmt.Sprint(eventID), "poster-"+uuid.NewString()+ext), nil
}

func joinPublicURL(baseURL, key string) string {
	if baseURL == "" || key == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}
