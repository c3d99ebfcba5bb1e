// Package storage keeps song attachments (lyrics PDFs, audio) in an
// object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/zeebo/errs"

	"worship_management/internal/config"
)

// Error is the class of storage failures.
var Error = errs.Class("storage")

// Storage is an object store addressed by slash-separated keys.
type Storage interface {
	// Upload stores r under key, replacing any existing object, and
	// returns a URL clients can fetch it from.
	Upload(ctx context.Context, r io.Reader, key, contentType string) (string, error)
	// URL returns the object's URL, or "" when there is no such object.
	URL(ctx context.Context, key string) (string, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg.StorageDriver.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "cloudinary":
		return NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	case "local":
		return NewLocal(cfg.StorageDir, cfg.StorageBaseURL)
	default:
		return nil, Error.New("unknown driver %q", cfg.StorageDriver)
	}
}

// SongFileKey is the key of a song attachment, e.g. "songs/<id>/pdf.pdf".
func SongFileKey(songID, kind, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return fmt.Sprintf("songs/%s/%s.%s", songID, kind, ext)
}

// cleanKey rejects keys that would escape the store's root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", Error.New("empty key")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(key, "..") {
		return "", Error.New("invalid key %q", key)
	}
	return cleaned, nil
}
