package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlobStore persists uploaded images and returns the public reference.
type BlobStore interface {
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// LocalBlobStore writes files under dir and serves them at urlPrefix.
type LocalBlobStore struct {
	dir       string
	urlPrefix string
}

func NewLocalBlobStore(dir, urlPrefix string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalBlobStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalBlobStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + "." + extFor(mimeType)

	// write then rename so a reader never sees a partial file
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store blob: %w", err)
	}
	return path.Join(s.urlPrefix, name), nil
}

// Delete removes the file behind ref. Unknown references are ignored.
func (s *LocalBlobStore) Delete(_ context.Context, ref string) error {
	name := path.Base(ref)
	if name == "." || name == "/" || !strings.HasPrefix(ref, s.urlPrefix+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func extFor(mimeType string) string {
	_, sub, ok := strings.Cut(strings.ToLower(mimeType), "/")
	if !ok || sub == "" {
		return "jpg"
	}
	sub, _, _ = strings.Cut(sub, ";")
	switch sub {
	case "jpeg", "pjpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	}
	return strings.TrimSpace(sub)
}
