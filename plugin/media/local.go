// Package media persists tire photos. The local storage fetches a photo
// from the transport's temporary file URL and keeps it on disk, where the
// server's photo file route serves it back.
package media

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MaxPhotoSizeMB caps a single downloaded photo.
const MaxPhotoSizeMB = 20

type LocalStorage struct {
	root    string
	baseURL string
	client  *http.Client
}

// NewLocalStorage stores photos under root and returns URLs rooted at
// baseURL.
func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create media directory %s", root)
	}
	return &LocalStorage{
		root:    root,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build download request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to download photo")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("unexpected status %d downloading photo", resp.StatusCode)
	}

	ext := path.Ext(sourceURL)
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	file, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", errors.Wrap(err, "failed to create photo file")
	}
	defer file.Close()

	if _, err := io.Copy(file, io.LimitReader(resp.Body, MaxPhotoSizeMB<<20)); err != nil {
		return "", errors.Wrap(err, "failed to write photo file")
	}

	return s.baseURL + "/" + name, nil
}

// Root returns the directory photos are stored in, for the file route.
func (s *LocalStorage) Root() string {
	return s.root
}
