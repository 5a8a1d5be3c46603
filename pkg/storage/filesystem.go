package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalStorage persists uploaded files on disk under a base directory and
// hands back the public URL they are served from.
type LocalStorage struct {
	baseDir string
	baseURL string
	now     func() time.Time
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}, nil
}

// Save writes data under a unique name derived from suggestedName and returns
// the URL it can be retrieved from.
func (s *LocalStorage) Save(ctx context.Context, suggestedName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := s.uniqueName(suggestedName)
	target := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload %s: %w", name, err)
	}
	return path.Join(s.baseURL, name), nil
}

// Open returns a read-only handle for a file previously returned by Save.
func (s *LocalStorage) Open(url string) (*os.File, error) {
	file, err := os.Open(s.resolve(url))
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(url string) error {
	if err := os.Remove(s.resolve(url)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// Dir exposes the directory uploads are written to so the router can serve it.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

func (s *LocalStorage) uniqueName(suggested string) string {
	base := filepath.Base(strings.TrimSpace(suggested))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = "upload"
	}
	return fmt.Sprintf("%d_%s", s.now().UnixNano(), base)
}

func (s *LocalStorage) resolve(url string) string {
	name := strings.TrimPrefix(url, s.baseURL)
	return filepath.Join(s.baseDir, filepath.Base(name))
}
