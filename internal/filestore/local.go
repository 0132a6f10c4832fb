package filestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore keeps files under a root directory served at a public base URL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory when missing.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the absolute storage directory.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Upload(ctx context.Context, data []byte, filename, contentType, prefix string) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}
	full, objectPath, err := s.resolve(prefix, filename)
	if err != nil {
		return UploadResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return UploadResult{}, err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return UploadResult{}, err
	}
	return UploadResult{Path: objectPath, URL: s.url(objectPath), Size: int64(len(data))}, nil
}

func (s *LocalStore) Download(ctx context.Context, prefix, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, _, err := s.resolve(prefix, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

func (s *LocalStore) Delete(ctx context.Context, prefix, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, _, err := s.resolve(prefix, filename)
	if err != nil {
		return false, err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStore) Exists(ctx context.Context, prefix, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, _, err := s.resolve(prefix, filename)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// resolve maps prefix/filename onto disk and refuses paths escaping the root.
func (s *LocalStore) resolve(prefix, filename string) (string, string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", "", errors.New("filename required")
	}
	objectPath := ObjectPath(prefix, filename)
	full := filepath.Join(s.root, filepath.FromSlash(objectPath))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", "", fmt.Errorf("path %q escapes storage root", objectPath)
	}
	return full, objectPath, nil
}

func (s *LocalStore) url(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + path.Join(segments...)
}
