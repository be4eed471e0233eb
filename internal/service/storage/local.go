package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
)

// RoutePrefix is where the HTTP router serves LocalStore's directory.
const RoutePrefix = "/recordings"

// LocalStore keeps files in a directory served by the API under RoutePrefix.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed. baseURL is the externally visible
// origin of this service, e.g. "http://localhost:8080".
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Path returns where name is (or would be) stored.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// URL returns the public URL of name.
func (s *LocalStore) URL(name string) string {
	return s.baseURL + RoutePrefix + "/" + url.PathEscape(filepath.Base(name))
}

// Save writes r to the directory under name and returns the stored path.
func (s *LocalStore) Save(name string, r io.Reader) (string, error) {
	dst := s.Path(name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}
	return dst, nil
}

// PutFile implements Store. Files already inside the directory are not copied.
func (s *LocalStore) PutFile(_ context.Context, _ Kind, path, name, _ string) (string, error) {
	dst := s.Path(name)
	if same, _ := samePath(path, dst); !same {
		src, err := os.Open(path)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrUpload, "storage.local", err)
		}
		defer src.Close()
		if _, err := s.Save(name, src); err != nil {
			return "", apperr.Wrap(apperr.ErrUpload, "storage.local", err)
		}
	}
	return s.URL(name), nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
