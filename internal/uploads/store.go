// Package uploads is a disk-backed object store: blobs live under
// <root>/<bucket>/<name> and are served back through a public URL prefix.
// Writes overwrite on conflict, matching the hosted bucket it stands in for.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Store struct {
	Root    string
	BaseURL string
}

func NewStore(root, baseURL string) *Store {
	return &Store{
		Root:    root,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Save writes the blob and returns its public URL. The object name is
// cleaned so callers cannot escape the bucket directory.
func (s *Store) Save(bucket, name string, r io.Reader) (string, error) {
	clean := path.Base(path.Clean("/" + name))
	if clean == "/" || clean == "." || clean == "" {
		return "", fmt.Errorf("uploads: invalid object name %q", name)
	}

	dir := filepath.Join(s.Root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("uploads: create bucket dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, clean))
	if err != nil {
		return "", fmt.Errorf("uploads: create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("uploads: write object: %w", err)
	}
	return s.PublicURL(bucket, clean), nil
}

// PublicURL returns the URL a stored object is served under.
func (s *Store) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/%s/%s", s.BaseURL, bucket, path.Base(name))
}
