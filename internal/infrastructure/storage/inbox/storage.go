// Package inbox persists uploaded documents into the single inbox
// location the pipeline later moves them from.
package inbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/inbox"
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve inbox path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	return &Storage{basePath: abs}, nil
}

// Save writes the document under the inbox and returns its absolute
// path, which becomes the document key for the whole run.
func (s *Storage) Save(_ context.Context, name string, data io.Reader) (string, error) {
	path := filepath.Join(s.basePath, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}
