// Package artifact stores captured artifacts and names them by URI.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuongbtq/screenshot-service/internal/worker/capture"
)

// Store persists an artifact and returns the URI it can be fetched from
type Store interface {
	Put(ctx context.Context, jobID string, result *capture.Result) (string, error)
}

// FileStore writes artifacts as <dir>/<job id>.<ext>
type FileStore struct {
	dir     string
	baseURI string
}

// NewFileStore creates the directory if needed. An empty baseURI yields file:// URIs.
func NewFileStore(dir, baseURI string) (*FileStore, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	if baseURI == "" {
		baseURI = "file://" + filepath.ToSlash(absDir)
	}

	return &FileStore{
		dir:     absDir,
		baseURI: strings.TrimRight(baseURI, "/"),
	}, nil
}

// Put writes the artifact atomically. An existing artifact for the same job is replaced.
func (s *FileStore) Put(ctx context.Context, jobID string, result *capture.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(result.Data) == 0 {
		return "", fmt.Errorf("empty artifact for job %s", jobID)
	}

	name := jobID
	if result.Extension != "" {
		name += "." + result.Extension
	}

	tmp, err := os.CreateTemp(s.dir, "."+jobID+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create artifact file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(result.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close artifact file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}

	return s.baseURI + "/" + name, nil
}
