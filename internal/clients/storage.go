package clients

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StorageClient keeps generated files in a local directory served under PublicPrefix.
type StorageClient struct {
	BaseDir      string
	PublicPrefix string
	// BaseURL is an optional scheme+host used to build absolute file URLs.
	BaseURL string
}

func NewLocalStorage(baseDir, publicPrefix, baseURL string) (*StorageClient, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if publicPrefix == "" {
		publicPrefix = "/files"
	}
	if !strings.HasPrefix(publicPrefix, "/") {
		publicPrefix = "/" + publicPrefix
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure storage dir %q: %w", baseDir, err)
	}

	return &StorageClient{
		BaseDir:      baseDir,
		PublicPrefix: strings.TrimSuffix(publicPrefix, "/"),
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes data under a collision-free name ending in fileName and returns that name.
func (s *StorageClient) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileName = filepath.Base(fileName)
	final := fmt.Sprintf("%s_%s", strings.ReplaceAll(uuid.NewString(), "-", ""), fileName)
	path := filepath.Join(s.BaseDir, final)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	return final, nil
}

// GetURL returns BaseURL+PublicPrefix/fileName, or a relative path when BaseURL is empty.
func (s *StorageClient) GetURL(fileName string) string {
	return fmt.Sprintf("%s%s/%s", s.BaseURL, s.PublicPrefix, fileName)
}

// Put stores data and returns its public URL. The content type is decided when serving.
func (s *StorageClient) Put(ctx context.Context, fileName, _ string, data []byte) (string, error) {
	saved, err := s.Save(ctx, fileName, data)
	if err != nil {
		return "", err
	}
	return s.GetURL(saved), nil
}

// Path resolves a stored file name inside BaseDir, rejecting anything that would escape it.
func (s *StorageClient) Path(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return "", fs.ErrNotExist
	}
	return filepath.Join(s.BaseDir, fileName), nil
}

// FileHandler serves stored files by the {file} URL param with their original name.
func (s *StorageClient) FileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")

		path, err := s.Path(file)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		orig := file
		if idx := strings.IndexByte(file, '_'); idx >= 0 {
			orig = file[idx+1:]
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orig))
		http.ServeFile(w, r, path)
	}
}

// CleanupOlderThan deletes files in BaseDir last modified more than d ago.
func (s *StorageClient) CleanupOlderThan(d time.Duration) error {
	now := time.Now()
	return filepath.WalkDir(s.BaseDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) > d {
			_ = os.Remove(path)
		}
		return nil
	})
}
