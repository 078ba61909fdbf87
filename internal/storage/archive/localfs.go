// internal/storage/archive/localfs.go
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/spf13/afero"
)

// LocalFS implements Storage on top of an afero filesystem rooted at a base path.
type LocalFS struct {
	fs afero.Fs
}

// NewLocalFS creates a new LocalFS storage on the OS filesystem
func NewLocalFS(basePath string) (*LocalFS, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return NewFS(afero.NewBasePathFs(osFs, basePath)), nil
}

// NewFS wraps an existing afero filesystem, e.g. afero.NewMemMapFs in tests.
func NewFS(fs afero.Fs) *LocalFS {
	return &LocalFS{fs: fs}
}

func clean(path string) string {
	return filepath.Clean("/" + strings.TrimPrefix(path, "/"))
}

// Write replaces the file atomically by writing a sibling temp file and
// renaming it into place.
func (l *LocalFS) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := clean(path)
	if err := l.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	tmp := fullPath + ".tmp"
	if err := afero.WriteFile(l.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := l.fs.Rename(tmp, fullPath); err != nil {
		l.fs.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func (l *LocalFS) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs, clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.WrapError(core.ErrNotFound, err)
	}
	return data, err
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	paths := []string{}
	searchPath := clean(prefix)

	err := afero.Walk(l.fs, searchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && !strings.HasSuffix(path, ".tmp") {
			paths = append(paths, strings.TrimPrefix(path, "/"))
		}
		return nil
	})

	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	return paths, err
}

func (l *LocalFS) Delete(ctx context.Context, path string) error {
	err := l.fs.Remove(clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return core.WrapError(core.ErrNotFound, err)
	}
	return err
}

func (l *LocalFS) Exists(ctx context.Context, path string) (bool, error) {
	return afero.Exists(l.fs, clean(path))
}
