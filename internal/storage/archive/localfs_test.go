// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/spf13/afero"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte("ticker\nAAPL\n")

	if err := fs.Write(ctx, "lists/swing_watchlist.csv", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "lists/swing_watchlist.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}

	// the file lands under the base path on disk
	onDisk, err := os.ReadFile(filepath.Join(dir, "lists", "swing_watchlist.csv"))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(onDisk) != string(data) {
		t.Errorf("disk content %q, want %q", onDisk, data)
	}
}

func TestLocalFS_Overwrite(t *testing.T) {
	fs := NewFS(afero.NewMemMapFs())
	ctx := context.Background()

	fs.Write(ctx, "list.csv", []byte("first"))
	fs.Write(ctx, "list.csv", []byte("second"))

	got, _ := fs.Read(ctx, "list.csv")
	if string(got) != "second" {
		t.Errorf("expected full rewrite, got %q", got)
	}

	exists, _ := fs.Exists(ctx, "list.csv.tmp")
	if exists {
		t.Error("temp file should be renamed away")
	}
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs := NewFS(afero.NewMemMapFs())

	_, err := fs.Read(context.Background(), "missing.csv")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs := NewFS(afero.NewMemMapFs())
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.txt")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.txt", []byte("data"))
	exists, _ = fs.Exists(ctx, "exists.txt")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs := NewFS(afero.NewMemMapFs())
	ctx := context.Background()

	fs.Write(ctx, "data/2024/01/a.txt", []byte("a"))
	fs.Write(ctx, "data/2024/01/b.txt", []byte("b"))
	fs.Write(ctx, "other/c.txt", []byte("c"))

	paths, err := fs.List(ctx, "data")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sort.Strings(paths)

	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d: %v", len(paths), paths)
	}
	if paths[0] != "data/2024/01/a.txt" {
		t.Errorf("expected relative path, got %s", paths[0])
	}

	empty, err := fs.List(ctx, "nothing")
	if err != nil {
		t.Fatalf("List missing prefix: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no paths, got %v", empty)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	fs := NewFS(afero.NewMemMapFs())
	ctx := context.Background()

	fs.Write(ctx, "gone.txt", []byte("x"))
	if err := fs.Delete(ctx, "gone.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if exists, _ := fs.Exists(ctx, "gone.txt"); exists {
		t.Error("expected file to be deleted")
	}
	if err := fs.Delete(ctx, "gone.txt"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocalFS_PathEscape(t *testing.T) {
	mem := afero.NewMemMapFs()
	fs := NewFS(afero.NewBasePathFs(mem, "/root"))
	ctx := context.Background()

	if err := fs.Write(ctx, "../../escape.txt", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ok, _ := afero.Exists(mem, "/root/escape.txt"); !ok {
		t.Error("expected path to be confined to the base directory")
	}
}
