// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"path/filepath"
	"testing"
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
	data := []byte("Symbol: AAPL\nPnL: 12.5\n")

	if err := fs.Write(ctx, "results/trade_results_20240101_120000.txt", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "results/trade_results_20240101_120000.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
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
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "trade_results_20240102_000000.txt", []byte("b"))
	fs.Write(ctx, "trade_results_20240101_000000.txt", []byte("a"))
	fs.Write(ctx, "notes/other.txt", []byte("c"))

	paths, err := fs.List(ctx, "trade_results_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"trade_results_20240101_000000.txt", "trade_results_20240102_000000.txt"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	all, _ := fs.List(ctx, "")
	if len(all) != 2 {
		t.Errorf("expected 2 top-level paths with empty prefix, got %v", all)
	}

	nested, _ := fs.List(ctx, "notes/")
	if len(nested) != 1 || nested[0] != "notes/other.txt" {
		t.Errorf("expected notes/other.txt, got %v", nested)
	}
}

func TestLocalFS_List_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "AAPL_trade_results_20240101_000000.txt", []byte("a"))
	fs.Write(ctx, "src/deep/AAPL_trade_results_20230101_000000.txt", []byte("b"))
	fs.Write(ctx, "src/deep/main.go", []byte("c"))

	paths, err := fs.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 1 || paths[0] != "AAPL_trade_results_20240101_000000.txt" {
		t.Errorf("expected only the top-level result, got %v", paths)
	}
}

func TestLocalFS_Location(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)

	if got := fs.Location("a.txt"); got != filepath.Join(dir, "a.txt") {
		t.Errorf("Location = %s", got)
	}
}
