package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yaklabco/gomgc/pkg/fsutil"
)

func TestBackupPath(t *testing.T) {
	t.Parallel()

	got := fsutil.BackupPath("out/save.gci")
	want := "out/save.gci.bak"
	if got != want {
		t.Errorf("BackupPath() = %q, want %q", got, want)
	}
}

func TestCreateBackup(t *testing.T) {
	t.Parallel()

	t.Run("creates backup of existing file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "save.gci")
		content := []byte("original save")

		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		ctx := context.Background()
		created, err := fsutil.CreateBackup(ctx, path)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		if !created {
			t.Fatal("expected backup to be created")
		}

		got, err := os.ReadFile(fsutil.BackupPath(path))
		if err != nil {
			t.Fatalf("read backup: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("backup content = %q, want %q", got, content)
		}
	})

	t.Run("does not overwrite existing backup", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "save.gci")

		if err := os.WriteFile(path, []byte("second"), 0644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := os.WriteFile(fsutil.BackupPath(path), []byte("first"), 0644); err != nil {
			t.Fatalf("setup backup: %v", err)
		}

		ctx := context.Background()
		created, err := fsutil.CreateBackup(ctx, path)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		if created {
			t.Error("expected existing backup to be kept")
		}

		got, err := os.ReadFile(fsutil.BackupPath(path))
		if err != nil {
			t.Fatalf("read backup: %v", err)
		}
		if string(got) != "first" {
			t.Errorf("backup content = %q, want %q", got, "first")
		}
	})

	t.Run("no-op when original does not exist", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "save.gci")

		ctx := context.Background()
		created, err := fsutil.CreateBackup(ctx, path)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		if created {
			t.Error("expected no backup for missing original")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fsutil.CreateBackup(ctx, "anypath")
		if err == nil {
			t.Fatal("expected error for cancelled context")
		}
	})
}

func TestBackupExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "save.gci")

	if fsutil.BackupExists(path) {
		t.Error("expected no backup initially")
	}

	if err := os.WriteFile(fsutil.BackupPath(path), []byte("x"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if !fsutil.BackupExists(path) {
		t.Error("expected backup to be detected")
	}
}
