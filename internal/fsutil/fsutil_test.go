package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyDirPreservesModesAndSymlinks(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "bin"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "bin", "run"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Symlink("bin/run", filepath.Join(src, "run")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "copy")
	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("copy dir: %v", err)
	}

	info, err := os.Stat(filepath.Join(dst, "bin", "run"))
	if err != nil {
		t.Fatalf("stat copied file: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("executable bit lost in copy")
	}

	link, err := os.Readlink(filepath.Join(dst, "run"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if link != "bin/run" {
		t.Errorf("symlink target: got %q", link)
	}
}

func TestReplaceDirIsFullSwap(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "new.txt"), []byte("new"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "old.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := ReplaceDir(src, dst); err != nil {
		t.Fatalf("replace dir: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "old.txt")); err == nil {
		t.Error("old file survived replace")
	}
	if _, err := os.Stat(filepath.Join(dst, "new.txt")); err != nil {
		t.Errorf("new file missing: %v", err)
	}
}

func TestReplaceDirRequiresSource(t *testing.T) {
	if err := ReplaceDir(filepath.Join(t.TempDir(), "absent"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "victim")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("remove existing: %v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}
