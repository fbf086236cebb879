package chat

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brackenforge/meshchat/pkg/constants"
)

func TestReadInlineFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	want := []byte("hello")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	name, content, err := readInlineFile(path)
	if err != nil {
		t.Fatalf("readInlineFile: %v", err)
	}
	if name != "hello.txt" {
		t.Errorf("name = %q, want hello.txt", name)
	}
	if !bytes.Equal(content, want) {
		t.Errorf("content = %q, want %q", content, want)
	}
}

func TestReadInlineFile_RejectsOversize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.Truncate(constants.MaxInlineFileSize + 1); err != nil {
		f.Close()
		t.Fatalf("Truncate: %v", err)
	}
	f.Close()

	if _, _, err := readInlineFile(path); err == nil {
		t.Fatal("readInlineFile: expected an error for an oversize file, got nil")
	}
}

func TestReadInlineFile_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := readInlineFile(dir); err == nil {
		t.Fatal("readInlineFile: expected an error for a directory, got nil")
	}
}

func TestWriteInlineFile_RejectsOversize(t *testing.T) {
	oversize := make([]byte, constants.MaxInlineFileSize+1)
	if _, err := writeInlineFile(t.TempDir(), "x.bin", oversize); err == nil {
		t.Fatal("writeInlineFile: expected an error for an oversize payload, got nil")
	}
}

func TestWriteInlineFile_DatedDirectoryAndContent(t *testing.T) {
	root := t.TempDir()
	want := []byte("payload")

	dest, err := writeInlineFile(root, "hello.txt", want)
	if err != nil {
		t.Fatalf("writeInlineFile: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", dest, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("content = %q, want %q", got, want)
	}

	wantDate := time.Now().UTC().Format("2006-01-02") + "-utc"
	if filepath.Base(filepath.Dir(dest)) != wantDate {
		t.Errorf("download dir = %q, want a directory named %q", filepath.Dir(dest), wantDate)
	}
	if filepath.Base(dest) != "hello.txt" {
		t.Errorf("basename = %q, want hello.txt", filepath.Base(dest))
	}
}

func TestWriteInlineFile_SanitizesFilename(t *testing.T) {
	root := t.TempDir()
	dest, err := writeInlineFile(root, "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("writeInlineFile: %v", err)
	}
	if filepath.Base(dest) != "passwd" {
		t.Errorf("basename = %q, want passwd (path components stripped)", filepath.Base(dest))
	}
	downloadRoot, err := downloadDir(root)
	if err != nil {
		t.Fatalf("downloadDir: %v", err)
	}
	if filepath.Dir(dest) != downloadRoot {
		t.Errorf("dest dir = %q escaped the downloads root %q", filepath.Dir(dest), downloadRoot)
	}
}
