package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brackenforge/meshchat/internal/p2pnet"
	"github.com/brackenforge/meshchat/internal/p2pnet/tcp"
)

// mustServeStore starts a Server over serverStore on an ephemeral port and
// returns a Fetcher dialed against it, the bound address, and a teardown.
func mustServeStore(t *testing.T, serverStore *Store) (*Fetcher, string, func()) {
	t.Helper()

	serverTLS, err := p2pnet.SelfSignedTLSConfig("blobstore server test")
	if err != nil {
		t.Fatalf("SelfSignedTLSConfig: %v", err)
	}
	transport := tcp.New()
	server := NewServer(serverStore, transport, serverTLS)

	ctx, cancel := context.WithCancel(context.Background())
	go server.Serve(ctx, "127.0.0.1:0")

	var addr string
	deadline := time.After(2 * time.Second)
	for addr == "" {
		select {
		case <-deadline:
			cancel()
			t.Fatal("server did not come up listening")
		default:
			addr = server.Addr()
		}
	}

	fetcherTLS, err := p2pnet.SelfSignedTLSConfig("blobstore fetcher test")
	if err != nil {
		cancel()
		t.Fatalf("SelfSignedTLSConfig: %v", err)
	}
	fetcher := NewFetcher(New(nil), transport, fetcherTLS)
	return fetcher, addr, cancel
}

func TestStoreAddAndExport(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.txt")
	content := []byte("hello from the content store")
	if err := os.WriteFile(srcPath, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := New(nil)
	hash, size, err := store.Add(srcPath)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if size != uint64(len(content)) {
		t.Errorf("size mismatch: got %d, want %d", size, len(content))
	}
	if !store.Has(hash) {
		t.Error("store should have the hash it just added")
	}

	destPath := filepath.Join(dir, "out.txt")
	if err := store.Export(hash, destPath); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("exported content mismatch: got %q, want %q", got, content)
	}
}

func TestFetcherDownloadFromServer(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.bin")
	content := make([]byte, 3*1024+17) // spans several chunks at a small chunk size
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(srcPath, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	serverStore := New(&Config{ChunkSize: 1024, EnableIntegrityCheck: true})
	hash, _, err := serverStore.Add(srcPath)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	fetcher, addr, cancel := mustServeStore(t, serverStore)
	defer cancel()

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()

	destPath := filepath.Join(dir, "fetched.bin")
	if err := fetcher.Download(ctx, addr, hash, destPath); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(content) {
		t.Error("downloaded content does not match source")
	}
}

func TestFetcherDownloadUnknownHash(t *testing.T) {
	serverStore := New(nil)
	fetcher, addr, cancel := mustServeStore(t, serverStore)
	defer cancel()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	var hash [HashSize]byte
	if err := fetcher.Download(ctx, addr, hash, ""); err == nil {
		t.Fatal("expected an error fetching an unknown hash")
	}
}
