package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brackenforge/meshchat/pkg/constants"
)

// appName names this binary in the downloads path convention below
// (spec.md §4.6, §6: "<home>/apps/data/<app>/<YYYY-MM-DD-utc>/").
const appName = "meshchat"

// readInlineFile resolves path, requires it to be a regular file within
// the inline size cap, and returns its contents plus its basename
// (spec.md §4.6's Send side — the wire filename is the basename only,
// never the full path).
func readInlineFile(path string) (basename string, content []byte, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("chat: send_file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("chat: send_file: %s is not a regular file", path)
	}
	if info.Size() > constants.MaxInlineFileSize {
		return "", nil, fmt.Errorf("chat: send_file: %s is %d bytes, exceeds the %d byte inline cap",
			path, info.Size(), constants.MaxInlineFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("chat: send_file: %w", err)
	}
	return filepath.Base(path), data, nil
}

// downloadDir computes today's UTC-dated downloads directory under root
// (spec.md §4.6). An empty root defaults to the user's home directory.
func downloadDir(root string) (string, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("chat: resolve home directory: %w", err)
		}
		root = home
	}
	date := time.Now().UTC().Format("2006-01-02") + "-utc"
	return filepath.Join(root, "apps", "data", appName, date), nil
}

// writeInlineFile enforces the inline size cap again on the receive side
// (spec.md §4.6: "enforce the size cap on the receive side too", since a
// peer's SendFile is untrusted beyond its signature) and writes content
// under today's dated downloads directory, named by filename's basename.
func writeInlineFile(root, filename string, content []byte) (string, error) {
	if len(content) > constants.MaxInlineFileSize {
		return "", fmt.Errorf("chat: received file is %d bytes, exceeds the %d byte inline cap",
			len(content), constants.MaxInlineFileSize)
	}

	dir, err := downloadDir(root)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("chat: create downloads dir %s: %w", dir, err)
	}

	dest := filepath.Join(dir, filepath.Base(filename))
	tmp := dest + ".part"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", fmt.Errorf("chat: write %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("chat: finalize %s: %w", dest, err)
	}
	return dest, nil
}
