// Package blobstore implements the content-addressed storage and pull
// protocol backing large-file transfer (spec.md §4.7, §5): chunking,
// BLAKE3-256 content identifiers, manifests, and a synchronous
// request/response protocol for serving and fetching chunks from the
// node a BlobTicket names.
package blobstore

import "time"

// CID is a BLAKE3-256 content identifier.
type CID struct {
	Hash   []byte `cbor:"hash"`
	String string `cbor:"string"`
}

// Chunk is one fixed-size (except possibly the last) slice of a file,
// paired with its CID.
type Chunk struct {
	CID    CID    `cbor:"cid"`
	Data   []byte `cbor:"data"`
	Size   uint64 `cbor:"size"`
	Offset uint64 `cbor:"offset"`
}

// ChunkInfo is a Chunk's metadata without the payload, as stored in a
// Manifest.
type ChunkInfo struct {
	CID    CID    `cbor:"cid"`
	Size   uint64 `cbor:"size"`
	Offset uint64 `cbor:"offset"`
}

// Manifest maps a file's chunks to their CIDs, in order.
type Manifest struct {
	Version     uint32      `cbor:"version"`
	FileSize    uint64      `cbor:"file_size"`
	ChunkSize   uint32      `cbor:"chunk_size"`
	ChunkCount  uint32      `cbor:"chunk_count"`
	Chunks      []ChunkInfo `cbor:"chunks"`
	CreatedAt   uint64      `cbor:"created_at"`
	ContentType string      `cbor:"content_type"`
	Filename    string      `cbor:"filename"`
}

// ContentStats tracks cumulative store/fetch activity.
type ContentStats struct {
	TotalChunks     uint64 `json:"total_chunks"`
	TotalBytes      uint64 `json:"total_bytes"`
	ActiveFetches   uint32 `json:"active_fetches"`
	SuccessfulGets  uint64 `json:"successful_gets"`
	FailedGets      uint64 `json:"failed_gets"`
	SuccessfulPuts  uint64 `json:"successful_puts"`
	FailedPuts      uint64 `json:"failed_puts"`
	NetworkErrors   uint64 `json:"network_errors"`
	IntegrityErrors uint64 `json:"integrity_errors"`
}

// Config configures a Store.
type Config struct {
	ChunkSize            uint32
	ConcurrentFetches    uint32
	FetchTimeout         time.Duration
	EnableIntegrityCheck bool
}

// DefaultConfig returns the spec.md §4.7 defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:            1024 * 1024,
		ConcurrentFetches:    4,
		FetchTimeout:         30 * time.Second,
		EnableIntegrityCheck: true,
	}
}
