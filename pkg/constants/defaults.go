// Package constants defines cross-cutting default values shared by the
// chat engine, the gossip collaborator, and the blob-transfer collaborator.
package constants

import "time"

// Wire format limits (spec.md §3, §5).
const (
	// MaxInlineFileSize bounds an embedded SendFile payload (8 MiB).
	MaxInlineFileSize = 8 * 1024 * 1024

	// NonceSize is the length, in bytes, of the per-frame random nonce.
	NonceSize = 16

	// NodeIDSize is the length, in bytes, of an Ed25519 public key.
	NodeIDSize = 32

	// SignatureSize is the length, in bytes, of an Ed25519 signature.
	SignatureSize = 64

	// MinFrameSize is node_id || signature with an empty payload; any
	// frame of this length or shorter is rejected outright.
	MinFrameSize = NodeIDSize + SignatureSize
)

// Gossip collaborator defaults (internal/gossipnet).
const (
	GossipHeartbeat  = 1 * time.Second
	GossipEventQueue = 64 // buffered event channel depth before a Lagged event fires
	DefaultQUICPort  = 27487
)

// Blob-transfer collaborator defaults (internal/blobstore, internal/p2pnet).
const (
	ChunkSize         = 1 << 20 // 1 MiB
	HashAlgorithm     = "blake3-256"
	DefaultBlobPort   = 27488
	ConcurrentFetches = 4
)
