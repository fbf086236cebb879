// Package chat implements the chat engine proper: the subscribe and input
// driver loops, inline and content-addressed file transfer, and the
// supervisor that fans them in (spec.md §4.4-§4.8).
//
// This package is CORE: it depends on its collaborators only through
// narrow interfaces (Sender, the gossip event stream, the Blobs
// interface) and never reaches into internal/gossipnet or
// internal/blobstore's concrete types directly (spec.md §1).
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/brackenforge/meshchat/pkg/constants"
	"github.com/brackenforge/meshchat/pkg/identity"
	"github.com/brackenforge/meshchat/pkg/membership"
	"github.com/brackenforge/meshchat/pkg/wire"
)

// Sender broadcasts a sealed frame to the gossip topic. Satisfied by
// *internal/gossipnet.Endpoint.
type Sender interface {
	Broadcast(frame []byte) error
}

// PeerResolver maps a currently-connected gossip peer to the host it is
// reachable at, so the Share/Receive sub-protocol (spec.md §4.7) can dial
// its own dedicated endpoint on that same host. Satisfied by
// *internal/gossipnet.Endpoint.
type PeerResolver interface {
	PeerHost(id [constants.NodeIDSize]byte) (string, bool)
}

// Blobs is the content-addressed store/fetch surface pkg/chat needs for
// the Share/Receive sub-protocol (spec.md §4.7). Satisfied by
// *internal/blobstore.Store plus a *internal/blobstore.Fetcher, composed
// by the caller into one value (see cmd/meshchat).
type Blobs interface {
	Add(path string) (hash [32]byte, size uint64, err error)
	Export(hash [32]byte, destPath string) error
	Download(ctx context.Context, providerAddr string, hash [32]byte, destPath string) error
}

// Session bundles everything the two driver loops share (spec.md §5:
// "membership registry, gossip sender, blob store client" are the three
// cloneable/shared resources; nothing else is global mutable state).
type Session struct {
	ID       *identity.Identity
	Name     string
	Registry *membership.Registry
	Sender   Sender
	Peers    PeerResolver
	Blobs    Blobs
	BlobPort int // the dedicated blob endpoint's port, conventionally the same across the mesh

	Downloads DownloadLayout
	Log       *slog.Logger
}

// DownloadLayout controls where inline SendFile payloads land.
type DownloadLayout struct {
	// Root overrides the download root directory. Empty means the
	// current user's home directory (spec.md §6).
	Root string
}

// providerAddr resolves a BlobTicket's node id to a dialable address on
// the dedicated blob-transfer endpoint, using the host the gossip layer
// already has a live connection to (spec.md §9's design note: no DHT-style
// discovery exists in this implementation, so a ticket's provider must
// already be a gossip neighbor).
func (s *Session) providerAddr(nodeID [constants.NodeIDSize]byte) (string, error) {
	host, ok := s.Peers.PeerHost(nodeID)
	if !ok {
		return "", fmt.Errorf("chat: provider %x is not a connected peer", nodeID)
	}
	port := s.BlobPort
	if port == 0 {
		port = constants.DefaultBlobPort
	}
	return host + ":" + strconv.Itoa(port), nil
}

// seal signs msg under this session's identity and hands back the frame
// bytes ready for Sender.Broadcast (spec.md §4.1).
func (s *Session) seal(msg wire.Message) ([]byte, error) {
	return wire.Seal(s.ID.NodeID(), s.ID.PrivateKey, msg)
}
