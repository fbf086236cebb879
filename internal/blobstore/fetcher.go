package blobstore

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/brackenforge/meshchat/internal/p2pnet"
)

// Fetcher pulls blobs named by a BlobTicket's hash directly from the
// provider node it names, over the dedicated blob-transfer transport
// (spec.md §4.7, §5). There is no discovery step: the ticket already
// names the provider, so fetching is just dial, ask, verify.
type Fetcher struct {
	store     *Store
	transport p2pnet.Transport
	tlsConfig *tls.Config
}

// NewFetcher builds a Fetcher that dials out over transport and stores
// what it pulls in store.
func NewFetcher(store *Store, transport p2pnet.Transport, tlsConfig *tls.Config) *Fetcher {
	return &Fetcher{store: store, transport: transport, tlsConfig: tlsConfig}
}

// Download fetches the blob named by hash from providerAddr, verifies
// every chunk and the reassembled manifest, stores the result locally,
// and — when destPath is non-empty — reconstructs it to disk.
func (f *Fetcher) Download(ctx context.Context, providerAddr string, hash [HashSize]byte, destPath string) error {
	manifest, err := f.pullManifest(ctx, providerAddr, hash)
	if err != nil {
		return fmt.Errorf("blobstore: download: %w", err)
	}
	expectedCID, err := NewCIDFromHash(hash[:])
	if err != nil {
		return NewCIDInvalidError("invalid ticket hash", err)
	}
	if err := ValidateManifestCID(manifest, expectedCID); err != nil {
		return NewManifestInvalidError("manifest does not match ticket hash", err)
	}

	chunks := make([]*Chunk, len(manifest.Chunks))
	byIndex := make(map[uint32][]byte, len(manifest.Chunks))
	for i, info := range manifest.Chunks {
		data, err := f.pullChunk(ctx, providerAddr, hash, uint32(i))
		if err != nil {
			return fmt.Errorf("blobstore: download chunk %d: %w", i, err)
		}
		chunk := &Chunk{CID: info.CID, Data: data, Size: info.Size, Offset: info.Offset}
		if err := VerifyChunkIntegrity(chunk); err != nil {
			return NewIntegrityError(fmt.Sprintf("chunk %d failed verification", i), &info.CID, err)
		}
		chunks[i] = chunk
		byIndex[uint32(i)] = data
	}

	if f.store.config.EnableIntegrityCheck {
		if err := VerifyChunkSequence(chunks); err != nil {
			return NewIntegrityError("chunk sequence", &expectedCID, err)
		}
		if err := VerifyManifestChunkConsistency(manifest, chunks); err != nil {
			return NewIntegrityError("manifest/chunk consistency", &expectedCID, err)
		}
	}

	f.store.storeFetched(hash, manifest, byIndex)

	if destPath != "" {
		if err := ReconstructFile(chunks, destPath); err != nil {
			return fmt.Errorf("blobstore: download: reconstruct: %w", err)
		}
	}
	return nil
}

func (f *Fetcher) pullManifest(ctx context.Context, providerAddr string, hash [HashSize]byte) (*Manifest, error) {
	resp, err := f.roundTrip(ctx, providerAddr, pullRequest{Kind: requestManifest, Hash: hash[:]})
	if err != nil {
		return nil, err
	}
	if resp.Manifest == nil {
		return nil, fmt.Errorf("provider returned no manifest")
	}
	return resp.Manifest, nil
}

func (f *Fetcher) pullChunk(ctx context.Context, providerAddr string, hash [HashSize]byte, index uint32) ([]byte, error) {
	resp, err := f.roundTrip(ctx, providerAddr, pullRequest{Kind: requestChunk, Hash: hash[:], ChunkIndex: index})
	if err != nil {
		return nil, err
	}
	if resp.ChunkData == nil {
		return nil, fmt.Errorf("provider returned no chunk data")
	}
	return resp.ChunkData, nil
}

func (f *Fetcher) roundTrip(ctx context.Context, providerAddr string, req pullRequest) (pullResponse, error) {
	conn, err := f.transport.Dial(ctx, providerAddr, f.tlsConfig)
	if err != nil {
		return pullResponse{}, NewNetworkError("dial provider", providerAddr, err)
	}
	defer conn.Close()

	reqBytes, err := encodeRequest(req)
	if err != nil {
		return pullResponse{}, err
	}
	if err := p2pnet.WriteFrame(conn, reqBytes); err != nil {
		return pullResponse{}, NewNetworkError("write request", providerAddr, err)
	}

	respBytes, err := p2pnet.ReadFrame(conn)
	if err != nil {
		return pullResponse{}, NewNetworkError("read response", providerAddr, err)
	}
	resp, err := decodeResponse(respBytes)
	if err != nil {
		return pullResponse{}, err
	}
	if resp.Error != "" {
		return pullResponse{}, fmt.Errorf("provider error: %s", resp.Error)
	}
	return resp, nil
}
