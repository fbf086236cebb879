package blobstore

import (
	"fmt"

	"github.com/brackenforge/meshchat/pkg/codec/canon"
)

// requestKind discriminates the two pull messages a fetcher can send.
type requestKind string

const (
	requestManifest requestKind = "manifest"
	requestChunk    requestKind = "chunk"
)

// pullRequest asks a provider for either a manifest or one of its
// chunks, identified by the manifest's own content hash.
type pullRequest struct {
	Kind       requestKind `cbor:"kind"`
	Hash       []byte      `cbor:"hash"`
	ChunkIndex uint32      `cbor:"chunk_index,omitempty"`
}

// pullResponse carries back whichever of Manifest/ChunkData the request
// asked for, or a non-empty Error.
type pullResponse struct {
	Error     string    `cbor:"error,omitempty"`
	Manifest  *Manifest `cbor:"manifest,omitempty"`
	ChunkData []byte    `cbor:"chunk_data,omitempty"`
}

func encodeRequest(r pullRequest) ([]byte, error) {
	data, err := canon.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("blobstore: encode request: %w", err)
	}
	return data, nil
}

func decodeRequest(data []byte) (pullRequest, error) {
	var r pullRequest
	if err := canon.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("blobstore: decode request: %w", err)
	}
	return r, nil
}

func encodeResponse(r pullResponse) ([]byte, error) {
	data, err := canon.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("blobstore: encode response: %w", err)
	}
	return data, nil
}

func decodeResponse(data []byte) (pullResponse, error) {
	var r pullResponse
	if err := canon.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("blobstore: decode response: %w", err)
	}
	return r, nil
}
