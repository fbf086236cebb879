package blobstore

import (
	"fmt"
	"sync"
)

// Store holds locally-added content — chunked, manifested, and ready to
// serve to a puller that names it by hash (spec.md §4.7's "Share side").
// It also accumulates chunks pulled in from remote providers, so a
// received file can be re-shared without re-fetching it.
type Store struct {
	config *Config

	mu        sync.RWMutex
	manifests map[[HashSize]byte]*Manifest
	chunks    map[[HashSize]byte]map[uint32][]byte // manifest hash -> chunk index -> data

	stats   ContentStats
	statsMu sync.Mutex
}

// New creates an empty Store. A nil config uses DefaultConfig.
func New(config *Config) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	return &Store{
		config:    config,
		manifests: make(map[[HashSize]byte]*Manifest),
		chunks:    make(map[[HashSize]byte]map[uint32][]byte),
	}
}

// Add chunks path, stores it locally, and returns the manifest's content
// hash (the value a BlobTicket embeds) and the file's total size.
func (s *Store) Add(path string) (hash [HashSize]byte, size uint64, err error) {
	chunks, err := ChunkFile(path, s.config.ChunkSize)
	if err != nil {
		return hash, 0, fmt.Errorf("blobstore: add %s: %w", path, err)
	}
	manifest, err := BuildManifest(chunks, path, s.config.ChunkSize)
	if err != nil {
		return hash, 0, fmt.Errorf("blobstore: add %s: %w", path, err)
	}
	cid, err := ComputeManifestCID(manifest)
	if err != nil {
		return hash, 0, fmt.Errorf("blobstore: add %s: %w", path, err)
	}

	copy(hash[:], cid.Hash)

	s.mu.Lock()
	s.manifests[hash] = manifest
	byIndex := make(map[uint32][]byte, len(chunks))
	for i, c := range chunks {
		byIndex[uint32(i)] = c.Data
	}
	s.chunks[hash] = byIndex
	s.mu.Unlock()

	s.statsMu.Lock()
	s.stats.SuccessfulPuts++
	s.stats.TotalBytes += manifest.FileSize
	s.statsMu.Unlock()

	return hash, manifest.FileSize, nil
}

// AddBytes is Add for in-memory content.
func (s *Store) AddBytes(data []byte, filename string) (hash [HashSize]byte, size uint64, err error) {
	chunks, err := ChunkData(data, s.config.ChunkSize)
	if err != nil {
		return hash, 0, fmt.Errorf("blobstore: add bytes: %w", err)
	}
	manifest, err := BuildManifest(chunks, filename, s.config.ChunkSize)
	if err != nil {
		return hash, 0, fmt.Errorf("blobstore: add bytes: %w", err)
	}
	cid, err := ComputeManifestCID(manifest)
	if err != nil {
		return hash, 0, fmt.Errorf("blobstore: add bytes: %w", err)
	}

	copy(hash[:], cid.Hash)

	s.mu.Lock()
	s.manifests[hash] = manifest
	byIndex := make(map[uint32][]byte, len(chunks))
	for i, c := range chunks {
		byIndex[uint32(i)] = c.Data
	}
	s.chunks[hash] = byIndex
	s.mu.Unlock()

	return hash, manifest.FileSize, nil
}

// Has reports whether hash is held locally, either added or fetched.
func (s *Store) Has(hash [HashSize]byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.manifests[hash]
	return ok
}

// manifestFor returns the manifest for hash, if known.
func (s *Store) manifestFor(hash [HashSize]byte) (*Manifest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.manifests[hash]
	return m, ok
}

// chunkFor returns chunk index of the blob named by hash, if known.
func (s *Store) chunkFor(hash [HashSize]byte, index uint32) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byIndex, ok := s.chunks[hash]
	if !ok {
		return nil, false
	}
	data, ok := byIndex[index]
	return data, ok
}

// storeFetched records a manifest and its chunks pulled from a remote
// provider, so this node can in turn serve them (spec.md §4.7's transfer
// ends with "the file now resident locally").
func (s *Store) storeFetched(hash [HashSize]byte, manifest *Manifest, chunks map[uint32][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[hash] = manifest
	s.chunks[hash] = chunks
}

// Export reassembles the blob named by hash into destPath.
func (s *Store) Export(hash [HashSize]byte, destPath string) error {
	s.mu.RLock()
	manifest, ok := s.manifests[hash]
	byIndex := s.chunks[hash]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("blobstore: export: unknown hash")
	}

	chunks := make([]*Chunk, len(manifest.Chunks))
	for i, info := range manifest.Chunks {
		data, ok := byIndex[uint32(i)]
		if !ok {
			return fmt.Errorf("blobstore: export: missing chunk %d", i)
		}
		chunks[i] = &Chunk{CID: info.CID, Data: data, Size: info.Size, Offset: info.Offset}
	}

	if s.config.EnableIntegrityCheck {
		expectedCID, err := NewCIDFromHash(hash[:])
		if err != nil {
			return fmt.Errorf("blobstore: export: %w", err)
		}
		if err := VerifyChunkSequence(chunks); err != nil {
			return fmt.Errorf("blobstore: export: %w", err)
		}
		if report := VerifyContentIntegrity(manifest, chunks, &expectedCID); !report.Valid {
			return fmt.Errorf("blobstore: export: content failed integrity verification: %v", report.Errors)
		}
	}

	if err := ReconstructFile(chunks, destPath); err != nil {
		return err
	}
	if s.config.EnableIntegrityCheck {
		if result := VerifyReconstructedFile(destPath, manifest.FileSize, ""); !result.Valid {
			return fmt.Errorf("blobstore: export: reconstructed file failed verification: %s", result.Error)
		}
	}
	return nil
}

// Stats returns a copy of the store's cumulative counters.
func (s *Store) Stats() ContentStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}
