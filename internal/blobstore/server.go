package blobstore

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/brackenforge/meshchat/internal/p2pnet"
)

// Server answers pullRequests against a Store over the dedicated
// blob-transfer transport (spec.md §5: large-file transfer runs on its
// own endpoint, separate from the gossip connection).
type Server struct {
	store     *Store
	transport p2pnet.Transport
	tlsConfig *tls.Config

	boundMu  sync.RWMutex
	boundStr string
}

// NewServer builds a Server over transport, serving content out of store.
func NewServer(store *Store, transport p2pnet.Transport, tlsConfig *tls.Config) *Server {
	return &Server{store: store, transport: transport, tlsConfig: tlsConfig}
}

// Addr returns the address Serve is listening on, once the listener has
// come up. Used by callers that need to learn the bound address of a
// server started on an ephemeral port (e.g. tests).
func (s *Server) Addr() string {
	s.boundMu.RLock()
	defer s.boundMu.RUnlock()
	return s.boundStr
}

// Serve listens on addr until ctx is canceled, answering one pullRequest
// per accepted connection. Each connection is closed after its response
// is written — the fetcher opens a fresh connection per chunk, so there
// is no need to keep it alive for a sequence of requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := s.transport.Listen(ctx, addr, s.tlsConfig)
	if err != nil {
		return err
	}
	defer listener.Close()

	s.boundMu.Lock()
	s.boundStr = listener.Addr().String()
	s.boundMu.Unlock()

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				continue
			}
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn p2pnet.Conn) {
	defer conn.Close()

	reqBytes, err := p2pnet.ReadFrame(conn)
	if err != nil {
		return
	}
	req, err := decodeRequest(reqBytes)
	if err != nil {
		return
	}

	var hash [HashSize]byte
	if len(req.Hash) != HashSize {
		s.reject(conn, "invalid hash length")
		return
	}
	copy(hash[:], req.Hash)

	switch req.Kind {
	case requestManifest:
		manifest, ok := s.store.manifestFor(hash)
		if !ok {
			s.reject(conn, "unknown manifest")
			return
		}
		s.respond(conn, pullResponse{Manifest: manifest})

	case requestChunk:
		data, ok := s.store.chunkFor(hash, req.ChunkIndex)
		if !ok {
			s.reject(conn, "unknown chunk")
			return
		}
		s.respond(conn, pullResponse{ChunkData: data})

	default:
		s.reject(conn, "unknown request kind")
	}
}

func (s *Server) reject(conn p2pnet.Conn, reason string) {
	s.respond(conn, pullResponse{Error: reason})
}

func (s *Server) respond(conn p2pnet.Conn, resp pullResponse) {
	data, err := encodeResponse(resp)
	if err != nil {
		return
	}
	p2pnet.WriteFrame(conn, data)
}
