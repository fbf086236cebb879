// Package gossipnet is the gossip collaborator spec.md §1 describes as
// out of scope: a flood-relay overlay that carries sealed wire frames
// between every node on a topic. It is the only package that dials or
// accepts connections on behalf of the chat session.
package gossipnet

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/brackenforge/meshchat/internal/p2pnet"
	"github.com/brackenforge/meshchat/internal/p2pnet/quic"
	"github.com/brackenforge/meshchat/pkg/constants"
	"github.com/brackenforge/meshchat/pkg/identity"
	"github.com/brackenforge/meshchat/pkg/wire"
)

// EventKind discriminates the values an Endpoint delivers on its event
// channel (spec.md §4.4).
type EventKind int

const (
	// EventJoined fires once, after the endpoint starts listening and has
	// begun dialing the ticket's seed peers.
	EventJoined EventKind = iota
	// EventNeighborUp fires when a peer connection completes its hello
	// handshake.
	EventNeighborUp
	// EventNeighborDown fires when a peer connection ends, for any reason.
	EventNeighborDown
	// EventReceived carries one still-sealed frame from a peer.
	EventReceived
	// EventLagged fires when the event channel could not keep up and a
	// receive was dropped.
	EventLagged
)

// Event is one item off an Endpoint's event channel.
type Event struct {
	Kind  EventKind
	Peer  [constants.NodeIDSize]byte
	Frame []byte // set only for EventReceived
}

// Sender broadcasts a sealed frame to every currently-connected neighbor.
type Sender interface {
	Broadcast(frame []byte) error
}

// Endpoint is a QUIC-backed flood-relay gossip node: every frame it
// receives from one neighbor is relayed to every other neighbor, so a
// fully-connected mesh is not required for a message to reach the whole
// topic (spec.md §6's "p2p endpoint" collaborator).
type Endpoint struct {
	id         *identity.Identity
	transport  p2pnet.Transport
	tlsConfig  *tls.Config
	listenAddr string

	mu       sync.Mutex
	peers    map[[constants.NodeIDSize]byte]*peerConn
	boundMu  sync.RWMutex
	boundStr string

	seenMu  sync.Mutex
	seen    map[[32]byte]time.Time
	seenTTL time.Duration

	events chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

type peerConn struct {
	id   [constants.NodeIDSize]byte
	conn p2pnet.Conn
	mu   sync.Mutex // serializes writes
}

// NewEndpoint prepares an Endpoint bound to id, listening for incoming
// connections on listenAddr (host:port, or ":0" for an ephemeral port).
func NewEndpoint(id *identity.Identity, listenAddr string) (*Endpoint, error) {
	tlsConfig, err := p2pnet.SelfSignedTLSConfig(id.NodeIDHex())
	if err != nil {
		return nil, err
	}
	return &Endpoint{
		id:         id,
		transport:  quic.New(),
		tlsConfig:  tlsConfig,
		listenAddr: listenAddr,
		peers:      make(map[[constants.NodeIDSize]byte]*peerConn),
		seen:       make(map[[32]byte]time.Time),
		seenTTL:    10 * time.Minute,
		events:     make(chan Event, constants.GossipEventQueue),
		closed:     make(chan struct{}),
	}, nil
}

// SubscribeAndJoin starts listening, dials every seed peer named in
// ticket (skipping itself), and returns a Sender plus the endpoint's
// event channel. It returns once the listener is up; dialing seed peers
// continues in the background and surfaces as NeighborUp events (or is
// silently skipped on dial failure — spec.md §6 treats an unreachable
// seed as "join anyway, pick up the rest of the mesh by relay").
func (e *Endpoint) SubscribeAndJoin(ctx context.Context, ticket wire.TopicTicket) (Sender, <-chan Event, error) {
	listener, err := e.transport.Listen(ctx, e.listenAddr, e.tlsConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("gossipnet: listen on %s: %w", e.listenAddr, err)
	}
	e.boundMu.Lock()
	e.boundStr = listener.Addr().String()
	e.boundMu.Unlock()

	go e.acceptLoop(ctx, listener)
	go e.cleanupLoop(ctx)

	self := e.id.NodeID()
	for _, addr := range ticket.Nodes {
		nodeID := addr.NodeIDArray()
		if nodeID == self || len(addr.DirectAddresses) == 0 {
			continue
		}
		go e.dial(ctx, nodeID, addr.DirectAddresses[0])
	}

	e.emit(Event{Kind: EventJoined})
	return e, e.events, nil
}

func (e *Endpoint) acceptLoop(ctx context.Context, listener p2pnet.Listener) {
	defer listener.Close()
	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-e.closed:
				return
			default:
				continue
			}
		}
		go e.handshakeAndServe(conn)
	}
}

func (e *Endpoint) dial(ctx context.Context, expect [constants.NodeIDSize]byte, addr string) {
	conn, err := e.transport.Dial(ctx, addr, e.tlsConfig)
	if err != nil {
		return
	}
	peerID, err := e.hello(conn)
	if err != nil {
		conn.Close()
		return
	}
	if peerID != expect {
		conn.Close()
		return
	}
	e.serve(peerID, conn)
}

func (e *Endpoint) handshakeAndServe(conn p2pnet.Conn) {
	peerID, err := e.hello(conn)
	if err != nil {
		conn.Close()
		return
	}
	e.serve(peerID, conn)
}

// hello exchanges bare 32-byte node ids so each side can name its peer
// before any sealed frame flows. It is not itself a security boundary:
// every frame that follows is independently signed and verified by
// pkg/wire.Open.
func (e *Endpoint) hello(conn p2pnet.Conn) ([constants.NodeIDSize]byte, error) {
	var peerID [constants.NodeIDSize]byte
	conn.SetDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetDeadline(time.Time{})

	selfID := e.id.NodeID()
	writeErr := make(chan error, 1)
	go func() {
		_, err := conn.Write(selfID[:])
		writeErr <- err
	}()

	if _, err := io.ReadFull(conn, peerID[:]); err != nil {
		return peerID, fmt.Errorf("gossipnet: hello read: %w", err)
	}
	if err := <-writeErr; err != nil {
		return peerID, fmt.Errorf("gossipnet: hello write: %w", err)
	}
	return peerID, nil
}

func (e *Endpoint) serve(peerID [constants.NodeIDSize]byte, conn p2pnet.Conn) {
	pc := &peerConn{id: peerID, conn: conn}

	e.mu.Lock()
	if existing, ok := e.peers[peerID]; ok {
		e.mu.Unlock()
		existing.conn.Close() // keep the newer connection, drop the old
		e.mu.Lock()
	}
	e.peers[peerID] = pc
	e.mu.Unlock()

	e.emit(Event{Kind: EventNeighborUp, Peer: peerID})

	for {
		frame, err := p2pnet.ReadFrame(conn)
		if err != nil {
			break
		}
		e.handleFrame(peerID, frame)
	}

	e.mu.Lock()
	if e.peers[peerID] == pc {
		delete(e.peers, peerID)
	}
	e.mu.Unlock()
	conn.Close()
	e.emit(Event{Kind: EventNeighborDown, Peer: peerID})
}

func (e *Endpoint) handleFrame(from [constants.NodeIDSize]byte, frame []byte) {
	key := sha256.Sum256(frame)

	e.seenMu.Lock()
	_, dup := e.seen[key]
	e.seen[key] = time.Now()
	e.seenMu.Unlock()
	if dup {
		return
	}

	e.emit(Event{Kind: EventReceived, Peer: from, Frame: frame})
	e.relay(from, frame)
}

// relay flood-forwards frame to every neighbor except the one it arrived
// from (spec.md §6's flood-relay simplification — every node relays to
// all its peers, so a message reaches the whole topic without a
// star-vs-mesh topology distinction).
func (e *Endpoint) relay(except [constants.NodeIDSize]byte, frame []byte) {
	e.mu.Lock()
	targets := make([]*peerConn, 0, len(e.peers))
	for id, pc := range e.peers {
		if id != except {
			targets = append(targets, pc)
		}
	}
	e.mu.Unlock()

	for _, pc := range targets {
		pc.write(frame)
	}
}

// Broadcast sends frame to every currently-connected neighbor. Used by
// the chat session to publish its own messages (spec.md §4.1's Seal
// output feeding straight into the gossip endpoint).
func (e *Endpoint) Broadcast(frame []byte) error {
	key := sha256.Sum256(frame)
	e.seenMu.Lock()
	e.seen[key] = time.Now()
	e.seenMu.Unlock()

	e.mu.Lock()
	targets := make([]*peerConn, 0, len(e.peers))
	for _, pc := range e.peers {
		targets = append(targets, pc)
	}
	e.mu.Unlock()

	var firstErr error
	for _, pc := range targets {
		if err := pc.write(frame); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (pc *peerConn) write(frame []byte) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return p2pnet.WriteFrame(pc.conn, frame)
}

func (e *Endpoint) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		select {
		case e.events <- Event{Kind: EventLagged}:
		default:
		}
	}
}

func (e *Endpoint) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.closed:
			return
		case <-ticker.C:
			e.seenMu.Lock()
			now := time.Now()
			for k, t := range e.seen {
				if now.Sub(t) > e.seenTTL {
					delete(e.seen, k)
				}
			}
			e.seenMu.Unlock()
		}
	}
}

// Addr returns the address the endpoint's listener is bound to, once
// SubscribeAndJoin has started it. Used by callers that need to hand
// their own socket address to peers out of band (e.g. tests).
func (e *Endpoint) Addr() string {
	e.boundMu.RLock()
	defer e.boundMu.RUnlock()
	return e.boundStr
}

// PeerHost returns the host portion of a currently-connected peer's
// remote address, without its gossip port. The Share/Receive
// sub-protocol (spec.md §4.7) runs its own dedicated endpoint on the
// same host, reachable at this host plus that endpoint's own port.
func (e *Endpoint) PeerHost(id [constants.NodeIDSize]byte) (string, bool) {
	e.mu.Lock()
	pc, ok := e.peers[id]
	e.mu.Unlock()
	if !ok {
		return "", false
	}
	host, _, err := net.SplitHostPort(pc.conn.RemoteAddr().String())
	if err != nil {
		return "", false
	}
	return host, true
}

// Close tears down every current peer connection and stops the
// seen-frame cleanup loop. It does not close the listener: the accept
// loop keeps running until the context given to SubscribeAndJoin is
// canceled.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.closed)
		e.mu.Lock()
		for _, pc := range e.peers {
			pc.conn.Close()
		}
		e.mu.Unlock()
	})
	return nil
}
