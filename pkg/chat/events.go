package chat

import "github.com/brackenforge/meshchat/pkg/constants"

// EventKind discriminates the values the gossip collaborator delivers to
// the Subscribe Driver (spec.md §4.4). This is pkg/chat's own vocabulary,
// independent of internal/gossipnet's concrete event type, so CORE stays
// collaborator-agnostic (spec.md §1); callers translate the collaborator's
// events into this shape (see cmd/meshchat).
type EventKind int

const (
	EventJoined EventKind = iota
	EventNeighborUp
	EventNeighborDown
	EventReceived
	EventLagged
)

// Event is one item off the gossip event stream.
type Event struct {
	Kind  EventKind
	Peer  [constants.NodeIDSize]byte
	Frame []byte // set only for EventReceived
}
