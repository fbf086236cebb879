// Package membership implements the concurrent node-id -> display-name
// registry that the subscribe driver mutates and the input driver reads
// (spec.md §4.3).
package membership

import (
	"sort"
	"sync"

	"github.com/brackenforge/meshchat/pkg/constants"
)

// NodeID is the 32-byte Ed25519 public key identifying a peer.
type NodeID = [constants.NodeIDSize]byte

// Registry is a mapping node_id -> display name, guarded by a read/write
// lock: many concurrent readers (the input driver's `::members`), a
// single writer (the subscribe driver). It records no timestamps;
// "last seen" is implied purely by presence (spec.md §4.3).
type Registry struct {
	mu    sync.RWMutex
	names map[NodeID]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{names: make(map[NodeID]string)}
}

// Get returns the display name for id, if known.
func (r *Registry) Get(id NodeID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// InsertIfAbsent inserts id/name only if id is not already present,
// reporting whether the insert happened. This is the idempotence guard
// spec.md §4.4 relies on: a repeat AboutMe from a known peer must not
// re-log or re-trigger the introduction reflex.
func (r *Registry) InsertIfAbsent(id NodeID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[id]; exists {
		return false
	}
	r.names[id] = name
	return true
}

// Remove deletes id from the registry, if present, returning its last
// known display name.
func (r *Registry) Remove(id NodeID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[id]
	if ok {
		delete(r.names, id)
	}
	return name, ok
}

// Member is one entry of a membership snapshot.
type Member struct {
	ID   NodeID
	Name string
}

// SnapshotSortedByName returns every known member, sorted by display
// name (spec.md §4.3, §8 scenario S2).
func (r *Registry) SnapshotSortedByName() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, 0, len(r.names))
	for id, name := range r.names {
		out = append(out, Member{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return string(out[i].ID[:]) < string(out[j].ID[:])
	})
	return out
}

// Len returns the number of known members.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
