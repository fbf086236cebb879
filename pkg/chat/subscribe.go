package chat

import (
	"context"

	"github.com/brackenforge/meshchat/pkg/identity"
	"github.com/brackenforge/meshchat/pkg/wire"
)

// RunSubscribeDriver consumes the gossip event stream until ctx is
// canceled or the stream ends (spec.md §4.4). It is the only writer of
// the membership registry; the input driver only ever reads it
// (spec.md §5).
func RunSubscribeDriver(ctx context.Context, s *Session, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventLagged:
		s.Log.Warn("gossip receiver lagged, continuing")

	case EventJoined:
		s.Log.Info("joined topic")

	case EventNeighborUp:
		s.Log.Info("neighbor up", "peer", identity.ShortID(ev.Peer))

	case EventNeighborDown:
		name, had := s.Registry.Remove(ev.Peer)
		if had {
			s.Log.Info("neighbor down", "peer", identity.ShortID(ev.Peer), "name", name)
		} else {
			s.Log.Info("neighbor down", "peer", identity.ShortID(ev.Peer))
		}

	case EventReceived:
		s.handleFrame(ctx, ev.Frame)
	}
}

// handleFrame verifies and dispatches one gossip frame (spec.md §4.1,
// §4.4). A frame that fails to open is a recoverable error: log and
// move on, never propagate past this loop (spec.md §7).
func (s *Session) handleFrame(ctx context.Context, frame []byte) {
	from, _, msg, err := wire.Open(frame)
	if err != nil {
		s.Log.Warn("unknown message", "error", err)
		return
	}

	switch msg.Kind {
	case wire.KindAboutMe:
		s.handleAboutMe(from, msg.AboutMe)
	case wire.KindBye:
		s.handleBye(from)
	case wire.KindChat:
		s.handleChat(from, msg.Chat)
	case wire.KindSendFile:
		s.handleSendFile(from, msg.SendFile)
	case wire.KindShareFile:
		s.handleShareFile(from, msg.ShareFile)
	default:
		s.Log.Warn("unknown message", "kind", msg.Kind, "from", identity.ShortID(from))
	}
}

func (s *Session) handleAboutMe(from [32]byte, about *wire.AboutMe) {
	if about == nil {
		return
	}
	if s.Registry.InsertIfAbsent(from, about.Name) {
		s.Log.Info("NewPeer", "peer", identity.ShortID(from), "name", about.Name)

		// One-shot introduction reflex: reply with our own AboutMe so a
		// peer that joined after us learns who we are too. Guarded by
		// "if absent" above so an already-known peer doesn't retrigger
		// this on every AboutMe it (re)announces, which would otherwise
		// turn into a broadcast storm (spec.md §4.4, §9).
		reply, err := s.seal(wire.NewAboutMe(s.Name))
		if err != nil {
			s.Log.Warn("failed to seal about_me reply", "error", err)
			return
		}
		if err := s.Sender.Broadcast(reply); err != nil {
			s.Log.Warn("failed to broadcast about_me reply", "error", err)
		}
	}
}

func (s *Session) handleBye(from [32]byte) {
	name, had := s.Registry.Remove(from)
	if had {
		s.Log.Info("Bye", "peer", identity.ShortID(from), "name", name)
	} else {
		s.Log.Info("Bye", "peer", identity.ShortID(from))
	}
}

func (s *Session) handleChat(from [32]byte, chat *wire.Chat) {
	if chat == nil {
		return
	}
	s.Log.Info("Message", "from", s.displayName(from), "text", chat.Text)
}

// handleSendFile writes an inline file payload in the background so a
// large write can't stall the subscribe driver's event loop (spec.md
// §4.4: "spawn a detached task").
func (s *Session) handleSendFile(from [32]byte, sf *wire.SendFile) {
	if sf == nil {
		return
	}
	entry := s.displayName(from)
	go func() {
		dest, err := writeInlineFile(s.Downloads.Root, sf.Filename, sf.Content)
		if err != nil {
			s.Log.Warn("failed to save received file", "from", entry, "filename", sf.Filename, "error", err)
			return
		}
		s.Log.Info("saved received file", "from", entry, "filename", sf.Filename, "path", dest, "size", len(sf.Content))
	}()
}

// handleShareFile only logs the advertisement; the user must run
// ::receive_file explicitly to pull it (spec.md §4.4: "do not
// auto-download").
func (s *Session) handleShareFile(from [32]byte, share *wire.ShareFile) {
	if share == nil {
		return
	}
	ticketText, err := wire.EncodeBlobTicket(share.Ticket)
	if err != nil {
		s.Log.Warn("failed to encode share_file ticket for logging", "error", err)
		return
	}
	s.Log.Info("peer shared a file", "from", s.displayName(from), "filename", share.Filename,
		"size", share.Size, "ticket", ticketText)
}

// displayName looks up a peer's registered name, falling back to the
// short-form node id when it hasn't announced one yet (spec.md §4.4).
func (s *Session) displayName(id [32]byte) string {
	if name, ok := s.Registry.Get(id); ok {
		return name
	}
	return identity.ShortID(id)
}
