package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brackenforge/meshchat/pkg/identity"
	"github.com/brackenforge/meshchat/pkg/membership"
)

type closeRecorder struct {
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

type errCloser struct {
	err error
}

func (c *errCloser) Close() error { return c.err }

func newTestSession(t *testing.T) *Session {
	t.Helper()
	id, err := identity.Generate()
	if err != nil {
		t.Fatalf("identity.Generate: %v", err)
	}
	return &Session{
		ID:       id,
		Name:     "tester",
		Registry: membership.New(),
		Sender:   stubSender{},
		Log:      slog.New(slog.DiscardHandler),
	}
}

type stubSender struct{}

func (stubSender) Broadcast(frame []byte) error { return nil }

// TestRun_SubscribeEndCancelsInput verifies that when the event stream
// ends, the input driver's still-blocked stdin read is abandoned and Run
// returns promptly, closing the router (spec.md §4.8).
func TestRun_SubscribeEndCancelsInput(t *testing.T) {
	s := newTestSession(t)
	events := make(chan Event)
	close(events) // subscribe driver returns immediately

	stdinR, stdinW := io.Pipe()
	defer stdinW.Close()

	router := &closeRecorder{}

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), s, events, stdinR, router) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the subscribe driver ended")
	}

	if !router.closed {
		t.Error("router.Close was not called")
	}
}

// TestRun_PropagatesRouterCloseError verifies Run surfaces a router close
// error when the drivers themselves returned no error.
func TestRun_PropagatesRouterCloseError(t *testing.T) {
	s := newTestSession(t)
	events := make(chan Event)
	close(events)

	stdinR, stdinW := io.Pipe()
	defer stdinW.Close()

	wantErr := errors.New("close failed")
	router := &errCloser{err: wantErr}

	err := Run(context.Background(), s, events, stdinR, router)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run err = %v, want %v", err, wantErr)
	}
}
