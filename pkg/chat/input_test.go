package chat

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/brackenforge/meshchat/pkg/identity"
	"github.com/brackenforge/meshchat/pkg/membership"
	"github.com/brackenforge/meshchat/pkg/wire"
)

func TestSplitFirstSpace(t *testing.T) {
	cases := []struct {
		in        string
		wantFirst string
		wantRest  string
	}{
		{"", "", ""},
		{"::me", "::me", ""},
		{"::send_file a.txt", "::send_file", "a.txt"},
		{"hello there world", "hello", "there world"},
	}
	for _, c := range cases {
		first, rest := splitFirstSpace(c.in)
		if first != c.wantFirst || rest != c.wantRest {
			t.Errorf("splitFirstSpace(%q) = (%q, %q), want (%q, %q)", c.in, first, rest, c.wantFirst, c.wantRest)
		}
	}
}

type recordingSender struct {
	frames [][]byte
	err    error
}

func (r *recordingSender) Broadcast(frame []byte) error {
	r.frames = append(r.frames, frame)
	return r.err
}

func testDispatchSession(t *testing.T) (*Session, *recordingSender) {
	t.Helper()
	id, err := identity.Generate()
	if err != nil {
		t.Fatalf("identity.Generate: %v", err)
	}
	sender := &recordingSender{}
	return &Session{
		ID:       id,
		Name:     "tester",
		Registry: membership.New(),
		Sender:   sender,
		Log:      slog.New(slog.DiscardHandler),
	}, sender
}

func TestDispatch_Quit(t *testing.T) {
	s, sender := testDispatchSession(t)
	done := s.dispatch(context.Background(), "::quit")
	if !done {
		t.Fatal("dispatch(::quit) should signal termination")
	}
	if len(sender.frames) != 1 {
		t.Fatalf("got %d broadcast frames, want 1 (a Bye)", len(sender.frames))
	}
	_, _, msg, err := wire.Open(sender.frames[0])
	if err != nil {
		t.Fatalf("wire.Open: %v", err)
	}
	if msg.Kind != wire.KindBye {
		t.Errorf("kind = %q, want %q", msg.Kind, wire.KindBye)
	}
}

func TestDispatch_Chat(t *testing.T) {
	s, sender := testDispatchSession(t)
	done := s.dispatch(context.Background(), "hello there")
	if done {
		t.Fatal("dispatch(chat line) should not terminate the loop")
	}
	if len(sender.frames) != 1 {
		t.Fatalf("got %d broadcast frames, want 1 (a Chat)", len(sender.frames))
	}
	_, _, msg, err := wire.Open(sender.frames[0])
	if err != nil {
		t.Fatalf("wire.Open: %v", err)
	}
	if msg.Kind != wire.KindChat || msg.Chat == nil || msg.Chat.Text != "hello there" {
		t.Errorf("msg = %+v, want a Chat{Text: %q}", msg, "hello there")
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	s, sender := testDispatchSession(t)
	done := s.dispatch(context.Background(), "::bogus")
	if done {
		t.Fatal("dispatch(unknown command) should not terminate the loop")
	}
	if len(sender.frames) != 0 {
		t.Errorf("got %d broadcast frames, want 0", len(sender.frames))
	}
}

// TestRunInputDriver_QuitStopsTheLoop feeds a quit line through stdin and
// checks the driver returns without needing ctx cancellation.
func TestRunInputDriver_QuitStopsTheLoop(t *testing.T) {
	s, _ := testDispatchSession(t)
	stdin := strings.NewReader("::quit\n")

	err := RunInputDriver(context.Background(), s, stdin)
	if err != nil {
		t.Fatalf("RunInputDriver: %v", err)
	}
}

// TestRunInputDriver_ReadErrorPropagates checks that a non-EOF read
// error from the underlying reader is returned by the driver.
func TestRunInputDriver_ReadErrorPropagates(t *testing.T) {
	s, _ := testDispatchSession(t)
	err := RunInputDriver(context.Background(), s, &errReader{})
	if err == nil {
		t.Fatal("RunInputDriver: expected the reader's error to propagate")
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, io.ErrClosedPipe
}
