package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/brackenforge/meshchat/pkg/identity"
	"github.com/brackenforge/meshchat/pkg/wire"
)

const (
	cmdQuit        = "::quit"
	cmdMe          = "::me"
	cmdMembers     = "::members"
	cmdRun         = "::run"
	cmdSendFile    = "::send_file"
	cmdShareFile   = "::share_file"
	cmdReceiveFile = "::receive_file"
)

// RunInputDriver reads lines from stdin until ::quit, EOF, or ctx is
// canceled (spec.md §4.5). It only ever reads the membership registry;
// the subscribe driver owns all writes to it (spec.md §5).
func RunInputDriver(ctx context.Context, s *Session, stdin io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var buffer strings.Builder
		for scanner.Scan() {
			line := scanner.Text()
			trimmed := strings.TrimRight(line, "\r\n")
			if strings.HasSuffix(trimmed, " ") {
				buffer.WriteString(strings.TrimRight(trimmed, " "))
				buffer.WriteByte('\n')
				continue
			}
			buffer.WriteString(trimmed)
			text := strings.TrimRight(buffer.String(), "\n")
			buffer.Reset()
			select {
			case lines <- text:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case text, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if s.dispatch(ctx, text) {
				return nil
			}
		}
	}
}

// dispatch runs one complete input line. It returns true when the loop
// should terminate (::quit).
func (s *Session) dispatch(ctx context.Context, text string) bool {
	command, _ := splitFirstSpace(text)

	switch command {
	case cmdQuit:
		frame, err := s.seal(wire.NewBye())
		if err != nil {
			s.Log.Warn("failed to seal bye", "error", err)
			return true
		}
		if err := s.Sender.Broadcast(frame); err != nil {
			s.Log.Warn("failed to broadcast bye", "error", err)
		}
		time.Sleep(100 * time.Millisecond) // spec.md §4.5: "sleep briefly to flush"
		return true

	case cmdMe:
		fmt.Printf("node_id=%s, name=%q\n", s.ID.NodeIDHex(), s.Name)

	case cmdMembers:
		s.printMembers()

	case cmdRun:
		s.runCommand(text)

	case cmdSendFile:
		s.cmdSendFile(text)

	case cmdShareFile:
		s.cmdShareFile(text)

	case cmdReceiveFile:
		s.cmdReceiveFile(ctx, text)

	default:
		if strings.HasPrefix(command, ":") {
			s.Log.Error("unknown command", "command", command)
			return false
		}
		s.cmdChat(text)
	}
	return false
}

func (s *Session) printMembers() {
	fmt.Printf("- %s: %q\n", s.ID.NodeIDHex(), s.Name)
	for _, m := range s.Registry.SnapshotSortedByName() {
		fmt.Printf("- %x: %q\n", m.ID, m.Name)
	}
}

func (s *Session) cmdChat(text string) {
	frame, err := s.seal(wire.NewChat(text))
	if err != nil {
		s.Log.Warn("failed to seal message", "error", err)
		return
	}
	if err := s.Sender.Broadcast(frame); err != nil {
		s.Log.Warn("failed to broadcast message", "error", err, "name", s.Name)
		return
	}
	s.Log.Info("sent message", "name", s.Name)
}

// runCommand spawns argv[1:] on a dedicated goroutine so a long-running
// subprocess can't stall the input loop (spec.md §4.5's "blocking task").
func (s *Session) runCommand(text string) {
	args, err := splitShellWords(text)
	if err != nil || len(args) < 2 {
		s.Log.Warn("::run expects: <args>...", "error", err)
		return
	}
	argv := args[1:]

	go func() {
		start := time.Now()
		cmd := exec.Command(argv[0], argv[1:]...)
		out, err := cmd.Output()
		elapsed := time.Since(start)
		if err != nil {
			stderr := ""
			if ee, ok := err.(*exec.ExitError); ok {
				stderr = string(ee.Stderr)
			}
			s.Log.Error("::run failed", "argv", argv, "elapsed", elapsed, "error", err, "stderr", stderr)
			return
		}
		s.Log.Info("::run succeeded", "argv", argv, "elapsed", elapsed, "stdout", string(out))
	}()
}

func (s *Session) cmdSendFile(text string) {
	args, err := splitShellWords(text)
	if err != nil || len(args) != 2 {
		s.Log.Warn("::send_file expects: <filepath>", "error", err)
		return
	}
	path := args[1]

	basename, content, err := readInlineFile(path)
	if err != nil {
		s.Log.Error("::send_file failed", "path", path, "error", err)
		return
	}

	frame, err := s.seal(wire.NewSendFile(basename, content))
	if err != nil {
		s.Log.Warn("failed to seal send_file", "error", err)
		return
	}
	if err := s.Sender.Broadcast(frame); err != nil {
		s.Log.Error("::send_file broadcast failed", "path", path, "error", err)
		return
	}
	s.Log.Info("::send_file broadcast ok", "path", path, "size", len(content))
}

func (s *Session) cmdShareFile(text string) {
	args, err := splitShellWords(text)
	if err != nil || len(args) != 2 {
		s.Log.Warn("::share_file expects: <filepath>", "error", err)
		return
	}
	path := args[1]
	basename := filepath.Base(path)

	// Shared on its own goroutine: hashing and chunking a large file
	// shouldn't stall the input loop (spec.md §4.5 applies the same
	// "detached task" treatment the original gives this command).
	go func() {
		hash, size, err := s.Blobs.Add(path)
		if err != nil {
			s.Log.Error("::share_file failed", "path", path, "error", err)
			return
		}

		ticket := wire.BlobTicket{NodeID: s.ID.PublicKey, Hash: hash[:], Format: "blob"}
		frame, err := s.seal(wire.NewShareFile(basename, size, ticket))
		if err != nil {
			s.Log.Warn("failed to seal share_file", "error", err)
			return
		}
		if err := s.Sender.Broadcast(frame); err != nil {
			s.Log.Error("::share_file broadcast failed", "path", path, "error", err)
			return
		}

		ticketText, err := wire.EncodeBlobTicket(ticket)
		if err != nil {
			s.Log.Warn("failed to encode share_file ticket for logging", "error", err)
			return
		}
		s.Log.Info("::share_file broadcast ok", "path", path, "size", size, "ticket", ticketText)
	}()
}

func (s *Session) cmdReceiveFile(ctx context.Context, text string) {
	args, err := splitShellWords(text)
	if err != nil || len(args) != 3 {
		s.Log.Warn("::receive_file expects: <ticket> <filepath>", "error", err)
		return
	}
	ticketText, destPath := args[1], args[2]

	ticket, err := wire.DecodeBlobTicket(ticketText)
	if err != nil {
		s.Log.Warn("::receive_file invalid ticket", "error", err)
		return
	}

	go func() {
		start := time.Now()
		addr, err := s.providerAddr(ticket.NodeIDArray())
		if err != nil {
			s.Log.Error("::receive_file failed", "path", destPath, "error", err)
			return
		}
		err = s.Blobs.Download(ctx, addr, ticket.HashArray(), destPath)
		elapsed := time.Since(start)
		if err != nil {
			s.Log.Error("::receive_file failed", "path", destPath, "elapsed", elapsed, "error", err)
			return
		}
		s.Log.Info("::receive_file ok", "path", destPath, "elapsed", elapsed, "provider", identity.ShortID(ticket.NodeIDArray()))
	}()
}

// splitFirstSpace returns the text up to (and excluding) the first space,
// and the remainder if any (spec.md §4.5's command-token split).
func splitFirstSpace(s string) (first string, rest string) {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
