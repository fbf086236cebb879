package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/brackenforge/meshchat/pkg/wire"
)

// runOpen implements "meshchat open": draw a fresh topic, print its
// ticket, and run the session as the first member (spec.md §6).
func runOpen(args []string, level *slog.LevelVar) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	f := &sharedFlags{}
	f.register(fs)
	fs.Parse(args)
	if f.name == "" {
		fatal("meshchat open: --name is required")
		return
	}
	f.applyVerbosity(level)

	topic, err := wire.NewTopic()
	if err != nil {
		fatal("meshchat open: %v", err)
		return
	}
	ticket := wire.TopicTicket{Topic: topic[:]}

	// chat.Run (via its Supervisor) installs its own interrupt-triggered
	// cancellation around this context (spec.md §4.8).
	code := runSession(context.Background(), f, ticket, true)
	if code != 0 {
		osExit(code)
	}
}
