package main

import (
	"context"
	"flag"
	"log/slog"
)

// runJoin implements "meshchat join <TICKET|PATH>": resolve the ticket,
// then run the session as a joiner (spec.md §6).
func runJoin(args []string, level *slog.LevelVar) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	f := &sharedFlags{}
	f.register(fs)
	fs.Parse(args)
	// The flag package stops at the first positional argument; collect it
	// and keep parsing, so flags may come after the ticket as well.
	var positional []string
	for fs.NArg() > 0 {
		positional = append(positional, fs.Arg(0))
		fs.Parse(fs.Args()[1:])
	}
	if f.name == "" {
		fatal("meshchat join: --name is required")
		return
	}
	if len(positional) != 1 {
		fatal("meshchat join: expected exactly one <TICKET|PATH> argument")
		return
	}
	f.applyVerbosity(level)

	ticket, err := resolveTicket(positional[0])
	if err != nil {
		fatal("meshchat join: %v", err)
		return
	}

	// chat.Run (via its Supervisor) installs its own interrupt-triggered
	// cancellation around this context (spec.md §4.8).
	code := runSession(context.Background(), f, ticket, false)
	if code != 0 {
		osExit(code)
	}
}
