package main

import (
	"flag"
	"log/slog"
	"strings"
)

// relayURLs collects repeated --relay-url flags (spec.md §6). "none"
// disables the default relay set outright.
type relayURLs struct {
	values []string
	none   bool
}

func (r *relayURLs) String() string {
	return strings.Join(r.values, ",")
}

func (r *relayURLs) Set(v string) error {
	if v == "none" {
		r.none = true
		r.values = nil
		return nil
	}
	if !r.none {
		r.values = append(r.values, v)
	}
	return nil
}

// sharedFlags are the flags common to both "open" and "join" (spec.md §6).
type sharedFlags struct {
	name        string
	relayURLs   relayURLs
	configPath  string
	verbose     bool
	writeTicket string
}

func (f *sharedFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "display name (required)")
	fs.Var(&f.relayURLs, "relay-url", "relay URL to seed (repeatable; \"none\" disables defaults)")
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.BoolVar(&f.verbose, "verbose", false, "enable debug logging")
	fs.StringVar(&f.writeTicket, "write-ticket", "", "write this session's ticket to a file")
}

// applyVerbosity raises the default logger's level when --verbose is set
// (spec.md §6; SPEC_FULL.md's logging section).
func (f *sharedFlags) applyVerbosity(level *slog.LevelVar) {
	if f.verbose {
		level.Set(slog.LevelDebug)
	}
}
