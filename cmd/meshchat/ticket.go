package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/brackenforge/meshchat/pkg/wire"
)

// resolveTicket accepts either inline ticket text or a path to a file
// containing one (spec.md §6's "join <TICKET|PATH>").
func resolveTicket(arg string) (wire.TopicTicket, error) {
	text := arg
	if data, err := os.ReadFile(arg); err == nil {
		text = strings.TrimSpace(string(data))
	}
	return wire.DecodeTicket(text)
}

// printOrWriteTicket prints the session's ticket to stdout (openers only
// need to hand it to others) and, if writeTicketPath is set, also writes
// it to that path (spec.md §6's "--write-ticket PATH").
func printOrWriteTicket(ticket wire.TopicTicket, writeTicketPath string, isOpener bool) error {
	text, err := wire.EncodeTicket(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	if isOpener {
		fmt.Printf("ticket: %s\n", text)
	}
	if writeTicketPath != "" {
		if err := os.WriteFile(writeTicketPath, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write ticket to %s: %w", writeTicketPath, err)
		}
	}
	return nil
}

// portOf extracts the numeric port from a "host:port" listen address, as
// used to resolve an operator-overridden blob.listen config value.
func portOf(addr string) (int, bool) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, false
	}
	return port, true
}
