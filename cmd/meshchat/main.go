// Command meshchat is the peer-to-peer group chat CLI (spec.md §6):
// "open" starts a fresh topic, "join" joins an existing one, both named
// by --name and optionally seeded by a persisted signing key.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
)

// Set via -ldflags at build time, e.g.:
//
//	go build -ldflags "-X main.version=0.1.0 -X main.commitHash=$(git rev-parse --short HEAD) \
//	  -X main.commitBranch=$(git rev-parse --abbrev-ref HEAD) -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ) \
//	  -X main.commitDirty=$(git diff --quiet || echo dirty)" -o meshchat ./cmd/meshchat
var (
	version      = "dev"
	buildTime    = "unknown"
	commitHash   = "unknown"
	commitBranch = "unknown"
	commitDirty  = "unknown"
)

func main() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		printUsage()
		osExit(1)
		return
	}

	switch os.Args[1] {
	case "open":
		runOpen(os.Args[2:], level)
	case "join":
		runJoin(os.Args[2:], level)
	case "version", "--version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		osExit(1)
	}
}

func printVersion() {
	fmt.Printf("meshchat %s (%s@%s%s) built %s\n", version, commitHash, commitBranch, dirtySuffix(), buildTime)
	fmt.Printf("Go %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func dirtySuffix() string {
	if commitDirty == "dirty" {
		return "-dirty"
	}
	return ""
}

func printUsage() {
	fmt.Println("Usage: meshchat <command> [options]")
	fmt.Println()
	fmt.Println("  open  --name NAME [--relay-url URL ...] [--config PATH] [--write-ticket PATH] [--verbose]")
	fmt.Println("        Start a fresh topic and print its ticket.")
	fmt.Println()
	fmt.Println("  join <TICKET|PATH> --name NAME [--relay-url URL ...] [--config PATH] [--write-ticket PATH] [--verbose]")
	fmt.Println("        Join an existing topic named by a ticket (inline text or a path to a file containing one).")
	fmt.Println()
	fmt.Println("  version           Show build information.")
	fmt.Println()
	fmt.Println("Once running, lines typed on stdin are broadcast as chat; lines starting with")
	fmt.Println("'::' are commands: ::quit, ::me, ::members, ::run <argv...>, ::send_file <path>,")
	fmt.Println("::share_file <path>, ::receive_file <ticket> <path>.")
	fmt.Printf("\nmeshchat %s (%s@%s%s) built %s\n", version, commitHash, commitBranch, dirtySuffix(), buildTime)
}
