package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/brackenforge/meshchat/internal/blobstore"
	"github.com/brackenforge/meshchat/internal/config"
	"github.com/brackenforge/meshchat/internal/gossipnet"
	"github.com/brackenforge/meshchat/internal/p2pnet"
	"github.com/brackenforge/meshchat/internal/p2pnet/tcp"
	"github.com/brackenforge/meshchat/pkg/chat"
	"github.com/brackenforge/meshchat/pkg/constants"
	"github.com/brackenforge/meshchat/pkg/identity"
	"github.com/brackenforge/meshchat/pkg/membership"
	"github.com/brackenforge/meshchat/pkg/wire"
)

// blobs composes the store's local-content surface and the fetcher's
// remote-pull surface into the one interface pkg/chat depends on
// (chat.Blobs); the two concrete types come from the same collaborator
// package but serve different halves of spec.md §4.7's Share/Receive.
type blobs struct {
	*blobstore.Store
	*blobstore.Fetcher
}

// resolveIdentity loads a persisted key from cfg if present, otherwise
// generates a fresh one and persists it back when --config named a path
// (spec.md §3, §6).
func resolveIdentity(cfg *config.Config, configPath string) (*identity.Identity, error) {
	if seed, ok, err := cfg.SecretKeySeed(); err != nil {
		return nil, err
	} else if ok {
		return identity.FromSeed(seed)
	}

	id, err := identity.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	if configPath != "" {
		if err := config.PersistSecretKey(configPath, id.Seed()); err != nil {
			return nil, fmt.Errorf("persist identity: %w", err)
		}
	}
	return id, nil
}

// runSession opens the gossip and blob endpoints, builds the chat
// session, and runs the supervisor until shutdown (spec.md §4.8). It
// returns the process exit code.
func runSession(ctx context.Context, f *sharedFlags, ticket wire.TopicTicket, isOpener bool) int {
	log := slog.Default()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fatal("meshchat: %v", err)
		return 1
	}

	id, err := resolveIdentity(cfg, f.configPath)
	if err != nil {
		fatal("meshchat: %v", err)
		return 1
	}

	if !f.relayURLs.none && len(f.relayURLs.values) > 0 {
		log.Warn("relay-url flags accepted but unused: this implementation dials seed peers directly and does not relay", "relay_urls", f.relayURLs.values)
	}

	endpoint, err := gossipnet.NewEndpoint(id, ":0")
	if err != nil {
		fatal("meshchat: open gossip endpoint: %v", err)
		return 1
	}

	sender, events, err := endpoint.SubscribeAndJoin(ctx, ticket)
	if err != nil {
		endpoint.Close()
		fatal("meshchat: join topic: %v", err)
		return 1
	}

	if isOpener {
		// The listener is bound inside SubscribeAndJoin; only now does
		// endpoint.Addr() have a real port to publish (spec.md §6's
		// ticket carries the opener's own address as the first seed).
		ticket.Nodes = []wire.NodeAddr{{NodeID: id.PublicKey, DirectAddresses: []string{endpoint.Addr()}}}
	}

	if err := printOrWriteTicket(ticket, f.writeTicket, isOpener); err != nil {
		endpoint.Close()
		fatal("meshchat: %v", err)
		return 1
	}

	store := blobstore.New(nil)
	// Every node in the mesh binds its blob endpoint to the same
	// conventional port unless overridden; a BlobTicket names only a
	// node id (spec.md §3), not an address, so the Share/Receive
	// sub-protocol resolves a provider by combining its gossip peer
	// host with this shared port (see chat.Session.providerAddr). A node
	// that overrides blob.listen to a non-default port becomes
	// unreachable to peers still assuming the default: there is no
	// discovery mechanism to propagate a custom port, consistent with
	// NAT traversal being out of scope (spec.md §1).
	resolvedBlobPort := constants.DefaultBlobPort
	blobListen := fmt.Sprintf(":%d", resolvedBlobPort)
	if cfg.Blob.Listen != "" {
		blobListen = cfg.Blob.Listen
		if p, ok := portOf(blobListen); ok {
			resolvedBlobPort = p
		}
	}
	blobTLS, err := p2pnet.SelfSignedTLSConfig(id.NodeIDHex())
	if err != nil {
		endpoint.Close()
		fatal("meshchat: %v", err)
		return 1
	}
	blobTransport := tcp.New()
	blobServer := blobstore.NewServer(store, blobTransport, blobTLS)

	blobCtx, stopBlob := context.WithCancel(ctx)
	defer stopBlob()
	go func() {
		if err := blobServer.Serve(blobCtx, blobListen); err != nil {
			log.Warn("blob server stopped", "error", err)
		}
	}()

	fetcherTLS, err := p2pnet.SelfSignedTLSConfig(id.NodeIDHex() + "-fetch")
	if err != nil {
		endpoint.Close()
		fatal("meshchat: %v", err)
		return 1
	}
	fetcher := blobstore.NewFetcher(store, blobTransport, fetcherTLS)

	session := &chat.Session{
		ID:       id,
		Name:     f.name,
		Registry: membership.New(),
		Sender:   sender,
		Peers:    endpoint,
		Blobs:    &blobs{Store: store, Fetcher: fetcher},
		BlobPort: resolvedBlobPort,
		Downloads: chat.DownloadLayout{
			Root: cfg.Download.Dir,
		},
		Log: log,
	}

	chatEvents := adaptEvents(ctx, events)

	if err := chat.Run(ctx, session, chatEvents, os.Stdin, endpoint); err != nil {
		log.Error("session ended with an error", "error", err)
		return 0 // spec.md §6: normal shutdown, including after Ctrl-C, exits 0
	}
	return 0
}

// adaptEvents translates internal/gossipnet's event vocabulary into
// pkg/chat's own, keeping CORE free of a direct collaborator dependency
// (spec.md §1; SPEC_FULL.md's module-boundary section).
func adaptEvents(ctx context.Context, in <-chan gossipnet.Event) <-chan chat.Event {
	out := make(chan chat.Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				mapped := chat.Event{Peer: ev.Peer, Frame: ev.Frame}
				switch ev.Kind {
				case gossipnet.EventJoined:
					mapped.Kind = chat.EventJoined
				case gossipnet.EventNeighborUp:
					mapped.Kind = chat.EventNeighborUp
				case gossipnet.EventNeighborDown:
					mapped.Kind = chat.EventNeighborDown
				case gossipnet.EventReceived:
					mapped.Kind = chat.EventReceived
				case gossipnet.EventLagged:
					mapped.Kind = chat.EventLagged
				}
				select {
				case out <- mapped:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
