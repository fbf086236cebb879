package chat

import (
	"context"
	"io"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
)

// Run wires the two driver loops and fans them in: whichever finishes
// first (including an OS interrupt) cancels the other, then both are
// awaited to completion before gossip is torn down (spec.md §4.8).
// router is the gossip collaborator's Close method, called once both
// drivers have returned.
func Run(ctx context.Context, s *Session, events <-chan Event, stdin io.Reader, router io.Closer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)

	// Either driver returning — for any reason, not just an error —
	// ends the session: cancel the shared context so the other driver
	// unwinds too (spec.md §4.8's "first of task1/task2/interrupt
	// cancels the token"). stop() cancels gctx since it derives from
	// the NotifyContext it came from.
	group.Go(func() error {
		defer stop()
		return RunSubscribeDriver(gctx, s, events)
	})
	group.Go(func() error {
		defer stop()
		return RunInputDriver(gctx, s, stdin)
	})

	err := group.Wait()
	if closeErr := router.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
