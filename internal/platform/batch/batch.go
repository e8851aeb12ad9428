// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
Package batch runs independent side effects as a single joined concurrent group.

Authentication flows fan out sets of independent post-success side effects —
cache populates, durable writes, outbound mail enqueues — with no required
ordering among them. This package makes that pattern explicit: issue all
operations concurrently, join on the whole set, and fail the batch on the
first error.

# Consistency Gap

A failed batch does NOT roll back members that already completed. Partial
completion on failure is an accepted gap of the current design; upgrading it
would require a write-ahead log or outbox pattern.
*/
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Op is a single member of a joined batch.
type Op func(ctx context.Context) error

// Join runs every op concurrently and waits for all of them.
//
// The first non-nil error cancels the shared context and is returned; ops
// already in flight may still complete. A nil return guarantees every member
// succeeded.
func Join(ctx context.Context, ops ...Op) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, op := range ops {
		group.Go(func() error {
			return op(groupCtx)
		})
	}

	return group.Wait()
}
