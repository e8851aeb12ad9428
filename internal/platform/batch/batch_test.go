// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package batch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-app/sentra/internal/platform/batch"
)

/*
TestJoin_AllSucceed verifies that every member of the batch runs.
*/
func TestJoin_AllSucceed(t *testing.T) {
	var counter atomic.Int32

	increment := func(ctx context.Context) error {
		counter.Add(1)
		return nil
	}

	err := batch.Join(context.Background(), increment, increment, increment)

	require.NoError(t, err)
	assert.Equal(t, int32(3), counter.Load())
}

/*
TestJoin_FirstFailureFailsBatch verifies that one failing member fails the whole batch.
*/
func TestJoin_FirstFailureFailsBatch(t *testing.T) {
	boom := errors.New("mail broker unreachable")

	err := batch.Join(context.Background(),
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

/*
TestJoin_CompletedMembersAreNotRolledBack documents the accepted consistency gap:
members that finished before another member failed keep their effects.
*/
func TestJoin_CompletedMembersAreNotRolledBack(t *testing.T) {
	var completed atomic.Bool
	done := make(chan struct{})

	err := batch.Join(context.Background(),
		func(ctx context.Context) error {
			completed.Store(true)
			close(done)
			return nil
		},
		func(ctx context.Context) error {
			// Fail only after the sibling has committed.
			<-done
			return errors.New("durable write failed")
		},
	)

	require.Error(t, err)
	assert.True(t, completed.Load())
}

/*
TestJoin_Empty verifies that a batch with no members is a no-op.
*/
func TestJoin_Empty(t *testing.T) {
	assert.NoError(t, batch.Join(context.Background()))
}
