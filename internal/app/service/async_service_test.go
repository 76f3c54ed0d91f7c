package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"roster-bot/pkg/workerpool"
)

func TestAsyncService_SubmitAsync(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pool := workerpool.NewWorkerPool(1, 1)
	defer pool.Close()
	async := NewAsyncService(pool)
	ctx := context.Background()

	v, err := async.SubmitAsync(ctx, func(context.Context) (any, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	boom := errors.New("boom")
	_, err = async.SubmitAsync(ctx, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestAsyncService_SubmitAsyncStopsWaitingOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pool := workerpool.NewWorkerPool(1, 1)
	defer pool.Close()
	async := NewAsyncService(pool)

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := async.SubmitAsync(ctx, func(context.Context) (any, error) {
		<-release
		return nil, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestAsyncService_SubmitAsyncOnClosedPool(t *testing.T) {
	pool := workerpool.NewWorkerPool(1, 1)
	pool.Close()

	_, err := NewAsyncService(pool).SubmitAsync(context.Background(), func(context.Context) (any, error) { return 1, nil })
	assert.ErrorIs(t, err, workerpool.ErrClosed)
}
