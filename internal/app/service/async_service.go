package service

import (
	"context"

	"roster-bot/pkg/workerpool"
)

type AsyncService struct {
	Pool *workerpool.WorkerPool
}

func NewAsyncService(pool *workerpool.WorkerPool) *AsyncService {
	return &AsyncService{Pool: pool}
}

// Go queues fn and returns the channel its single result arrives on. fn runs
// with the caller's ctx, not the pool's.
func (a *AsyncService) Go(ctx context.Context, fn func(ctx context.Context) (any, error)) (<-chan workerpool.Result, error) {
	resCh := make(chan workerpool.Result, 1)
	err := a.Pool.Submit(ctx, workerpool.Task{
		Fn: func(context.Context) (any, error) {
			return fn(ctx)
		},
		ResultC: resCh,
	})
	if err != nil {
		return nil, err
	}
	return resCh, nil
}

// SubmitAsync queues fn and waits for its result or for ctx to end.
func (a *AsyncService) SubmitAsync(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	resCh, err := a.Go(ctx, fn)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-resCh:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
