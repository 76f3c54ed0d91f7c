package service

import (
	"context"
	"time"

	"roster-bot/pkg/workerpool"
)

// Progress of a CSV upload. Simulated is always true: the percentage is a
// client-side ramp, not a measurement.
type Progress struct {
	Percent   int
	Simulated bool
	Done      bool
}

type ProgressFunc func(Progress)

// Ramp advances Step points every Tick up to Cap while waiting, then jumps
// to 100 when the awaited result succeeds.
type Ramp struct {
	Tick time.Duration
	Step int
	Cap  int
}

func DefaultRamp() Ramp {
	return Ramp{Tick: 200 * time.Millisecond, Step: 5, Cap: 95}
}

func (r Ramp) normalized() Ramp {
	def := DefaultRamp()
	if r.Tick <= 0 {
		r.Tick = def.Tick
	}
	if r.Step <= 0 {
		r.Step = def.Step
	}
	if r.Cap <= 0 || r.Cap >= 100 {
		r.Cap = def.Cap
	}
	return r
}

// Drive emits 0, the ramp, and a terminal 100 on success. All emissions happen
// on the calling goroutine and the ticker is stopped before the terminal one.
func (r Ramp) Drive(ctx context.Context, resC <-chan workerpool.Result, onProgress ProgressFunc) (any, error) {
	r = r.normalized()
	emit := func(p Progress) {
		if onProgress != nil {
			p.Simulated = true
			onProgress(p)
		}
	}

	percent := 0
	emit(Progress{Percent: percent})
	ticker := time.NewTicker(r.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			next := percent + r.Step
			if next > r.Cap {
				next = r.Cap
			}
			if next != percent {
				percent = next
				emit(Progress{Percent: percent})
			}
		case res := <-resC:
			ticker.Stop()
			if res.Err != nil {
				return nil, res.Err
			}
			emit(Progress{Percent: 100, Done: true})
			return res.Value, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
