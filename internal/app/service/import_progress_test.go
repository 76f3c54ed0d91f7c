package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-bot/pkg/workerpool"
)

func collect(seen *[]Progress) ProgressFunc {
	return func(p Progress) { *seen = append(*seen, p) }
}

func TestRamp_ClimbsMonotonicallyAndFinishesAtHundred(t *testing.T) {
	resC := make(chan workerpool.Result, 1)
	go func() {
		time.Sleep(60 * time.Millisecond)
		resC <- workerpool.Result{Value: 7}
	}()

	var seen []Progress
	v, err := Ramp{Tick: 5 * time.Millisecond, Step: 5, Cap: 95}.Drive(context.Background(), resC, collect(&seen))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	require.GreaterOrEqual(t, len(seen), 2)
	assert.Equal(t, 0, seen[0].Percent)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i].Percent, seen[i-1].Percent)
	}
	last := seen[len(seen)-1]
	assert.Equal(t, Progress{Percent: 100, Simulated: true, Done: true}, last)
	for _, p := range seen[:len(seen)-1] {
		assert.LessOrEqual(t, p.Percent, 95)
		assert.False(t, p.Done)
	}
}

func TestRamp_HoldsAtCapWhileWaiting(t *testing.T) {
	resC := make(chan workerpool.Result, 1)
	go func() {
		time.Sleep(100 * time.Millisecond)
		resC <- workerpool.Result{}
	}()

	var seen []Progress
	_, err := Ramp{Tick: time.Millisecond, Step: 30, Cap: 90}.Drive(context.Background(), resC, collect(&seen))
	require.NoError(t, err)

	percents := make([]int, 0, len(seen))
	for _, p := range seen {
		percents = append(percents, p.Percent)
	}
	assert.Equal(t, []int{0, 30, 60, 90, 100}, percents)
}

func TestRamp_FastResultSkipsTheRamp(t *testing.T) {
	resC := make(chan workerpool.Result, 1)
	resC <- workerpool.Result{Value: "ok"}

	var seen []Progress
	_, err := Ramp{Tick: time.Hour}.Drive(context.Background(), resC, collect(&seen))
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, 0, seen[0].Percent)
	assert.Equal(t, 100, seen[1].Percent)
}

func TestRamp_FailureStopsShortOfHundred(t *testing.T) {
	boom := errors.New("upload rejected")
	resC := make(chan workerpool.Result, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		resC <- workerpool.Result{Err: boom}
	}()

	var seen []Progress
	_, err := Ramp{Tick: 2 * time.Millisecond, Step: 5, Cap: 95}.Drive(context.Background(), resC, collect(&seen))
	assert.ErrorIs(t, err, boom)
	for _, p := range seen {
		assert.Less(t, p.Percent, 100)
	}
}

func TestRamp_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Ramp{Tick: time.Millisecond}.Drive(ctx, make(chan workerpool.Result), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRamp_NormalizesZeroValue(t *testing.T) {
	assert.Equal(t, DefaultRamp(), Ramp{}.normalized())
	assert.Equal(t, 95, Ramp{Cap: 150}.normalized().Cap)
}
