package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExpirer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeExpirer) ExpireStale(context.Context) (int, error) {
	f.calls.Add(1)
	return 2, f.err
}

type countingSweeper struct{ n int }

func (c *countingSweeper) Sweep() int {
	c.n++
	return 1
}

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	exp := &fakeExpirer{}
	s := NewScheduler()
	s.AddJob(ExpireApprovalsJob(exp, time.Hour))

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return exp.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.Equal(t, int32(1), exp.calls.Load())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	assert.NotPanics(t, func() { NewScheduler().Stop() })
}

func TestRunOnce_SurvivesFailuresAndPanics(t *testing.T) {
	exp := &fakeExpirer{err: errors.New("db down")}
	sw := &countingSweeper{}

	s := NewScheduler()
	s.AddJob(Job{Name: "boom", Interval: time.Minute, Fn: func(context.Context) error { panic("boom") }})
	s.AddJob(ExpireApprovalsJob(exp, time.Minute))
	s.AddJob(SweepJob("limiters", time.Minute, sw, sw))

	s.RunOnce(context.Background())

	assert.Equal(t, int32(1), exp.calls.Load())
	assert.Equal(t, 2, sw.n)
}

func TestExecute_AppliesTimeout(t *testing.T) {
	var deadline time.Time
	s := NewScheduler()
	s.AddJob(Job{Name: "t", Interval: time.Hour, Timeout: 50 * time.Millisecond, Fn: func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}})

	s.RunOnce(context.Background())
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, time.Second)
}
