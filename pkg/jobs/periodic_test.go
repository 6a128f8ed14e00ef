package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodicRunsImmediatelyAndOnTrigger(t *testing.T) {
	var runs int32
	job := NewPeriodic("test", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, PeriodicConfig{Interval: time.Hour})

	job.Start(context.Background())
	defer job.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	job.Trigger()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, time.Second, 5*time.Millisecond)
}

func TestPeriodicRetriesFailedRuns(t *testing.T) {
	var runs int32
	job := NewPeriodic("test", func(context.Context) error {
		if atomic.AddInt32(&runs, 1) < 3 {
			return errors.New("feed down")
		}
		return nil
	}, PeriodicConfig{Interval: time.Hour, MaxRetries: 5, RetryDelay: time.Millisecond})

	job.Start(context.Background())
	defer job.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&runs))
}

func TestPeriodicGivesUpAfterMaxRetries(t *testing.T) {
	var runs int32
	job := NewPeriodic("test", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("feed down")
	}, PeriodicConfig{Interval: time.Hour, MaxRetries: 2, RetryDelay: time.Millisecond})

	job.Start(context.Background())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	job.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&runs))
}

func TestPeriodicStopIsIdempotent(t *testing.T) {
	job := NewPeriodic("test", func(context.Context) error { return nil }, PeriodicConfig{})
	job.Stop()
	job.Start(context.Background())
	job.Stop()
	job.Stop()
}
