package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingExpirer struct {
	calls atomic.Int32
}

func (e *countingExpirer) ExpireStale(context.Context) (int, error) {
	e.calls.Add(1)
	return 0, nil
}

func TestJobRunsImmediatelyAndOnTicks(t *testing.T) {
	expirer := &countingExpirer{}
	job := NewRegistrationExpirationJob(expirer, 10*time.Millisecond)

	job.Start(context.Background())
	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()

	stopped := expirer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, expirer.calls.Load())
}
