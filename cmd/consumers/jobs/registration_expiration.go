package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultCheckInterval = 30 * time.Second

// Expirer переводит просроченные pending-регистрации в failed
type Expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// RegistrationExpirationJob периодически освобождает билеты неоплаченных регистраций
type RegistrationExpirationJob struct {
	expirer  Expirer
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewRegistrationExpirationJob(expirer Expirer, interval time.Duration) *RegistrationExpirationJob {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &RegistrationExpirationJob{
		expirer:  expirer,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the background job; the first check runs immediately
func (j *RegistrationExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting registration expiration job", "check_interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)
	j.wg.Add(1)

	go func() {
		defer j.wg.Done()
		j.checkExpired(ctx)

		for {
			select {
			case <-j.ticker.C:
				j.checkExpired(ctx)
			case <-ctx.Done():
				return
			case <-j.done:
				slog.Info("Registration expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job and waits for the running check
func (j *RegistrationExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
	j.wg.Wait()
}

func (j *RegistrationExpirationJob) checkExpired(ctx context.Context) {
	expired, err := j.expirer.ExpireStale(ctx)
	if err != nil {
		slog.Error("Failed to expire registrations", "error", err)
		return
	}

	if expired == 0 {
		slog.Debug("No expired registrations found")
		return
	}
	slog.Info("Expired stale registrations", "count", expired)
}
