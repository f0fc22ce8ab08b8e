package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobID identifies a scheduled periodic-registration job.
type JobID string

// RegisterFunc performs one client-side self-registration attempt against a
// remote LDS. Implemented by (*Client).RegisterOnline in client.go.
type RegisterFunc func(ctx context.Context, url string) error

// Scheduler is C7: drives recurring self-registration with the OPC-UA
// doubling-until-ceiling retry policy (SPEC_FULL §4.6). At most one job may
// run per Scheduler instance, mirroring the original's one-job-per-server
// restriction.
//
// Grounded on original_source's periodicServerRegister/
// UA_Server_addPeriodicServerRegisterJob for the state machine, and on
// wudi-gateway's internal/cluster/dp/client.go for using
// cenkalti/backoff/v4 to drive a retry timer. Stock ExponentialBackOff is
// randomized and open-ended; configuring RandomizationFactor=0 and
// Multiplier=2 makes NextBackOff() deterministic (1s, 2s, 4s, ...), and the
// ceiling check against the normal interval -- which backoff/v4 has no
// concept of -- is layered on top here.
type Scheduler struct {
	mu       sync.Mutex
	active   bool
	jobID    JobID
	cancel   context.CancelFunc
	logger   *zap.Logger
	register RegisterFunc
}

func NewScheduler(register RegisterFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{register: register, logger: logger}
}

// AddPeriodicServerRegisterJob starts the periodic registration job. Returns
// BadInternalError if a job is already running (SPEC_FULL §4.6).
func (s *Scheduler) AddPeriodicServerRegisterJob(ctx context.Context, url string, interval time.Duration, delayFirst time.Duration) (JobID, StatusCode) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return "", BadInternalError
	}
	jobCtx, cancel := context.WithCancel(ctx)
	id := JobID(uuid.NewString())
	s.active = true
	s.jobID = id
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(jobCtx, url, interval, delayFirst)
	return id, Good
}

// Cancel stops the running job, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.active = false
}

func (s *Scheduler) run(ctx context.Context, url string, interval, delayFirst time.Duration) {
	if delayFirst > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delayFirst):
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	attempt := func() {
		if err := s.register(ctx, url); err != nil {
			if s.logger != nil {
				s.logger.Error("periodic self-registration failed", zap.String("url", url), zap.Error(err))
			}
			s.scheduleRetry(ctx, url, interval)
			return
		}
		// Success needs no cleanup: scheduleRetry runs synchronously on this
		// goroutine, so no retry is ever pending when a normal attempt runs.
	}

	attempt()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempt()
		}
	}
}

// scheduleRetry implements the doubling-until-ceiling policy: starting at
// 1s, doubling on each consecutive failure, stopping once the retry
// interval would meet or exceed the normal interval (the next normal tick
// takes over at that point).
func (s *Scheduler) scheduleRetry(ctx context.Context, url string, interval time.Duration) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = interval // cap growth at the ceiling so the check below ends the chain
	bo.MaxElapsedTime = 0     // we own the ceiling check, not backoff's own cutoff
	bo.Reset()                // apply InitialInterval; the constructor already reset to its default

	retryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for {
		next := bo.NextBackOff()
		if next == backoff.Stop || next >= interval {
			return
		}
		select {
		case <-retryCtx.Done():
			return
		case <-time.After(next):
		}
		if err := s.register(ctx, url); err != nil {
			if s.logger != nil {
				s.logger.Error("retry self-registration failed", zap.String("url", url), zap.Duration("next_retry", next), zap.Error(err))
			}
			continue
		}
		if s.logger != nil {
			s.logger.Info("self-registration recovered, cancelling retry schedule", zap.String("url", url))
		}
		return
	}
}
