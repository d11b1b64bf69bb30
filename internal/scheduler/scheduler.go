package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"phishsim/internal/core/port"
)

// Status is the scheduler lifecycle state.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// ErrAlreadyRunning is returned by Start when the scheduler is running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Config tunes the polling loop. Zero values fall back to the defaults.
type Config struct {
	// Interval is the fixed polling period. Default 60s.
	Interval time.Duration
	// Backoff is the base delay added per consecutive infrastructure
	// failure (linear). Default 10s.
	Backoff time.Duration
	// MaxBackoff caps the failure delay. Default 5m.
	MaxBackoff time.Duration
	// MaxFailures is the consecutive-failure threshold after which the
	// scheduler stops itself instead of looping against a dead dependency.
	// Default 5.
	MaxFailures int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.Backoff <= 0 {
		c.Backoff = 10 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	return c
}

// Scheduler polls for campaigns whose send time has arrived and launches
// the Dispatcher for each. It owns its whole lifecycle: construct once,
// Start, Stop; there is no package-level state. A campaign is atomically
// claimed (status moved to Active) before dispatch begins, so a dispatch
// that outlives a poll interval is never picked up twice. Per-campaign
// errors are logged and never stop the loop; infrastructure failures back
// off linearly and, past MaxFailures in a row, stop the scheduler entirely
// so a dead store produces one alert instead of a storm.
type Scheduler struct {
	store      port.CampaignStore
	dispatcher port.Dispatcher
	cfg        Config
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a stopped scheduler.
func New(store port.CampaignStore, dispatcher port.Dispatcher, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

// Start launches the polling loop. It returns ErrAlreadyRunning when the
// scheduler is already started. A scheduler that stopped itself after too
// many failures can be started again by the operator.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.runLoop(s.stopCh)
	s.logger.Info("scheduler started", slog.Duration("interval", s.cfg.Interval))
	return nil
}

// Stop signals the loop to exit and waits for it to drain. In-flight
// dispatches are not cancelled; they are allowed to finish. Stop is a
// no-op on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Status reports whether the loop is currently running.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return StatusRunning
	}
	return StatusStopped
}

// halt flips the scheduler to stopped from inside the loop (fail-fast
// path). The loop goroutine returns right after.
func (s *Scheduler) halt() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) runLoop(stopCh <-chan struct{}) {
	defer s.wg.Done()

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-stopCh:
			return
		case now := <-timer.C:
			if err := s.tick(now); err != nil {
				failures++
				if failures >= s.cfg.MaxFailures {
					s.logger.Error("scheduler stopping after consecutive failures",
						slog.Int("failures", failures),
						slog.Any("error", err))
					s.halt()
					return
				}
				delay := time.Duration(failures) * s.cfg.Backoff
				if delay > s.cfg.MaxBackoff {
					delay = s.cfg.MaxBackoff
				}
				s.logger.Error("scheduler tick failed, backing off",
					slog.Int("failures", failures),
					slog.Duration("delay", delay),
					slog.Any("error", err))
				timer.Reset(delay)
				continue
			}
			failures = 0
			timer.Reset(s.cfg.Interval)
		}
	}
}

// tick finds due campaigns, claims each and dispatches it. Only store
// unavailability is returned as an error; everything per-campaign is
// logged and the loop moves on.
func (s *Scheduler) tick(now time.Time) error {
	ctx := context.Background()

	due, err := s.store.ListDueCampaigns(ctx, now)
	if err != nil {
		return err
	}
	for _, camp := range due {
		claimed, err := s.store.ClaimCampaign(ctx, camp.ID)
		if err != nil {
			s.logger.Error("claim campaign",
				slog.String("campaign_id", camp.ID.String()),
				slog.Any("error", err))
			continue
		}
		if !claimed {
			continue
		}
		s.logger.Info("launching scheduled campaign",
			slog.String("campaign_id", camp.ID.String()),
			slog.String("name", camp.Name))
		if summary, err := s.dispatcher.Run(ctx, camp.ID, camp.OrganizationID); err != nil {
			s.logger.Error("campaign dispatch failed",
				slog.String("campaign_id", camp.ID.String()),
				slog.Any("error", err))
		} else {
			s.logger.Info("campaign dispatched",
				slog.String("campaign_id", camp.ID.String()),
				slog.Int("sent", summary.Sent),
				slog.Int("total", summary.Total))
		}
	}
	return nil
}
