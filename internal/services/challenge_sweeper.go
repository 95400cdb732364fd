package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ChallengeSweeperConfig holds configuration for the expiry sweep
type ChallengeSweeperConfig struct {
	// Interval is how often expired challenges are settled (default: 1h)
	Interval time.Duration
}

// DefaultChallengeSweeperConfig returns sensible defaults
func DefaultChallengeSweeperConfig() ChallengeSweeperConfig {
	return ChallengeSweeperConfig{Interval: time.Hour}
}

// SweepResult counts the transitions made by one sweep.
type SweepResult struct {
	Completed int
	Failed    int
	Errors    int
}

// ChallengeSweeper periodically settles active challenges whose end date
// has passed.
type ChallengeSweeper struct {
	challenges core.ChallengeRepository
	tracker    *ChallengeTracker
	config     ChallengeSweeperConfig
	now        func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewChallengeSweeper(challenges core.ChallengeRepository, tracker *ChallengeTracker, config ChallengeSweeperConfig) *ChallengeSweeper {
	return &ChallengeSweeper{
		challenges: challenges,
		tracker:    tracker,
		config:     config,
		now:        time.Now,
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (s *ChallengeSweeper) Start(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %v", s.config.Interval)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("challenge sweeper is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Challenge sweeper started", log.FieldComponent, log.ComponentSweeper, "interval", s.config.Interval)
	return nil
}

// Stop gracefully stops the sweeper and waits for the current sweep.
func (s *ChallengeSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Challenge sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Challenge sweeper stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the sweeper is currently running
func (s *ChallengeSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ChallengeSweeper) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.sweepAndLog(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *ChallengeSweeper) sweepAndLog(ctx context.Context) {
	result, err := s.Sweep(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Challenge sweep failed",
			log.FieldComponent, log.ComponentSweeper,
			log.FieldOperation, log.OpSweep,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		return
	}
	if result.Completed+result.Failed+result.Errors > 0 {
		slog.InfoContext(ctx, "Challenge sweep finished",
			log.FieldComponent, log.ComponentSweeper,
			log.FieldOperation, log.OpSweep,
			"completed", result.Completed,
			"failed", result.Failed,
			"errors", result.Errors)
	}
}

// Sweep settles every expired active challenge once. Errors on individual
// challenges are logged and counted; the sweep continues with the rest.
func (s *ChallengeSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	expired, err := s.challenges.ListExpiredChallenges(ctx, s.now().UTC())
	if err != nil {
		return result, fmt.Errorf("list expired challenges: %w", err)
	}

	for _, c := range expired {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		status, err := s.tracker.Settle(ctx, c)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to settle challenge",
				log.FieldComponent, log.ComponentSweeper,
				log.FieldOperation, log.OpSweep,
				log.FieldErrorType, log.ErrorTypeDatabase,
				log.FieldChallengeID, c.ID,
				log.FieldOwnerID, c.OwnerID,
				log.FieldError, err)
			result.Errors++
			continue
		}
		switch status {
		case core.StatusCompleted:
			result.Completed++
		case core.StatusFailed:
			result.Failed++
		}
	}
	return result, nil
}
