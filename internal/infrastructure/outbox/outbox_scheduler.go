package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Scheduler struct {
	dispatcher *Dispatcher
	interval   time.Duration
	logger     zerolog.Logger
}

func NewScheduler(d *Dispatcher, intervalSec int, logger zerolog.Logger) *Scheduler {
	if intervalSec <= 0 {
		intervalSec = 5
	}
	return &Scheduler{
		dispatcher: d,
		interval:   time.Duration(intervalSec) * time.Second,
		logger:     logger.With().Str("component", "outbox-scheduler").Logger(),
	}
}

// Start runs the dispatcher on a ticker until ctx is cancelled. The returned
// channel is closed once the loop has exited.
func (s *Scheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("outbox scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	return done
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.dispatcher.DispatchOnce(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("outbox dispatch error")
		return
	}
	if n > 0 {
		s.logger.Debug().Int("processed", n).Msg("outbox dispatch processed messages")
	}
}
