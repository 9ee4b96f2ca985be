package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/udahub/udahub/pkg/observability"
)

// Sweeper periodically removes idle checkpoints on a cron schedule.
type Sweeper struct {
	store    CheckpointStore
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
}

// NewSweeper creates a sweeper. schedule uses cron syntax, including
// descriptors like "@hourly".
func NewSweeper(store CheckpointStore, ttl time.Duration, schedule string) *Sweeper {
	return &Sweeper{
		store:    store,
		ttl:      ttl,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.sweepOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Printf("checkpoint sweeper started schedule=%s ttl=%s", s.schedule, s.ttl)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	removed, err := s.store.Sweep(ctx, s.ttl)
	if err != nil {
		log.Printf("checkpoint sweep failed: %v", err)
		return
	}
	observability.RecordCheckpointSweep(removed)
	if removed > 0 {
		log.Printf("checkpoint sweep removed=%d", removed)
	}
}
