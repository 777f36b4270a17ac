// Package jobs runs the background maintenance schedule: currently a
// single sweep that removes expired chunked-upload sessions and their
// temp directories.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/domain/upload"
)

type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.Config
	uploads *upload.Service
	log     zerolog.Logger
}

func NewScheduler(cfg *config.Config, uploads *upload.Service, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		uploads: uploads,
		log:     log.With().Str("component", "jobs").Logger(),
	}
}

// Start registers the cleanup sweep and begins the schedule. The schedule
// string accepts standard cron syntax plus @every descriptors.
func (s *Scheduler) Start() error {
	if s.cfg.CleanupSchedule == "" {
		s.log.Info().Msg("cleanup schedule disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.sweepExpiredSessions); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.cfg.CleanupSchedule).Msg("cleanup schedule started")
	return nil
}

// Stop halts scheduling and waits briefly for a running sweep to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("timed out waiting for running jobs")
	}
}

func (s *Scheduler) sweepExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed := s.uploads.CleanupExpired(ctx)
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("expired upload sessions swept")
	}
}
