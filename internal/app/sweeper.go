package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
)

// Sweeper periodically deletes channels that have been idle for too long.
type Sweeper struct {
	Channels   *ChannelService
	Notifier   core.ChannelNotifier
	Interval   time.Duration
	Inactivity time.Duration
}

func NewSweeper(channels *ChannelService, notifier core.ChannelNotifier, interval, inactivity time.Duration) *Sweeper {
	return &Sweeper{
		Channels:   channels,
		Notifier:   notifier,
		Interval:   interval,
		Inactivity: inactivity,
	}
}

// Start runs the sweep loop until ctx is done. Blocking call.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweeper").Dur("interval", s.Interval).Dur("inactivity", s.Inactivity).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns the number of channels removed.
// A missing schema is not an error: the pass is skipped silently.
func (s *Sweeper) Sweep(ctx context.Context) int {
	stale, err := s.Channels.Inactive(ctx, s.Inactivity)
	if errors.Is(err, core.ErrNotProvisioned) {
		return 0
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app.sweeper").Msg("list inactive channels")
		return 0
	}
	removed := 0
	for _, ch := range stale {
		if err := s.Channels.Delete(ctx, ch.ID, ch.AdminID); err != nil {
			if errors.Is(err, core.ErrNotProvisioned) {
				continue
			}
			log.Error().Err(err).Str("module", "app.sweeper").Str("channel", string(ch.ID)).Msg("delete inactive channel")
			continue
		}
		removed++
		if s.Notifier != nil {
			s.Notifier.ChannelDeleted(ctx, ch.ID)
		}
	}
	if removed > 0 {
		log.Info().Str("module", "app.sweeper").Int("removed", removed).Msg("swept inactive channels")
	}
	return removed
}
