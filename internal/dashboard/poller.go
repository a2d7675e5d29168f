package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// PollInterval is how often running jobs are polled for realtime status.
const PollInterval = 5 * time.Second

// Watch polls the realtime endpoint for every running job each interval and
// merges the results into the snapshot. Polls for different jobs run
// concurrently; a failed poll is skipped, not retried. Watch returns nil as
// soon as no job is running, or ctx.Err() on cancellation — it never outlives
// its scope.
func (d *Dashboard) Watch(ctx context.Context, interval time.Duration, onTick func()) error {
	if interval <= 0 {
		interval = PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		running := d.running()
		if len(running) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, jobID := range running {
			jobID := jobID
			g.Go(func() error {
				st, err := d.api.GetRealtimeStatus(gctx, jobID)
				if err != nil {
					// A missed poll is not fatal; the next tick tries again.
					return nil
				}
				d.applyRealtime(st)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if onTick != nil {
			onTick()
		}
	}
}
