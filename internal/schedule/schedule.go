// Package schedule runs a job once a day at a fixed wall-clock time.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Daily fires at Hour:Minute in Location every day.
type Daily struct {
	Hour     int
	Minute   int
	Location *time.Location

	// now and after are replaced in tests.
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// ParseDaily parses an "HH:MM" clock time.
func ParseDaily(clock string, loc *time.Location) (Daily, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return Daily{}, fmt.Errorf("invalid schedule time %q: %w", clock, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return Daily{Hour: t.Hour(), Minute: t.Minute(), Location: loc}, nil
}

// String returns the schedule as "HH:MM Zone".
func (d Daily) String() string {
	return fmt.Sprintf("%02d:%02d %s", d.Hour, d.Minute, d.Location)
}

// Next returns the first firing time strictly after t.
func (d Daily) Next(t time.Time) time.Time {
	local := t.In(d.Location)
	y, m, day := local.Date()
	next := time.Date(y, m, day, d.Hour, d.Minute, 0, 0, d.Location)
	if !next.After(local) {
		next = time.Date(y, m, day+1, d.Hour, d.Minute, 0, 0, d.Location)
	}
	return next
}

// Run calls job at every firing time until ctx is cancelled. It returns nil
// on cancellation.
func (d Daily) Run(ctx context.Context, logger *slog.Logger, job func(ctx context.Context, now time.Time)) error {
	now := d.now
	if now == nil {
		now = time.Now
	}
	after := d.after
	if after == nil {
		after = time.After
	}

	for {
		if ctx.Err() != nil {
			logger.Info("scheduler stopped")
			return nil
		}

		next := d.Next(now())
		logger.Info("next run scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return nil
		case <-after(next.Sub(now())):
		}

		job(ctx, now().In(d.Location))
	}
}
