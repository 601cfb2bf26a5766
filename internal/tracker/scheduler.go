package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adlens/meta-ads-monitor/internal/config"
	"github.com/adlens/meta-ads-monitor/internal/pkg/logger"
)

// trigger is one recurring job: when it is due, run fires and reschedule
// computes the next due time.
type trigger struct {
	name       string
	next       time.Time
	reschedule func(after time.Time) time.Time
	run        func(ctx context.Context) error
}

// Scheduler drives the tracker on a fixed cadence: an immediate run at
// startup, then an hourly ad set refresh plus collection, a daily report
// and a weekly summary, each checked once per tick.
type Scheduler struct {
	tracker  *Tracker
	cfg      config.ScheduleConfig
	now      func() time.Time
	triggers []*trigger
}

// NewScheduler builds the trigger list from the schedule configuration.
// Empty daily or weekly settings disable those triggers.
func NewScheduler(t *Tracker, cfg config.ScheduleConfig) *Scheduler {
	s := &Scheduler{tracker: t, cfg: cfg, now: time.Now}

	start := s.now()

	s.triggers = append(s.triggers, &trigger{
		name: "refresh",
		next: start.Add(cfg.Refresh()),
		reschedule: func(after time.Time) time.Time {
			return after.Add(cfg.Refresh())
		},
		run: func(ctx context.Context) error {
			if err := t.RefreshAdSets(ctx); err != nil {
				return err
			}
			return t.CollectAndPublish(ctx)
		},
	})

	if cfg.DailyReportAt != "" {
		if hh, mm, err := parseClock(cfg.DailyReportAt); err != nil {
			logger.Error("scheduler: invalid daily_report_at, trigger disabled",
				"value", cfg.DailyReportAt, "error", err.Error())
		} else {
			s.triggers = append(s.triggers, &trigger{
				name: "daily_report",
				next: nextDailyAt(start, hh, mm),
				reschedule: func(after time.Time) time.Time {
					return nextDailyAt(after, hh, mm)
				},
				run: t.CollectAndPublish,
			})
		}
	}

	if cfg.WeeklySummaryOn != "" {
		weekday, wdErr := parseWeekday(cfg.WeeklySummaryOn)
		hh, mm, clockErr := parseClock(cfg.WeeklySummaryAt)
		if wdErr != nil || clockErr != nil {
			logger.Error("scheduler: invalid weekly summary schedule, trigger disabled",
				"on", cfg.WeeklySummaryOn, "at", cfg.WeeklySummaryAt)
		} else {
			s.triggers = append(s.triggers, &trigger{
				name: "weekly_summary",
				next: nextWeeklyAt(start, weekday, hh, mm),
				reschedule: func(after time.Time) time.Time {
					return nextWeeklyAt(after, weekday, hh, mm)
				},
				run: t.PublishWeeklySummary,
			})
		}
	}

	return s
}

// Run blocks until the context is cancelled. The first collection happens
// immediately, then triggers are checked once per tick.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info("scheduler: started", "tick", s.cfg.Tick().String(), "triggers", len(s.triggers))

	s.fire(ctx, "startup", s.tracker.CollectAndPublish)

	ticker := time.NewTicker(s.cfg.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler: stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()
	for _, tr := range s.triggers {
		if now.Before(tr.next) {
			continue
		}
		tr.next = tr.reschedule(now)
		s.fire(ctx, tr.name, tr.run)
		if ctx.Err() != nil {
			return
		}
	}
}

// fire runs one trigger, turning panics into logged errors so a bad run
// cannot take the scheduler down.
func (s *Scheduler) fire(ctx context.Context, name string, run func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduler: trigger panicked", "trigger", name, "panic", fmt.Sprintf("%v", r))
		}
	}()

	if err := run(ctx); err != nil {
		logger.Error("scheduler: trigger failed", "trigger", name, "error", err.Error())
		return
	}
	logger.Info("scheduler: trigger completed", "trigger", name)
}

// parseClock parses "HH:MM" in 24-hour time.
func parseClock(v string) (hh, mm int, err error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", v)
	}
	hh, err = strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	mm, err = strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return hh, mm, nil
}

func parseWeekday(v string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), v) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", v)
}

// nextDailyAt returns the next occurrence of HH:MM strictly after now.
func nextDailyAt(now time.Time, hh, mm int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeeklyAt returns the next occurrence of the weekday at HH:MM
// strictly after now.
func nextWeeklyAt(now time.Time, day time.Weekday, hh, mm int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	offset := (int(day) - int(next.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
