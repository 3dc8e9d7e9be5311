package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/leadcal/internal/logging"
)

// BusyQuerier returns the busy intervals of the scheduled calendar that
// intersect [start, end).
type BusyQuerier interface {
	QueryBusy(ctx context.Context, start, end time.Time) ([]Interval, error)
}

// Settings controls a scan.
type Settings struct {
	Location    *time.Location
	Open        ClockTime
	Close       ClockTime
	MinSlot     time.Duration
	DaysNeeded  int
	MaxDays     int
	SkipWeekend bool
}

// DefaultSettings returns business hours 08:00-17:00, 15 minute slots, and a
// scan for three days within two weeks.
func DefaultSettings(loc *time.Location) Settings {
	return Settings{
		Location:    loc,
		Open:        ClockTime{Hour: 8},
		Close:       ClockTime{Hour: 17},
		MinSlot:     15 * time.Minute,
		DaysNeeded:  3,
		MaxDays:     14,
		SkipWeekend: true,
	}
}

// Validate checks the settings for internal consistency.
func (s Settings) Validate() error {
	if s.Location == nil {
		return fmt.Errorf("location is required")
	}
	if !s.Open.Before(s.Close) {
		return fmt.Errorf("open time %s must be before close time %s", s.Open, s.Close)
	}
	if s.MinSlot <= 0 {
		return fmt.Errorf("minimum slot must be positive, got %s", s.MinSlot)
	}
	if s.DaysNeeded <= 0 || s.MaxDays <= 0 {
		return fmt.Errorf("days needed (%d) and max days (%d) must be positive", s.DaysNeeded, s.MaxDays)
	}
	return nil
}

// Day is one business day with free time.
type Day struct {
	Label string
	Date  time.Time
	Slots []FreeSlot
}

// Report is the ordered result of a scan.
type Report struct {
	TimeZone string
	Days     []Day
}

// Scheduler scans forward over business days for free time.
type Scheduler struct {
	busy     BusyQuerier
	settings Settings
	logger   *slog.Logger
}

// NewScheduler creates a scheduler with the default logger.
func NewScheduler(busy BusyQuerier, settings Settings) (*Scheduler, error) {
	return NewSchedulerWithLogger(busy, settings, slog.Default())
}

// NewSchedulerWithLogger creates a scheduler that logs to logger.
func NewSchedulerWithLogger(busy BusyQuerier, settings Settings, logger *slog.Logger) (*Scheduler, error) {
	if busy == nil {
		return nil, fmt.Errorf("busy querier cannot be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler settings: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{busy: busy, settings: settings, logger: logger}, nil
}

// Settings returns the scheduler's settings.
func (s *Scheduler) Settings() Settings {
	return s.settings
}

// Scan walks forward from now's calendar day, skipping weekends, until
// DaysNeeded days with free slots are found or MaxDays days have been
// examined. On the first day the window opens no earlier than now.
//
// A provider error aborts the scan.
func (s *Scheduler) Scan(ctx context.Context, now time.Time) (*Report, error) {
	cfg := s.settings
	now = now.In(cfg.Location)
	report := &Report{TimeZone: cfg.Location.String()}

	found := 0
	for offset := 0; found < cfg.DaysNeeded && offset < cfg.MaxDays; offset++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		window := windowAt(now, offset, cfg.Open, cfg.Close, cfg.Location)
		if cfg.SkipWeekend && window.IsWeekend() {
			continue
		}
		if offset == 0 && now.After(window.Open) {
			window.Open = now
		}
		if !window.Open.Before(window.Close) {
			s.logger.Debug("skipping closed day", slog.String("day", window.Label))
			continue
		}

		raw, err := s.busy.QueryBusy(ctx, window.Open, window.Close)
		if err != nil {
			s.logger.Warn("availability scan aborted",
				logging.Operation("scan"),
				slog.String("day", window.Label),
				logging.Err(err))
			return nil, err
		}

		busy := Merge(raw, window.Bounds())
		slots := FreeSlots(window, busy, cfg.MinSlot)
		if len(slots) == 0 {
			continue
		}
		report.Days = append(report.Days, Day{Label: window.Label, Date: window.Day, Slots: slots})
		found++
	}

	s.logger.Debug("availability scan complete",
		logging.Operation("scan"),
		slog.Int("days_found", found))
	return report, nil
}
