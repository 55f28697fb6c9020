package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"

	"github.com/courtoo/booking-engine/internal/booking"
	"github.com/courtoo/booking-engine/internal/directory"
	"github.com/courtoo/booking-engine/internal/notifier"
)

// BookingEngine is the slice of the engine the sweeper consumes.
type BookingEngine interface {
	SweepDueMatches(ctx context.Context) ([]*booking.Match, error)
	ListMatches(ctx context.Context, f booking.Filter) ([]booking.MatchView, error)
}

// Sweeper periodically completes matches whose scheduled end has passed and
// announces the results.
type Sweeper struct {
	engine    BookingEngine
	directory directory.Store
	notifier  notifier.Notifier
	interval  time.Duration
	scheduler gocron.Scheduler
}

// New creates a sweeper that runs every interval once started.
func New(engine BookingEngine, dir directory.Store, n notifier.Notifier, interval time.Duration) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Sweeper{
		engine:    engine,
		directory: dir,
		notifier:  n,
		interval:  interval,
		scheduler: scheduler,
	}, nil
}

// Start registers the periodic job and begins the schedule.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.Run(context.Background())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	s.scheduler.Start()
	log.Info("Started completion sweeper", "interval", s.interval)
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

// Run executes a single sweep and sends a result notification for every
// match the sweep completed. Notification failures are logged, not
// propagated; the completions already happened.
func (s *Sweeper) Run(ctx context.Context) {
	completed, err := s.engine.SweepDueMatches(ctx)
	if err != nil {
		log.Error("Sweep run failed", "error", err)
		return
	}
	if len(completed) == 0 {
		return
	}

	for _, m := range completed {
		view, ok := s.resolveView(ctx, m.ID)
		if !ok {
			continue
		}
		if err := s.notifier.SendResultNotification(view, s.winnerNames(m), false); err != nil {
			log.Error("Failed to send result notification", "error", err, "matchID", m.ID)
		}
	}
}

func (s *Sweeper) resolveView(ctx context.Context, matchID string) (booking.MatchView, bool) {
	views, err := s.engine.ListMatches(ctx, booking.Filter{})
	if err != nil {
		log.Error("Failed to list matches for notification", "error", err)
		return booking.MatchView{}, false
	}
	for _, v := range views {
		if v.ID == matchID {
			return v, true
		}
	}
	return booking.MatchView{}, false
}

func (s *Sweeper) winnerNames(m *booking.Match) []string {
	if m.Result == nil {
		return nil
	}
	names := make([]string, 0, len(m.Result.WinnerIDs))
	for _, id := range m.Result.WinnerIDs {
		user, err := s.directory.GetUser(id)
		if err != nil {
			names = append(names, id)
			continue
		}
		names = append(names, directory.DisplayName(user))
	}
	return names
}
