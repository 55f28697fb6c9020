package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtoo/booking-engine/internal/booking"
	"github.com/courtoo/booking-engine/internal/database"
	"github.com/courtoo/booking-engine/internal/directory"
	"github.com/courtoo/booking-engine/internal/notifier"
)

type fakeEngine struct {
	completed []*booking.Match
	views     []booking.MatchView
	sweeps    int
}

func (f *fakeEngine) SweepDueMatches(ctx context.Context) ([]*booking.Match, error) {
	f.sweeps++
	return f.completed, nil
}

func (f *fakeEngine) ListMatches(ctx context.Context, filter booking.Filter) ([]booking.MatchView, error) {
	return f.views, nil
}

func setupDirectory(t *testing.T) (directory.Store, func()) {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	dir := directory.New(db)
	require.NoError(t, dir.UpsertUsers([]directory.User{
		{ID: "u1", FirstName: "Carlos", LastName: "Martinez", Level: 3.0},
	}))
	return dir, teardown
}

func TestRunNotifiesCompletedMatches(t *testing.T) {
	dir, teardown := setupDirectory(t)
	defer teardown()

	match := &booking.Match{
		ID:     "m1",
		Status: booking.StatusCompleted,
		Result: &booking.MatchResult{WinnerIDs: []string{"u1"}},
	}
	engine := &fakeEngine{
		completed: []*booking.Match{match},
		views: []booking.MatchView{{
			Match:    match,
			ClubName: "Riverside Padel Club",
		}},
	}
	mock := notifier.NewMock()

	s, err := New(engine, dir, mock, time.Minute)
	require.NoError(t, err)
	s.Run(context.Background())

	assert.Equal(t, 1, engine.sweeps)
	require.Len(t, mock.SendResultNotificationCalls, 1)
	call := mock.SendResultNotificationCalls[0]
	assert.Equal(t, "m1", call.View.ID)
	assert.Equal(t, []string{"Carlos Martinez"}, call.WinnerNames)
}

func TestRunWithNothingDue(t *testing.T) {
	dir, teardown := setupDirectory(t)
	defer teardown()

	engine := &fakeEngine{}
	mock := notifier.NewMock()

	s, err := New(engine, dir, mock, time.Minute)
	require.NoError(t, err)
	s.Run(context.Background())

	assert.Equal(t, 1, engine.sweeps)
	assert.Empty(t, mock.SendResultNotificationCalls)
}

func TestStartAndStop(t *testing.T) {
	dir, teardown := setupDirectory(t)
	defer teardown()

	s, err := New(&fakeEngine{}, dir, notifier.NewMock(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
}
