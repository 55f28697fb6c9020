package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtoo/booking-engine/internal/database"
)

func setupStore(t *testing.T) (Store, func()) {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	return New(db), teardown
}

func TestUserRoundtrip(t *testing.T) {
	store, teardown := setupStore(t)
	defer teardown()

	users := []User{
		{ID: "u1", FirstName: "Carlos", LastName: "Martinez", Phone: "+34600111222", Level: 4.2},
		{ID: "u2", FirstName: "Anna", LastName: "Petrova", Level: 3.8, Stats: PlayerStats{MatchesPlayed: 10, MatchesWon: 6, MatchesLost: 4}},
	}
	require.NoError(t, store.UpsertUsers(users))

	got, err := store.GetUser("u2")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.FirstName)
	assert.Equal(t, 3.8, got.Level)
	assert.Equal(t, 10, got.Stats.MatchesPlayed)

	_, err = store.GetUser("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := store.ListUsers()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Upsert overwrites existing rows.
	users[0].Level = 4.5
	require.NoError(t, store.UpsertUsers(users[:1]))
	got, err = store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Level)
}

func TestClubRoundtrip(t *testing.T) {
	store, teardown := setupStore(t)
	defer teardown()

	clubs := []Club{
		{ID: "c1", Name: "Riverside Padel Club", Address: "14 Riverside Way", Lat: 41.38, Lng: 2.17, Amenities: []string{"parking", "showers"}, CancellationDeadlineHours: 24},
		{ID: "c2", Name: "Northgate Racquets", Address: "2 Northgate Street", CancellationDeadlineHours: 12},
	}
	require.NoError(t, store.UpsertClubs(clubs))

	got, err := store.GetClub("c1")
	require.NoError(t, err)
	assert.Equal(t, "Riverside Padel Club", got.Name)
	assert.Equal(t, []string{"parking", "showers"}, got.Amenities)
	assert.Equal(t, 24, got.CancellationDeadlineHours)

	list, err := store.ListClubs()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = store.GetClub("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourtRoundtrip(t *testing.T) {
	store, teardown := setupStore(t)
	defer teardown()

	require.NoError(t, store.UpsertClubs([]Club{
		{ID: "c1", Name: "Riverside Padel Club", CancellationDeadlineHours: 24},
		{ID: "c2", Name: "Northgate Racquets", CancellationDeadlineHours: 12},
	}))
	require.NoError(t, store.UpsertCourts([]Court{
		{ID: "k1", ClubID: "c1", Name: "Court 1", Type: CourtIndoor},
		{ID: "k2", ClubID: "c1", Name: "Court 2", Type: CourtOutdoor},
		{ID: "k3", ClubID: "c2", Name: "Centre Court", Type: CourtIndoor},
	}))

	got, err := store.GetCourt("k2")
	require.NoError(t, err)
	assert.Equal(t, CourtOutdoor, got.Type)
	assert.Equal(t, "c1", got.ClubID)

	courts, err := store.ListCourts("c1")
	require.NoError(t, err)
	assert.Len(t, courts, 2)

	courts, err = store.ListCourts("c2")
	require.NoError(t, err)
	require.Len(t, courts, 1)
	assert.Equal(t, "k3", courts[0].ID)
}

func TestApplyMatchResult(t *testing.T) {
	store, teardown := setupStore(t)
	defer teardown()

	require.NoError(t, store.UpsertUsers([]User{
		{ID: "u1", FirstName: "Carlos", LastName: "Martinez", Level: 3.0},
		{ID: "u2", FirstName: "Anna", LastName: "Petrova", Level: 3.2},
		{ID: "u3", FirstName: "James", LastName: "Wilson", Level: 3.4},
		{ID: "u4", FirstName: "Maria", LastName: "Garcia", Level: 3.6},
	}))

	participants := []string{"u1", "u2", "u3", "u4"}
	require.NoError(t, store.ApplyMatchResult(participants, []string{"u1", "u2"}))

	winner, err := store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, winner.Stats.MatchesPlayed)
	assert.Equal(t, 1, winner.Stats.MatchesWon)
	assert.Equal(t, 0, winner.Stats.MatchesLost)

	loser, err := store.GetUser("u3")
	require.NoError(t, err)
	assert.Equal(t, 1, loser.Stats.MatchesPlayed)
	assert.Equal(t, 0, loser.Stats.MatchesWon)
	assert.Equal(t, 1, loser.Stats.MatchesLost)

	// Without winners only matches_played moves.
	require.NoError(t, store.ApplyMatchResult(participants, nil))
	u2, err := store.GetUser("u2")
	require.NoError(t, err)
	assert.Equal(t, 2, u2.Stats.MatchesPlayed)
	assert.Equal(t, 1, u2.Stats.MatchesWon)
	assert.Equal(t, 0, u2.Stats.MatchesLost)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Carlos Martinez", DisplayName(&User{FirstName: "Carlos", LastName: "Martinez"}))
	assert.Equal(t, "Carlos", DisplayName(&User{FirstName: "Carlos"}))
}
