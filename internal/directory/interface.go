package directory

import "errors"

// ErrNotFound is returned when a referenced id is absent from the store.
// Callers wrap it with the kind and id of the missing entity.
var ErrNotFound = errors.New("not found")

// Store defines the interface for looking up users, clubs and courts.
type Store interface {
	GetUser(id string) (*User, error)
	GetClub(id string) (*Club, error)
	GetCourt(id string) (*Court, error)
	ListUsers() ([]User, error)
	ListClubs() ([]Club, error)
	ListCourts(clubID string) ([]Court, error)
	UpsertUsers(users []User) error
	UpsertClubs(clubs []Club) error
	UpsertCourts(courts []Court) error
	// ApplyMatchResult increments matches_played for every participant and,
	// when winnerIDs is non-empty, matches_won/matches_lost accordingly.
	ApplyMatchResult(participantIDs []string, winnerIDs []string) error
	Clear()
}
