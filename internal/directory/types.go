package directory

import (
	"database/sql"
	"sync"
)

// store handles all database operations for the directory.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// PlayerStats holds a user's cumulative match statistics. They only move
// forward, and only when a match completes.
type PlayerStats struct {
	MatchesPlayed int `json:"matches_played"`
	MatchesWon    int `json:"matches_won"`
	MatchesLost   int `json:"matches_lost"`
}

// User is a registered player.
type User struct {
	ID        string      `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Phone     string      `json:"phone"`
	Avatar    string      `json:"avatar,omitempty"`
	Level     float64     `json:"level"`
	Stats     PlayerStats `json:"statistics"`
}

// Club is a venue. Reference data, read-only at runtime.
type Club struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	Address                   string   `json:"address"`
	Lat                       float64  `json:"lat"`
	Lng                       float64  `json:"lng"`
	Amenities                 []string `json:"amenities"`
	CancellationDeadlineHours int      `json:"cancellation_deadline_hours"`
}

// CourtType distinguishes indoor and outdoor courts.
type CourtType string

const (
	CourtIndoor  CourtType = "INDOOR"
	CourtOutdoor CourtType = "OUTDOOR"
)

// Court belongs to exactly one club.
type Court struct {
	ID     string    `json:"id"`
	ClubID string    `json:"club_id"`
	Name   string    `json:"name"`
	Type   CourtType `json:"type"`
}
