package booking

import (
	"strings"

	"github.com/courtoo/booking-engine/internal/directory"
)

// MatchView is a match joined with the reference data search predicates
// need: the club's name and address and the court's surface type.
type MatchView struct {
	*Match
	ClubName    string              `json:"club_name"`
	ClubAddress string              `json:"club_address"`
	CourtName   string              `json:"court_name"`
	CourtType   directory.CourtType `json:"court_type"`
}

// Filter is the caller-supplied search criteria. Every zero-valued
// dimension means "no filtering on that dimension"; populated dimensions
// are conjoined.
type Filter struct {
	// Query is matched case-insensitively as a substring of the club name
	// or address.
	Query string
	// Date filters on exact calendar-date equality ("2006-01-02").
	Date string
	// Multi-select inclusion; an empty slice selects everything.
	SkillLevels []SkillLevel
	MatchTypes  []MatchType
	CourtTypes  []directory.CourtType
	// Inclusive price range in minor units. PriceMax <= 0 means unbounded.
	PriceMin int64
	PriceMax int64
	// Inclusive declared-level range. LevelMax <= 0 means unbounded.
	LevelMin float64
	LevelMax float64
}

// Matches reports whether the view satisfies every populated dimension.
func (f Filter) Matches(v MatchView) bool {
	return matchesQuery(v, f.Query) &&
		matchesDate(v, f.Date) &&
		includes(f.SkillLevels, v.SkillLevel) &&
		includes(f.MatchTypes, v.MatchType) &&
		includes(f.CourtTypes, v.CourtType) &&
		matchesPriceRange(v, f.PriceMin, f.PriceMax) &&
		matchesLevelRange(v, f.LevelMin, f.LevelMax)
}

func matchesQuery(v MatchView, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(v.ClubName), q) ||
		strings.Contains(strings.ToLower(v.ClubAddress), q)
}

func matchesDate(v MatchView, date string) bool {
	return date == "" || v.Date() == date
}

func includes[T comparable](selection []T, value T) bool {
	if len(selection) == 0 {
		return true
	}
	for _, s := range selection {
		if s == value {
			return true
		}
	}
	return false
}

func matchesPriceRange(v MatchView, min, max int64) bool {
	if v.PricePerPerson < min {
		return false
	}
	return max <= 0 || v.PricePerPerson <= max
}

func matchesLevelRange(v MatchView, min, max float64) bool {
	if v.Level < min {
		return false
	}
	return max <= 0 || v.Level <= max
}
