package booking

import "time"

// MatchType determines the capacity of a match.
type MatchType string

const (
	MatchTypeSingles      MatchType = "SINGLES"
	MatchTypeDoubles      MatchType = "DOUBLES"
	MatchTypeMixedDoubles MatchType = "MIXED_DOUBLES"
)

// Capacity is derived from the match type and never stored independently.
func (t MatchType) Capacity() int {
	if t == MatchTypeSingles {
		return 2
	}
	return 4
}

// Valid reports whether t is a known match type.
func (t MatchType) Valid() bool {
	switch t {
	case MatchTypeSingles, MatchTypeDoubles, MatchTypeMixedDoubles:
		return true
	}
	return false
}

// MatchStatus is the lifecycle state of a match.
//
// OPEN -> FULL -> COMPLETED, with CANCELLED reachable from OPEN and FULL.
// COMPLETED and CANCELLED are terminal.
type MatchStatus string

const (
	StatusOpen      MatchStatus = "OPEN"
	StatusFull      MatchStatus = "FULL"
	StatusCompleted MatchStatus = "COMPLETED"
	StatusCancelled MatchStatus = "CANCELLED"
)

// Terminal reports whether no transition may leave the state.
func (s MatchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// SkillLevel is the declared level bracket of a match.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
)

// SkillLevelForRating maps a numeric player rating (1.0-7.0 scale) onto the
// declared bracket used for matchmaking and search.
func SkillLevelForRating(rating float64) SkillLevel {
	switch {
	case rating < 2.5:
		return SkillBeginner
	case rating < 4.5:
		return SkillIntermediate
	default:
		return SkillAdvanced
	}
}

// Participant is a user confirmed into a match's roster.
type Participant struct {
	UserID    string `json:"user_id"`
	JoinedAt  int64  `json:"joined_at"`
	IsPaid    bool   `json:"is_paid"`
	IsCreator bool   `json:"is_creator"`
}

// JoinRequestStatus is the state of a join request. PENDING requests are the
// only ones awaiting arbitration; APPROVED and REJECTED are terminal.
type JoinRequestStatus string

const (
	RequestPending  JoinRequestStatus = "PENDING"
	RequestApproved JoinRequestStatus = "APPROVED"
	RequestRejected JoinRequestStatus = "REJECTED"
)

// JoinRequest is a user's pending ask to join an approval-gated match.
type JoinRequest struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	RequestedAt int64             `json:"requested_at"`
	Status      JoinRequestStatus `json:"status"`
}

// MatchResult records the outcome supplied when a match completes. Winners
// is empty for matches completed without a reported result.
type MatchResult struct {
	WinnerIDs []string `json:"winner_ids"`
}

// Match is the central entity owned by the booking engine.
type Match struct {
	ID               string        `json:"id"`
	CreatorID        string        `json:"creator_id"`
	ClubID           string        `json:"club_id"`
	CourtID          string        `json:"court_id"`
	ChatID           string        `json:"chat_id"`
	Start            int64         `json:"start_time"`
	End              int64         `json:"end_time"`
	CreatedAt        int64         `json:"created_at"`
	PricePerPerson   int64         `json:"price_per_person"`
	Level            float64       `json:"level"`
	SkillLevel       SkillLevel    `json:"skill_level"`
	MatchType        MatchType     `json:"match_type"`
	RequiresApproval bool          `json:"requires_approval"`
	Status           MatchStatus   `json:"status"`
	Result           *MatchResult  `json:"result,omitempty"`
	CompletedAt      *int64        `json:"completed_at,omitempty"`
	CancelledAt      *int64        `json:"cancelled_at,omitempty"`
	Participants     []Participant `json:"participants"`
	PendingRequests  []JoinRequest `json:"pending_requests"`
}

// Capacity returns the roster limit for the match.
func (m *Match) Capacity() int {
	return m.MatchType.Capacity()
}

// IsParticipant reports whether userID is already on the roster.
func (m *Match) IsParticipant(userID string) bool {
	for _, p := range m.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// PendingRequestFor returns the user's pending request, if any.
func (m *Match) PendingRequestFor(userID string) *JoinRequest {
	for i := range m.PendingRequests {
		if m.PendingRequests[i].UserID == userID && m.PendingRequests[i].Status == RequestPending {
			return &m.PendingRequests[i]
		}
	}
	return nil
}

// Date returns the calendar date of the match start in the local timezone.
func (m *Match) Date() string {
	return time.Unix(m.Start, 0).Format("2006-01-02")
}

// CreateMatchSpec is the input to CreateMatch.
type CreateMatchSpec struct {
	CreatorID        string    `json:"creator_id"`
	ClubID           string    `json:"club_id"`
	CourtID          string    `json:"court_id"`
	Start            int64     `json:"start_time"`
	End              int64     `json:"end_time"`
	PricePerPerson   int64     `json:"price_per_person"`
	Level            float64   `json:"level"`
	MatchType        MatchType `json:"match_type"`
	RequiresApproval bool      `json:"requires_approval"`
}

// RefundIntent is published after a cancellation (or a compensated join)
// releases the match lock; a push consumer forwards it to the payment
// gateway.
type RefundIntent struct {
	MatchID        string `msgpack:"match_id" json:"match_id"`
	UserID         string `msgpack:"user_id" json:"user_id"`
	AmountMinor    int64  `msgpack:"amount_minor" json:"amount_minor"`
	IdempotencyKey string `msgpack:"idempotency_key" json:"idempotency_key"`
}
