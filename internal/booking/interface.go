package booking

// MatchStore defines the persistence operations the engine needs. All
// mutations are transactional; the engine provides the per-match
// serialization on top.
type MatchStore interface {
	InsertMatch(m *Match) error
	GetMatch(id string) (*Match, error)
	ListMatches() ([]*Match, error)
	// ListDueMatches returns non-terminal matches whose end time has passed.
	ListDueMatches(now int64) ([]*Match, error)
	// AddParticipant appends p to the roster and sets the match status in
	// the same transaction.
	AddParticipant(matchID string, p Participant, newStatus MatchStatus) error
	MarkPaid(matchID, userID string) error
	InsertJoinRequest(matchID string, r JoinRequest) error
	UpdateJoinRequestStatus(matchID, requestID string, status JoinRequestStatus) error
	// ResolveJoinRequest marks the request approved and inserts the
	// participant atomically.
	ResolveJoinRequest(matchID, requestID string, p Participant, newStatus MatchStatus) error
	CancelMatch(matchID string, cancelledAt int64) error
	CompleteMatch(matchID string, completedAt int64, result *MatchResult) error
	Clear()
}
