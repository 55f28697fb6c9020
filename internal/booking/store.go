package booking

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// store handles all database operations for matches, participants and join
// requests.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new MatchStore backed by the given database.
func NewStore(db *sql.DB) MatchStore {
	return &store{
		db: db,
	}
}

func (s *store) InsertMatch(m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO matches (id, creator_id, club_id, court_id, chat_id, start_time, end_time, created_at,
			price_per_person, level, skill_level, match_type, requires_approval, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.CreatorID, m.ClubID, m.CourtID, m.ChatID, m.Start, m.End, m.CreatedAt,
		m.PricePerPerson, m.Level, m.SkillLevel, m.MatchType, m.RequiresApproval, m.Status)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	for _, p := range m.Participants {
		_, err = tx.Exec(`
			INSERT INTO participants (match_id, user_id, joined_at, is_paid, is_creator)
			VALUES (?, ?, ?, ?, ?)
		`, m.ID, p.UserID, p.JoinedAt, p.IsPaid, p.IsCreator)
		if err != nil {
			return fmt.Errorf("failed to insert participant %s: %w", p.UserID, err)
		}
	}
	return tx.Commit()
}

func (s *store) GetMatch(id string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getMatchLocked(id)
}

func (s *store) getMatchLocked(id string) (*Match, error) {
	row := s.db.QueryRow(`
		SELECT id, creator_id, club_id, court_id, chat_id, start_time, end_time, created_at,
			price_per_person, level, skill_level, match_type, requires_approval, status,
			result_json, completed_at, cancelled_at
		FROM matches WHERE id = ?
	`, id)

	match, err := scanMatch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", id, ErrMatchNotFound)
		}
		return nil, fmt.Errorf("failed to query match: %w", err)
	}

	if err := s.loadRoster(match); err != nil {
		return nil, err
	}
	return match, nil
}

// loadRoster attaches participants and pending join requests, preserving
// insertion order.
func (s *store) loadRoster(m *Match) error {
	rows, err := s.db.Query(`
		SELECT user_id, joined_at, is_paid, is_creator
		FROM participants WHERE match_id = ? ORDER BY joined_at, rowid
	`, m.ID)
	if err != nil {
		return fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	m.Participants = []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.UserID, &p.JoinedAt, &p.IsPaid, &p.IsCreator); err != nil {
			return fmt.Errorf("failed to scan participant row: %w", err)
		}
		m.Participants = append(m.Participants, p)
	}

	reqRows, err := s.db.Query(`
		SELECT id, user_id, requested_at, status
		FROM join_requests WHERE match_id = ? ORDER BY requested_at, rowid
	`, m.ID)
	if err != nil {
		return fmt.Errorf("failed to query join requests: %w", err)
	}
	defer reqRows.Close()

	m.PendingRequests = []JoinRequest{}
	for reqRows.Next() {
		var r JoinRequest
		if err := reqRows.Scan(&r.ID, &r.UserID, &r.RequestedAt, &r.Status); err != nil {
			return fmt.Errorf("failed to scan join request row: %w", err)
		}
		m.PendingRequests = append(m.PendingRequests, r)
	}
	return nil
}

func (s *store) ListMatches() ([]*Match, error) {
	return s.listWhere("1=1")
}

func (s *store) ListDueMatches(now int64) ([]*Match, error) {
	return s.listWhere("status IN ('OPEN', 'FULL') AND end_time <= ?", now)
}

func (s *store) listWhere(where string, args ...any) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, creator_id, club_id, court_id, chat_id, start_time, end_time, created_at,
			price_per_person, level, skill_level, match_type, requires_approval, status,
			result_json, completed_at, cancelled_at
		FROM matches WHERE `+where+` ORDER BY start_time
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, match)
	}
	for _, m := range matches {
		if err := s.loadRoster(m); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

func (s *store) AddParticipant(matchID string, p Participant, newStatus MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO participants (match_id, user_id, joined_at, is_paid, is_creator)
		VALUES (?, ?, ?, ?, ?)
	`, matchID, p.UserID, p.JoinedAt, p.IsPaid, p.IsCreator)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	_, err = tx.Exec("UPDATE matches SET status = ? WHERE id = ?", newStatus, matchID)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	return tx.Commit()
}

func (s *store) MarkPaid(matchID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE participants SET is_paid = 1 WHERE match_id = ? AND user_id = ?", matchID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark participant paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("participant %s in match %s: %w", userID, matchID, ErrMatchNotFound)
	}
	return nil
}

func (s *store) InsertJoinRequest(matchID string, r JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO join_requests (id, match_id, user_id, requested_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, matchID, r.UserID, r.RequestedAt, r.Status)
	if err != nil {
		return fmt.Errorf("failed to insert join request: %w", err)
	}
	return nil
}

func (s *store) UpdateJoinRequestStatus(matchID, requestID string, status JoinRequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE join_requests SET status = ? WHERE id = ? AND match_id = ?", status, requestID, matchID)
	if err != nil {
		return fmt.Errorf("failed to update join request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", requestID, ErrRequestNotFound)
	}
	return nil
}

func (s *store) ResolveJoinRequest(matchID, requestID string, p Participant, newStatus MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE join_requests SET status = ? WHERE id = ? AND match_id = ?", RequestApproved, requestID, matchID)
	if err != nil {
		return fmt.Errorf("failed to approve join request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", requestID, ErrRequestNotFound)
	}

	_, err = tx.Exec(`
		INSERT INTO participants (match_id, user_id, joined_at, is_paid, is_creator)
		VALUES (?, ?, ?, ?, ?)
	`, matchID, p.UserID, p.JoinedAt, p.IsPaid, p.IsCreator)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	_, err = tx.Exec("UPDATE matches SET status = ? WHERE id = ?", newStatus, matchID)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	return tx.Commit()
}

func (s *store) CancelMatch(matchID string, cancelledAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE matches SET status = ?, cancelled_at = ? WHERE id = ?", StatusCancelled, cancelledAt, matchID)
	if err != nil {
		return fmt.Errorf("failed to cancel match: %w", err)
	}
	return nil
}

func (s *store) CompleteMatch(matchID string, completedAt int64, result *MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resultJSON any
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal match result: %w", err)
		}
		resultJSON = string(b)
	}

	_, err := s.db.Exec("UPDATE matches SET status = ?, completed_at = ?, result_json = ? WHERE id = ?",
		StatusCompleted, completedAt, resultJSON, matchID)
	if err != nil {
		return fmt.Errorf("failed to complete match: %w", err)
	}
	return nil
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Error("Failed to begin transaction for clearing store", "error", err)
		return
	}
	for _, table := range []string{"join_requests", "participants", "matches"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction for clearing store", "error", err)
	}
}

// scanMatch is a helper to scan a single match row without its roster.
func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var m Match
	var resultJSON sql.NullString
	var completedAt, cancelledAt sql.NullInt64

	err := scanner.Scan(
		&m.ID, &m.CreatorID, &m.ClubID, &m.CourtID, &m.ChatID, &m.Start, &m.End, &m.CreatedAt,
		&m.PricePerPerson, &m.Level, &m.SkillLevel, &m.MatchType, &m.RequiresApproval, &m.Status,
		&resultJSON, &completedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if resultJSON.Valid && resultJSON.String != "" {
		var result MatchResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			log.Error("Failed to unmarshal result_json", "error", err, "matchID", m.ID)
		} else {
			m.Result = &result
		}
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Int64
	}
	if cancelledAt.Valid {
		m.CancelledAt = &cancelledAt.Int64
	}
	return &m, nil
}
