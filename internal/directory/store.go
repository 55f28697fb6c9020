package directory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a new directory Store backed by the given database.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

func (s *store) GetUser(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, first_name, last_name, phone, avatar, level, matches_played, matches_won, matches_lost
		FROM users WHERE id = ?
	`, id)

	var u User
	var avatar sql.NullString
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &avatar, &u.Level,
		&u.Stats.MatchesPlayed, &u.Stats.MatchesWon, &u.Stats.MatchesLost)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Avatar = avatar.String
	return &u, nil
}

func (s *store) GetClub(id string) (*Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, name, address, lat, lng, amenities_json, cancellation_deadline_hours
		FROM clubs WHERE id = ?
	`, id)

	club, err := scanClub(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("club %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query club: %w", err)
	}
	return club, nil
}

func (s *store) GetCourt(id string) (*Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT id, club_id, name, court_type FROM courts WHERE id = ?", id)

	var c Court
	err := row.Scan(&c.ID, &c.ClubID, &c.Name, &c.Type)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("court %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query court: %w", err)
	}
	return &c, nil
}

func (s *store) ListUsers() ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, first_name, last_name, phone, avatar, level, matches_played, matches_won, matches_lost
		FROM users ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var avatar sql.NullString
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &avatar, &u.Level,
			&u.Stats.MatchesPlayed, &u.Stats.MatchesWon, &u.Stats.MatchesLost); err != nil {
			log.Error("Failed to scan user row", "error", err)
			continue
		}
		u.Avatar = avatar.String
		users = append(users, u)
	}
	return users, nil
}

func (s *store) ListClubs() ([]Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, address, lat, lng, amenities_json, cancellation_deadline_hours
		FROM clubs ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clubs: %w", err)
	}
	defer rows.Close()

	var clubs []Club
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			log.Error("Failed to scan club row", "error", err)
			continue
		}
		clubs = append(clubs, *club)
	}
	return clubs, nil
}

func (s *store) ListCourts(clubID string) ([]Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, club_id, name, court_type FROM courts WHERE club_id = ? ORDER BY name", clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts: %w", err)
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.ClubID, &c.Name, &c.Type); err != nil {
			log.Error("Failed to scan court row", "error", err)
			continue
		}
		courts = append(courts, c)
	}
	return courts, nil
}

func (s *store) UpsertUsers(users []User) error {
	if len(users) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO users (id, first_name, last_name, phone, avatar, level, matches_played, matches_won, matches_lost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			avatar = excluded.avatar,
			level = excluded.level,
			matches_played = excluded.matches_played,
			matches_won = excluded.matches_won,
			matches_lost = excluded.matches_lost;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare users statement: %w", err)
	}
	defer stmt.Close()

	for _, u := range users {
		if _, err := stmt.Exec(u.ID, u.FirstName, u.LastName, u.Phone, u.Avatar, u.Level,
			u.Stats.MatchesPlayed, u.Stats.MatchesWon, u.Stats.MatchesLost); err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

func (s *store) UpsertClubs(clubs []Club) error {
	if len(clubs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO clubs (id, name, address, lat, lng, amenities_json, cancellation_deadline_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			lat = excluded.lat,
			lng = excluded.lng,
			amenities_json = excluded.amenities_json,
			cancellation_deadline_hours = excluded.cancellation_deadline_hours;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare clubs statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range clubs {
		amenitiesJSON, err := json.Marshal(c.Amenities)
		if err != nil {
			return fmt.Errorf("failed to marshal amenities for club %s: %w", c.ID, err)
		}
		if _, err := stmt.Exec(c.ID, c.Name, c.Address, c.Lat, c.Lng, string(amenitiesJSON), c.CancellationDeadlineHours); err != nil {
			return fmt.Errorf("failed to upsert club %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *store) UpsertCourts(courts []Court) error {
	if len(courts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO courts (id, club_id, name, court_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			club_id = excluded.club_id,
			name = excluded.name,
			court_type = excluded.court_type;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare courts statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range courts {
		if _, err := stmt.Exec(c.ID, c.ClubID, c.Name, c.Type); err != nil {
			return fmt.Errorf("failed to upsert court %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ApplyMatchResult is the only statistics mutation in the system.
func (s *store) ApplyMatchResult(participantIDs []string, winnerIDs []string) error {
	if len(participantIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	winners := make(map[string]bool, len(winnerIDs))
	for _, id := range winnerIDs {
		winners[id] = true
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range participantIDs {
		won, lost := 0, 0
		if len(winnerIDs) > 0 {
			if winners[id] {
				won = 1
			} else {
				lost = 1
			}
		}
		res, err := tx.Exec(`
			UPDATE users SET
				matches_played = matches_played + 1,
				matches_won = matches_won + ?,
				matches_lost = matches_lost + ?
			WHERE id = ?
		`, won, lost, id)
		if err != nil {
			return fmt.Errorf("failed to update stats for user %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Warn("Match participant unknown to directory, stats skipped", "userID", id)
		}
	}
	return tx.Commit()
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"courts", "clubs", "users"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
		}
	}
}

// scanClub works for both *sql.Row and *sql.Rows.
func scanClub(scanner interface{ Scan(...any) error }) (*Club, error) {
	var c Club
	var amenitiesJSON sql.NullString
	err := scanner.Scan(&c.ID, &c.Name, &c.Address, &c.Lat, &c.Lng, &amenitiesJSON, &c.CancellationDeadlineHours)
	if err != nil {
		return nil, err
	}
	if amenitiesJSON.Valid && amenitiesJSON.String != "" {
		if err := json.Unmarshal([]byte(amenitiesJSON.String), &c.Amenities); err != nil {
			log.Error("Failed to unmarshal amenities_json", "error", err, "clubID", c.ID)
		}
	}
	if c.Amenities == nil {
		c.Amenities = []string{}
	}
	return &c, nil
}

// DisplayName renders a user's full name for notifications.
func DisplayName(u *User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
