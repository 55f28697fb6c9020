package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/courtoo/booking-engine/internal/booking"
	"github.com/courtoo/booking-engine/internal/chat"
	"github.com/courtoo/booking-engine/internal/directory"
	"github.com/courtoo/booking-engine/internal/payments"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Received request to clear all stores")
		s.Engine.ClearStores()
		s.Chat.Clear()
		s.Directory.Clear()
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Store cleared!")
		log.Info("Store cleared successfully")
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		views, err := s.Engine.ListMatches(r.Context(), filter)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec booking.CreateMatchSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		match, err := s.Engine.CreateMatch(r.Context(), spec)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.notifyBooking(r, match)
		writeJSON(w, http.StatusCreated, match)
	}
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match, err := s.Engine.GetMatch(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) JoinMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		match, err := s.Engine.Join(r.Context(), r.PathValue("id"), body.UserID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) RequestJoinHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		req, err := s.Engine.RequestJoin(r.Context(), r.PathValue("id"), body.UserID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, req)
	}
}

func (s *Server) ApproveRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ActorID string `json:"actor_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
			http.Error(w, "actor_id is required", http.StatusBadRequest)
			return
		}
		match, err := s.Engine.Approve(r.Context(), r.PathValue("id"), r.PathValue("requestID"), body.ActorID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) RejectRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ActorID string `json:"actor_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
			http.Error(w, "actor_id is required", http.StatusBadRequest)
			return
		}
		if err := s.Engine.Reject(r.Context(), r.PathValue("id"), r.PathValue("requestID"), body.ActorID); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) CancelMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ActorID string `json:"actor_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
			http.Error(w, "actor_id is required", http.StatusBadRequest)
			return
		}
		match, err := s.Engine.Cancel(r.Context(), r.PathValue("id"), body.ActorID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.notifyCancellation(r, match)
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) CompleteMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			WinnerIDs []string `json:"winner_ids"`
		}
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
		}
		var result *booking.MatchResult
		if len(body.WinnerIDs) > 0 {
			result = &booking.MatchResult{WinnerIDs: body.WinnerIDs}
		}
		match, err := s.Engine.Complete(r.Context(), r.PathValue("id"), result)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) ConfirmPaymentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		match, err := s.Engine.ConfirmPayment(r.Context(), r.PathValue("id"), body.UserID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) ListMessagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := s.Chat.ListMessages(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messages)
	}
}

func (s *Server) PostMessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SenderID string `json:"sender_id"`
			Type     string `json:"type"`
			Content  string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SenderID == "" || body.Content == "" {
			http.Error(w, "sender_id and content are required", http.StatusBadRequest)
			return
		}
		msg, err := s.Chat.PostMessage(r.Context(), r.PathValue("id"), body.SenderID, body.Type, body.Content)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func (s *Server) ListClubsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubs, err := s.Directory.ListClubs()
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clubs)
	}
}

func (s *Server) GetClubHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		club, err := s.Directory.GetClub(r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, club)
	}
}

func (s *Server) ListCourtsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courts, err := s.Directory.ListCourts(r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, courts)
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Directory.GetUser(r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) SweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		completed, err := s.Engine.SweepDueMatches(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"completed": len(completed),
			"matches":   completed,
		})
	}
}

// RefundEventHandler consumes refund intents delivered by a pubsub push
// subscription and forwards them to the payment gateway.
func (s *Server) RefundEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received refund intent message", "body", string(bodyBytes))
		// Define a small struct to decode the incoming JSON's `data` field
		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"` // base64-encoded message payload
			} `json:"message"`
		}

		// Parse the outer JSON to get `data`
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		// Decode base64 to raw MessagePack bytes
		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		isDryRun := isDryRunFromContext(r)
		intent := booking.RefundIntent{}
		if err := s.pubsub.ProcessMessage(rawData, &intent); err != nil {
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}
		if isDryRun {
			log.Info("[Dry Run] Would refund", "matchID", intent.MatchID, "userID", intent.UserID, "amount_minor", intent.AmountMinor)
			w.Write([]byte("OK"))
			return
		}
		if err := s.Payments.Refund(r.Context(), intent.UserID, intent.AmountMinor, intent.IdempotencyKey); err != nil {
			log.Error("Refund failed", "error", err, "matchID", intent.MatchID, "userID", intent.UserID)
			// Non-2xx makes the push subscription redeliver.
			http.Error(w, "Refund failed", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) notifyBooking(r *http.Request, match *booking.Match) {
	view, ok := s.resolveView(r, match.ID)
	if !ok {
		return
	}
	if err := s.Notifier.SendBookingNotification(view, isDryRunFromContext(r)); err != nil {
		log.Error("Failed to send booking notification", "error", err, "matchID", match.ID)
	}
}

func (s *Server) notifyCancellation(r *http.Request, match *booking.Match) {
	view, ok := s.resolveView(r, match.ID)
	if !ok {
		return
	}
	if err := s.Notifier.SendCancellationNotification(view, isDryRunFromContext(r)); err != nil {
		log.Error("Failed to send cancellation notification", "error", err, "matchID", match.ID)
	}
}

func (s *Server) resolveView(r *http.Request, matchID string) (booking.MatchView, bool) {
	views, err := s.Engine.ListMatches(r.Context(), booking.Filter{})
	if err != nil {
		log.Error("Failed to resolve match view", "error", err, "matchID", matchID)
		return booking.MatchView{}, false
	}
	for _, v := range views {
		if v.ID == matchID {
			return v, true
		}
	}
	return booking.MatchView{}, false
}

func parseFilter(r *http.Request) (booking.Filter, error) {
	q := r.URL.Query()
	f := booking.Filter{
		Query: q.Get("query"),
		Date:  q.Get("date"),
	}
	for _, v := range q["skill_level"] {
		f.SkillLevels = append(f.SkillLevels, booking.SkillLevel(v))
	}
	for _, v := range q["match_type"] {
		f.MatchTypes = append(f.MatchTypes, booking.MatchType(v))
	}
	for _, v := range q["court_type"] {
		f.CourtTypes = append(f.CourtTypes, directory.CourtType(v))
	}

	var err error
	if f.PriceMin, err = parseInt64(q.Get("price_min")); err != nil {
		return f, fmt.Errorf("invalid price_min")
	}
	if f.PriceMax, err = parseInt64(q.Get("price_max")); err != nil {
		return f, fmt.Errorf("invalid price_max")
	}
	if f.LevelMin, err = parseFloat(q.Get("level_min")); err != nil {
		return f, fmt.Errorf("invalid level_min")
	}
	if f.LevelMax, err = parseFloat(q.Get("level_max")); err != nil {
		return f, fmt.Errorf("invalid level_max")
	}
	return f, nil
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, booking.ErrMatchNotFound),
		errors.Is(err, booking.ErrRequestNotFound),
		errors.Is(err, directory.ErrNotFound),
		errors.Is(err, chat.ErrChannelNotFound):
		status = http.StatusNotFound
	case errors.Is(err, booking.ErrInvalidSchedule),
		errors.Is(err, booking.ErrInvalidSpec),
		errors.Is(err, booking.ErrApprovalRequired),
		errors.Is(err, booking.ErrDirectJoin):
		status = http.StatusBadRequest
	case errors.Is(err, booking.ErrNotCreator):
		status = http.StatusForbidden
	case errors.Is(err, payments.ErrDeclined):
		status = http.StatusPaymentRequired
	case errors.Is(err, booking.ErrMatchFull),
		errors.Is(err, booking.ErrAlreadyJoined),
		errors.Is(err, booking.ErrDuplicateRequest),
		errors.Is(err, booking.ErrSkillMismatch),
		errors.Is(err, booking.ErrCancellationWindowExpired),
		errors.Is(err, booking.ErrMatchNotOpen),
		errors.Is(err, booking.ErrMatchInProgress),
		errors.Is(err, booking.ErrRequestNotPending):
		status = http.StatusConflict
	default:
		log.Error("Unhandled error", "error", err)
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
}
