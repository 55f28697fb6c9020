package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/courtoo/booking-engine/internal/booking"
	"github.com/courtoo/booking-engine/internal/chat"
	"github.com/courtoo/booking-engine/internal/config"
	"github.com/courtoo/booking-engine/internal/database"
	"github.com/courtoo/booking-engine/internal/directory"
	"github.com/courtoo/booking-engine/internal/metrics"
	"github.com/courtoo/booking-engine/internal/notifier"
	"github.com/courtoo/booking-engine/internal/payments"
	"github.com/courtoo/booking-engine/internal/pubsub"
)

type testServer struct {
	*Server
	gateway *payments.MockGateway
	events  *pubsub.MockPubSubClient
	notif   *notifier.Mock
}

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	dir := directory.New(db)
	require.NoError(t, dir.UpsertUsers([]directory.User{
		{ID: "creator", FirstName: "Carlos", LastName: "Martinez", Level: 3.0},
		{ID: "player-2", FirstName: "Anna", LastName: "Petrova", Level: 3.2},
		{ID: "player-3", FirstName: "James", LastName: "Wilson", Level: 3.4},
	}))
	require.NoError(t, dir.UpsertClubs([]directory.Club{
		{ID: "club-1", Name: "Riverside Padel Club", Address: "14 Riverside Way", CancellationDeadlineHours: 24},
	}))
	require.NoError(t, dir.UpsertCourts([]directory.Court{
		{ID: "court-1", ClubID: "club-1", Name: "Court 1", Type: directory.CourtIndoor},
	}))

	matchStore := booking.NewStore(db)
	chatStore := chat.NewStore(db)
	gateway := payments.NewMock()
	events := pubsub.NewMock("TEST")
	notif := notifier.NewMock()
	cfg := config.Config{}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)

	engine := booking.NewEngine(matchStore, dir, chatStore, gateway, events, metricsSvc, false)
	server := NewServer(engine, dir, chatStore, gateway, metricsSvc, metricsHandler, cfg, notif, events)

	return &testServer{Server: server, gateway: gateway, events: events, notif: notif}, dbTeardown
}

func doRequest(s *Server, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader([]byte("{}"))
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func createTestMatch(t *testing.T, s *Server, mutate func(*booking.CreateMatchSpec)) booking.Match {
	t.Helper()
	start := time.Now().Add(48 * time.Hour)
	spec := booking.CreateMatchSpec{
		CreatorID:      "creator",
		ClubID:         "club-1",
		CourtID:        "court-1",
		Start:          start.Unix(),
		End:            start.Add(time.Hour).Unix(),
		PricePerPerson: 1500,
		Level:          3.0,
		MatchType:      booking.MatchTypeDoubles,
	}
	if mutate != nil {
		mutate(&spec)
	}
	rec := doRequest(s, "POST", "/matches", spec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var match booking.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &match))
	return match
}

func TestHealthCheck(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	rec := doRequest(s.Server, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK!", rec.Body.String())
}

func TestCreateAndGetMatch(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, nil)
	assert.Equal(t, booking.StatusOpen, match.Status)
	assert.NotEmpty(t, match.ChatID)
	require.Len(t, s.notif.SendBookingNotificationCalls, 1)

	rec := doRequest(s.Server, "GET", "/matches/"+match.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s.Server, "GET", "/matches/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMatchBadRequest(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	start := time.Now().Add(48 * time.Hour)
	spec := booking.CreateMatchSpec{
		CreatorID: "creator",
		ClubID:    "club-1",
		CourtID:   "court-1",
		Start:     start.Unix(),
		End:       start.Add(time.Hour).Unix(),
		Level:     3.0,
		MatchType: "TRIPLES",
	}
	rec := doRequest(s.Server, "POST", "/matches", spec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest("POST", "/matches", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	s.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListMatchesFilter(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	createTestMatch(t, s.Server, nil)
	createTestMatch(t, s.Server, func(spec *booking.CreateMatchSpec) {
		spec.MatchType = booking.MatchTypeSingles
	})

	rec := doRequest(s.Server, "GET", "/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []booking.MatchView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, 2)

	rec = doRequest(s.Server, "GET", "/matches?match_type=SINGLES", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, booking.MatchTypeSingles, views[0].MatchType)

	rec = doRequest(s.Server, "GET", "/matches?query=northgate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Empty(t, views)

	rec = doRequest(s.Server, "GET", "/matches?price_min=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinFlow(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, func(spec *booking.CreateMatchSpec) {
		spec.MatchType = booking.MatchTypeSingles
	})

	rec := doRequest(s.Server, "POST", "/matches/"+match.ID+"/join", map[string]string{"user_id": "player-2"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Full match maps to 409.
	rec = doRequest(s.Server, "POST", "/matches/"+match.ID+"/join", map[string]string{"user_id": "player-3"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing user_id maps to 400.
	rec = doRequest(s.Server, "POST", "/matches/"+match.ID+"/join", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown user maps to 404.
	rec = doRequest(s.Server, "POST", "/matches/"+match.ID+"/join", map[string]string{"user_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeclinedPayment(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, nil)

	s.gateway.ChargeFunc = func(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error {
		return payments.ErrDeclined
	}

	rec := doRequest(s.Server, "POST", "/matches/"+match.ID+"/join", map[string]string{"user_id": "player-2"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestApprovalFlow(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, func(spec *booking.CreateMatchSpec) {
		spec.RequiresApproval = true
	})

	// Direct join on a gated match maps to 400.
	rec := doRequest(s.Server, "POST", "/matches/"+match.ID+"/join", map[string]string{"user_id": "player-2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s.Server, "POST", "/matches/"+match.ID+"/requests", map[string]string{"user_id": "player-2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var req booking.JoinRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &req))

	// Only the creator may approve.
	rec = doRequest(s.Server, "POST", fmt.Sprintf("/matches/%s/requests/%s/approve", match.ID, req.ID), map[string]string{"actor_id": "player-3"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(s.Server, "POST", fmt.Sprintf("/matches/%s/requests/%s/approve", match.ID, req.ID), map[string]string{"actor_id": "creator"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated booking.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.IsParticipant("player-2"))

	// A second approval of the same request maps to 409.
	rec = doRequest(s.Server, "POST", fmt.Sprintf("/matches/%s/requests/%s/approve", match.ID, req.ID), map[string]string{"actor_id": "creator"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRejectRequest(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, func(spec *booking.CreateMatchSpec) {
		spec.RequiresApproval = true
	})

	rec := doRequest(s.Server, "POST", "/matches/"+match.ID+"/requests", map[string]string{"user_id": "player-2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var req booking.JoinRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &req))

	rec = doRequest(s.Server, "POST", fmt.Sprintf("/matches/%s/requests/%s/reject", match.ID, req.ID), map[string]string{"actor_id": "creator"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCancelMatch(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, nil)

	rec := doRequest(s.Server, "POST", "/matches/"+match.ID+"/cancel", map[string]string{"actor_id": "player-2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(s.Server, "POST", "/matches/"+match.ID+"/cancel", map[string]string{"actor_id": "creator"})
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled booking.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)
	require.Len(t, s.notif.SendCancellationNotificationCalls, 1)

	// The creator's paid spot produced a refund intent.
	require.Len(t, s.events.SendMessageCalls, 1)

	rec = doRequest(s.Server, "POST", "/matches/"+match.ID+"/cancel", map[string]string{"actor_id": "creator"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirmPayment(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, func(spec *booking.CreateMatchSpec) {
		spec.PricePerPerson = 0
	})

	rec := doRequest(s.Server, "POST", "/matches/"+match.ID+"/confirm-payment", map[string]string{"user_id": "creator"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated booking.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Participants[0].IsPaid)
}

func TestChatEndpoints(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, s.Server, nil)

	rec := doRequest(s.Server, "POST", "/chats/"+match.ChatID+"/messages", map[string]string{
		"sender_id": "creator",
		"content":   "Warm-up at 17:30?",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(s.Server, "GET", "/chats/"+match.ChatID+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var messages []chat.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "Warm-up at 17:30?", messages[0].Content)

	rec = doRequest(s.Server, "GET", "/chats/no-such-channel/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDirectoryEndpoints(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	rec := doRequest(s.Server, "GET", "/clubs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var clubs []directory.Club
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clubs))
	require.Len(t, clubs, 1)

	rec = doRequest(s.Server, "GET", "/clubs/club-1/courts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s.Server, "GET", "/users/creator", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s.Server, "GET", "/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSweepEndpoint(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	rec := doRequest(s.Server, "POST", "/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Completed int `json:"completed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Completed)
}

func TestRefundEventHandler(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	// The mock decodes like the real client does.
	s.events.ProcessMessageFunc = func(data []byte, returnValue any) error {
		return msgpack.Unmarshal(data, returnValue)
	}

	intent := booking.RefundIntent{
		MatchID:        "m1",
		UserID:         "player-2",
		AmountMinor:    1500,
		IdempotencyKey: "refund:m1:player-2",
	}
	raw, err := msgpack.Marshal(intent)
	require.NoError(t, err)

	push := map[string]any{
		"subscription": "refund-intents-sub",
		"message": map[string]any{
			"data": base64.StdEncoding.EncodeToString(raw),
		},
	}
	rec := doRequest(s.Server, "POST", "/events/refund", push)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	refunds := s.gateway.Refunds()
	require.Len(t, refunds, 1)
	assert.Equal(t, "player-2", refunds[0].UserID)
	assert.Equal(t, int64(1500), refunds[0].AmountMinor)
	assert.Equal(t, "refund:m1:player-2", refunds[0].IdempotencyKey)
}

func TestRefundEventHandlerBadPayload(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	req := httptest.NewRequest("POST", "/events/refund", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	push := map[string]any{
		"message": map[string]any{"data": "!!not-base64!!"},
	}
	rec2 := doRequest(s.Server, "POST", "/events/refund", push)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestClearEndpoint(t *testing.T) {
	s, teardown := setupTestServer(t)
	defer teardown()

	createTestMatch(t, s.Server, nil)

	rec := doRequest(s.Server, "POST", "/clear", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s.Server, "GET", "/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []booking.MatchView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Empty(t, views)
}
