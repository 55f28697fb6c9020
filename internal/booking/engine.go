package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/courtoo/booking-engine/internal/chat"
	"github.com/courtoo/booking-engine/internal/directory"
	"github.com/courtoo/booking-engine/internal/metrics"
	"github.com/courtoo/booking-engine/internal/payments"
	"github.com/courtoo/booking-engine/internal/pubsub"
)

// Engine owns the match lifecycle. Every mutation of a single match runs
// inside that match's critical section; payment charges happen before the
// section is entered and refund intents are published after it is left.
type Engine struct {
	store     MatchStore
	directory directory.Store
	chat      chat.Service
	payments  payments.Gateway
	events    pubsub.PubSubClient
	metrics   metrics.Metrics

	// enforceLevel rejects joins whose player rating falls outside the
	// match's declared bracket.
	enforceLevel bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is swapped out in tests.
	now func() time.Time
}

// NewEngine wires the booking engine with its collaborators.
func NewEngine(store MatchStore, dir directory.Store, chatSvc chat.Service, gateway payments.Gateway, events pubsub.PubSubClient, m metrics.Metrics, enforceLevel bool) *Engine {
	return &Engine{
		store:        store,
		directory:    dir,
		chat:         chatSvc,
		payments:     gateway,
		events:       events,
		metrics:      m,
		enforceLevel: enforceLevel,
		locks:        make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

// lockMatch acquires the per-match mutex and returns its release func.
// Lock entries are never evicted; the key space is bounded by the number of
// matches ever created in the process lifetime.
func (e *Engine) lockMatch(matchID string) func() {
	e.mu.Lock()
	l, ok := e.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[matchID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// publishRefunds sends the collected refund intents. Callers defer it
// before acquiring the match lock so it runs after the lock is released.
func (e *Engine) publishRefunds(intents *[]RefundIntent) {
	for _, intent := range *intents {
		if err := e.events.SendMessage(pubsub.EventRefundIntent, intent); err != nil {
			log.Error("Failed to publish refund intent", "error", err, "matchID", intent.MatchID, "userID", intent.UserID)
			continue
		}
		e.metrics.IncRefundIntents()
	}
}

func chargeKey(matchID, userID string) string {
	return fmt.Sprintf("charge:%s:%s", matchID, userID)
}

func refundKey(matchID, userID string) string {
	return fmt.Sprintf("refund:%s:%s", matchID, userID)
}

// CreateMatch books a court slot. The creator is charged up front on priced
// matches and seeded as the first, paid participant.
func (e *Engine) CreateMatch(ctx context.Context, spec CreateMatchSpec) (*Match, error) {
	start := e.now()
	defer func() {
		e.metrics.ObserveOperationDuration(time.Since(start).Seconds())
	}()

	if err := e.validateSpec(spec); err != nil {
		return nil, err
	}
	creator, err := e.directory.GetUser(spec.CreatorID)
	if err != nil {
		return nil, err
	}
	if _, err := e.directory.GetClub(spec.ClubID); err != nil {
		return nil, err
	}
	court, err := e.directory.GetCourt(spec.CourtID)
	if err != nil {
		return nil, err
	}
	if court.ClubID != spec.ClubID {
		return nil, fmt.Errorf("court %s does not belong to club %s: %w", spec.CourtID, spec.ClubID, ErrInvalidSpec)
	}

	matchID := uuid.New().String()
	priced := spec.PricePerPerson > 0
	if priced {
		if err := e.payments.Charge(ctx, creator.ID, spec.PricePerPerson, chargeKey(matchID, creator.ID)); err != nil {
			return nil, err
		}
	}

	var refunds []RefundIntent
	defer e.publishRefunds(&refunds)

	compensate := func() {
		if priced {
			refunds = append(refunds, RefundIntent{
				MatchID:        matchID,
				UserID:         creator.ID,
				AmountMinor:    spec.PricePerPerson,
				IdempotencyKey: refundKey(matchID, creator.ID),
			})
		}
	}

	chatID, err := e.chat.CreateChannel(ctx, matchID)
	if err != nil {
		compensate()
		return nil, err
	}

	now := start.Unix()
	match := &Match{
		ID:               matchID,
		CreatorID:        creator.ID,
		ClubID:           spec.ClubID,
		CourtID:          spec.CourtID,
		ChatID:           chatID,
		Start:            spec.Start,
		End:              spec.End,
		CreatedAt:        now,
		PricePerPerson:   spec.PricePerPerson,
		Level:            spec.Level,
		SkillLevel:       SkillLevelForRating(spec.Level),
		MatchType:        spec.MatchType,
		RequiresApproval: spec.RequiresApproval,
		Status:           StatusOpen,
		Participants: []Participant{{
			UserID:    creator.ID,
			JoinedAt:  now,
			IsPaid:    priced,
			IsCreator: true,
		}},
		PendingRequests: []JoinRequest{},
	}
	if err := e.store.InsertMatch(match); err != nil {
		compensate()
		return nil, err
	}

	e.metrics.IncMatchesCreated()
	log.Info("Created match", "matchID", matchID, "creatorID", creator.ID, "type", match.MatchType, "start", match.Start)
	return match, nil
}

func (e *Engine) validateSpec(spec CreateMatchSpec) error {
	if !spec.MatchType.Valid() {
		return fmt.Errorf("unknown match type %q: %w", spec.MatchType, ErrInvalidSpec)
	}
	if spec.PricePerPerson < 0 {
		return fmt.Errorf("negative price: %w", ErrInvalidSpec)
	}
	if spec.Level < 1.0 || spec.Level > 7.0 {
		return fmt.Errorf("level %.2f out of range: %w", spec.Level, ErrInvalidSpec)
	}
	if spec.Start >= spec.End {
		return fmt.Errorf("start is not before end: %w", ErrInvalidSchedule)
	}
	if spec.Start < e.now().Unix() {
		return fmt.Errorf("start is in the past: %w", ErrInvalidSchedule)
	}
	return nil
}

// Join adds the user to an open match that accepts direct joins. On priced
// matches the charge happens before the critical section; any rejection
// after the charge queues a compensating refund intent.
func (e *Engine) Join(ctx context.Context, matchID, userID string) (*Match, error) {
	start := e.now()
	defer func() {
		e.metrics.ObserveOperationDuration(time.Since(start).Seconds())
	}()

	user, err := e.directory.GetUser(userID)
	if err != nil {
		return nil, err
	}
	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	// RequiresApproval never changes after creation, so this rejection
	// needs no charge and no lock.
	if match.RequiresApproval {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrApprovalRequired)
	}

	priced := match.PricePerPerson > 0
	if priced {
		if err := e.payments.Charge(ctx, userID, match.PricePerPerson, chargeKey(matchID, userID)); err != nil {
			return nil, err
		}
	}

	var refunds []RefundIntent
	defer e.publishRefunds(&refunds)

	compensate := func() {
		if priced {
			refunds = append(refunds, RefundIntent{
				MatchID:        matchID,
				UserID:         userID,
				AmountMinor:    match.PricePerPerson,
				IdempotencyKey: refundKey(matchID, userID),
			})
		}
	}

	unlock := e.lockMatch(matchID)
	defer unlock()

	// Re-read inside the critical section; the pre-lock snapshot is stale.
	match, err = e.store.GetMatch(matchID)
	if err != nil {
		compensate()
		return nil, err
	}
	if match.Status.Terminal() {
		compensate()
		return nil, fmt.Errorf("match %s is %s: %w", matchID, match.Status, ErrMatchNotOpen)
	}
	if match.RequiresApproval {
		compensate()
		return nil, fmt.Errorf("match %s: %w", matchID, ErrApprovalRequired)
	}
	if match.IsParticipant(userID) {
		e.metrics.IncJoinConflicts()
		compensate()
		return nil, fmt.Errorf("user %s in match %s: %w", userID, matchID, ErrAlreadyJoined)
	}
	if len(match.Participants) >= match.Capacity() {
		e.metrics.IncJoinConflicts()
		compensate()
		return nil, fmt.Errorf("match %s: %w", matchID, ErrMatchFull)
	}
	if e.enforceLevel && SkillLevelForRating(user.Level) != match.SkillLevel {
		compensate()
		return nil, fmt.Errorf("user %s rated %.2f, match is %s: %w", userID, user.Level, match.SkillLevel, ErrSkillMismatch)
	}
	// A cancelled caller must observe unchanged state.
	if err := ctx.Err(); err != nil {
		compensate()
		return nil, err
	}

	p := Participant{
		UserID:   userID,
		JoinedAt: e.now().Unix(),
		IsPaid:   priced,
	}
	newStatus := match.Status
	if len(match.Participants)+1 >= match.Capacity() {
		newStatus = StatusFull
	}
	if err := e.store.AddParticipant(matchID, p, newStatus); err != nil {
		compensate()
		return nil, err
	}

	e.metrics.IncJoins()
	log.Info("User joined match", "matchID", matchID, "userID", userID, "status", newStatus)
	return e.store.GetMatch(matchID)
}

// RequestJoin files a pending request on an approval-gated match. Requests
// are accepted while the match is full; capacity is arbitrated at approval.
func (e *Engine) RequestJoin(ctx context.Context, matchID, userID string) (*JoinRequest, error) {
	if _, err := e.directory.GetUser(userID); err != nil {
		return nil, err
	}

	unlock := e.lockMatch(matchID)
	defer unlock()

	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.Terminal() {
		return nil, fmt.Errorf("match %s is %s: %w", matchID, match.Status, ErrMatchNotOpen)
	}
	if !match.RequiresApproval {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrDirectJoin)
	}
	if match.IsParticipant(userID) {
		return nil, fmt.Errorf("user %s in match %s: %w", userID, matchID, ErrAlreadyJoined)
	}
	if match.PendingRequestFor(userID) != nil {
		return nil, fmt.Errorf("user %s in match %s: %w", userID, matchID, ErrDuplicateRequest)
	}

	req := JoinRequest{
		ID:          uuid.New().String(),
		UserID:      userID,
		RequestedAt: e.now().Unix(),
		Status:      RequestPending,
	}
	if err := e.store.InsertJoinRequest(matchID, req); err != nil {
		return nil, err
	}
	log.Info("Join requested", "matchID", matchID, "userID", userID, "requestID", req.ID)
	return &req, nil
}

// Approve resolves a pending request into a roster spot. Only the creator
// may approve; the requester is charged before the critical section.
func (e *Engine) Approve(ctx context.Context, matchID, requestID, actorID string) (*Match, error) {
	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, fmt.Errorf("user %s on match %s: %w", actorID, matchID, ErrNotCreator)
	}
	req := findRequest(match, requestID)
	if req == nil {
		return nil, fmt.Errorf("%s: %w", requestID, ErrRequestNotFound)
	}
	if req.Status != RequestPending {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, req.Status, ErrRequestNotPending)
	}
	userID := req.UserID

	priced := match.PricePerPerson > 0
	if priced {
		if err := e.payments.Charge(ctx, userID, match.PricePerPerson, chargeKey(matchID, userID)); err != nil {
			return nil, err
		}
	}

	var refunds []RefundIntent
	defer e.publishRefunds(&refunds)

	compensate := func() {
		if priced {
			refunds = append(refunds, RefundIntent{
				MatchID:        matchID,
				UserID:         userID,
				AmountMinor:    match.PricePerPerson,
				IdempotencyKey: refundKey(matchID, userID),
			})
		}
	}

	unlock := e.lockMatch(matchID)
	defer unlock()

	match, err = e.store.GetMatch(matchID)
	if err != nil {
		compensate()
		return nil, err
	}
	if match.Status.Terminal() {
		compensate()
		return nil, fmt.Errorf("match %s is %s: %w", matchID, match.Status, ErrMatchNotOpen)
	}
	req = findRequest(match, requestID)
	if req == nil || req.Status != RequestPending {
		compensate()
		return nil, fmt.Errorf("request %s: %w", requestID, ErrRequestNotPending)
	}
	if match.IsParticipant(userID) {
		e.metrics.IncJoinConflicts()
		compensate()
		return nil, fmt.Errorf("user %s in match %s: %w", userID, matchID, ErrAlreadyJoined)
	}
	if len(match.Participants) >= match.Capacity() {
		e.metrics.IncJoinConflicts()
		compensate()
		return nil, fmt.Errorf("match %s: %w", matchID, ErrMatchFull)
	}
	if err := ctx.Err(); err != nil {
		compensate()
		return nil, err
	}

	p := Participant{
		UserID:   userID,
		JoinedAt: e.now().Unix(),
		IsPaid:   priced,
	}
	newStatus := match.Status
	if len(match.Participants)+1 >= match.Capacity() {
		newStatus = StatusFull
	}
	if err := e.store.ResolveJoinRequest(matchID, requestID, p, newStatus); err != nil {
		compensate()
		return nil, err
	}

	e.metrics.IncJoins()
	log.Info("Join request approved", "matchID", matchID, "requestID", requestID, "userID", userID)
	return e.store.GetMatch(matchID)
}

// Reject marks a pending request rejected. Creator-only; no charge is ever
// taken for a rejected request.
func (e *Engine) Reject(ctx context.Context, matchID, requestID, actorID string) error {
	unlock := e.lockMatch(matchID)
	defer unlock()

	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return err
	}
	if match.CreatorID != actorID {
		return fmt.Errorf("user %s on match %s: %w", actorID, matchID, ErrNotCreator)
	}
	req := findRequest(match, requestID)
	if req == nil {
		return fmt.Errorf("%s: %w", requestID, ErrRequestNotFound)
	}
	if req.Status != RequestPending {
		return fmt.Errorf("request %s is %s: %w", requestID, req.Status, ErrRequestNotPending)
	}

	if err := e.store.UpdateJoinRequestStatus(matchID, requestID, RequestRejected); err != nil {
		return err
	}
	log.Info("Join request rejected", "matchID", matchID, "requestID", requestID)
	return nil
}

// Cancel moves the match to CANCELLED if the club's cancellation deadline
// has not passed. Refund intents for every paid participant are published
// once the critical section is released.
func (e *Engine) Cancel(ctx context.Context, matchID, actorID string) (*Match, error) {
	var refunds []RefundIntent
	defer e.publishRefunds(&refunds)

	unlock := e.lockMatch(matchID)
	defer unlock()

	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != actorID {
		return nil, fmt.Errorf("user %s on match %s: %w", actorID, matchID, ErrNotCreator)
	}
	if match.Status.Terminal() {
		return nil, fmt.Errorf("match %s is %s: %w", matchID, match.Status, ErrMatchNotOpen)
	}
	club, err := e.directory.GetClub(match.ClubID)
	if err != nil {
		return nil, err
	}
	deadline := match.Start - int64(club.CancellationDeadlineHours)*3600
	if e.now().Unix() >= deadline {
		return nil, fmt.Errorf("deadline was %d hours before start: %w", club.CancellationDeadlineHours, ErrCancellationWindowExpired)
	}

	if err := e.store.CancelMatch(matchID, e.now().Unix()); err != nil {
		return nil, err
	}
	for _, p := range match.Participants {
		if !p.IsPaid {
			continue
		}
		refunds = append(refunds, RefundIntent{
			MatchID:        matchID,
			UserID:         p.UserID,
			AmountMinor:    match.PricePerPerson,
			IdempotencyKey: refundKey(matchID, p.UserID),
		})
	}

	e.metrics.IncCancellations()
	log.Info("Cancelled match", "matchID", matchID, "refunds", len(refunds))
	return e.store.GetMatch(matchID)
}

// Complete moves the match to COMPLETED once its scheduled end has passed
// and folds the result into player statistics. Completing an already
// completed match is a no-op, so the periodic sweep stays idempotent.
func (e *Engine) Complete(ctx context.Context, matchID string, result *MatchResult) (*Match, error) {
	unlock := e.lockMatch(matchID)
	defer unlock()

	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	switch match.Status {
	case StatusCompleted:
		return match, nil
	case StatusCancelled:
		return nil, fmt.Errorf("match %s is cancelled: %w", matchID, ErrMatchNotOpen)
	}
	if e.now().Unix() < match.End {
		return nil, fmt.Errorf("match %s ends at %d: %w", matchID, match.End, ErrMatchInProgress)
	}

	participantIDs := make([]string, 0, len(match.Participants))
	for _, p := range match.Participants {
		participantIDs = append(participantIDs, p.UserID)
	}
	var winnerIDs []string
	if result != nil {
		for _, w := range result.WinnerIDs {
			if !match.IsParticipant(w) {
				return nil, fmt.Errorf("winner %s is not a participant: %w", w, ErrInvalidSpec)
			}
		}
		winnerIDs = result.WinnerIDs
	}

	if err := e.store.CompleteMatch(matchID, e.now().Unix(), result); err != nil {
		return nil, err
	}
	if err := e.directory.ApplyMatchResult(participantIDs, winnerIDs); err != nil {
		log.Error("Failed to apply match result to player stats", "error", err, "matchID", matchID)
	}

	log.Info("Completed match", "matchID", matchID, "winners", len(winnerIDs))
	return e.store.GetMatch(matchID)
}

// ConfirmPayment marks a participant's spot paid on free-at-booking
// matches where payment is settled out of band.
func (e *Engine) ConfirmPayment(ctx context.Context, matchID, userID string) (*Match, error) {
	unlock := e.lockMatch(matchID)
	defer unlock()

	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(userID) {
		return nil, fmt.Errorf("user %s in match %s: %w", userID, matchID, ErrMatchNotFound)
	}
	if err := e.store.MarkPaid(matchID, userID); err != nil {
		return nil, err
	}
	return e.store.GetMatch(matchID)
}

// GetMatch returns a single match with its roster.
func (e *Engine) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	return e.store.GetMatch(matchID)
}

// ListMatches joins matches with club and court reference data and applies
// the search filter.
func (e *Engine) ListMatches(ctx context.Context, f Filter) ([]MatchView, error) {
	matches, err := e.store.ListMatches()
	if err != nil {
		return nil, err
	}

	clubs := make(map[string]*directory.Club)
	courts := make(map[string]*directory.Court)
	views := []MatchView{}
	for _, m := range matches {
		club, ok := clubs[m.ClubID]
		if !ok {
			club, err = e.directory.GetClub(m.ClubID)
			if err != nil {
				log.Error("Match references unknown club", "matchID", m.ID, "clubID", m.ClubID, "error", err)
				continue
			}
			clubs[m.ClubID] = club
		}
		court, ok := courts[m.CourtID]
		if !ok {
			court, err = e.directory.GetCourt(m.CourtID)
			if err != nil {
				log.Error("Match references unknown court", "matchID", m.ID, "courtID", m.CourtID, "error", err)
				continue
			}
			courts[m.CourtID] = court
		}

		view := MatchView{
			Match:       m,
			ClubName:    club.Name,
			ClubAddress: club.Address,
			CourtName:   court.Name,
			CourtType:   court.Type,
		}
		if f.Matches(view) {
			views = append(views, view)
		}
	}
	return views, nil
}

// SweepDueMatches completes every non-terminal match whose end time has
// passed. Safe to run concurrently with itself and with live traffic.
func (e *Engine) SweepDueMatches(ctx context.Context) ([]*Match, error) {
	due, err := e.store.ListDueMatches(e.now().Unix())
	if err != nil {
		return nil, err
	}

	completed := make([]*Match, 0, len(due))
	for _, m := range due {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		match, err := e.Complete(ctx, m.ID, nil)
		if err != nil {
			log.Error("Sweep failed to complete match", "error", err, "matchID", m.ID)
			continue
		}
		completed = append(completed, match)
	}

	e.metrics.IncSweepRuns()
	if len(completed) > 0 {
		log.Info("Sweep completed matches", "count", len(completed))
	}
	return completed, nil
}

// ClearStores wipes all match state. Tooling hook, not a business operation.
func (e *Engine) ClearStores() {
	e.store.Clear()
}

func findRequest(m *Match, requestID string) *JoinRequest {
	for i := range m.PendingRequests {
		if m.PendingRequests[i].ID == requestID {
			return &m.PendingRequests[i]
		}
	}
	return nil
}
