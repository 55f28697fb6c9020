package booking

import "errors"

// Typed outcomes for every way a booking operation can fail. The HTTP layer
// maps these onto status codes; they are never swallowed.
var (
	// ErrMatchNotFound: the referenced match id is absent from the store.
	ErrMatchNotFound = errors.New("match not found")
	// ErrRequestNotFound: the referenced join request id is absent or does
	// not belong to the match.
	ErrRequestNotFound = errors.New("join request not found")
	// ErrInvalidSchedule: start >= end, or the start is in the past.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrInvalidSpec: malformed price, level or match type.
	ErrInvalidSpec = errors.New("invalid match spec")
	// ErrMatchFull: the roster already holds capacity participants.
	ErrMatchFull = errors.New("match is full")
	// ErrAlreadyJoined: the user is already on the roster.
	ErrAlreadyJoined = errors.New("user already joined")
	// ErrDuplicateRequest: the user already has a pending join request.
	ErrDuplicateRequest = errors.New("pending join request already exists")
	// ErrSkillMismatch: strict level matching is on and the user's rating is
	// outside the match's declared bracket.
	ErrSkillMismatch = errors.New("player level outside match bracket")
	// ErrNotCreator: the actor is not the match creator.
	ErrNotCreator = errors.New("only the match creator may do this")
	// ErrCancellationWindowExpired: the club's cancellation deadline has
	// passed.
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	// ErrMatchNotOpen: the match is in a terminal state and rejects the
	// operation.
	ErrMatchNotOpen = errors.New("match is no longer open")
	// ErrMatchInProgress: complete was requested before the scheduled end.
	ErrMatchInProgress = errors.New("match has not ended yet")
	// ErrApprovalRequired: direct join attempted on an approval-gated match.
	ErrApprovalRequired = errors.New("match requires join approval")
	// ErrDirectJoin: requestJoin attempted on a match that accepts direct
	// joins.
	ErrDirectJoin = errors.New("match does not require join approval")
	// ErrRequestNotPending: approve/reject on an already-terminal request.
	ErrRequestNotPending = errors.New("join request already resolved")
)
