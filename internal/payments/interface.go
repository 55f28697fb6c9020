package payments

import (
	"context"
	"errors"
)

// ErrDeclined is returned when the gateway refuses a charge. The engine
// surfaces it without retrying; retry policy belongs to the caller.
var ErrDeclined = errors.New("payment declined")

// ErrRefundFailed is returned when the gateway cannot process a refund.
var ErrRefundFailed = errors.New("refund failed")

// Gateway defines the narrow payment interface the booking engine consumes.
// Both operations are idempotent on the supplied key.
type Gateway interface {
	Charge(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error
	Refund(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error
}
