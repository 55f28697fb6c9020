package notifier

import (
	"github.com/courtoo/booking-engine/internal/booking"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For newly booked matches
	SendBookingNotification(view booking.MatchView, dryRun bool) error
	// For cancelled matches
	SendCancellationNotification(view booking.MatchView, dryRun bool) error
	// For completed matches
	SendResultNotification(view booking.MatchView, winnerNames []string, dryRun bool) error
}
