package notifier

import (
	"sync"

	"github.com/courtoo/booking-engine/internal/booking"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	SendBookingNotificationFunc      func(view booking.MatchView, dryRun bool) error
	SendCancellationNotificationFunc func(view booking.MatchView, dryRun bool) error
	SendResultNotificationFunc       func(view booking.MatchView, winnerNames []string, dryRun bool) error

	// Call records
	SendBookingNotificationCalls      []booking.MatchView
	SendCancellationNotificationCalls []booking.MatchView
	SendResultNotificationCalls       []ResultNotificationCall
}

// ResultNotificationCall holds the arguments for a call to SendResultNotification.
type ResultNotificationCall struct {
	View        booking.MatchView
	WinnerNames []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendBookingNotificationCalls = nil
	m.SendCancellationNotificationCalls = nil
	m.SendResultNotificationCalls = nil
}

func (m *Mock) SendBookingNotification(view booking.MatchView, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendBookingNotificationCalls = append(m.SendBookingNotificationCalls, view)
	if m.SendBookingNotificationFunc != nil {
		return m.SendBookingNotificationFunc(view, dryRun)
	}
	return nil
}

func (m *Mock) SendCancellationNotification(view booking.MatchView, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendCancellationNotificationCalls = append(m.SendCancellationNotificationCalls, view)
	if m.SendCancellationNotificationFunc != nil {
		return m.SendCancellationNotificationFunc(view, dryRun)
	}
	return nil
}

func (m *Mock) SendResultNotification(view booking.MatchView, winnerNames []string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = append(m.SendResultNotificationCalls, ResultNotificationCall{View: view, WinnerNames: winnerNames})
	if m.SendResultNotificationFunc != nil {
		return m.SendResultNotificationFunc(view, winnerNames, dryRun)
	}
	return nil
}
