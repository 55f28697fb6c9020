package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	matchesCreated     int
	joins              int
	joinConflicts      int
	cancellations      int
	sweepRuns          int
	refundIntents      int
	notifSent          int
	notifFailed        int
	operationDurations []float64
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		operationDurations: make([]float64, 0),
	}
}

func (m *Mock) IncMatchesCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCreated++
}

func (m *Mock) IncJoins() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins++
}

func (m *Mock) IncJoinConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinConflicts++
}

func (m *Mock) IncCancellations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancellations++
}

func (m *Mock) IncSweepRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepRuns++
}

func (m *Mock) IncRefundIntents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundIntents++
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) ObserveOperationDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationDurations = append(m.operationDurations, duration)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// MatchesCreated returns the number of times IncMatchesCreated was called.
func (m *Mock) MatchesCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCreated
}

// Joins returns the number of times IncJoins was called.
func (m *Mock) Joins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joins
}

// JoinConflicts returns the number of times IncJoinConflicts was called.
func (m *Mock) JoinConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joinConflicts
}

// Cancellations returns the number of times IncCancellations was called.
func (m *Mock) Cancellations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancellations
}

// SweepRuns returns the number of times IncSweepRuns was called.
func (m *Mock) SweepRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepRuns
}

// RefundIntents returns the number of times IncRefundIntents was called.
func (m *Mock) RefundIntents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refundIntents
}

// NotifSent returns the number of times IncNotifSent was called.
func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

// NotifFailed returns the number of times IncNotifFailed was called.
func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}
