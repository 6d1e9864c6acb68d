// Package estimation exposes the orientation estimator as an opaque
// state-snapshot producer. The filter itself is an external
// collaborator; the supervisor only samples its state for telemetry
// and control.
package estimation

import "sync"

// State is one estimator snapshot, copied by value.
type State struct {
	Roll, Pitch, Yaw             float32
	RollRate, PitchRate, YawRate float32
}

// Estimator produces state snapshots.
type Estimator interface {
	State() State
}

// Source is a thread-safe snapshot holder, fed by whatever estimation
// backend is attached and read by the supervisor.
type Source struct {
	mu    sync.RWMutex
	state State
}

// SetState publishes a new snapshot.
func (s *Source) SetState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State implements Estimator.
func (s *Source) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
