package adapters

import (
	"context"
	"maps"
	"sync"

	"smg_backend/internal/feature/market/usecase"
)

// EventStateMemory keeps the detector state in process memory.
// It is used when Redis is not configured; state is lost on restart.
type EventStateMemory struct {
	mu    sync.Mutex
	state usecase.DetectorState
}

var _ usecase.EventStateStore = (*EventStateMemory)(nil)

// NewEventStateMemory creates an empty in-memory store.
func NewEventStateMemory() *EventStateMemory {
	return &EventStateMemory{state: usecase.NewDetectorState()}
}

// Load returns a copy of the stored state.
func (m *EventStateMemory) Load(ctx context.Context) (usecase.DetectorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state), nil
}

// Save stores a copy of st.
func (m *EventStateMemory) Save(ctx context.Context, st usecase.DetectorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = cloneState(st)
	return nil
}

func cloneState(st usecase.DetectorState) usecase.DetectorState {
	out := usecase.NewDetectorState()
	out.Leader = st.Leader
	maps.Copy(out.AllTimeHigh, st.AllTimeHigh)
	maps.Copy(out.Crashed, st.Crashed)
	return out
}
