package dock

import (
	"context"
	"sync"

	"chargetracker-backend/internal/model"
)

// Loader fetches a station with its docks.
type Loader func(ctx context.Context, stationID string) (*model.Station, error)

// Registry holds one Model per station, loading it on first use.
type Registry struct {
	mu     sync.Mutex
	models map[string]*Model
	load   Loader
}

// NewRegistry creates a registry backed by load.
func NewRegistry(load Loader) *Registry {
	return &Registry{
		models: make(map[string]*Model),
		load:   load,
	}
}

// Get returns the model for stationID, loading it if needed. Concurrent
// first loads of the same station all observe the same Model.
func (r *Registry) Get(ctx context.Context, stationID string) (*Model, error) {
	r.mu.Lock()
	m, ok := r.models[stationID]
	r.mu.Unlock()
	if ok {
		return m, nil
	}

	st, err := r.load(ctx, stationID)
	if err != nil {
		return nil, err
	}
	loaded := NewModel(*st, st.Docks)

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.models[stationID]; ok {
		return m, nil
	}
	r.models[stationID] = loaded
	return loaded, nil
}

// Evict drops cached models so the next Get reloads persisted state.
func (r *Registry) Evict(stationIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range stationIDs {
		delete(r.models, id)
	}
}

// Len returns the number of cached models.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.models)
}
