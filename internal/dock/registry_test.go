package dock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargetracker-backend/internal/model"
)

func TestRegistry_LoadsOnceAndEvicts(t *testing.T) {
	var loads atomic.Int32
	r := NewRegistry(func(_ context.Context, id string) (*model.Station, error) {
		loads.Add(1)
		return &model.Station{
			ID:         id,
			TotalDocks: 2,
			Docks: []model.Dock{
				{ID: "d1", Status: model.DockAvailable},
				{ID: "d2", Status: model.DockInUse, OccupantID: "u-1"},
			},
		}, nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	models := make([]*Model, 8)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := r.Get(ctx, "st-1")
			assert.NoError(t, err)
			models[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range models[1:] {
		assert.Same(t, models[0], m)
	}
	assert.Equal(t, Counts{Available: 1, Total: 2}, models[0].Counts())
	assert.Equal(t, 1, r.Len())

	r.Evict("st-1")
	assert.Equal(t, 0, r.Len())
	reloaded, err := r.Get(ctx, "st-1")
	require.NoError(t, err)
	assert.NotSame(t, models[0], reloaded)
	assert.GreaterOrEqual(t, loads.Load(), int32(2))
}

func TestRegistry_LoadError(t *testing.T) {
	notFound := errors.New("station not found")
	r := NewRegistry(func(context.Context, string) (*model.Station, error) { return nil, notFound })

	_, err := r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, 0, r.Len())
}
