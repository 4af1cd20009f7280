package charging

import (
	"context"

	"chargetracker-backend/internal/model"
	"chargetracker-backend/internal/summary"
)

// StationView is a station with its display summary. Docks are the live
// dock states and are only set for single-station views.
type StationView struct {
	model.Station
	Summary summary.Summary `json:"summary"`
}

// Station returns the live view of one station. A non-empty status keeps
// only docks in that state.
func (s *Service) Station(ctx context.Context, id string, status model.DockStatus) (*StationView, error) {
	st, err := s.store.GetStation(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.ListReviews(ctx, id)
	if err != nil {
		return nil, err
	}

	docks := m.Docks()
	view := &StationView{
		Station: *st,
		Summary: summary.Summarize(*st, docks, reviews),
	}
	view.Docks = docks
	if status != "" {
		view.Docks = make([]model.Dock, 0, len(docks))
		for _, d := range docks {
			if d.Status == status {
				view.Docks = append(view.Docks, d)
			}
		}
	}
	return view, nil
}

// Stations lists every station with its stored aggregates.
func (s *Service) Stations(ctx context.Context) ([]StationView, error) {
	stations, err := s.store.ListStations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StationView, len(stations))
	for i, st := range stations {
		out[i] = StationView{Station: st, Summary: summary.FromStation(st)}
	}
	return out, nil
}
