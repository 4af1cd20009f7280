// Package dock owns the check-in/check-out state machine for a station's docks
// and keeps the station's available-dock count consistent with dock statuses.
package dock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chargetracker-backend/internal/model"
)

// Transition describes one committed status change, handed to a PersistFunc
// before it becomes visible.
type Transition struct {
	StationID string
	DockID    string
	UserID    string
	From      model.DockStatus
	To        model.DockStatus
	At        time.Time
	// Since is the check-in time being closed; set on check-out only.
	Since *time.Time
}

// IsCheckIn reports whether the transition claims a dock.
func (t Transition) IsCheckIn() bool {
	return t.To == model.DockInUse
}

// PersistFunc durably records a transition. A non-nil error rolls the model
// back to its state before the transition.
type PersistFunc func(ctx context.Context, t Transition) error

// Counts is the station-level availability derived from dock statuses.
type Counts struct {
	Available int `json:"availableDocks"`
	Total     int `json:"totalDocks"`
}

// IsAvailable reports whether the station can take another check-in.
func (c Counts) IsAvailable() bool {
	return IsAvailable(c.Available, c.Total)
}

// IsAvailable holds iff 0 < available <= total. Over-capacity counts indicate
// inconsistent data and are treated as unavailable.
func IsAvailable(available, total int) bool {
	return available > 0 && available <= total
}

// Model tracks the docks of one station. All methods are safe for concurrent
// use; check-in and check-out on the same station are serialized.
type Model struct {
	mu        sync.Mutex
	stationID string
	total     int
	docks     []model.Dock
	index     map[string]int
	available int
	now       func() time.Time
}

// NewModel builds a model from persisted records. Statuses other than InUse
// are normalized to Available, and the total is never below the number of
// docks actually present.
func NewModel(station model.Station, docks []model.Dock) *Model {
	m := &Model{
		stationID: station.ID,
		docks:     make([]model.Dock, 0, len(docks)),
		index:     make(map[string]int, len(docks)),
		now:       time.Now,
	}
	for _, d := range docks {
		if _, dup := m.index[d.ID]; dup {
			continue
		}
		d.StationID = station.ID
		if d.Status != model.DockInUse {
			d.Status = model.DockAvailable
			d.OccupantID = ""
			d.CheckedInAt = nil
		}
		if d.Status == model.DockAvailable {
			m.available++
		}
		m.index[d.ID] = len(m.docks)
		m.docks = append(m.docks, d)
	}
	m.total = max(station.TotalDocks, len(m.docks))
	return m
}

// StationID returns the station this model belongs to.
func (m *Model) StationID() string {
	return m.stationID
}

// Counts returns the current availability.
func (m *Model) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Counts{Available: m.available, Total: m.total}
}

// Docks returns a copy of the dock records in station order.
func (m *Model) Docks() []model.Dock {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Dock, len(m.docks))
	copy(out, m.docks)
	return out
}

// OccupiedBy returns the dock userID currently holds at this station.
func (m *Model) OccupiedBy(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.occupiedByLocked(userID)
	if !ok {
		return "", false
	}
	return m.docks[i].ID, true
}

func (m *Model) occupiedByLocked(userID string) (int, bool) {
	if userID == "" {
		return 0, false
	}
	for i, d := range m.docks {
		if d.Status == model.DockInUse && d.OccupantID == userID {
			return i, true
		}
	}
	return 0, false
}

// CheckIn claims dockID for userID. It fails with ErrAlreadyCheckedIn when
// the user already holds a dock here and ErrDockUnavailable when the dock is
// in use. Nothing changes unless persist succeeds.
func (m *Model) CheckIn(ctx context.Context, userID, dockID string, persist PersistFunc) (Counts, error) {
	if userID == "" {
		return Counts{}, ErrMissingUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[dockID]
	if !ok {
		return m.countsLocked(), fmt.Errorf("%w: %s", ErrDockNotFound, dockID)
	}
	if held, ok := m.occupiedByLocked(userID); ok {
		return m.countsLocked(), fmt.Errorf("%w: dock %s", ErrAlreadyCheckedIn, m.docks[held].ID)
	}
	if m.docks[i].Status != model.DockAvailable {
		return m.countsLocked(), fmt.Errorf("%w: dock %s", ErrDockUnavailable, dockID)
	}

	at := m.now().UTC()
	t := Transition{
		StationID: m.stationID,
		DockID:    dockID,
		UserID:    userID,
		From:      model.DockAvailable,
		To:        model.DockInUse,
		At:        at,
	}

	prev := m.docks[i]
	m.docks[i].Status = model.DockInUse
	m.docks[i].OccupantID = userID
	m.docks[i].CheckedInAt = &at
	m.available--

	if err := m.commitLocked(ctx, t, persist); err != nil {
		m.docks[i] = prev
		m.available++
		return m.countsLocked(), err
	}
	return m.countsLocked(), nil
}

// CheckOut releases dockID. Only the current occupant may do so; anyone else
// gets ErrNotOccupant.
func (m *Model) CheckOut(ctx context.Context, userID, dockID string, persist PersistFunc) (Counts, error) {
	if userID == "" {
		return Counts{}, ErrMissingUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[dockID]
	if !ok {
		return m.countsLocked(), fmt.Errorf("%w: %s", ErrDockNotFound, dockID)
	}
	d := m.docks[i]
	if d.Status != model.DockInUse || d.OccupantID != userID {
		return m.countsLocked(), fmt.Errorf("%w: dock %s", ErrNotOccupant, dockID)
	}

	t := Transition{
		StationID: m.stationID,
		DockID:    dockID,
		UserID:    userID,
		From:      model.DockInUse,
		To:        model.DockAvailable,
		At:        m.now().UTC(),
		Since:     d.CheckedInAt,
	}

	prev := d
	m.docks[i].Status = model.DockAvailable
	m.docks[i].OccupantID = ""
	m.docks[i].CheckedInAt = nil
	m.available++

	if err := m.commitLocked(ctx, t, persist); err != nil {
		m.docks[i] = prev
		m.available--
		return m.countsLocked(), err
	}
	return m.countsLocked(), nil
}

func (m *Model) commitLocked(ctx context.Context, t Transition, persist PersistFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if persist == nil {
		return nil
	}
	if err := persist(ctx, t); err != nil {
		return fmt.Errorf("persist %s/%s: %w", t.StationID, t.DockID, err)
	}
	return nil
}

func (m *Model) countsLocked() Counts {
	return Counts{Available: m.available, Total: m.total}
}
