package filter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Persister durably stores the persisted subset of a session's filter state.
// Loading flags and timestamps never reach the persister.
type Persister interface {
	Save(ctx context.Context, sessionID string, state State) error
	Load(ctx context.Context, sessionID string) (State, bool, error)
	Close() error
}

// Store owns the filter state for one session. It is an explicit, injectable
// object: callers construct it with a Persister instead of reaching for a
// process-wide singleton. Every mutation rewrites the full persisted field
// set, so there is no read-modify-write against storage.
type Store struct {
	mu        sync.Mutex
	sessionID string
	state     State
	persister Persister

	loading     bool
	lastApplied time.Time

	now func() time.Time
}

func NewStore(sessionID string, persister Persister) *Store {
	return &Store{
		sessionID: sessionID,
		state:     NewState(),
		persister: persister,
		now:       time.Now,
	}
}

// Restore replaces the in-memory state with whatever the persister holds for
// this session. Missing sessions keep the defaults.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, found, err := s.persister.Load(ctx, s.sessionID)
	if err != nil {
		return err
	}
	if found {
		s.state = state
	}
	return nil
}

// SetValues replaces one array field. Assigning regions always runs the
// geographic cascade, even when the new value equals the current one.
func (s *Store) SetValues(ctx context.Context, field Field, values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.setValues(field, values)
	if field == FieldRegions {
		applyRegionCascade(&s.state)
	}
	s.persist(ctx)
}

// SetDateRange replaces the date range. A nil range removes the constraint.
func (s *Store) SetDateRange(ctx context.Context, dr *DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dr != nil {
		cp := *dr
		dr = &cp
	}
	s.state.DateRange = dr
	s.persist(ctx)
}

// ClearFilter resets one field to its default: empty list for array fields,
// absent for the date range.
func (s *Store) ClearFilter(ctx context.Context, field Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if field == FieldDateRange {
		s.state.DateRange = nil
	} else {
		s.state.setValues(field, []string{})
	}
	s.persist(ctx)
}

// ClearAll resets every field in one update and records the reset time.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = NewState()
	s.loading = false
	s.lastApplied = s.now()
	s.persist(ctx)
}

// Apply merges a partial state: nil slices leave the field untouched, a
// non-nil slice replaces it. The regions cascade applies here too. The
// caller can hand imported URL parameters straight to this method.
func (s *Store) Apply(ctx context.Context, partial Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyLocked(partial)
	s.lastApplied = s.now()
	s.persist(ctx)
}

func (s *Store) applyLocked(partial Partial) {
	if partial.DateRange != nil {
		cp := *partial.DateRange
		s.state.DateRange = &cp
	}
	for _, f := range ArrayFields {
		if values := partial.Values(f); values != nil {
			s.state.setValues(f, values)
			if f == FieldRegions {
				applyRegionCascade(&s.state)
			}
		}
	}
}

// ApplyPreset merges a preset, resolving a symbolic date-range token against
// the store's clock. Unknown tokens leave the date range unchanged.
func (s *Store) ApplyPreset(ctx context.Context, preset Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	partial := preset.Partial
	if preset.DateRangePreset != "" {
		if dr, ok := ResolveDatePreset(preset.DateRangePreset, s.now()); ok {
			partial.DateRange = &dr
		}
	}
	s.applyLocked(partial)
	s.lastApplied = s.now()
	s.persist(ctx)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) HasActiveFilters() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HasActiveFilters()
}

func (s *Store) ActiveFilterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveFilterCount()
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) LastApplied() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApplied
}

// persist writes the full persisted field set. Failures are logged, not
// returned: storage is fire-and-forget from the mutator's perspective.
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.sessionID, s.state); err != nil {
		slog.Error("Failed to persist filter state", "session", s.sessionID, "error", err)
	}
}

// applyRegionCascade clears the geographically dependent fields. Stores and
// barangays only make sense within a region selection, so every assignment
// to regions empties them, including reassigning the same value.
func applyRegionCascade(state *State) {
	state.Stores = []string{}
	state.Barangays = []string{}
}

// Partial is a merge payload: nil means "leave untouched" for every field.
type Partial struct {
	DateRange  *DateRange `json:"date_range,omitempty"`
	Regions    []string   `json:"regions,omitempty"`
	Stores     []string   `json:"stores,omitempty"`
	Brands     []string   `json:"brands,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Barangays  []string   `json:"barangays,omitempty"`
}

func (p Partial) Values(field Field) []string {
	switch field {
	case FieldRegions:
		return p.Regions
	case FieldStores:
		return p.Stores
	case FieldBrands:
		return p.Brands
	case FieldCategories:
		return p.Categories
	case FieldBarangays:
		return p.Barangays
	}
	return nil
}

// Preset couples a partial state with an optional symbolic date-range token.
type Preset struct {
	DateRangePreset string `json:"date_range_preset,omitempty"`
	Partial
}
