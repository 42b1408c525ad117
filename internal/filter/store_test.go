package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore("test-session", NewMemoryPersister())
	store.now = func() time.Time {
		return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	return store
}

func TestStore_RegionCascade(t *testing.T) {
	ctx := context.Background()

	t.Run("setting regions clears stores and barangays", func(t *testing.T) {
		store := newTestStore(t)
		store.SetValues(ctx, FieldStores, []string{"SM North", "Puregold QC"})
		store.SetValues(ctx, FieldBarangays, []string{"Diliman"})

		store.SetValues(ctx, FieldRegions, []string{"NCR"})

		state := store.State()
		assert.Equal(t, []string{"NCR"}, state.Regions)
		assert.Empty(t, state.Stores)
		assert.Empty(t, state.Barangays)
	})

	t.Run("reassigning the same regions still cascades", func(t *testing.T) {
		store := newTestStore(t)
		store.SetValues(ctx, FieldRegions, []string{"NCR"})
		store.SetValues(ctx, FieldStores, []string{"SM North"})
		store.SetValues(ctx, FieldBarangays, []string{"Diliman"})

		store.SetValues(ctx, FieldRegions, []string{"NCR"})

		state := store.State()
		assert.Empty(t, state.Stores)
		assert.Empty(t, state.Barangays)
	})

	t.Run("other fields do not cascade", func(t *testing.T) {
		store := newTestStore(t)
		store.SetValues(ctx, FieldStores, []string{"SM North"})
		store.SetValues(ctx, FieldBrands, []string{"Oishi"})

		state := store.State()
		assert.Equal(t, []string{"SM North"}, state.Stores)
		assert.Equal(t, []string{"Oishi"}, state.Brands)
	})
}

func TestStore_ActiveFilterCount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		mutate   func(*Store)
		expected int
	}{
		{
			name:     "empty state",
			mutate:   func(s *Store) {},
			expected: 0,
		},
		{
			name: "two regions only",
			mutate: func(s *Store) {
				s.SetValues(ctx, FieldRegions, []string{"NCR", "Luzon"})
			},
			expected: 2,
		},
		{
			name: "partial date range plus one brand",
			mutate: func(s *Store) {
				s.SetDateRange(ctx, &DateRange{From: "2024-01-01"})
				s.SetValues(ctx, FieldBrands, []string{"Oishi"})
			},
			expected: 2,
		},
		{
			name: "date range with both bounds still counts once",
			mutate: func(s *Store) {
				s.SetDateRange(ctx, &DateRange{From: "2024-01-01", To: "2024-02-01"})
			},
			expected: 1,
		},
		{
			name: "empty date range counts zero",
			mutate: func(s *Store) {
				s.SetDateRange(ctx, &DateRange{})
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			tt.mutate(store)
			assert.Equal(t, tt.expected, store.ActiveFilterCount())
			assert.Equal(t, tt.expected > 0, store.HasActiveFilters())
		})
	}
}

func TestStore_ClearFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	store.SetDateRange(ctx, &DateRange{From: "2024-01-01", To: "2024-02-01"})
	store.SetValues(ctx, FieldBrands, []string{"Oishi", "Del Monte"})

	store.ClearFilter(ctx, FieldBrands)
	assert.Empty(t, store.State().Brands)
	assert.NotNil(t, store.State().DateRange)

	store.ClearFilter(ctx, FieldDateRange)
	assert.Nil(t, store.State().DateRange)
}

func TestStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	store.SetDateRange(ctx, &DateRange{From: "2024-01-01"})
	store.SetValues(ctx, FieldRegions, []string{"NCR"})
	store.SetValues(ctx, FieldCategories, []string{"Snacks"})
	require.True(t, store.HasActiveFilters())

	store.ClearAll(ctx)

	assert.False(t, store.HasActiveFilters())
	assert.True(t, store.State().Equal(NewState()))
	assert.Equal(t, store.now(), store.LastApplied())
}

func TestStore_ApplyPreset(t *testing.T) {
	ctx := context.Background()

	t.Run("symbolic 7d preset resolves against the clock", func(t *testing.T) {
		store := newTestStore(t)
		store.ApplyPreset(ctx, Preset{
			DateRangePreset: "7d",
			Partial:         Partial{Brands: []string{"Oishi"}},
		})

		state := store.State()
		require.NotNil(t, state.DateRange)
		assert.Equal(t, "2024-06-08", state.DateRange.From)
		assert.Equal(t, "2024-06-15", state.DateRange.To)
		assert.Equal(t, []string{"Oishi"}, state.Brands)
	})

	t.Run("ytd preset starts at Jan 1", func(t *testing.T) {
		store := newTestStore(t)
		store.ApplyPreset(ctx, Preset{DateRangePreset: "ytd"})

		state := store.State()
		require.NotNil(t, state.DateRange)
		assert.Equal(t, "2024-01-01", state.DateRange.From)
		assert.Equal(t, "2024-06-15", state.DateRange.To)
	})

	t.Run("unknown preset token leaves date range unchanged", func(t *testing.T) {
		store := newTestStore(t)
		store.SetDateRange(ctx, &DateRange{From: "2024-03-01", To: "2024-03-31"})

		store.ApplyPreset(ctx, Preset{
			DateRangePreset: "fortnight",
			Partial:         Partial{Categories: []string{"Dairy"}},
		})

		state := store.State()
		require.NotNil(t, state.DateRange)
		assert.Equal(t, "2024-03-01", state.DateRange.From)
		assert.Equal(t, []string{"Dairy"}, state.Categories)
	})

	t.Run("preset with regions cascades dependents", func(t *testing.T) {
		store := newTestStore(t)
		store.SetValues(ctx, FieldStores, []string{"SM North"})

		store.ApplyPreset(ctx, Preset{Partial: Partial{Regions: []string{"CALABARZON"}}})

		state := store.State()
		assert.Equal(t, []string{"CALABARZON"}, state.Regions)
		assert.Empty(t, state.Stores)
	})

	t.Run("nil fields in a partial are untouched", func(t *testing.T) {
		store := newTestStore(t)
		store.SetValues(ctx, FieldBrands, []string{"Oishi"})

		store.Apply(ctx, Partial{Categories: []string{"Snacks"}})

		state := store.State()
		assert.Equal(t, []string{"Oishi"}, state.Brands)
		assert.Equal(t, []string{"Snacks"}, state.Categories)
	})
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	persister := NewMemoryPersister()
	store := NewStore("session-a", persister)

	store.SetValues(ctx, FieldRegions, []string{"NCR"})
	store.SetDateRange(ctx, &DateRange{From: "2024-01-01", To: "2024-06-01"})

	saved, found, err := persister.Load(ctx, "session-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, saved.Equal(store.State()))

	// A fresh store for the same session restores the persisted state.
	restored := NewStore("session-a", persister)
	require.NoError(t, restored.Restore(ctx))
	assert.True(t, restored.State().Equal(store.State()))
}

func TestStore_LoadingExcludedFromPersistence(t *testing.T) {
	ctx := context.Background()
	persister := NewMemoryPersister()
	store := NewStore("session-b", persister)

	store.SetValues(ctx, FieldBrands, []string{"Champion"})
	store.SetLoading(true)

	restored := NewStore("session-b", persister)
	require.NoError(t, restored.Restore(ctx))
	assert.False(t, restored.Loading())
	assert.Equal(t, []string{"Champion"}, restored.State().Brands)
}

func TestManager_SharesStoresPerSession(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryPersister())

	a, err := manager.Get(ctx, "s1")
	require.NoError(t, err)
	b, err := manager.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := manager.Get(ctx, "s2")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}
