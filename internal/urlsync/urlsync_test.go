package urlsync

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutlabs/retailboard/internal/filter"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(*filter.Store)
	}{
		{
			name:  "empty state",
			setup: func(s *filter.Store) {},
		},
		{
			name: "date range only",
			setup: func(s *filter.Store) {
				s.SetDateRange(ctx, &filter.DateRange{From: "2024-01-01", To: "2024-03-31"})
			},
		},
		{
			name: "partial date range",
			setup: func(s *filter.Store) {
				s.SetDateRange(ctx, &filter.DateRange{From: "2024-01-01"})
			},
		},
		{
			name: "all url fields",
			setup: func(s *filter.Store) {
				s.SetDateRange(ctx, &filter.DateRange{From: "2024-01-01", To: "2024-06-30"})
				s.SetValues(ctx, filter.FieldRegions, []string{"NCR", "CALABARZON"})
				s.SetValues(ctx, filter.FieldStores, []string{"SM North"})
				s.SetValues(ctx, filter.FieldBrands, []string{"Oishi", "Del Monte"})
				s.SetValues(ctx, filter.FieldCategories, []string{"Snacks"})
			},
		},
		{
			name: "values with spaces and parens",
			setup: func(s *filter.Store) {
				s.SetValues(ctx, filter.FieldRegions, []string{"National Capital Region (NCR)"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := filter.NewStore("src", nil)
			tt.setup(source)
			state := source.State()

			encoded := EncodeQuery(state)
			params, err := url.ParseQuery(encoded)
			require.NoError(t, err)

			target := filter.NewStore("dst", nil)
			partial, ok := Decode(params)
			require.True(t, ok)
			target.Apply(context.Background(), partial)

			// Restrict the comparison to the URL-represented fields.
			restored := target.State()
			restored.Barangays = state.Barangays
			assert.True(t, restored.Equal(state),
				"round trip mismatch: %#v vs %#v", restored, state)
		})
	}
}

func TestDecode_AbsentParamsLeaveFieldsUntouched(t *testing.T) {
	ctx := context.Background()
	store := filter.NewStore("s", nil)
	store.SetValues(ctx, filter.FieldBrands, []string{"Oishi"})

	params, err := url.ParseQuery("categories=Snacks,Dairy")
	require.NoError(t, err)

	partial, ok := Decode(params)
	require.True(t, ok)
	store.Apply(ctx, partial)

	state := store.State()
	assert.Equal(t, []string{"Oishi"}, state.Brands)
	assert.Equal(t, []string{"Snacks", "Dairy"}, state.Categories)
	assert.Nil(t, state.DateRange)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		query string
		valid bool
	}{
		{"empty", "", true},
		{"well formed", "from=2024-01-01&to=2024-02-01&brands=Oishi", true},
		{"bad from date", "from=yesterday", false},
		{"bad to date", "to=2024-13-45", false},
		{"script tag in brands", "brands=%3Cscript%3Ealert(1)%3C/script%3E", false},
		{"angle bracket in regions", "regions=NCR%3E", false},
		{"commas are fine", "stores=SM North,Puregold", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, Validate(params))
		})
	}
}

func TestDecode_RejectedSetIsTreatedAsAbsent(t *testing.T) {
	params, err := url.ParseQuery("from=2024-01-01&brands=%3Cscript%3E")
	require.NoError(t, err)

	partial, ok := Decode(params)
	assert.False(t, ok)
	assert.Nil(t, partial.DateRange)
	assert.Nil(t, partial.Brands)

	// Import drops the whole set without touching the store.
	store := filter.NewStore("s", nil)
	applied := NewSyncer().Import(params, func(p filter.Partial) {
		store.Apply(context.Background(), p)
	})
	assert.False(t, applied)
	assert.False(t, store.HasActiveFilters())
}

func TestSyncer_IdempotentExport(t *testing.T) {
	ctx := context.Background()
	store := filter.NewStore("s", nil)
	syncer := NewSyncer()

	_, changed := syncer.Export(store.State())
	assert.False(t, changed, "initial empty state matches the empty query")

	store.SetValues(ctx, filter.FieldRegions, []string{"NCR"})
	query, changed := syncer.Export(store.State())
	assert.True(t, changed)
	assert.Equal(t, "regions=NCR", query)

	// Identical state produces no further replace.
	_, changed = syncer.Export(store.State())
	assert.False(t, changed)

	store.SetValues(ctx, filter.FieldRegions, []string{"NCR"})
	_, changed = syncer.Export(store.State())
	assert.False(t, changed, "reassigning the same value keeps the same query")
}

func TestShareableURL(t *testing.T) {
	state := filter.NewState()
	assert.Equal(t, "https://scout.example.com/dash", ShareableURL("https://scout.example.com/dash", state))

	state.Brands = []string{"Oishi"}
	assert.Equal(t, "https://scout.example.com/dash?brands=Oishi",
		ShareableURL("https://scout.example.com/dash", state))
}
