package filter

import "slices"

// Field names a single filter dimension. Array fields hold plain string
// values; DateRange is the only non-array field.
type Field string

const (
	FieldDateRange  Field = "date_range"
	FieldRegions    Field = "regions"
	FieldStores     Field = "stores"
	FieldBrands     Field = "brands"
	FieldCategories Field = "categories"
	FieldBarangays  Field = "barangays"
)

// ArrayFields lists the list-valued dimensions in their canonical order.
var ArrayFields = []Field{FieldRegions, FieldStores, FieldBrands, FieldCategories, FieldBarangays}

// DateRange bounds a transaction-date window with ISO date strings
// (YYYY-MM-DD). An empty string leaves that side unbounded.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// State is the active analytical filter set. A nil DateRange means no date
// constraint at all, which is distinct from a DateRange with empty bounds.
type State struct {
	DateRange  *DateRange `json:"date_range"`
	Regions    []string   `json:"regions"`
	Stores     []string   `json:"stores"`
	Brands     []string   `json:"brands"`
	Categories []string   `json:"categories"`
	Barangays  []string   `json:"barangays"`
}

func NewState() State {
	return State{
		Regions:    []string{},
		Stores:     []string{},
		Brands:     []string{},
		Categories: []string{},
		Barangays:  []string{},
	}
}

func (s State) Clone() State {
	out := s
	if s.DateRange != nil {
		dr := *s.DateRange
		out.DateRange = &dr
	}
	out.Regions = slices.Clone(s.Regions)
	out.Stores = slices.Clone(s.Stores)
	out.Brands = slices.Clone(s.Brands)
	out.Categories = slices.Clone(s.Categories)
	out.Barangays = slices.Clone(s.Barangays)
	return out
}

// Values returns the list for an array field, nil for date_range or an
// unknown field.
func (s State) Values(field Field) []string {
	switch field {
	case FieldRegions:
		return s.Regions
	case FieldStores:
		return s.Stores
	case FieldBrands:
		return s.Brands
	case FieldCategories:
		return s.Categories
	case FieldBarangays:
		return s.Barangays
	}
	return nil
}

func (s *State) setValues(field Field, values []string) {
	if values == nil {
		values = []string{}
	}
	switch field {
	case FieldRegions:
		s.Regions = values
	case FieldStores:
		s.Stores = values
	case FieldBrands:
		s.Brands = values
	case FieldCategories:
		s.Categories = values
	case FieldBarangays:
		s.Barangays = values
	}
}

// HasActiveFilters reports whether any dimension constrains the data: a date
// range with at least one bound, or any non-empty array field.
func (s State) HasActiveFilters() bool {
	if s.DateRange != nil && (s.DateRange.From != "" || s.DateRange.To != "") {
		return true
	}
	for _, f := range ArrayFields {
		if len(s.Values(f)) > 0 {
			return true
		}
	}
	return false
}

// ActiveFilterCount counts individual filter values, not categories: one for
// a partially or fully set date range, plus every selected array value.
func (s State) ActiveFilterCount() int {
	count := 0
	if s.DateRange != nil && (s.DateRange.From != "" || s.DateRange.To != "") {
		count++
	}
	for _, f := range ArrayFields {
		count += len(s.Values(f))
	}
	return count
}

// Equal compares two states field by field. Nil and empty slices are
// considered equal; a nil DateRange only equals a nil DateRange.
func (s State) Equal(other State) bool {
	if (s.DateRange == nil) != (other.DateRange == nil) {
		return false
	}
	if s.DateRange != nil && *s.DateRange != *other.DateRange {
		return false
	}
	for _, f := range ArrayFields {
		a, b := s.Values(f), other.Values(f)
		if len(a) != len(b) {
			return false
		}
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}
