// Package urlsync maps filter state to a shareable query-string form and
// back. The date bounds travel as from/to and the regions, stores, brands
// and categories lists as comma-joined parameters. Barangays have no URL
// representation and do not survive a full reload.
package urlsync

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/scoutlabs/retailboard/internal/filter"
)

const isoDate = "2006-01-02"

// urlFields are the array fields with a query-parameter representation, in
// the order they appear in a generated link.
var urlFields = []filter.Field{
	filter.FieldRegions,
	filter.FieldStores,
	filter.FieldBrands,
	filter.FieldCategories,
}

// Encode serializes the URL-represented subset of a state. Empty fields are
// omitted entirely rather than encoded as empty parameters.
func Encode(state filter.State) url.Values {
	params := url.Values{}

	if state.DateRange != nil {
		if state.DateRange.From != "" {
			params.Set("from", state.DateRange.From)
		}
		if state.DateRange.To != "" {
			params.Set("to", state.DateRange.To)
		}
	}
	for _, f := range urlFields {
		if values := state.Values(f); len(values) > 0 {
			params.Set(string(f), strings.Join(values, ","))
		}
	}
	return params
}

// EncodeQuery is Encode rendered to a canonical query string.
func EncodeQuery(state filter.State) string {
	return Encode(state).Encode()
}

// Decode parses query parameters into a merge payload. Absent parameters
// leave the corresponding field untouched (nil in the partial). An invalid
// parameter set is treated as wholly absent: ok is false and the partial is
// empty. Malformed input never produces an error.
func Decode(params url.Values) (filter.Partial, bool) {
	if !Validate(params) {
		return filter.Partial{}, false
	}

	var partial filter.Partial

	from := params.Get("from")
	to := params.Get("to")
	if from != "" || to != "" {
		partial.DateRange = &filter.DateRange{From: from, To: to}
	}

	for _, f := range urlFields {
		if raw := params.Get(string(f)); raw != "" {
			values := strings.Split(raw, ",")
			switch f {
			case filter.FieldRegions:
				partial.Regions = values
			case filter.FieldStores:
				partial.Stores = values
			case filter.FieldBrands:
				partial.Brands = values
			case filter.FieldCategories:
				partial.Categories = values
			}
		}
	}
	return partial, true
}

// Validate rejects parameter sets with unparseable dates or markup
// characters in any array parameter.
func Validate(params url.Values) bool {
	for _, key := range []string{"from", "to"} {
		if value := params.Get(key); value != "" {
			if _, err := time.Parse(isoDate, value); err != nil {
				return false
			}
		}
	}
	for _, f := range urlFields {
		value := params.Get(string(f))
		if strings.ContainsAny(value, "<>") {
			return false
		}
	}
	return true
}

// ShareableURL renders a deep link for a state against a base URL.
func ShareableURL(baseURL string, state filter.State) string {
	query := EncodeQuery(state)
	if query == "" {
		return baseURL
	}
	return baseURL + "?" + query
}

// Syncer tracks the last exported query string for one store and only
// reports a change when the serialized form differs, so repeated identical
// states never produce extra navigation entries.
type Syncer struct {
	mu        sync.Mutex
	lastQuery string
}

func NewSyncer() *Syncer {
	return &Syncer{}
}

// Export serializes the state and reports whether the navigation target
// should be replaced. Subsequent calls during a pending replace simply move
// the target; nothing queues.
func (s *Syncer) Export(state filter.State) (query string, changed bool) {
	query = EncodeQuery(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	if query == s.lastQuery {
		return query, false
	}
	s.lastQuery = query
	return query, true
}

// Import applies URL parameters to a store on mount. Invalid parameter sets
// are dropped without touching the store.
func (s *Syncer) Import(params url.Values, apply func(filter.Partial)) bool {
	partial, ok := Decode(params)
	if !ok {
		return false
	}
	apply(partial)
	return true
}
