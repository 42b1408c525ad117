package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scoutlabs/retailboard/internal/filter"
	"github.com/scoutlabs/retailboard/internal/urlsync"
)

var ErrUnknownField = errors.New("unknown filter field")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError always renders a single human-readable message, never a trace.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type filterStateResponse struct {
	State       filter.State `json:"state"`
	ActiveCount int          `json:"active_count"`
	HasActive   bool         `json:"has_active"`
	Query       string       `json:"query"`
}

func (h *Handler) writeFilterState(w http.ResponseWriter, store *filter.Store) {
	state := store.State()
	writeJSON(w, http.StatusOK, filterStateResponse{
		State:       state,
		ActiveCount: store.ActiveFilterCount(),
		HasActive:   store.HasActiveFilters(),
		Query:       urlsync.EncodeQuery(state),
	})
}

func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	store, err := h.store(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeFilterState(w, store)
}

type setFilterRequest struct {
	Values    []string          `json:"values,omitempty"`
	DateRange *filter.DateRange `json:"date_range,omitempty"`
}

func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	store, err := h.store(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	field := filter.Field(chi.URLParam(r, "field"))

	var req setFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid filter payload: %w", err))
		return
	}

	switch {
	case field == filter.FieldDateRange:
		store.SetDateRange(r.Context(), req.DateRange)
	case slices.Contains(filter.ArrayFields, field):
		store.SetValues(r.Context(), field, req.Values)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", ErrUnknownField, field))
		return
	}

	h.writeFilterState(w, store)
}

func (h *Handler) ClearFilter(w http.ResponseWriter, r *http.Request) {
	store, err := h.store(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	field := filter.Field(chi.URLParam(r, "field"))
	if field != filter.FieldDateRange && !slices.Contains(filter.ArrayFields, field) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", ErrUnknownField, field))
		return
	}

	store.ClearFilter(r.Context(), field)
	h.writeFilterState(w, store)
}

func (h *Handler) ClearAllFilters(w http.ResponseWriter, r *http.Request) {
	store, err := h.store(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	store.ClearAll(r.Context())
	h.writeFilterState(w, store)
}

type presetRequest struct {
	Name string `json:"name,omitempty"`
	filter.Preset
}

func (h *Handler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	store, err := h.store(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid preset payload: %w", err))
		return
	}

	preset := req.Preset
	if req.Name != "" {
		named, ok := filter.NamedPresets(time.Now())[req.Name]
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown preset: %s", req.Name))
			return
		}
		preset = named
	}

	store.ApplyPreset(r.Context(), preset)
	h.writeFilterState(w, store)
}

// ImportFilters applies URL query parameters to the session, the mount-time
// direction of the URL sync. Invalid parameter sets are dropped whole.
func (h *Handler) ImportFilters(w http.ResponseWriter, r *http.Request) {
	store, err := h.store(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.syncer(chi.URLParam(r, "session")).Import(r.URL.Query(), func(p filter.Partial) {
		store.Apply(r.Context(), p)
	})
	h.writeFilterState(w, store)
}

type linkResponse struct {
	URL     string `json:"url"`
	Changed bool   `json:"changed"`
}

// ShareableLink exports the session state as a deep link. Changed reports
// whether the serialized form moved since the last export; repeated calls
// with identical state never report a new navigation entry.
func (h *Handler) ShareableLink(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	store, err := h.store(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	state := store.State()
	query, changed := h.syncer(sessionID).Export(state)
	url := h.baseURL
	if query != "" {
		url += "?" + query
	}
	writeJSON(w, http.StatusOK, linkResponse{URL: url, Changed: changed})
}

// filtersFromRequest resolves the filter state for a dashboard call: a JSON
// body {"filters": {...}} when present, otherwise the URL parameter form.
// An empty or absent filter object means no constraints.
func filtersFromRequest(r *http.Request) filter.State {
	state := filter.NewState()

	if r.Method == http.MethodPost && r.Body != nil {
		var req struct {
			Filters *filter.Partial `json:"filters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Filters != nil {
			applyPartial(&state, *req.Filters)
			return state
		}
		return state
	}

	if partial, ok := urlsync.Decode(r.URL.Query()); ok {
		applyPartial(&state, partial)
	}
	return state
}

func applyPartial(state *filter.State, partial filter.Partial) {
	store := filter.NewStore("", nil)
	store.Apply(context.Background(), partial)
	*state = store.State()
}

func (h *Handler) dashboardCall(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, state filter.State) (any, error)) {
	result, err := fn(r.Context(), filtersFromRequest(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	h.dashboardCall(w, r, func(ctx context.Context, state filter.State) (any, error) {
		return h.dashboard.Summary(ctx, state)
	})
}

func (h *Handler) AgeDistribution(w http.ResponseWriter, r *http.Request) {
	h.dashboardCall(w, r, func(ctx context.Context, state filter.State) (any, error) {
		return h.dashboard.AgeDistribution(ctx, state)
	})
}

func (h *Handler) GenderDistribution(w http.ResponseWriter, r *http.Request) {
	h.dashboardCall(w, r, func(ctx context.Context, state filter.State) (any, error) {
		return h.dashboard.GenderDistribution(ctx, state)
	})
}

func (h *Handler) LocationDistribution(w http.ResponseWriter, r *http.Request) {
	h.dashboardCall(w, r, func(ctx context.Context, state filter.State) (any, error) {
		return h.dashboard.LocationDistribution(ctx, state)
	})
}

func (h *Handler) BrandPerformance(w http.ResponseWriter, r *http.Request) {
	h.dashboardCall(w, r, func(ctx context.Context, state filter.State) (any, error) {
		return h.dashboard.BrandPerformance(ctx, state)
	})
}

func (h *Handler) CategorySummary(w http.ResponseWriter, r *http.Request) {
	h.dashboardCall(w, r, func(ctx context.Context, state filter.State) (any, error) {
		return h.dashboard.CategorySummary(ctx, state)
	})
}

func (h *Handler) DailyTrends(w http.ResponseWriter, r *http.Request) {
	h.dashboardCall(w, r, func(ctx context.Context, state filter.State) (any, error) {
		return h.dashboard.DailyTrends(ctx, state)
	})
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
