package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scoutlabs/retailboard/internal/filter"
	"github.com/scoutlabs/retailboard/internal/urlsync"
)

// Handler wires the HTTP surface to the core components. Every dependency
// is injected; nothing reaches for process-wide state.
type Handler struct {
	specs     SpecFetcher
	catalog   CatalogFetcher
	reporter  IssueReporter
	dashboard DashboardService
	filters   *filter.Manager
	baseURL   string

	mu      sync.Mutex
	syncers map[string]*urlsync.Syncer
}

func NewHandler(specs SpecFetcher, catalog CatalogFetcher, reporter IssueReporter,
	dashboardSvc DashboardService, filters *filter.Manager, baseURL string) *Handler {
	return &Handler{
		specs:     specs,
		catalog:   catalog,
		reporter:  reporter,
		dashboard: dashboardSvc,
		filters:   filters,
		baseURL:   baseURL,
		syncers:   make(map[string]*urlsync.Syncer),
	}
}

func (h *Handler) syncer(sessionID string) *urlsync.Syncer {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.syncers[sessionID]; ok {
		return s
	}
	s := urlsync.NewSyncer()
	h.syncers[sessionID] = s
	return s
}

// NewRouter assembles the chi router. The drift endpoint sits at the root
// to match the path the audit cron already calls; everything else lives
// under /api.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
	}))

	r.Get("/guardian_drift", h.GuardianDrift)
	r.Post("/guardian_drift", h.GuardianDrift)

	r.Route("/api", func(r chi.Router) {
		r.Route("/dashboard", func(r chi.Router) {
			r.HandleFunc("/get_dashboard_summary", h.DashboardSummary)
			r.HandleFunc("/get_age_distribution_simple", h.AgeDistribution)
			r.HandleFunc("/get_gender_distribution_simple", h.GenderDistribution)
			r.HandleFunc("/get_location_distribution", h.LocationDistribution)
			r.HandleFunc("/get_brand_performance", h.BrandPerformance)
			r.HandleFunc("/get_product_categories_summary", h.CategorySummary)
			r.HandleFunc("/get_daily_trends", h.DailyTrends)
		})

		r.Get("/snapshot", h.Snapshot)

		r.Route("/filters/{session}", func(r chi.Router) {
			r.Get("/", h.GetFilters)
			r.Delete("/", h.ClearAllFilters)
			r.Put("/{field}", h.SetFilter)
			r.Delete("/{field}", h.ClearFilter)
			r.Post("/preset", h.ApplyPreset)
			r.Post("/import", h.ImportFilters)
			r.Get("/link", h.ShareableLink)
		})
	})

	slog.Info("HTTP routes registered")
	return r
}

func (h *Handler) store(r *http.Request) (*filter.Store, error) {
	sessionID := chi.URLParam(r, "session")
	return h.filters.Get(r.Context(), sessionID)
}
