package api

import (
	"log/slog"
	"net/http"

	"github.com/scoutlabs/retailboard/internal/drift"
)

// GuardianDrift runs a schema audit. With dry=true the response is the
// structured diff and nothing else happens; without it a detected drift
// also files a tracking issue. A reporter failure is logged but never masks
// the computed result: the structural finding is the answer, the ticket is
// bookkeeping.
func (h *Handler) GuardianDrift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dryRun := r.URL.Query().Get("dry") == "true"

	overrideURL := ""
	if dryRun {
		overrideURL = r.URL.Query().Get("spec_url")
	}

	expected, err := h.specs.Fetch(ctx, overrideURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	actual, err := h.catalog.Fetch(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	report := drift.Detect(expected, actual)

	if !report.HasDrift {
		writeJSON(w, http.StatusOK, driftResponse{Status: "no-drift"})
		return
	}

	if !dryRun {
		h.fileDriftIssue(r, report)
	}

	writeJSON(w, http.StatusOK, driftResponse{Status: "drift-detected", Details: report})
}

func (h *Handler) fileDriftIssue(r *http.Request, report *drift.Report) {
	if h.reporter == nil || !h.reporter.Configured() {
		slog.Warn("Drift detected but issue reporter is not configured")
		return
	}
	if err := h.reporter.Report(r.Context(), report); err != nil {
		slog.Error("Failed to file drift issue", "error", err)
		return
	}
	slog.Info("Drift issue filed",
		"missing", len(report.Missing),
		"modified", len(report.Modified))
}

type driftResponse struct {
	Status  string        `json:"status"`
	Details *drift.Report `json:"details,omitempty"`
}
