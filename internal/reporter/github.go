// Package reporter files tracking issues when a drift audit finds
// structural discrepancies. Reporting is bounded by a hard timeout and its
// failures never alter an already computed drift report.
package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scoutlabs/retailboard/internal/drift"
)

const issueTitle = "Schema Drift Detected"

var issueLabels = []string{"schema-drift", "needs-attention"}

var ErrNotConfigured = errors.New("issue reporter is not configured")

// GitHubReporter opens an issue on the configured repository via the REST
// API. One POST per detected drift; the detector performs no retries.
type GitHubReporter struct {
	baseURL string
	token   string
	owner   string
	repo    string
	timeout time.Duration
	client  *http.Client
}

func NewGitHubReporter(token, owner, repo string, timeout time.Duration) *GitHubReporter {
	return &GitHubReporter{
		baseURL: "https://api.github.com",
		token:   token,
		owner:   owner,
		repo:    repo,
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (r *GitHubReporter) Configured() bool {
	return r.token != "" && r.owner != "" && r.repo != ""
}

type issueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// Report files an issue enumerating every finding. The request is cancelled
// after the configured timeout so a stuck tracker cannot hold the audit.
func (r *GitHubReporter) Report(ctx context.Context, report *drift.Report) error {
	if !r.Configured() {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := json.Marshal(issueRequest{
		Title:  issueTitle,
		Body:   RenderIssueBody(report),
		Labels: issueLabels,
	})
	if err != nil {
		return fmt.Errorf("failed to encode issue payload: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues", r.baseURL, r.owner, r.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build issue request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to file drift issue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("issue tracker rejected drift report: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// RenderIssueBody produces the structured markdown body: missing, extra and
// modified sections with expected/actual JSON blocks.
func RenderIssueBody(report *drift.Report) string {
	var b strings.Builder

	b.WriteString("# Schema Drift Detected\n\n")

	b.WriteString("## Missing Elements\n")
	writeList(&b, report.Missing)

	b.WriteString("\n## Extra Elements\n")
	writeList(&b, report.Extra)

	b.WriteString("\n## Modified Elements\n")
	if len(report.Modified) == 0 {
		b.WriteString("None\n")
	}
	for _, mod := range report.Modified {
		fmt.Fprintf(&b, "\n### %s\nExpected:\n```json\n%s\n```\n\nActual:\n```json\n%s\n```\n",
			mod.Name, renderJSON(mod.Expected), renderJSON(mod.Actual))
	}

	return strings.TrimSpace(b.String())
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("None\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func renderJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
