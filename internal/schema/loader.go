package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Parse decodes and validates an expected-schema YAML document.
func Parse(data []byte) (*Schema, error) {
	var doc Schema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}

	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("schema document failed validation: %w", err)
	}
	return &doc, nil
}

// Loader fetches the declared schema from its specification URL.
type Loader struct {
	specURL string
	client  *http.Client
}

func NewLoader(specURL string, fetchTimeout time.Duration) *Loader {
	return &Loader{
		specURL: specURL,
		client:  &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch retrieves and parses the expected schema. overrideURL, when
// non-empty, replaces the configured specification URL for this call (the
// dry-run spec_url query override). Any failure here is fatal to the audit
// run that requested it.
func (l *Loader) Fetch(ctx context.Context, overrideURL string) (*Schema, error) {
	target := l.specURL
	if overrideURL != "" {
		target = overrideURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema spec request for %s: %w", target, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema spec from %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch schema spec from %s: %s", target, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema spec body from %s: %w", target, err)
	}

	doc, err := Parse(body)
	if err != nil {
		return nil, err
	}

	slog.Info("Expected schema fetched",
		"url", target,
		"roles", len(doc.Roles),
		"tables", len(doc.Tables),
		"views", len(doc.Views),
		"functions", len(doc.Functions))
	return doc, nil
}
