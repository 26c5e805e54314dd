// Package lookup is the entry point for entity lookups: it validates options,
// connects to Splunk, runs the configured strategy through the scheduler, and
// finishes each result with summary tags and a Splunk UI link.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/usestring/splunk-mcp/internal/reconcile"
	"github.com/usestring/splunk-mcp/internal/scheduler"
	"github.com/usestring/splunk-mcp/internal/strategy"
	"github.com/usestring/splunk-mcp/internal/validate"
	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("search query is empty")

// OptionsError reports lookup options that failed validation.
type OptionsError struct {
	Errors []types.ValidationError
}

func (e *OptionsError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Key + ": " + ve.Message
	}
	return "invalid lookup options: " + strings.Join(msgs, "; ")
}

// Config configures a Service.
type Config struct {
	// HTTPClient is shared by every Splunk call. Nil means http.DefaultClient.
	HTTPClient *http.Client
	// Tokens caches session keys across lookups. Nil disables caching.
	Tokens   client.TokenCache
	TokenTTL time.Duration

	BatchSize      int
	MaxConcurrency int

	// Defaults is merged under the options of every call.
	Defaults types.RawOptions
}

// Service runs lookups. It is safe for concurrent use; each call builds its
// own client from the options it is given.
type Service struct {
	httpClient  *http.Client
	sessions    *client.Sessions
	sched       *scheduler.Scheduler
	maxInFlight int64
	defaults    types.RawOptions
	validator   *validate.Validator
}

// New creates a Service.
func New(cfg Config) *Service {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	maxInFlight := cfg.MaxConcurrency
	if maxInFlight <= 0 {
		maxInFlight = scheduler.DefaultMaxConcurrency
	}

	s := &Service{
		httpClient: hc,
		sessions:   &client.Sessions{Cache: cfg.Tokens, TTL: cfg.TokenTTL},
		sched: scheduler.New(scheduler.Config{
			BatchSize:      cfg.BatchSize,
			MaxConcurrency: cfg.MaxConcurrency,
		}),
		maxInFlight: int64(maxInFlight),
		defaults:    cfg.Defaults,
	}
	s.validator = validate.New(backend{s}, cfg.MaxConcurrency)
	return s
}

// Options returns the service defaults with raw applied over them.
func (s *Service) Options(raw types.RawOptions) types.RawOptions {
	return s.defaults.Merge(raw)
}

// Lookup looks every entity up with raw merged over the service defaults. It
// returns one result per entity in input order, or the first error any batch
// hit.
func (s *Service) Lookup(ctx context.Context, entities []types.Entity, raw types.RawOptions) ([]types.EntityLookupResult, error) {
	opts, errs := validate.Parse(s.Options(raw))
	if len(errs) > 0 {
		return nil, &OptionsError{Errors: errs}
	}
	return s.run(ctx, opts, entities)
}

// Search runs query as a direct search. A query that does not start with a
// generating command gets a leading "search".
func (s *Service) Search(ctx context.Context, query string, raw types.RawOptions) (*types.EntityLookupResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	merged := s.Options(raw)
	// A direct search needs no template.
	if merged.SearchString == "" {
		merged.SearchString = query
	}
	opts, errs := validate.Parse(merged)
	if len(errs) > 0 {
		return nil, &OptionsError{Errors: errs}
	}

	entity := types.Entity{
		Value:           query,
		Types:           []string{types.TypeDirectSearch},
		IsUserInitiated: true,
	}
	results, err := s.run(ctx, opts, []types.Entity{entity})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// ValidateOptions checks raw, merged over the service defaults, offline and
// against Splunk. Problems come back as validation errors, never as an error.
func (s *Service) ValidateOptions(ctx context.Context, raw types.RawOptions) []types.ValidationError {
	_, errs := s.validator.Validate(ctx, s.Options(raw))
	return errs
}

func (s *Service) run(ctx context.Context, opts *types.Options, entities []types.Entity) ([]types.EntityLookupResult, error) {
	start := time.Now()
	log := slog.With(
		slog.String("lookup_id", uuid.NewString()),
		slog.String("search_type", string(opts.SearchType)),
	)

	// One limiter per call bounds the requests of every group together.
	c, err := s.client(opts, semaphore.NewWeighted(s.maxInFlight))
	if err != nil {
		return nil, err
	}
	st, err := strategy.New(c, opts)
	if err != nil {
		return nil, err
	}

	results, err := s.sched.RunAll(ctx, entities, st)
	if err != nil {
		log.Warn("lookup failed",
			slog.Int("entities", len(entities)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	hits := 0
	for i := range results {
		finish(&results[i], opts)
		if !results[i].IsMiss() {
			hits++
		}
	}

	log.Info("lookup completed",
		slog.Int("entities", len(entities)),
		slog.Int("hits", hits),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return results, nil
}

// finish adds the summary tags and the UI link.
func finish(r *types.EntityLookupResult, opts *types.Options) {
	if !r.IsMiss() {
		r.Tags = reconcile.SummaryTags(r.Rows, opts.SummaryFields, opts.MaxSummaryTags)
	}
	r.OpenInSplunkURL = OpenInSplunkURL(opts.UIHostname, r.SearchAppQuery)
}

// OpenInSplunkURL links query in the Splunk search app under uiHostname. It
// returns "" when either is empty.
func OpenInSplunkURL(uiHostname, query string) string {
	if uiHostname == "" || query == "" {
		return ""
	}
	return strings.TrimSuffix(uiHostname, "/") + "/en-US/app/search/search?q=" + url.QueryEscape(query)
}

func (s *Service) client(opts *types.Options, limiter *semaphore.Weighted) (*client.Client, error) {
	auth, err := client.NewAuthenticator(opts, s.httpClient, s.sessions)
	if err != nil {
		return nil, err
	}
	return client.New(
		client.WithBaseURL(opts.URL),
		client.WithHTTPClient(s.httpClient),
		client.WithAuthenticator(auth),
		client.WithLimiter(limiter),
	), nil
}

// backend gives the validator access to Splunk through the service.
type backend struct {
	s *Service
}

func (b backend) Lookup(ctx context.Context, opts *types.Options, entities []types.Entity) ([]types.EntityLookupResult, error) {
	return b.s.run(ctx, opts, entities)
}

func (b backend) Collections(ctx context.Context, opts *types.Options) ([]types.AppCollection, error) {
	c, err := b.s.client(opts, nil)
	if err != nil {
		return nil, err
	}
	return c.KVStoreCollections(ctx)
}

func (b backend) Documents(ctx context.Context, opts *types.Options, ac types.AppCollection, limit int) ([]map[string]any, error) {
	c, err := b.s.client(opts, nil)
	if err != nil {
		return nil, err
	}
	return c.KVStoreDocuments(ctx, ac.App, ac.Collection, client.KVStoreQuery{Limit: limit})
}
