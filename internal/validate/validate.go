// Package validate checks lookup options, first offline and then against the
// live Splunk instance, and reports problems on the option responsible.
package validate

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// printer renders every user-facing validation message.
var printer = message.NewPrinter(language.English)

// ProbeEntity is looked up to test a configuration.
var ProbeEntity = types.Entity{Value: "8.8.8.8", Types: []string{"IPv4"}}

// Backend performs the Splunk calls validation needs, using the connection
// described by the options under test.
type Backend interface {
	Lookup(ctx context.Context, opts *types.Options, entities []types.Entity) ([]types.EntityLookupResult, error)
	Collections(ctx context.Context, opts *types.Options) ([]types.AppCollection, error)
	Documents(ctx context.Context, opts *types.Options, ac types.AppCollection, limit int) ([]map[string]any, error)
}

// Validator validates options.
type Validator struct {
	backend Backend
	workers int
}

// New creates a Validator. workers caps concurrent introspection calls.
func New(backend Backend, workers int) *Validator {
	if workers <= 0 {
		workers = 10
	}
	return &Validator{backend: backend, workers: workers}
}

// Validate runs every check and returns the typed options when there is no
// error. Checks stop at the first pass reporting errors: schema and
// structure, then KV store options, then the live probe lookup.
func (v *Validator) Validate(ctx context.Context, raw types.RawOptions) (*types.Options, []types.ValidationError) {
	opts, errs, kvErrs := parse(raw)
	if len(errs) > 0 {
		return nil, append(errs, kvErrs...)
	}
	if len(kvErrs) > 0 {
		return nil, v.checkKvStore(ctx, opts)
	}

	if _, err := v.backend.Lookup(ctx, opts, []types.Entity{ProbeEntity}); err != nil {
		slog.Debug("validation lookup failed", slog.String("error", err.Error()))
		return nil, Classify(err, opts)
	}

	return opts, nil
}
