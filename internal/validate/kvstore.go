package validate

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// checkKvStore reports missing KV store options, listing what the Splunk
// instance offers. Introspection failures only shorten the message.
func (v *Validator) checkKvStore(ctx context.Context, opts *types.Options) []types.ValidationError {
	if len(opts.KvStoreCollections) == 0 {
		msg := printer.Sprintf("Required if you want to search the KV Store.")
		collections, err := v.backend.Collections(ctx, opts)
		if err != nil {
			slog.Debug("listing KV store collections failed", slog.String("error", err.Error()))
		} else if len(collections) > 0 {
			names := make([]string, len(collections))
			for i, c := range collections {
				names[i] = c.String()
			}
			msg += printer.Sprintf(" Available Apps & Collections to Search: %q", strings.Join(names, ", "))
		}
		return []types.ValidationError{
			{Key: types.OptionSearchType, Message: printer.Sprintf(`KV Store Search requires the option "KV Store Apps & Collections to Search" to have a valid value.  Please check validation on that option.`)},
			{Key: types.OptionKvStoreAppsAndCollections, Message: msg},
		}
	}

	if len(opts.KvStoreSearchFields) == 0 {
		fields := v.sampleFields(ctx, opts)
		msg := printer.Sprintf("Required if you want to search the KV Store.")
		if len(fields) > 0 {
			msg += printer.Sprintf(" Available Search Fields: %q", strings.Join(fields, ", "))
		} else {
			msg += printer.Sprintf(" No fields available to search.  Please select a different App and Collection pair.")
		}
		return []types.ValidationError{
			{Key: types.OptionSearchType, Message: printer.Sprintf(`KV Store Search requires the option "KV Store Search Fields" to have a valid value.  Please check validation on that option.`)},
			{Key: types.OptionKvStoreSearchStringFields, Message: msg},
		}
	}

	return nil
}

// sampleFields unions the field names of one document per collection, in
// collection order.
func (v *Validator) sampleFields(ctx context.Context, opts *types.Options) []string {
	perCollection := make([][]string, len(opts.KvStoreCollections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i, ac := range opts.KvStoreCollections {
		g.Go(func() error {
			docs, err := v.backend.Documents(gctx, opts, ac, 1)
			if err != nil {
				slog.Debug("sampling KV store collection failed",
					slog.String("collection", ac.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			var keys []string
			for _, d := range docs {
				keys = append(keys, slices.Sorted(maps.Keys(d))...)
			}
			perCollection[i] = keys
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for _, keys := range perCollection {
		for _, k := range keys {
			if !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
	}
	return out
}
