// Package scheduler splits a lookup into entity groups and runs them through
// a bounded worker pool.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/splunk-mcp/internal/strategy"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Default limits.
const (
	DefaultBatchSize      = 10
	DefaultMaxConcurrency = 10
)

// Config holds scheduler limits.
type Config struct {
	BatchSize      int
	MaxConcurrency int
}

// Scheduler runs entity groups through a strategy.
type Scheduler struct {
	config Config
}

// New creates a scheduler. Non-positive limits fall back to the defaults.
func New(cfg Config) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	return &Scheduler{config: cfg}
}

// Partition splits entities into groups of at most size, in input order.
// Every direct search gets a group of its own.
func Partition(entities []types.Entity, size int) [][]types.Entity {
	idxGroups := partitionIndexes(entities, size)
	groups := make([][]types.Entity, len(idxGroups))
	for gi, idxs := range idxGroups {
		groups[gi] = make([]types.Entity, len(idxs))
		for i, idx := range idxs {
			groups[gi][i] = entities[idx]
		}
	}
	return groups
}

// RunAll runs every group and returns one result per entity in input order.
// The first failing group cancels the others and its error is returned
// without partial results.
func (s *Scheduler) RunAll(ctx context.Context, entities []types.Entity, st strategy.Strategy) ([]types.EntityLookupResult, error) {
	start := time.Now()

	// Groups write results by entity position and may finish in any order.
	groups := partitionIndexes(entities, s.config.BatchSize)
	results := make([]types.EntityLookupResult, len(entities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)

	for gi, idxs := range groups {
		g.Go(func() error {
			group := make([]types.Entity, len(idxs))
			for i, idx := range idxs {
				group[i] = entities[idx]
			}

			out, err := st.Run(ctx, group)
			if err != nil {
				return fmt.Errorf("entity group %d: %w", gi, err)
			}
			if len(out) != len(group) {
				return fmt.Errorf("entity group %d: got %d results for %d entities", gi, len(out), len(group))
			}
			for i, idx := range idxs {
				results[idx] = out[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Debug("entity groups failed",
			slog.Int("entities", len(entities)),
			slog.Int("groups", len(groups)),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, err
	}

	slog.Debug("entity groups completed",
		slog.Int("entities", len(entities)),
		slog.Int("groups", len(groups)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return results, nil
}

// partitionIndexes groups entity positions.
func partitionIndexes(entities []types.Entity, size int) [][]int {
	var groups [][]int
	var current []int

	for i, e := range entities {
		if e.IsDirectSearch() {
			groups = append(groups, []int{i})
			continue
		}
		current = append(current, i)
		if len(current) == size {
			groups = append(groups, current)
			current = nil
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
