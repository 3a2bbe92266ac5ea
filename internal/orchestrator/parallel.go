package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matsengrp/antigen/internal/config"
	"github.com/matsengrp/antigen/internal/storage"
	"github.com/matsengrp/antigen/internal/sweep"
)

type result struct {
	attempted bool
	written   []string
	err       *MaterializeError
}

// materializeAll writes every entry of plan with at most Workers in
// flight. Entries own disjoint subtrees and share only the read-only base
// document, so each goroutine writes only its own result slot. A failing
// entry does not stop the others; once ctx is done no new entry starts.
func (o *Orchestrator) materializeAll(ctx context.Context, m *storage.Materializer, plan *sweep.Plan, base *config.Document) []result {
	entries := plan.Entries()
	results := make([]result, len(entries))

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)

	for i, e := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			start := time.Now()
			written, err := m.Materialize(ctx, e, base)
			results[i] = result{attempted: true, written: written}
			if err != nil {
				results[i].err = &MaterializeError{Dir: e.Dir, Combination: e.Combination, Err: err}
				o.opts.Metrics.Failed(time.Since(start))
				return nil
			}
			o.opts.Metrics.Materialized(len(written), time.Since(start))
			return nil
		})
	}

	_ = g.Wait()
	return results
}
