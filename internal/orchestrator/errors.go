package orchestrator

import (
	"fmt"
	"strings"

	"github.com/matsengrp/antigen/internal/sweep"
)

// MaterializeError wraps a failure to create or write one run directory.
type MaterializeError struct {
	Dir         string
	Combination sweep.Combination
	Err         error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("combination #%d %s in %q: %v", e.Combination.Index, e.Combination, e.Dir, e.Err)
}

func (e *MaterializeError) Unwrap() error { return e.Err }

// AggregateError lists every combination that failed to materialize.
type AggregateError struct {
	Total    int
	Failures []*MaterializeError
}

func (e *AggregateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d combinations failed:", len(e.Failures), e.Total)
	for _, f := range e.Failures {
		sb.WriteString("\n  - ")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

func (e *AggregateError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}
