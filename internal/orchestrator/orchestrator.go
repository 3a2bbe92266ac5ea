// Package orchestrator runs a parameter sweep end to end.
//
// A run moves through three phases, stopping at the first error of the
// first two:
//
//	Loading        read the base and edits documents
//	Validating     expand the edits and name every combination
//	Materializing  create run directories and write parameter files
//
// Nothing is written before Validating succeeds. Failures while
// materializing are collected per combination and reported together
// once every combination has been attempted.
package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/matsengrp/antigen/internal/config"
	"github.com/matsengrp/antigen/internal/ctxlog"
	"github.com/matsengrp/antigen/internal/metrics"
	"github.com/matsengrp/antigen/internal/storage"
	"github.com/matsengrp/antigen/internal/sweep"
)

type Phase int32

const (
	PhaseLoading Phase = iota
	PhaseValidating
	PhaseMaterializing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseValidating:
		return "validating"
	case PhaseMaterializing:
		return "materializing"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

type Options struct {
	// OutputDir is where run directories are created. Default ".".
	OutputDir string
	// Runs is the number of replicate sub-directories per combination.
	// One or less writes directly into the combination directory.
	Runs int
	// Workers bounds concurrent materialization. One or less is sequential.
	Workers int
	// DryRun stops after Validating.
	DryRun bool
	// ConfigName is the parameter file name. Default config.DefaultFileName.
	ConfigName string
	// ManifestName is written at OutputDir after a clean run. Empty
	// disables the manifest.
	ManifestName string
	// Metrics may be nil.
	Metrics *metrics.Recorder
}

// Report describes a finished, or partially finished, run.
type Report struct {
	Plan *sweep.Plan
	// Written lists parameter files in enumeration order.
	Written  []string
	Manifest string
	Failures []*MaterializeError
	// Skipped counts combinations never attempted because ctx was done.
	Skipped int
	DryRun  bool
}

type Orchestrator struct {
	opts  Options
	phase atomic.Int32
}

func New(opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{opts: opts}
}

// Phase is the phase the last Run reached. After an error it is the
// phase that failed.
func (o *Orchestrator) Phase() Phase { return Phase(o.phase.Load()) }

func (o *Orchestrator) enter(ctx context.Context, p Phase, since time.Time) time.Time {
	prev := o.Phase()
	now := time.Now()
	if p != PhaseLoading {
		o.opts.Metrics.Phase(prev.String(), now.Sub(since))
	}
	o.phase.Store(int32(p))
	ctxlog.FromContext(ctx).Debug("phase", "from", prev, "to", p)
	return now
}

// Run loads baseSource and editsSource, validates the sweep, and writes
// one parameter file per combination (and replicate).
func (o *Orchestrator) Run(ctx context.Context, baseSource, editsSource string) (*Report, error) {
	log := ctxlog.FromContext(ctx).With("base", baseSource, "edits", editsSource)
	ctx = ctxlog.WithLogger(ctx, log)

	start := o.enter(ctx, PhaseLoading, time.Now())

	base, err := config.Load(baseSource)
	if err != nil {
		return nil, fmt.Errorf("load base config: %w", err)
	}
	edits, err := config.Load(editsSource)
	if err != nil {
		return nil, fmt.Errorf("load sweep edits: %w", err)
	}

	start = o.enter(ctx, PhaseValidating, start)

	spec, err := sweep.FromDocument(edits)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", editsSource, err)
	}
	plan, err := sweep.NewPlan(spec)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", editsSource, err)
	}
	o.opts.Metrics.Planned(plan.Len())
	log.Info("sweep planned", "combinations", plan.Len(), "parameters", spec.Keys())

	report := &Report{Plan: plan, DryRun: o.opts.DryRun}
	if o.opts.DryRun {
		o.enter(ctx, PhaseDone, start)
		return report, nil
	}

	start = o.enter(ctx, PhaseMaterializing, start)

	m := storage.New(o.opts.OutputDir, o.opts.ConfigName, o.opts.Runs)
	if err := m.Init(); err != nil {
		return report, fmt.Errorf("prepare output directory: %w", err)
	}

	for _, res := range o.materializeAll(ctx, m, plan, base) {
		switch {
		case !res.attempted:
			report.Skipped++
		case res.err != nil:
			report.Failures = append(report.Failures, res.err)
			report.Written = append(report.Written, res.written...)
		default:
			report.Written = append(report.Written, res.written...)
		}
	}

	if err := ctx.Err(); err != nil && report.Skipped > 0 {
		log.Warn("sweep interrupted", "skipped", report.Skipped, "written", len(report.Written))
		return report, fmt.Errorf("materialize: %w", err)
	}
	if len(report.Failures) > 0 {
		for _, f := range report.Failures {
			log.Error("combination failed", "dir", f.Dir, "combination", f.Combination.String(), "err", f.Err)
		}
		return report, &AggregateError{Total: plan.Len(), Failures: report.Failures}
	}

	if o.opts.ManifestName != "" {
		man, err := storage.NewManifest(baseSource, editsSource, base, plan, m)
		if err != nil {
			return report, err
		}
		if report.Manifest, err = m.WriteManifest(o.opts.ManifestName, man); err != nil {
			return report, fmt.Errorf("write manifest: %w", err)
		}
	}

	o.enter(ctx, PhaseDone, start)
	log.Info("sweep complete", "combinations", plan.Len(), "files", len(report.Written))
	return report, nil
}
