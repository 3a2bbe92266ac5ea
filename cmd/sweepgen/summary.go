package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/matsengrp/antigen/internal/orchestrator"
	"github.com/matsengrp/antigen/internal/storage"
	"github.com/matsengrp/antigen/internal/sweep"
	"github.com/matsengrp/antigen/internal/viz"
)

const barWidth = 30

// printPlan lists the directories a run would write, marking those whose
// parameter files are already present.
func printPlan(w io.Writer, plan *sweep.Plan, store *storage.Materializer) error {
	fmt.Fprintln(w, viz.HeaderStyle.Render("planned sweep (dry run)"))
	fmt.Fprintln(w, viz.Metric("combinations", strconv.Itoa(plan.Len())))
	fmt.Fprintln(w, viz.Metric("parameters", fmt.Sprint(plan.Spec().Keys())))
	fmt.Fprintln(w)

	for e := range plan.All() {
		exists, err := store.Exists(e)
		if err != nil {
			return err
		}
		dir := filepath.Join(store.Root(), e.Dir)
		mark := viz.Subtle.Render("new")
		if exists {
			mark = viz.StatusWarn.Render("exists")
		}
		fmt.Fprintf(w, "  %-6s %s  %s\n", mark, dir, viz.Subtle.Render(e.Combination.String()))
	}
	return nil
}

func printSummary(w io.Writer, r *orchestrator.Report) {
	total := r.Plan.Len()
	done := total - len(r.Failures) - r.Skipped

	fmt.Fprintln(w, viz.HeaderStyle.Render("sweep"))
	fmt.Fprintf(w, "%s %d/%d\n", viz.ProgressBar(done, total, barWidth), done, total)
	fmt.Fprintln(w, viz.Metric("files written", strconv.Itoa(len(r.Written))))
	if len(r.Failures) > 0 {
		fmt.Fprintln(w, viz.Metric("failed", strconv.Itoa(len(r.Failures))))
	}
	if r.Skipped > 0 {
		fmt.Fprintln(w, viz.Metric("skipped", strconv.Itoa(r.Skipped)))
	}
	if r.Manifest != "" {
		fmt.Fprintln(w, viz.Metric("manifest", r.Manifest))
	}

	switch {
	case len(r.Failures) > 0 || r.Skipped > 0:
		fmt.Fprintln(w, viz.StatusWarn.Render("incomplete"))
	default:
		fmt.Fprintln(w, viz.StatusOK.Render("done"))
	}
}

func failLine(err error) string {
	return viz.StatusFail.Render("error:") + " " + err.Error()
}
