package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matsengrp/antigen/internal/config"
	"github.com/matsengrp/antigen/internal/ctxlog"
	"github.com/matsengrp/antigen/internal/metrics"
	"github.com/matsengrp/antigen/internal/orchestrator"
	"github.com/matsengrp/antigen/internal/storage"
)

const envPrefix = "SWEEPGEN"

const (
	flagOut         = "out"
	flagRuns        = "runs"
	flagWorkers     = "workers"
	flagDryRun      = "dry-run"
	flagConfigName  = "config-name"
	flagManifest    = "manifest"
	flagMetricsFile = "metrics-file"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "sweepgen <base.yml> <edits.yml>",
		Short: "materialize a parameter sweep as run directories",
		Long: `sweepgen expands every list in the edits file into the cartesian
product of its values, and writes one copy of the base parameters per
combination with that combination's values applied.

Each combination gets a directory named after its values, for example
"mu_0.01_N_1000", under the output directory.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, v, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringP(flagOut, "o", ".", "output directory")
	f.IntP(flagRuns, "r", 1, "replicate run directories per combination")
	f.IntP(flagWorkers, "j", 1, "combinations materialized concurrently")
	f.Bool(flagDryRun, false, "print the planned directories without writing")
	f.String(flagConfigName, config.DefaultFileName, "parameter file name inside each run directory")
	f.String(flagManifest, storage.DefaultManifestName, `sweep manifest written in the output directory ("" disables)`)
	f.String(flagMetricsFile, "", "write Prometheus metrics in textfile format")
	f.String(flagLogLevel, "info", "debug, info, warn or error")
	f.String(flagLogFormat, "text", "text or json")

	_ = v.BindPFlags(f)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func runSweep(cmd *cobra.Command, v *viper.Viper, baseSource, editsSource string) error {
	logger := ctxlog.New(v.GetString(flagLogLevel), v.GetString(flagLogFormat), cmd.ErrOrStderr())
	ctx := ctxlog.WithLogger(cmd.Context(), logger)

	var rec *metrics.Recorder
	metricsFile := v.GetString(flagMetricsFile)
	if metricsFile != "" {
		rec = metrics.New()
	}

	opts := orchestrator.Options{
		OutputDir:    v.GetString(flagOut),
		Runs:         v.GetInt(flagRuns),
		Workers:      v.GetInt(flagWorkers),
		DryRun:       v.GetBool(flagDryRun),
		ConfigName:   v.GetString(flagConfigName),
		ManifestName: v.GetString(flagManifest),
		Metrics:      rec,
	}

	orc := orchestrator.New(opts)
	report, runErr := orc.Run(ctx, baseSource, editsSource)

	if rec != nil {
		if err := rec.WriteTextfile(metricsFile); err != nil {
			logger.Error("write metrics", "path", metricsFile, "err", err)
			if runErr == nil {
				runErr = fmt.Errorf("write metrics: %w", err)
			}
		}
	}

	out := cmd.OutOrStdout()
	if report != nil {
		if report.DryRun {
			store := storage.New(opts.OutputDir, opts.ConfigName, opts.Runs)
			if err := printPlan(out, report.Plan, store); err != nil {
				return err
			}
		} else {
			printSummary(out, report)
		}
	}

	if runErr != nil {
		logger.Error("sweep failed", "phase", orc.Phase(), "err", runErr)
		fmt.Fprintln(cmd.ErrOrStderr(), failLine(runErr))
		return runErr
	}
	return nil
}
