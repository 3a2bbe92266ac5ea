package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/matsengrp/antigen/internal/config"
	"github.com/matsengrp/antigen/internal/orchestrator"
	"github.com/matsengrp/antigen/internal/sweep"
)

var _ = Describe("sweepgen", func() {
	var (
		dir    string
		out    string
		base   string
		edits  string
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		return cmd.ExecuteContext(context.Background())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = filepath.Join(dir, "out")
		base = filepath.Join(dir, "base.yml")
		edits = filepath.Join(dir, "edits.yml")
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)

		Expect(os.WriteFile(base, []byte("a: 0\nb: 2\n"), 0644)).To(Succeed())
		Expect(os.WriteFile(edits, []byte("a: [1, 2]\nc: [3, 4]\n"), 0644)).To(Succeed())
	})

	It("writes one parameter file per combination", func() {
		Expect(execute(base, edits, "-o", out, "--log-level", "error")).To(Succeed())

		for _, d := range []string{"a_1_c_3", "a_1_c_4", "a_2_c_3", "a_2_c_4"} {
			Expect(filepath.Join(out, d, config.DefaultFileName)).To(BeAnExistingFile())
		}
		data, err := os.ReadFile(filepath.Join(out, "a_2_c_3", config.DefaultFileName))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("a: 2\nb: 2\nc: 3\n"))

		Expect(filepath.Join(out, "sweep.yml")).To(BeAnExistingFile())
		Expect(stdout.String()).To(ContainSubstring("4/4"))
	})

	It("honours --config-name and an empty --manifest", func() {
		Expect(execute(base, edits, "-o", out, "--config-name", "p.yml", "--manifest", "")).To(Succeed())

		Expect(filepath.Join(out, "a_1_c_3", "p.yml")).To(BeAnExistingFile())
		Expect(filepath.Join(out, "sweep.yml")).NotTo(BeAnExistingFile())
	})

	It("lists the plan on a dry run without writing", func() {
		Expect(execute(base, edits, "-o", out, "--dry-run")).To(Succeed())

		Expect(out).NotTo(BeADirectory())
		Expect(stdout.String()).To(ContainSubstring(filepath.Join(out, "a_1_c_3")))
		Expect(stdout.String()).To(ContainSubstring(filepath.Join(out, "a_2_c_4")))
	})

	It("marks existing directories on a dry run", func() {
		Expect(execute(base, edits, "-o", out)).To(Succeed())
		stdout.Reset()

		Expect(execute(base, edits, "-o", out, "--dry-run")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("exists"))
	})

	It("reads flags from the environment", func() {
		GinkgoT().Setenv("SWEEPGEN_RUNS", "2")
		GinkgoT().Setenv("SWEEPGEN_OUT", out)

		Expect(execute(base, edits)).To(Succeed())
		Expect(filepath.Join(out, "a_1_c_3", "0", config.DefaultFileName)).To(BeAnExistingFile())
		Expect(filepath.Join(out, "a_1_c_3", "1", config.DefaultFileName)).To(BeAnExistingFile())
	})

	It("writes the metrics file", func() {
		metricsFile := filepath.Join(dir, "sweep.prom")
		Expect(execute(base, edits, "-o", out, "--metrics-file", metricsFile, "-j", "2")).To(Succeed())

		data, err := os.ReadFile(metricsFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("sweepgen_files_written_total 4"))
		Expect(string(data)).To(ContainSubstring("sweepgen_combinations_planned 4"))
	})

	It("rejects the wrong number of arguments", func() {
		Expect(execute(base)).To(HaveOccurred())
		Expect(out).NotTo(BeADirectory())
	})

	It("fails on a missing base file", func() {
		err := execute(filepath.Join(dir, "missing.yml"), edits, "-o", out)

		var ioErr *config.IOError
		Expect(errors.As(err, &ioErr)).To(BeTrue())
		Expect(stderr.String()).To(ContainSubstring("error:"))
		Expect(out).NotTo(BeADirectory())
	})

	It("fails on a naming collision", func() {
		// a_x_b_y_b_z twice
		Expect(os.WriteFile(edits, []byte("a: [x_b_y, x]\nb: [z, y_b_z]\n"), 0644)).To(Succeed())

		err := execute(base, edits, "-o", out)
		Expect(err).To(MatchError(sweep.ErrCollision))
		Expect(out).NotTo(BeADirectory())
	})

	It("reports failed combinations", func() {
		Expect(os.MkdirAll(out, 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(out, "a_1_c_4"), nil, 0644)).To(Succeed())

		err := execute(base, edits, "-o", out)
		var agg *orchestrator.AggregateError
		Expect(errors.As(err, &agg)).To(BeTrue())
		Expect(agg.Failures).To(HaveLen(1))
		Expect(stdout.String()).To(ContainSubstring("incomplete"))
	})
})
