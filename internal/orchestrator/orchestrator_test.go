package orchestrator_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/matsengrp/antigen/internal/config"
	"github.com/matsengrp/antigen/internal/ctxlog"
	"github.com/matsengrp/antigen/internal/metrics"
	"github.com/matsengrp/antigen/internal/orchestrator"
	"github.com/matsengrp/antigen/internal/storage"
	"github.com/matsengrp/antigen/internal/sweep"
)

func writeFile(path, text string) {
	GinkgoHelper()
	Expect(os.WriteFile(path, []byte(text), 0644)).To(Succeed())
}

// snapshot maps every file below root to its contents.
func snapshot(root string) map[string]string {
	GinkgoHelper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[rel] = string(data)
		return nil
	})
	Expect(err).NotTo(HaveOccurred())
	return out
}

func doc(pairs ...any) *config.Document {
	b := config.NewBuilder()
	for i := 0; i < len(pairs); i += 2 {
		b.Set(pairs[i].(string), pairs[i+1].(config.Value))
	}
	return b.Document()
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx   context.Context
		dir   string
		out   string
		base  string
		edits string
	)

	BeforeEach(func() {
		ctx = ctxlog.WithLogger(context.Background(), ctxlog.Discard())
		dir = GinkgoT().TempDir()
		out = filepath.Join(dir, "out")
		base = filepath.Join(dir, "parameters.yml")
		edits = filepath.Join(dir, "edits.yml")
		writeFile(base, "a: 1\nb: 2\n")
		writeFile(edits, "a: [1, 2]\nc: [3, 4]\n")
	})

	Describe("a clean sweep", func() {
		It("creates one directory per combination in enumeration order", func() {
			o := orchestrator.New(orchestrator.Options{OutputDir: out})
			report, err := o.Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			Expect(o.Phase()).To(Equal(orchestrator.PhaseDone))

			Expect(report.Plan.Dirs()).To(Equal([]string{"a_1_c_3", "a_1_c_4", "a_2_c_3", "a_2_c_4"}))
			Expect(report.Written).To(HaveLen(4))
			Expect(report.Failures).To(BeEmpty())

			for _, e := range report.Plan.Entries() {
				got, err := config.Load(filepath.Join(out, e.Dir, config.DefaultFileName))
				Expect(err).NotTo(HaveOccurred())

				a, _ := e.Combination.Get("a")
				c, _ := e.Combination.Get("c")
				want := doc("a", a, "b", config.Int(2), "c", c)
				Expect(got.Equal(want)).To(BeTrue(), "dir %s: got %v want %v", e.Dir, got, want)
			}

			entries, err := os.ReadDir(out)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(4))
		})

		It("replicates each combination into numbered sub-directories", func() {
			report, err := orchestrator.New(orchestrator.Options{OutputDir: out, Runs: 2}).Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Written).To(HaveLen(8))

			for _, name := range report.Plan.Dirs() {
				zero, err := os.ReadFile(filepath.Join(out, name, "0", config.DefaultFileName))
				Expect(err).NotTo(HaveOccurred())
				one, err := os.ReadFile(filepath.Join(out, name, "1", config.DefaultFileName))
				Expect(err).NotTo(HaveOccurred())
				Expect(one).To(Equal(zero))
				Expect(filepath.Join(out, name, config.DefaultFileName)).NotTo(BeAnExistingFile())
			}
		})

		It("is idempotent when re-run with unchanged inputs", func() {
			opts := orchestrator.Options{OutputDir: out, Runs: 2, ManifestName: storage.DefaultManifestName}
			_, err := orchestrator.New(opts).Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			first := snapshot(out)

			_, err = orchestrator.New(opts).Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot(out)).To(Equal(first))
		})

		It("replaces files when inputs change (last writer wins)", func() {
			o := orchestrator.New(orchestrator.Options{OutputDir: out})
			_, err := o.Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())

			writeFile(base, "a: 1\nb: 99\n")
			_, err = o.Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())

			got, err := config.Load(filepath.Join(out, "a_2_c_3", config.DefaultFileName))
			Expect(err).NotTo(HaveOccurred())
			b, _ := got.Get("b")
			Expect(b.Equal(config.Int(99))).To(BeTrue())
		})

		It("writes the base config into the root for an empty sweep", func() {
			writeFile(edits, "")
			report, err := orchestrator.New(orchestrator.Options{OutputDir: out}).Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Written).To(Equal([]string{filepath.Join(out, config.DefaultFileName)}))

			got, err := config.Load(report.Written[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Equal(doc("a", config.Int(1), "b", config.Int(2)))).To(BeTrue())
		})

		It("records scalar edits in every name and file", func() {
			writeFile(edits, "a: [1, 2]\nseed: 7\n")
			report, err := orchestrator.New(orchestrator.Options{OutputDir: out}).Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Plan.Dirs()).To(Equal([]string{"a_1_seed_7", "a_2_seed_7"}))
		})

		It("writes a manifest and metrics", func() {
			rec := metrics.New()
			report, err := orchestrator.New(orchestrator.Options{
				OutputDir:    out,
				Workers:      3,
				ManifestName: "sweep.yml",
				Metrics:      rec,
			}).Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Manifest).To(Equal(filepath.Join(out, "sweep.yml")))

			man, err := storage.ReadManifest(report.Manifest)
			Expect(err).NotTo(HaveOccurred())
			Expect(man.Directories).To(HaveLen(4))
			Expect(man.Base).To(Equal(base))

			prom := filepath.Join(dir, "sweep.prom")
			Expect(rec.WriteTextfile(prom)).To(Succeed())
			data, err := os.ReadFile(prom)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("sweepgen_files_written_total 4"))
			Expect(string(data)).To(ContainSubstring("sweepgen_combinations_planned 4"))
		})
	})

	Describe("dry run", func() {
		It("plans without touching the filesystem", func() {
			o := orchestrator.New(orchestrator.Options{OutputDir: out, DryRun: true})
			report, err := o.Run(ctx, base, edits)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.DryRun).To(BeTrue())
			Expect(report.Plan.Len()).To(Equal(4))
			Expect(out).NotTo(BeADirectory())
		})
	})

	Describe("failures before materializing", func() {
		It("reports a missing base file as an IOError while loading", func() {
			o := orchestrator.New(orchestrator.Options{OutputDir: out})
			_, err := o.Run(ctx, filepath.Join(dir, "missing.yml"), edits)

			var ioErr *config.IOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("missing.yml"))
			Expect(o.Phase()).To(Equal(orchestrator.PhaseLoading))
			Expect(out).NotTo(BeADirectory())
		})

		It("reports malformed edits as a ParseError while loading", func() {
			writeFile(edits, "a: [1, 2\n")
			o := orchestrator.New(orchestrator.Options{OutputDir: out})
			_, err := o.Run(ctx, base, edits)

			var pe *config.ParseError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Path).To(Equal(edits))
			Expect(o.Phase()).To(Equal(orchestrator.PhaseLoading))
			Expect(out).NotTo(BeADirectory())
		})

		It("rejects an empty candidate list while validating", func() {
			writeFile(edits, "a: [1, 2]\nc: []\n")
			o := orchestrator.New(orchestrator.Options{OutputDir: out})
			_, err := o.Run(ctx, base, edits)

			var ve *sweep.ValidationError
			Expect(errors.As(err, &ve)).To(BeTrue())
			Expect(ve.Key).To(Equal("c"))
			Expect(err.Error()).To(ContainSubstring(edits))
			Expect(o.Phase()).To(Equal(orchestrator.PhaseValidating))
			Expect(out).NotTo(BeADirectory())
		})

		It("detects a naming collision before creating any directory", func() {
			writeFile(edits, "a: [x_c, x]\nc: [y, c_y]\n")
			o := orchestrator.New(orchestrator.Options{OutputDir: out})
			_, err := o.Run(ctx, base, edits)

			var ce *sweep.NamingCollisionError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Dir).To(Equal("a_x_c_c_y"))
			Expect(errors.Is(err, sweep.ErrCollision)).To(BeTrue())
			Expect(o.Phase()).To(Equal(orchestrator.PhaseValidating))
			Expect(out).NotTo(BeADirectory())
		})
	})

	Describe("failures while materializing", func() {
		DescribeTable("keeps going and reports every failure",
			func(workers int) {
				Expect(os.MkdirAll(out, 0755)).To(Succeed())
				writeFile(filepath.Join(out, "a_1_c_4"), "a file where a directory should be")

				o := orchestrator.New(orchestrator.Options{OutputDir: out, Workers: workers})
				report, err := o.Run(ctx, base, edits)

				var agg *orchestrator.AggregateError
				Expect(errors.As(err, &agg)).To(BeTrue())
				Expect(agg.Total).To(Equal(4))
				Expect(agg.Failures).To(HaveLen(1))
				Expect(agg.Failures[0].Dir).To(Equal("a_1_c_4"))
				Expect(agg.Failures[0].Combination.Index).To(Equal(1))
				Expect(err.Error()).To(ContainSubstring("a_1_c_4"))
				Expect(o.Phase()).To(Equal(orchestrator.PhaseMaterializing))

				var ioErr *config.IOError
				Expect(errors.As(err, &ioErr)).To(BeTrue())

				Expect(report.Written).To(HaveLen(3))
				for _, name := range []string{"a_1_c_3", "a_2_c_3", "a_2_c_4"} {
					Expect(filepath.Join(out, name, config.DefaultFileName)).To(BeAnExistingFile())
				}
			},
			Entry("sequentially", 1),
			Entry("in parallel", 4),
		)

		It("does not write a manifest after a failure", func() {
			Expect(os.MkdirAll(out, 0755)).To(Succeed())
			writeFile(filepath.Join(out, "a_2_c_3"), "")

			report, err := orchestrator.New(orchestrator.Options{OutputDir: out, ManifestName: "sweep.yml"}).Run(ctx, base, edits)
			Expect(err).To(HaveOccurred())
			Expect(report.Manifest).To(BeEmpty())
			Expect(filepath.Join(out, "sweep.yml")).NotTo(BeAnExistingFile())
		})

		It("stops scheduling when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			report, err := orchestrator.New(orchestrator.Options{OutputDir: out}).Run(cctx, base, edits)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(report.Skipped).To(Equal(4))
			Expect(report.Written).To(BeEmpty())
		})
	})
})
