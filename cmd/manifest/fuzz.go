package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/caio-sobreiro/dicommanifest/adversary"
	"github.com/caio-sobreiro/dicommanifest/validate"
)

// fuzzReport is written next to the generated documents.
type fuzzReport struct {
	Seed       *uint64          `yaml:"seed,omitempty"`
	Profile    validate.Profile `yaml:"profile"`
	Config     adversary.Config `yaml:"config"`
	Documents  []fuzzDocument   `yaml:"documents"`
	Undetected int              `yaml:"undetected"`
	Categories map[string]int   `yaml:"categories"`
}

type fuzzDocument struct {
	File       string                `yaml:"file"`
	Generated  adversary.Generated   `yaml:",inline"`
	Valid      bool                  `yaml:"valid"`
	Undetected []adversary.Injection `yaml:"undetected,omitempty"`
	Findings   []validate.Message    `yaml:"findings,omitempty"`
}

func (a *app) fuzzCmd() *cobra.Command {
	var (
		count   int
		seed    uint64
		profile string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Generate adversarial manifests",
		Long: `Generate manifests with injected defects, validate each one and write
the documents together with a YAML report of the injected defects and the
validator findings.

Examples:
  manifest fuzz --count 100 --out ./corpus
  manifest fuzz --count 10 --seed 42 --profile IHE_XDSI_MANIFEST --out ./corpus`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			gcfg := a.cfg.Generator.AdversaryConfig()
			if cmd.Flags().Changed("profile") {
				gcfg.Profile = validate.ParseProfile(profile)
			}

			report := fuzzReport{
				Profile:    gcfg.Profile,
				Config:     gcfg,
				Categories: make(map[string]int),
			}
			opts := []adversary.Option{adversary.WithConfig(gcfg), adversary.WithLogger(a.logger)}
			switch {
			case cmd.Flags().Changed("seed"):
				report.Seed = &seed
			case a.cfg.Generator.Seed != nil:
				report.Seed = a.cfg.Generator.Seed
			}
			if report.Seed != nil {
				opts = append(opts, adversary.WithSeed(*report.Seed))
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			gen := adversary.New(opts...)
			for i := 0; i < count; i++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				doc, err := gen.Generate()
				if err != nil {
					return err
				}
				name := fmt.Sprintf("%04d_%s.dcm", i+1, doc.Kind)
				if err := a.writeDataset(filepath.Join(outDir, name), doc.Dataset); err != nil {
					return err
				}

				res := validate.Validate(doc.Dataset, gcfg.Profile, validate.WithLogger(a.logger))
				entry := fuzzDocument{
					File:      name,
					Generated: *doc,
					Valid:     res.IsValid(),
					Findings: res.Filter(func(m validate.Message) bool {
						return m.Severity >= validate.SeverityWarning
					}),
				}
				for _, inj := range doc.Injections {
					report.Categories[string(inj.Category)]++
					if !inj.ReportedBy(res) {
						entry.Undetected = append(entry.Undetected, inj)
						report.Undetected++
					}
				}
				report.Documents = append(report.Documents, entry)
			}

			data, err := yaml.Marshal(report)
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			reportPath := filepath.Join(outDir, "report.yaml")
			if err := os.WriteFile(reportPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			fmt.Fprintf(a.stdout, "Generated %d %s document(s) in %s (%d undetected defect(s))\n",
				count, gcfg.Profile, outDir, report.Undetected)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of documents")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for a reproducible corpus")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "profile (none, IHE_XDSI_MANIFEST, IHE_MADO)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
