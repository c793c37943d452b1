package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/validate"
)

var errInvalid = errors.New("validation failed")

func (a *app) validateCmd() *cobra.Command {
	var (
		profile string
		verbose bool
		format  string
	)

	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate manifests against a profile",
		Long: `Validate KOS or MADO documents against the DICOM module rules and,
optionally, the IHE XDS-I.b or MADO profile additions.

Examples:
  manifest validate manifest.dcm
  manifest validate --profile IHE_MADO --verbose mado.dcm
  manifest validate --profile IHE_XDSI_MANIFEST --format yaml *.dcm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown format: %s (use 'text' or 'yaml')", format)
			}
			if !cmd.Flags().Changed("profile") {
				profile = a.cfg.Validation.Profile
			}
			if !cmd.Flags().Changed("verbose") {
				verbose = a.cfg.Validation.Verbose
			}

			failed := 0
			for _, path := range args {
				ds, err := a.readDataset(path)
				if err != nil {
					return err
				}
				if err := a.check(path, ds, validate.ParseProfile(profile), verbose, format); err != nil {
					if !errors.Is(err, errInvalid) {
						return err
					}
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d document(s) invalid", errInvalid, failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "profile (none, IHE_XDSI_MANIFEST, IHE_MADO)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report passing checks")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, yaml)")
	return cmd
}

type fileResult struct {
	File     string             `yaml:"file"`
	Profile  validate.Profile   `yaml:"profile"`
	Valid    bool               `yaml:"valid"`
	Errors   int                `yaml:"errors"`
	Warnings int                `yaml:"warnings"`
	Messages []validate.Message `yaml:"messages,omitempty"`
}

// check validates one document and prints its findings. It returns
// errInvalid when the document has errors.
func (a *app) check(path string, ds *dicom.Dataset, profile validate.Profile, verbose bool, format string) error {
	res := validate.Validate(ds, profile, validate.WithVerbose(verbose), validate.WithLogger(a.logger))

	switch format {
	case "yaml":
		out := fileResult{
			File:     path,
			Profile:  profile,
			Valid:    res.IsValid(),
			Errors:   res.Count(validate.SeverityError),
			Warnings: res.Count(validate.SeverityWarning),
			Messages: res.Messages,
		}
		data, err := yaml.Marshal([]fileResult{out})
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprint(a.stdout, string(data))
	default:
		status := "VALID"
		if !res.IsValid() {
			status = "INVALID"
		}
		fmt.Fprintf(a.stdout, "%s: %s under %s (%d error(s), %d warning(s))\n",
			path, status, profile, res.Count(validate.SeverityError), res.Count(validate.SeverityWarning))
		for _, m := range res.Messages {
			fmt.Fprintf(a.stdout, "  %s\n", m)
		}
	}

	if !res.IsValid() {
		return errInvalid
	}
	return nil
}
