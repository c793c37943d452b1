package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/manifest"
	"github.com/caio-sobreiro/dicommanifest/query"
	"github.com/caio-sobreiro/dicommanifest/validate"
)

type recordSource struct {
	records string
	images  string
}

func (s *recordSource) flags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.records, "records", "", "YAML records file")
	cmd.Flags().StringVar(&s.images, "images", "", "directory of DICOM image files to index")
	cmd.MarkFlagsOneRequired("records", "images")
	cmd.MarkFlagsMutuallyExclusive("records", "images")
}

func (s *recordSource) open(cmd *cobra.Command, a *app) (*query.MemoryStore, error) {
	if s.records != "" {
		return query.LoadYAML(s.records, query.WithLogger(a.logger))
	}
	store := query.NewMemoryStore(query.WithLogger(a.logger))
	if _, err := store.IndexDir(cmd.Context(), s.images); err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) buildCmd() *cobra.Command {
	var (
		src     recordSource
		req     manifest.Request
		out     string
		profile string
	)

	cmd := &cobra.Command{
		Use:   "build kos|mado",
		Short: "Build a manifest for one study",
		Long: `Build a KOS imaging manifest or a MADO document for one study.

A MADO document passes IHE_MADO validation only when a universal entity ID
for the patient ID issuer is known, either from the records or from
builder.universal_entity_id in the configuration.

Examples:
  manifest build kos --records records.yaml --study 1.2.3 --out manifest.dcm
  manifest build mado --images ./study --study 1.2.3 --patient P1 --out mado.dcm`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"kos", "mado"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(args[0]) {
			case "kos":
				req.Kind = dicomerrors.KindKOS
			case "mado":
				req.Kind = dicomerrors.KindMADO
			default:
				return fmt.Errorf("unknown manifest kind: %s (use 'kos' or 'mado')", args[0])
			}

			store, err := src.open(cmd, a)
			if err != nil {
				return err
			}

			opts := append(a.cfg.Builder.Options(), manifest.WithLogger(a.logger))
			ds, err := manifest.New(opts...).Assemble(cmd.Context(), store, req)
			if err != nil {
				if errors.Is(err, dicomerrors.ErrStudyNotFound) && req.PatientID != "" {
					return fmt.Errorf("%w (patient %s)", err, req.PatientID)
				}
				return err
			}

			if err := a.writeDataset(out, ds); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s manifest %s to %s\n", req.Kind, ds.GetString(dicom.TagSOPInstanceUID), out)

			if !cmd.Flags().Changed("check") {
				return nil
			}
			return a.check(out, ds, validate.ParseProfile(profile), a.cfg.Validation.Verbose, "text")
		},
	}

	src.flags(cmd)
	cmd.Flags().StringVar(&req.StudyInstanceUID, "study", "", "Study Instance UID")
	cmd.Flags().StringVar(&req.PatientID, "patient", "", "patient ID the study must belong to")
	cmd.Flags().StringVar(&req.SeriesInstanceUID, "series", "", "restrict the manifest to one series")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&profile, "check", "", "validate the written manifest against a profile")
	_ = cmd.MarkFlagRequired("study")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) indexCmd() *cobra.Command {
	var (
		images string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index DICOM image files into a records file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := query.NewMemoryStore(query.WithLogger(a.logger))
			n, err := store.IndexDir(cmd.Context(), images)
			if err != nil {
				return err
			}

			w := a.stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create records file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := store.Encode(w); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(a.stdout, "Indexed %d instance(s) of %d study(ies) into %s\n", n, store.Len(), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&images, "images", "", "directory of DICOM image files")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output records file (default: stdout)")
	_ = cmd.MarkFlagRequired("images")
	return cmd
}
