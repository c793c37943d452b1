// Command manifest builds, validates, inspects and fuzzes IHE XDS-I.b
// imaging manifests (KOS) and MADO documents.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/caio-sobreiro/dicommanifest/config"
	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/interfaces"
)

// app carries the state shared by the subcommands.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
	codec  interfaces.DatasetCodec
	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		codec:  dicom.Codec{TransferSyntaxUID: dicom.TransferSyntaxExplicitVRLittleEndian},
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:   "manifest",
		Short: "Build and check IHE imaging manifests",
		Long: `manifest builds Key Object Selection manifests for IHE XDS-I.b and
MADO documents from study records, validates them against the DICOM module
rules and the profile additions, and generates adversarial documents to
exercise validators.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (json, text)")

	root.AddCommand(a.buildCmd())
	root.AddCommand(a.indexCmd())
	root.AddCommand(a.validateCmd())
	root.AddCommand(a.fuzzCmd())
	root.AddCommand(a.inspectCmd())
	return root
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	a.cfg = cfg
	a.logger = cfg.Logging.NewLogger(a.stderr)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) readDataset(path string) (*dicom.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	ds, err := a.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func (a *app) writeDataset(path string, ds *dicom.Dataset) error {
	data, err := a.codec.Encode(ds)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
