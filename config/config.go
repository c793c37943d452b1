// Package config provides configuration management for the manifest tools.
//
// Configuration is loaded in the following order (later sources override
// earlier ones):
//  1. Default values
//  2. The YAML configuration file, when one is given
//  3. Environment variables (MANIFEST_ prefix)
//
// # Usage Example
//
//	cfg, err := config.Load("manifest.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	builder := manifest.New(cfg.Builder.Options()...)
//
// # Environment Variables
//
// Use the MANIFEST_ prefix and underscores for nested keys:
//   - MANIFEST_LOGGING_LEVEL=debug
//   - MANIFEST_VALIDATION_PROFILE=IHE_MADO
//   - MANIFEST_GENERATOR_SEED=42
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/caio-sobreiro/dicommanifest/adversary"
	"github.com/caio-sobreiro/dicommanifest/manifest"
	"github.com/caio-sobreiro/dicommanifest/uid"
	"github.com/caio-sobreiro/dicommanifest/validate"
)

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "MANIFEST"

// Config is the root configuration structure.
type Config struct {
	// Logging contains log level and format
	Logging LoggingConfig `mapstructure:"logging"`

	// Builder contains the defaults applied by the KOS and MADO builders
	Builder BuilderConfig `mapstructure:"builder"`

	// Generator contains the adversarial generator probabilities
	Generator GeneratorConfig `mapstructure:"generator"`

	// Validation contains the default validation profile
	Validation ValidationConfig `mapstructure:"validation"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// BuilderConfig contains manifest construction defaults.
type BuilderConfig struct {
	// ExtendedMetadata adds per-instance metadata to MADO documents
	ExtendedMetadata bool `mapstructure:"extended_metadata"`

	// RetrieveLocationUID is used for series whose record carries none
	RetrieveLocationUID string `mapstructure:"retrieve_location_uid" validate:"omitempty,dicomuid"`

	// RetrieveURLBase is the DICOMweb base URL per-series retrieve URLs derive from
	RetrieveURLBase string `mapstructure:"retrieve_url_base" validate:"omitempty,url"`

	// Institution is the default institution name
	Institution string `mapstructure:"institution" validate:"max=64"`

	// IssuerOfPatientID is the default issuer of patient ID
	IssuerOfPatientID string `mapstructure:"issuer_of_patient_id" validate:"max=64"`

	// UniversalEntityID is the ISO OID of the patient ID assigning authority
	UniversalEntityID string `mapstructure:"universal_entity_id" validate:"omitempty,dicomuid"`

	// Manufacturer is written to the equipment module
	Manufacturer string `mapstructure:"manufacturer" validate:"max=64"`
}

// GeneratorConfig contains adversarial generator settings.
type GeneratorConfig struct {
	// Seed makes generation deterministic when set
	Seed *uint64 `mapstructure:"seed"`

	// Profile selects the manifest kind and violation catalogue
	Profile string `mapstructure:"profile" validate:"profile"`

	SkipStepP         float64 `mapstructure:"skip_step_p" validate:"min=0,max=1"`
	CorruptP          float64 `mapstructure:"corrupt_p" validate:"min=0,max=1"`
	MADOViolationP    float64 `mapstructure:"mado_violation_p" validate:"min=0,max=1"`
	EvidenceMismatchP float64 `mapstructure:"evidence_mismatch_p" validate:"min=0,max=1"`
	ForbiddenTagP     float64 `mapstructure:"forbidden_tag_p" validate:"min=0,max=1"`
}

// ValidationConfig contains validator defaults.
type ValidationConfig struct {
	// Profile is the rule set applied when none is given on the command line
	Profile string `mapstructure:"profile" validate:"profile"`

	// Verbose adds INFO messages for passing checks
	Verbose bool `mapstructure:"verbose"`
}

// Load reads configuration from an optional file and the environment.
// A missing file is not an error; defaults apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !isFileNotFoundError(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows.
	_ = v.BindEnv("generator.seed")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic("config: invalid defaults: " + err.Error())
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("builder.extended_metadata", false)
	v.SetDefault("builder.retrieve_location_uid", "")
	v.SetDefault("builder.retrieve_url_base", "")
	v.SetDefault("builder.institution", manifest.DefaultInstitutionName)
	v.SetDefault("builder.issuer_of_patient_id", manifest.DefaultIssuerOfPatientID)
	v.SetDefault("builder.universal_entity_id", "")
	v.SetDefault("builder.manufacturer", manifest.DefaultManufacturer)

	v.SetDefault("generator.profile", validate.ProfileMADO.String())
	v.SetDefault("generator.skip_step_p", adversary.DefaultSkipStepP)
	v.SetDefault("generator.corrupt_p", adversary.DefaultCorruptP)
	v.SetDefault("generator.mado_violation_p", adversary.DefaultMADOViolationP)
	v.SetDefault("generator.evidence_mismatch_p", adversary.DefaultEvidenceMismatchP)
	v.SetDefault("generator.forbidden_tag_p", adversary.DefaultForbiddenTagP)

	v.SetDefault("validation.profile", validate.ProfileNone.String())
	v.SetDefault("validation.verbose", false)
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("dicomuid", func(fl validator.FieldLevel) bool {
		return uid.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("profile", func(fl validator.FieldLevel) bool {
		p := validate.ParseProfile(fl.Field().String())
		for _, known := range validate.Profiles {
			if p == known {
				return true
			}
		}
		return false
	})
	return v
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := structValidator.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Options returns the builder options for this configuration.
func (c BuilderConfig) Options() []manifest.Option {
	opts := []manifest.Option{
		manifest.WithExtendedMetadata(c.ExtendedMetadata),
		manifest.WithInstitution(c.Institution),
		manifest.WithIssuerOfPatientID(c.IssuerOfPatientID),
		manifest.WithManufacturer(c.Manufacturer),
	}
	if c.RetrieveLocationUID != "" {
		opts = append(opts, manifest.WithRetrieveLocationUID(c.RetrieveLocationUID))
	}
	if c.RetrieveURLBase != "" {
		opts = append(opts, manifest.WithRetrieveURLBase(c.RetrieveURLBase))
	}
	if c.UniversalEntityID != "" {
		opts = append(opts, manifest.WithUniversalEntityID(c.UniversalEntityID))
	}
	return opts
}

// AdversaryConfig converts the generator section.
func (c GeneratorConfig) AdversaryConfig() adversary.Config {
	return adversary.Config{
		SkipStepP:         c.SkipStepP,
		CorruptP:          c.CorruptP,
		MADOViolationP:    c.MADOViolationP,
		EvidenceMismatchP: c.EvidenceMismatchP,
		ForbiddenTagP:     c.ForbiddenTagP,
		Profile:           validate.ParseProfile(c.Profile),
	}
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}
