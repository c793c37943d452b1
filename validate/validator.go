package validate

import (
	"log/slog"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/sr"
)

// Option configures a Validator.
type Option func(*Validator)

// WithVerbose enables INFO findings such as the evidence summary.
func WithVerbose(verbose bool) Option {
	return func(v *Validator) {
		v.verbose = verbose
	}
}

// WithLogger overrides the logger used by the validator.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithRegistry replaces the built-in profile registry.
func WithRegistry(r *Registry) Option {
	return func(v *Validator) {
		v.registry = r
	}
}

// Validator runs the pass list of a profile over a document. A Validator
// holds no per-document state and may be shared between goroutines.
type Validator struct {
	registry *Registry
	verbose  bool
	logger   *slog.Logger
}

// New creates a Validator with the built-in profiles.
func New(opts ...Option) *Validator {
	v := &Validator{registry: defaultRegistry}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks ds under profile with a default Validator.
func Validate(ds *dicom.Dataset, profile Profile, opts ...Option) *Result {
	return New(opts...).Validate(ds, profile)
}

// Validate checks ds under the passes of r.
func (r *Registry) Validate(ds *dicom.Dataset, profile Profile, opts ...Option) *Result {
	return New(append(opts, WithRegistry(r))...).Validate(ds, profile)
}

// Validate runs every pass of profile and returns all findings. Unknown
// profiles fall back to the generic passes with a WARNING. The document is
// never modified.
func (v *Validator) Validate(ds *dicom.Dataset, profile Profile) *Result {
	res := &Result{}
	passes, ok := v.registry.Passes(profile)
	if !ok {
		res.Warnf(ModuleProfile, "", "unknown validation profile %q ignored, generic rules applied", string(profile))
		passes, _ = v.registry.Passes(ProfileNone)
	}

	doc := newDocument(ds, profile, v.verbose)
	for _, pass := range passes {
		before := len(res.Messages)
		pass.Run(doc, res)
		v.log().Debug("Validation pass complete",
			"pass", pass.Name,
			"profile", profile.String(),
			"findings", len(res.Messages)-before)
	}
	return res
}

func (v *Validator) log() *slog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return slog.Default()
}

// document is the read-only view passed to every pass.
type document struct {
	ds      *dicom.Dataset
	profile Profile
	verbose bool

	title    sr.Code
	hasTitle bool
}

func newDocument(ds *dicom.Dataset, profile Profile, verbose bool) *document {
	if ds == nil {
		ds = dicom.NewDataset()
	}
	doc := &document{ds: ds, profile: profile, verbose: verbose}
	doc.title, doc.hasTitle = sr.FirstCode(ds, dicom.TagConceptNameCodeSequence)
	return doc
}
