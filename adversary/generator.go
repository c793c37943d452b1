// Package adversary generates manifests with deliberately injected defects.
//
// A Generator builds a synthetic study, replays the normal KOS or MADO
// construction while randomly skipping optional steps, and then injects
// defects drawn from a fixed catalogue. Every injected defect names the
// validator modules expected to report it, so a generated document and its
// validation result can be checked against each other.
package adversary

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/manifest"
	"github.com/caio-sobreiro/dicommanifest/types"
	"github.com/caio-sobreiro/dicommanifest/uid"
	"github.com/caio-sobreiro/dicommanifest/validate"
)

// Default probabilities.
const (
	DefaultSkipStepP         = 0.20
	DefaultCorruptP          = 0.05
	DefaultMADOViolationP    = 0.35
	DefaultEvidenceMismatchP = 0.40
	DefaultForbiddenTagP     = 0.30
)

// syntheticRoot is the UID root of generated studies and manifests.
const syntheticRoot = "1.2.826.0.1.3680043.10.777"

// Config holds the probability knobs of a Generator.
type Config struct {
	// SkipStepP is the chance of omitting each optional construction step.
	SkipStepP float64 `yaml:"skip_step_p"`

	// CorruptP is the per-document chance of corrupting one written field.
	CorruptP float64 `yaml:"corrupt_p"`

	// MADOViolationP is the per-document chance of injecting one profile
	// rule violation.
	MADOViolationP float64 `yaml:"mado_violation_p"`

	// EvidenceMismatchP is the chance of desynchronizing evidence and content.
	EvidenceMismatchP float64 `yaml:"evidence_mismatch_p"`

	// ForbiddenTagP is the chance of adding forbidden attributes.
	ForbiddenTagP float64 `yaml:"forbidden_tag_p"`

	// Profile selects the manifest kind and the violation catalogue.
	// IHE_MADO builds MADO documents, every other profile KOS documents.
	Profile validate.Profile `yaml:"profile"`
}

// DefaultConfig returns the default probabilities for MADO documents.
func DefaultConfig() Config {
	return Config{
		SkipStepP:         DefaultSkipStepP,
		CorruptP:          DefaultCorruptP,
		MADOViolationP:    DefaultMADOViolationP,
		EvidenceMismatchP: DefaultEvidenceMismatchP,
		ForbiddenTagP:     DefaultForbiddenTagP,
		Profile:           validate.ProfileMADO,
	}
}

// Option configures a Generator.
type Option func(*Generator)

// WithConfig replaces the probability configuration.
func WithConfig(cfg Config) Option {
	return func(g *Generator) {
		g.cfg = cfg
	}
}

// WithSeed makes the generator deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = NewRand(seed)
	}
}

// WithRand sets the randomness source.
func WithRand(r *Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// WithClock overrides the time source used for document dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger overrides the logger used by the generator.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Generator produces adversarial manifests. Without WithSeed or WithRand it
// draws from the shared unpredictable source.
type Generator struct {
	cfg    Config
	rng    *Rand
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		cfg: DefaultConfig(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = Shared()
	}
	return g
}

// Generate produces one document with a default Generator. A nil seed
// selects the unpredictable source.
func Generate(seed *uint64, opts ...Option) (*Generated, error) {
	if seed != nil {
		opts = append(opts, WithSeed(*seed))
	}
	return New(opts...).Generate()
}

// Generated is a generated document and the defects injected into it.
type Generated struct {
	Dataset    *dicom.Dataset   `yaml:"-"`
	Kind       string           `yaml:"kind"`
	Profile    validate.Profile `yaml:"profile"`
	SOPUID     string           `yaml:"sop_instance_uid"`
	Injections []Injection      `yaml:"injections"`
	Skipped    []manifest.Step  `yaml:"skipped_steps,omitempty"`
}

// Categories returns the distinct categories of the injected defects.
func (g *Generated) Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, inj := range g.Injections {
		if !seen[inj.Category] {
			seen[inj.Category] = true
			out = append(out, inj.Category)
		}
	}
	return out
}

// Generate builds one adversarial document.
func (g *Generator) Generate() (*Generated, error) {
	now := g.now()
	study, series, instances := syntheticStudy(g.rng, now)

	skipped := make(map[manifest.Step]bool)
	var order []manifest.Step
	filter := func(step manifest.Step) bool {
		if !g.rng.Chance(g.cfg.SkipStepP) {
			return true
		}
		if !skipped[step] {
			skipped[step] = true
			order = append(order, step)
		}
		return false
	}

	newUID := uid.Sequential(fmt.Sprintf("%s.%d", syntheticRoot, g.rng.IntN(1<<30)+1))
	builder := manifest.New(
		manifest.WithClock(func() time.Time { return now }),
		manifest.WithUIDGenerator(newUID),
		manifest.WithExtendedMetadata(true),
		manifest.WithUniversalEntityID(syntheticRoot),
		manifest.WithRetrieveLocationUID(syntheticRoot+".99"),
		manifest.WithStepFilter(filter),
		manifest.WithLogger(g.log()),
	)

	kind := "KOS"
	build := builder.BuildKOS
	if g.cfg.Profile == validate.ProfileMADO {
		kind = "MADO"
		build = builder.BuildMADO
	}
	ds, err := build(study, series, instances)
	if err != nil {
		return nil, fmt.Errorf("build synthetic %s: %w", kind, err)
	}

	out := &Generated{
		Dataset: ds,
		Kind:    kind,
		Profile: g.cfg.Profile,
		SOPUID:  ds.GetString(dicom.TagSOPInstanceUID),
		Skipped: order,
	}
	inj := &injector{rng: g.rng, ds: ds, profile: g.cfg.Profile, newUID: newUID}

	if g.rng.Chance(g.cfg.CorruptP) {
		out.Injections = append(out.Injections, inj.apply(pick(g.rng, corruptions)))
	}
	if g.rng.Chance(g.cfg.MADOViolationP) {
		out.Injections = append(out.Injections, inj.apply(pick(g.rng, violationsFor(g.cfg.Profile))))
	}
	if g.rng.Chance(g.cfg.EvidenceMismatchP) {
		out.Injections = append(out.Injections, inj.apply(pick(g.rng, mismatches)))
	}
	if g.rng.Chance(g.cfg.ForbiddenTagP) {
		out.Injections = append(out.Injections, inj.apply(pick(g.rng, forbidden)))
	}

	for _, i := range out.Injections {
		g.log().Debug("Injected defect",
			"sop_instance_uid", out.SOPUID,
			"category", string(i.Category),
			"description", i.Description)
	}
	g.log().Debug("Generated adversarial document",
		"kind", kind,
		"profile", g.cfg.Profile.String(),
		"injections", len(out.Injections),
		"skipped_steps", len(order))
	return out, nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// syntheticSeries describes the five series of a synthetic study. The last
// one is a key-image note that references the study's own objects.
var syntheticSeries = []struct {
	modality    string
	classUID    string
	description string
	bodyPart    string
}{
	{"CT", types.CTImageStorage, "Axial 5mm", "CHEST"},
	{"CT", types.CTImageStorage, "Coronal MPR", "CHEST"},
	{"MR", types.MRImageStorage, "T2 FLAIR", "HEAD"},
	{"US", types.UltrasoundMultiFrameImageStorage, "Cine loop", "ABDOMEN"},
	{"KO", types.KeyObjectSelectionDocumentStorage, "Key images", ""},
}

func syntheticStudy(rng *Rand, now time.Time) (*types.Study, []types.Series, map[string][]types.Instance) {
	id := rng.IntN(1<<30) + 1
	studyUID := fmt.Sprintf("%s.%d.1", syntheticRoot, id)
	study := &types.Study{
		StudyInstanceUID:   studyUID,
		PatientID:          fmt.Sprintf("ADV%06d", id%1000000),
		PatientName:        "Adversary^Synthetic",
		PatientBirthDate:   "19700101",
		PatientSex:         "O",
		StudyID:            strconv.Itoa(id % 100000),
		StudyDate:          now.Format("20060102"),
		StudyTime:          now.Format("150405"),
		StudyDescription:   "Synthetic study",
		AccessionNumber:    fmt.Sprintf("ACC%d", id),
		AccessionIssuer:    syntheticRoot,
		ReferringPhysician: "Referrer^Synthetic",
	}

	series := make([]types.Series, 0, len(syntheticSeries))
	instances := make(map[string][]types.Instance, len(syntheticSeries))
	for i, def := range syntheticSeries {
		seriesUID := fmt.Sprintf("%s.%d", studyUID, i+1)
		count := 3 + rng.IntN(4)
		series = append(series, types.Series{
			SeriesInstanceUID: seriesUID,
			Modality:          def.modality,
			SeriesNumber:      strconv.Itoa(i + 1),
			SeriesDescription: def.description,
			SeriesDate:        study.StudyDate,
			SeriesTime:        study.StudyTime,
			NumberOfInstances: strconv.Itoa(count),
			BodyPartExamined:  def.bodyPart,
		})

		list := make([]types.Instance, 0, count)
		for n := 1; n <= count; n++ {
			inst := types.Instance{
				SOPClassUID:    def.classUID,
				SOPInstanceUID: fmt.Sprintf("%s.%d", seriesUID, n),
				InstanceNumber: strconv.Itoa(n),
			}
			if rng.Chance(0.1) {
				inst.InstanceNumber = ""
			}
			if def.modality != "KO" {
				inst.Rows, inst.Columns = "512", "512"
				inst.PixelSpacing = `0.7\0.7`
				inst.WindowCenter, inst.WindowWidth = "40", "400"
				inst.RescaleSlope, inst.RescaleIntercept = "1", "-1024"
			}
			if types.IsMultiFrameSOPClass(def.classUID) {
				inst.NumberOfFrames = strconv.Itoa(10 + rng.IntN(90))
			}
			list = append(list, inst)
		}
		instances[seriesUID] = list
	}
	return study, series, instances
}
