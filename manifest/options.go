// Package manifest builds IHE XDS-I.b Key Object Selection (KOS) and MADO
// imaging manifests from study, series and instance records.
package manifest

import (
	"log/slog"
	"time"

	"github.com/caio-sobreiro/dicommanifest/uid"
)

// Default header values applied when the source records leave them empty.
const (
	DefaultCharacterSet      = "ISO_IR 192"
	DefaultIssuerOfPatientID = "DCMMANIFEST"
	DefaultInstitutionName   = "Unknown Institution"
	DefaultManufacturer      = "dicommanifest"
	DefaultSoftwareVersion   = "1"
	DefaultSeriesNumber      = "1"
	UniversalEntityIDTypeISO = "ISO"
)

// Step names an optional attribute or sequence the builders emit. A step
// filter installed with WithStepFilter may veto any of them.
type Step string

const (
	StepCharacterSet         Step = "document.charset"
	StepInstanceCreation     Step = "document.instance_creation"
	StepTimezone             Step = "document.timezone"
	StepReferencedRequest    Step = "document.referenced_request"
	StepPatientName          Step = "patient.name"
	StepPatientBirthDate     Step = "patient.birth_date"
	StepPatientSex           Step = "patient.sex"
	StepIssuerOfPatientID    Step = "patient.issuer"
	StepIssuerQualifiers     Step = "patient.issuer_qualifiers"
	StepStudyDate            Step = "study.date"
	StepStudyTime            Step = "study.time"
	StepStudyID              Step = "study.id"
	StepStudyDescription     Step = "study.description"
	StepReferringPhysician   Step = "study.referring_physician"
	StepAccessionNumber      Step = "study.accession"
	StepAccessionIssuer      Step = "study.accession_issuer"
	StepPerformedProcedure   Step = "series.performed_procedure_step"
	StepManufacturer         Step = "equipment.manufacturer"
	StepInstitution          Step = "equipment.institution"
	StepModelName            Step = "equipment.model"
	StepSoftwareVersions     Step = "equipment.software"
	StepContentTemplate      Step = "content.template"
	StepKeyObjectDescription Step = "content.description"
	StepRetrieveAddress      Step = "evidence.retrieve_address"
	StepEvidenceHints        Step = "evidence.hints"
	StepStudyContext         Step = "mado.study_context"
	StepTargetRegion         Step = "mado.target_region"
	StepSeriesDescriptors    Step = "mado.series_descriptors"
	StepInstanceMetadata     Step = "mado.instance_metadata"
)

// Steps lists every optional construction step in emission order.
var Steps = []Step{
	StepCharacterSet, StepInstanceCreation, StepTimezone,
	StepPatientName, StepPatientBirthDate, StepPatientSex, StepIssuerOfPatientID, StepIssuerQualifiers,
	StepStudyDate, StepStudyTime, StepStudyID, StepStudyDescription, StepReferringPhysician,
	StepAccessionNumber, StepAccessionIssuer, StepPerformedProcedure,
	StepManufacturer, StepInstitution, StepModelName, StepSoftwareVersions,
	StepReferencedRequest, StepContentTemplate, StepKeyObjectDescription,
	StepRetrieveAddress, StepEvidenceHints,
	StepStudyContext, StepTargetRegion, StepSeriesDescriptors, StepInstanceMetadata,
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source used for creation and default study dates.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithUIDGenerator overrides the generator of the manifest's own UIDs.
func WithUIDGenerator(gen uid.Generator) Option {
	return func(b *Builder) {
		b.newUID = gen
	}
}

// WithExtendedMetadata enables per-instance metadata in MADO content items
// and frame/row/column hints in the evidence sequence.
func WithExtendedMetadata(enabled bool) Option {
	return func(b *Builder) {
		b.extended = enabled
	}
}

// WithRetrieveLocationUID sets the retrieve location used for series whose
// record carries none.
func WithRetrieveLocationUID(locationUID string) Option {
	return func(b *Builder) {
		b.retrieveLocationUID = locationUID
	}
}

// WithRetrieveURLBase sets the DICOMweb base URL used to derive per-series
// retrieve URLs for series whose record carries none.
func WithRetrieveURLBase(base string) Option {
	return func(b *Builder) {
		b.retrieveURLBase = base
	}
}

// WithInstitution sets the default institution name.
func WithInstitution(name string) Option {
	return func(b *Builder) {
		b.institution = name
	}
}

// WithIssuerOfPatientID sets the default issuer of patient ID.
func WithIssuerOfPatientID(issuer string) Option {
	return func(b *Builder) {
		b.issuerOfPatientID = issuer
	}
}

// WithUniversalEntityID sets the ISO universal entity ID of the patient ID
// assigning authority.
func WithUniversalEntityID(id string) Option {
	return func(b *Builder) {
		b.universalEntityID = id
	}
}

// WithManufacturer overrides the manufacturer written to the equipment module.
func WithManufacturer(name string) Option {
	return func(b *Builder) {
		b.manufacturer = name
	}
}

// WithStepFilter installs a predicate consulted before each optional step.
// Returning false omits the step.
func WithStepFilter(filter func(Step) bool) Option {
	return func(b *Builder) {
		b.filter = filter
	}
}

// WithLogger overrides the logger used by the builder.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// Builder assembles manifests. A Builder holds configuration only and may be
// used for any number of builds.
type Builder struct {
	now                 func() time.Time
	newUID              uid.Generator
	extended            bool
	retrieveLocationUID string
	retrieveURLBase     string
	institution         string
	issuerOfPatientID   string
	universalEntityID   string
	manufacturer        string
	filter              func(Step) bool
	logger              *slog.Logger
}

// New creates a Builder with the given options.
func New(opts ...Option) *Builder {
	b := &Builder{
		now:               time.Now,
		newUID:            uid.Generate,
		institution:       DefaultInstitutionName,
		issuerOfPatientID: DefaultIssuerOfPatientID,
		manufacturer:      DefaultManufacturer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

// emit reports whether an optional step should be written.
func (b *Builder) emit(step Step) bool {
	return b.filter == nil || b.filter(step)
}
