package manifest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
)

// BuildMADO builds a Manifest with Description (TID 2010 + TID 1600) with a
// default Builder.
func BuildMADO(study *types.Study, series []types.Series, instances map[string][]types.Instance, opts ...Option) (*dicom.Dataset, error) {
	return New(opts...).BuildMADO(study, series, instances)
}

// BuildMADO builds a MADO manifest for one study. Under the root it writes
// the study-level acquisition context and an Image Library holding one
// group per series; instances are ordered by instance number in both the
// library and the evidence sequence.
//
// The IHE MADO profile requires the Issuer of Patient ID Qualifiers, which
// are written only when the study record or WithUniversalEntityID supplies
// a universal entity ID. Without one the manifest is still built and a
// warning is logged.
func (b *Builder) BuildMADO(study *types.Study, series []types.Series, instances map[string][]types.Instance) (*dicom.Dataset, error) {
	refs, err := collect(dicomerrors.KindMADO, study, series, instances)
	if err != nil {
		return nil, err
	}
	refs.sortByInstanceNumber()

	if firstNonEmpty(study.PatientUniversalID, b.universalEntityID) == "" {
		b.log().Warn("Building MADO manifest without a universal entity ID; IssuerOfPatientIDQualifiersSequence will be missing",
			"study_uid", refs.studyUID)
	}

	now := b.now()
	ds := b.document(study, refs, now, b.extended)

	root := sr.NewContainer("", sr.TitleManifestWithDescription)
	if b.emit(StepContentTemplate) {
		root.Templates = []sr.Template{
			{MappingResource: sr.SchemeDCMR, Identifier: sr.TemplateKeyObjectSelection},
			{MappingResource: sr.SchemeDCMR, Identifier: sr.TemplateImageLibrary},
		}
	}
	if study.StudyDescription != "" && b.emit(StepKeyObjectDescription) {
		root.Add(sr.NewText(sr.RelContains, sr.ConceptKeyObjectDescription, study.StudyDescription))
	}
	if b.emit(StepStudyContext) {
		for _, modality := range studyModalities(refs) {
			root.Add(sr.NewCode(sr.RelHasAcqContext, sr.ConceptModality, sr.ModalityCode(modality)))
		}
		root.Add(sr.NewUIDRef(sr.RelHasAcqContext, sr.ConceptStudyInstanceUID, refs.studyUID))
	}
	if region := targetRegion(refs); region != "" && b.emit(StepTargetRegion) {
		root.Add(sr.NewCode(sr.RelHasAcqContext, sr.ConceptTargetRegion, sr.BodyPartCode(region)))
	}

	library := sr.NewContainer(sr.RelContains, sr.ConceptImageLibrary)
	for _, s := range refs.series {
		library.Add(b.libraryGroup(s))
	}
	root.Add(library)
	ds.Merge(sr.Encode(root))

	b.log().Debug("Built MADO manifest",
		"study_uid", refs.studyUID,
		"series", len(refs.series),
		"instances", refs.count(),
		"extended_metadata", b.extended)
	return ds, nil
}

// libraryGroup builds the Image Library Group of one series.
func (b *Builder) libraryGroup(s seriesRef) *sr.Container {
	group := sr.NewContainer(sr.RelContains, sr.ConceptImageLibraryGroup,
		sr.NewCode(sr.RelHasAcqContext, sr.ConceptModality, sr.ModalityCode(seriesModality(s))),
		sr.NewUIDRef(sr.RelHasAcqContext, sr.ConceptSeriesInstanceUID, s.uid),
	)

	if b.emit(StepSeriesDescriptors) {
		rec := s.record
		if rec.SeriesDescription != "" {
			group.Add(sr.NewText(sr.RelHasAcqContext, sr.ConceptSeriesDescription, rec.SeriesDescription))
		}
		if rec.SeriesDate != "" {
			group.Add(sr.NewText(sr.RelHasAcqContext, sr.ConceptSeriesDate, rec.SeriesDate))
		}
		if rec.SeriesTime != "" {
			group.Add(sr.NewText(sr.RelHasAcqContext, sr.ConceptSeriesTime, rec.SeriesTime))
		}
		if n, ok := parseInt(rec.SeriesNumber); ok {
			group.Add(sr.NewNum(sr.RelHasAcqContext, sr.ConceptSeriesNumber, strconv.Itoa(n), sr.UnitNoUnits))
		}
		count := strconv.Itoa(len(s.instances))
		if n, ok := parseInt(rec.NumberOfInstances); ok {
			count = strconv.Itoa(n)
		}
		group.Add(sr.NewNum(sr.RelHasAcqContext, sr.ConceptNumberOfInstances, count, sr.UnitNoUnits))
	}

	for _, inst := range s.instances {
		var meta *sr.ImageMetadata
		if b.extended && b.emit(StepInstanceMetadata) {
			meta = instanceMetadata(inst)
		}
		group.Add(referenceItem(inst, meta))
	}
	return group
}

// instanceMetadata copies the instance's descriptive attributes. Values are
// kept verbatim and only when they parse; nothing is derived.
func instanceMetadata(inst instanceRef) *sr.ImageMetadata {
	rec := inst.record
	m := &sr.ImageMetadata{}
	if _, ok := parseInt(rec.InstanceNumber); ok {
		m.InstanceNumber = strings.TrimSpace(rec.InstanceNumber)
	}
	if types.IsMultiFrameSOPClass(inst.classUID) {
		if _, ok := parseInt(rec.NumberOfFrames); ok {
			m.NumberOfFrames = strings.TrimSpace(rec.NumberOfFrames)
		}
	}
	if _, ok := parseUint16(rec.Rows); ok {
		m.Rows = strings.TrimSpace(rec.Rows)
	}
	if _, ok := parseUint16(rec.Columns); ok {
		m.Columns = strings.TrimSpace(rec.Columns)
	}
	m.PixelSpacing = decimalString(rec.PixelSpacing, 2)
	m.WindowCenter = decimalString(rec.WindowCenter, 0)
	m.WindowWidth = decimalString(rec.WindowWidth, 0)
	m.RescaleSlope = decimalString(rec.RescaleSlope, 1)
	m.RescaleIntercept = decimalString(rec.RescaleIntercept, 1)

	if *m == (sr.ImageMetadata{}) {
		return nil
	}
	return m
}

// decimalString returns a DS value unchanged when every backslash-separated
// component parses as a decimal. want is the required number of components;
// zero accepts any count.
func decimalString(value string, want int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Split(value, `\`)
	if want > 0 && len(parts) != want {
		return ""
	}
	for _, p := range parts {
		if _, err := decimal.NewFromString(strings.TrimSpace(p)); err != nil {
			return ""
		}
	}
	return value
}

func seriesModality(s seriesRef) string {
	if s.record.Modality != "" {
		return s.record.Modality
	}
	return types.ModalityForSOPClass(s.instances[0].classUID)
}

// studyModalities returns the distinct modalities of the referenced series,
// sorted.
func studyModalities(refs *referenceSet) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range refs.series {
		m := seriesModality(s)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

func targetRegion(refs *referenceSet) string {
	for _, s := range refs.series {
		if s.record.BodyPartExamined != "" {
			return s.record.BodyPartExamined
		}
	}
	return ""
}
