package adversary

import (
	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
	"github.com/caio-sobreiro/dicommanifest/uid"
	"github.com/caio-sobreiro/dicommanifest/validate"
)

// Category groups injected defects by the part of the document they break.
type Category string

// Defect categories
const (
	CategoryPatient     Category = "patient"
	CategoryStudy       Category = "study"
	CategoryEquipment   Category = "equipment"
	CategoryTimezone    Category = "timezone"
	CategoryTitle       Category = "title"
	CategoryTemplate    Category = "template"
	CategoryEvidence    Category = "evidence"
	CategoryContentTree Category = "content-tree"
	CategoryMismatch    Category = "evidence-mismatch"
	CategoryForbidden   Category = "forbidden"
	CategoryCorrupt     Category = "corrupt"
)

// Injection describes one injected defect. Modules lists the validator
// modules of which at least one must report an ERROR or WARNING.
type Injection struct {
	Category    Category `yaml:"category"`
	Description string   `yaml:"description"`
	Modules     []string `yaml:"modules"`
}

// defect is a catalogue entry. A nil profiles list applies to every profile.
type defect struct {
	category    Category
	description string
	modules     []string
	profiles    []validate.Profile
	apply       func(in *injector)

	// applicable, when set, reports whether apply can change ds. If it
	// cannot, fallback is injected instead.
	applicable func(ds *dicom.Dataset) bool
	fallback   *defect
}

type injector struct {
	rng     *Rand
	ds      *dicom.Dataset
	profile validate.Profile
	newUID  uid.Generator
}

// ReportedBy reports whether res holds an ERROR or WARNING from one of the
// modules the injection names.
func (inj Injection) ReportedBy(res *validate.Result) bool {
	for _, m := range res.Messages {
		if m.Severity < validate.SeverityWarning {
			continue
		}
		for _, want := range inj.Modules {
			if m.Module == want {
				return true
			}
		}
	}
	return false
}

func (in *injector) apply(d defect) Injection {
	for d.applicable != nil && !d.applicable(in.ds) && d.fallback != nil {
		d = *d.fallback
	}
	d.apply(in)
	return Injection{Category: d.category, Description: d.description, Modules: d.modules}
}

func pick(rng *Rand, defects []defect) defect {
	return defects[rng.IntN(len(defects))]
}

func only(profiles ...validate.Profile) []validate.Profile {
	return profiles
}

// violationsFor returns the rule violations applicable under profile.
func violationsFor(profile validate.Profile) []defect {
	var out []defect
	for _, d := range violations {
		if d.profiles == nil {
			out = append(out, d)
			continue
		}
		for _, p := range d.profiles {
			if p == profile {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// violations is the per-module rule violation catalogue.
var violations = []defect{
	{
		category:    CategoryPatient,
		description: "PatientSex set outside M/F/O",
		modules:     []string{validate.ModulePatient},
		apply:       func(in *injector) { in.ds.Set(dicom.TagPatientSex, "U") },
	},
	{
		category:    CategoryPatient,
		description: "PatientID removed",
		modules:     []string{validate.ModulePatient},
		apply:       func(in *injector) { in.ds.Remove(dicom.TagPatientID) },
	},
	{
		category:    CategoryPatient,
		description: "issuer of patient ID qualifiers removed",
		modules:     []string{validate.ModulePatient},
		profiles:    only(validate.ProfileMADO),
		apply:       func(in *injector) { in.ds.Remove(dicom.TagIssuerOfPatientIDQualifiersSequence) },
	},
	{
		category:    CategoryStudy,
		description: "StudyTime removed",
		modules:     []string{validate.ModuleStudy},
		apply:       func(in *injector) { in.ds.Remove(dicom.TagStudyTime) },
	},
	{
		category:    CategoryStudy,
		description: "ReferringPhysicianName removed",
		modules:     []string{validate.ModuleStudy},
		apply:       func(in *injector) { in.ds.Remove(dicom.TagReferringPhysicianName) },
	},
	{
		category:    CategoryStudy,
		description: "AccessionNumber emptied",
		modules:     []string{validate.ModuleStudy},
		profiles:    only(validate.ProfileMADO),
		apply:       func(in *injector) { in.ds.Set(dicom.TagAccessionNumber, "") },
	},
	{
		category:    CategoryEquipment,
		description: "Manufacturer removed",
		modules:     []string{validate.ModuleEquipment},
		apply:       func(in *injector) { in.ds.Remove(dicom.TagManufacturer) },
	},
	{
		category:    CategoryTimezone,
		description: "timezone offset hours out of range",
		modules:     []string{validate.ModuleTimezone},
		apply:       func(in *injector) { in.ds.Set(dicom.TagTimezoneOffsetFromUTC, "+1900") },
	},
	{
		category:    CategoryTimezone,
		description: "timezone offset without sign",
		modules:     []string{validate.ModuleTimezone},
		apply:       func(in *injector) { in.ds.Set(dicom.TagTimezoneOffsetFromUTC, "0530") },
	},
	{
		category:    CategoryTimezone,
		description: "timezone offset removed",
		modules:     []string{validate.ModuleSOPCommon},
		profiles:    only(validate.ProfileMADO),
		apply:       func(in *injector) { in.ds.Remove(dicom.TagTimezoneOffsetFromUTC) },
	},
	{
		category:    CategoryTitle,
		description: "document title replaced with a report title",
		modules:     []string{validate.ModuleSRContent},
		apply: func(in *injector) {
			in.ds.AddSequence(dicom.TagConceptNameCodeSequence, sr.Code{Value: "18748-4", Scheme: "LN", Meaning: "Diagnostic imaging report"}.Dataset())
		},
	},
	{
		category:    CategoryTitle,
		description: "document title item removed",
		modules:     []string{validate.ModuleSRContent},
		apply:       func(in *injector) { in.ds.AddSequence(dicom.TagConceptNameCodeSequence) },
	},
	{
		category:    CategoryTemplate,
		description: "template mapping resource replaced",
		modules:     []string{validate.ModuleTemplate},
		apply: func(in *injector) {
			items := in.ds.GetSequence(dicom.TagContentTemplateSequence)
			if len(items) == 0 {
				in.ds.Remove(dicom.TagContentTemplateSequence)
				return
			}
			items[0].Set(dicom.TagMappingResource, "99LOCAL")
		},
	},
	{
		category:    CategoryTemplate,
		description: "content template sequence emptied",
		modules:     []string{validate.ModuleTemplate},
		apply:       func(in *injector) { in.ds.AddSequence(dicom.TagContentTemplateSequence) },
	},
	{
		category:    CategoryEvidence,
		description: "evidence series UID removed",
		modules:     []string{validate.ModuleEvidence},
		apply: func(in *injector) {
			study := in.ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq)[0]
			series := study.GetSequence(dicom.TagReferencedSeriesSequence)
			series[in.rng.IntN(len(series))].Remove(dicom.TagSeriesInstanceUID)
		},
	},
	{
		category:    CategoryEvidence,
		description: "evidence study UID malformed",
		modules:     []string{validate.ModuleEvidence},
		apply: func(in *injector) {
			in.ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq)[0].Set(dicom.TagStudyInstanceUID, "1.2..840")
		},
	},
	{
		category:    CategoryContentTree,
		description: "content item value type replaced",
		modules:     []string{validate.ModuleContentTree, validate.ModuleImageLibrary},
		apply: func(in *injector) {
			root := in.ds.GetSequence(dicom.TagContentSequence)
			root[len(root)-1].Set(dicom.TagValueType, "WAVEFORM")
		},
	},
	{
		category:    CategoryContentTree,
		description: "content item relationship removed",
		modules:     []string{validate.ModuleContentTree},
		apply: func(in *injector) {
			in.ds.GetSequence(dicom.TagContentSequence)[0].Remove(dicom.TagRelationshipType)
		},
	},
	{
		category:    CategoryContentTree,
		description: "Image Library container removed",
		modules:     []string{validate.ModuleImageLibrary},
		profiles:    only(validate.ProfileMADO),
		apply: func(in *injector) {
			e, _ := in.ds.GetElement(dicom.TagContentSequence)
			var kept []*dicom.Dataset
			for _, item := range e.Items() {
				if c, _ := sr.FirstCode(item, dicom.TagConceptNameCodeSequence); !c.Is(sr.ConceptImageLibrary) {
					kept = append(kept, item)
				}
			}
			e.Value = kept
		},
	},
}

var phantomReference = defect{
	category:    CategoryMismatch,
	description: "phantom content reference without evidence",
	modules:     []string{validate.ModuleEvidence},
	apply: func(in *injector) {
		ref := sr.Reference{SOPClassUID: types.CTImageStorage, SOPInstanceUID: in.newUID()}
		in.ds.AppendItem(dicom.TagContentSequence, sr.Encode(sr.NewImage(sr.RelContains, ref, nil)))
	},
}

// mismatches desynchronize the evidence and the content tree. A content
// tree without references, e.g. after the Image Library was removed, gets
// a phantom reference instead of a dropped one.
var mismatches = []defect{
	{
		category:    CategoryMismatch,
		description: "instance dropped from the content tree",
		modules:     []string{validate.ModuleEvidence},
		apply: func(in *injector) {
			dropReference(in.ds)
		},
		applicable: hasReference,
		fallback:   &phantomReference,
	},
	phantomReference,
}

// ForbiddenAttributes are the image pixel attributes added by forbidden
// tag injection.
var ForbiddenAttributes = []struct {
	Tag   dicom.Tag
	VR    string
	Value interface{}
}{
	{dicom.TagSamplesPerPixel, dicom.VR_US, uint16(1)},
	{dicom.TagPhotometricInterpretation, dicom.VR_CS, "MONOCHROME2"},
	{dicom.TagRows, dicom.VR_US, uint16(512)},
	{dicom.TagColumns, dicom.VR_US, uint16(512)},
	{dicom.TagBitsAllocated, dicom.VR_US, uint16(16)},
	{dicom.TagPixelData, dicom.VR_OW, make([]byte, 16)},
}

var forbidden = []defect{
	{
		category:    CategoryForbidden,
		description: "image pixel attributes added",
		modules:     []string{validate.ModuleForbidden},
		apply: func(in *injector) {
			n := 1 + in.rng.IntN(3)
			for _, i := range in.rng.perm(len(ForbiddenAttributes))[:n] {
				a := ForbiddenAttributes[i]
				in.ds.AddElement(a.Tag, a.VR, a.Value)
			}
		},
	},
	{
		category:    CategoryForbidden,
		description: "private attribute without private creator",
		modules:     []string{validate.ModulePrivateTags},
		apply: func(in *injector) {
			in.ds.AddElement(dicom.Tag{Group: 0x0029, Element: 0x1010}, dicom.VR_LO, "UNOWNED")
		},
	},
}

// corruptions overwrite one field written by the builder.
var corruptions = []defect{
	{
		category:    CategoryCorrupt,
		description: "SOPInstanceUID holds letters",
		modules:     []string{validate.ModuleSOPCommon},
		apply:       func(in *injector) { in.ds.Set(dicom.TagSOPInstanceUID, "1.2.840.abc") },
	},
	{
		category:    CategoryCorrupt,
		description: "SOPClassUID set to an image storage class",
		modules:     []string{validate.ModuleSOPCommon},
		apply:       func(in *injector) { in.ds.Set(dicom.TagSOPClassUID, types.CTImageStorage) },
	},
	{
		category:    CategoryCorrupt,
		description: "Modality set to SR",
		modules:     []string{validate.ModuleSeries},
		apply:       func(in *injector) { in.ds.Set(dicom.TagModality, "SR") },
	},
	{
		category:    CategoryCorrupt,
		description: "SeriesNumber emptied",
		modules:     []string{validate.ModuleSeries},
		apply:       func(in *injector) { in.ds.Set(dicom.TagSeriesNumber, "") },
	},
	{
		category:    CategoryCorrupt,
		description: "ContentDate emptied",
		modules:     []string{validate.ModuleDocument},
		apply:       func(in *injector) { in.ds.Set(dicom.TagContentDate, "") },
	},
}

// dropReference removes the first IMAGE or COMPOSITE item of the content
// tree, depth first.
// hasReference reports whether the content tree holds a reference item.
func hasReference(ds *dicom.Dataset) bool {
	for _, item := range ds.GetSequence(dicom.TagContentSequence) {
		if sr.ValueType(item.GetString(dicom.TagValueType)).IsReference() || hasReference(item) {
			return true
		}
	}
	return false
}

func dropReference(ds *dicom.Dataset) bool {
	e, ok := ds.GetElement(dicom.TagContentSequence)
	if !ok {
		return false
	}
	items := e.Items()
	for i, item := range items {
		if sr.ValueType(item.GetString(dicom.TagValueType)).IsReference() {
			e.Value = append(append([]*dicom.Dataset{}, items[:i]...), items[i+1:]...)
			return true
		}
		if dropReference(item) {
			return true
		}
	}
	return false
}
