package sr

import (
	"fmt"

	"github.com/caio-sobreiro/dicommanifest/dicom"
)

// Code is a coded concept triple.
type Code struct {
	Value   string
	Scheme  string
	Meaning string
}

// String renders the code as (value, scheme, "meaning").
func (c Code) String() string {
	return fmt.Sprintf("(%s, %s, %q)", c.Value, c.Scheme, c.Meaning)
}

// Is compares value and coding scheme. Code meanings are not significant.
func (c Code) Is(o Code) bool {
	return c.Value == o.Value && c.Scheme == o.Scheme
}

// Dataset encodes the code as a sequence item.
func (c Code) Dataset() *dicom.Dataset {
	ds := dicom.NewDataset()
	ds.Set(dicom.TagCodeValue, c.Value)
	ds.Set(dicom.TagCodingSchemeDesignator, c.Scheme)
	ds.Set(dicom.TagCodeMeaning, c.Meaning)
	return ds
}

// CodeFromDataset reads a code triple from a sequence item.
func CodeFromDataset(ds *dicom.Dataset) Code {
	return Code{
		Value:   ds.GetString(dicom.TagCodeValue),
		Scheme:  ds.GetString(dicom.TagCodingSchemeDesignator),
		Meaning: ds.GetString(dicom.TagCodeMeaning),
	}
}

// FirstCode returns the code held by the first item of a code sequence.
func FirstCode(ds *dicom.Dataset, tag dicom.Tag) (Code, bool) {
	item, ok := ds.FirstItem(tag)
	if !ok {
		return Code{}, false
	}
	return CodeFromDataset(item), true
}

// Coding scheme designators
const (
	SchemeDCM  = "DCM"
	SchemeSRT  = "SRT"
	SchemeSCT  = "SCT"
	SchemeDCMR = "DCMR"
	SchemeUCUM = "UCUM"
)

// Template identifiers
const (
	TemplateKeyObjectSelection = "2010"
	TemplateImageLibrary       = "1600"
)

// Key Object Selection document titles (CID 7010)
var (
	TitleOfInterest               = Code{"113000", SchemeDCM, "Of Interest"}
	TitleRejectedForQuality       = Code{"113001", SchemeDCM, "Rejected for Quality Reasons"}
	TitleForReferringProvider     = Code{"113002", SchemeDCM, "For Referring Provider"}
	TitleForSurgery               = Code{"113003", SchemeDCM, "For Surgery"}
	TitleForTeaching              = Code{"113004", SchemeDCM, "For Teaching"}
	TitleQualityIssue             = Code{"113010", SchemeDCM, "Quality Issue"}
	TitleBestInSet                = Code{"113013", SchemeDCM, "Best In Set"}
	TitleForPrinting              = Code{"113018", SchemeDCM, "For Printing"}
	TitleForReportAttachment      = Code{"113020", SchemeDCM, "For Report Attachment"}
	TitleManifest                 = Code{"113030", SchemeDCM, "Manifest"}
	TitleSignedManifest           = Code{"113031", SchemeDCM, "Signed Manifest"}
	TitleCompleteStudyContent     = Code{"113032", SchemeDCM, "Complete Study Content"}
	TitleSignedCompleteStudy      = Code{"113033", SchemeDCM, "Signed Complete Study Content"}
	TitleCompleteAcquisition      = Code{"113034", SchemeDCM, "Complete Acquisition Content"}
	TitleSignedCompleteAcq        = Code{"113035", SchemeDCM, "Signed Complete Acquisition Content"}
	TitleGroupOfFramesForDisplay  = Code{"113036", SchemeDCM, "Group of Frames for Display"}
	TitleRejectedForPatientSafety = Code{"113037", SchemeDCM, "Rejected for Patient Safety Reasons"}
	TitleIncorrectModalityWorkl   = Code{"113038", SchemeDCM, "Incorrect Modality Worklist Entry"}
	TitleDataRetentionExpired     = Code{"113039", SchemeDCM, "Data Retention Policy Expired"}

	// TitleManifestWithDescription is the MADO document title. The code
	// value is the one assigned by the IHE MADO trial implementation supplement.
	TitleManifestWithDescription = Code{"ddd001", SchemeDCM, "Manifest with Description"}
)

// KOSTitles lists the CID 7010 document titles.
var KOSTitles = []Code{
	TitleOfInterest, TitleRejectedForQuality, TitleForReferringProvider, TitleForSurgery,
	TitleForTeaching, TitleQualityIssue, TitleBestInSet, TitleForPrinting, TitleForReportAttachment,
	TitleManifest, TitleSignedManifest, TitleCompleteStudyContent, TitleSignedCompleteStudy,
	TitleCompleteAcquisition, TitleSignedCompleteAcq, TitleGroupOfFramesForDisplay,
	TitleRejectedForPatientSafety, TitleIncorrectModalityWorkl, TitleDataRetentionExpired,
}

// IsKOSTitle reports whether the code is a CID 7010 document title.
func IsKOSTitle(c Code) bool {
	for _, t := range KOSTitles {
		if t.Is(c) {
			return true
		}
	}
	return false
}

// IsSignedTitle reports whether the title claims a signed document.
func IsSignedTitle(c Code) bool {
	return c.Is(TitleSignedManifest) || c.Is(TitleSignedCompleteStudy) || c.Is(TitleSignedCompleteAcq)
}

// Content item concept names
var (
	ConceptKeyObjectDescription = Code{"113012", SchemeDCM, "Key Object Description"}
	ConceptModality             = Code{"121139", SchemeDCM, "Modality"}
	ConceptStudyInstanceUID     = Code{"110180", SchemeDCM, "Study Instance UID"}
	ConceptTargetRegion         = Code{"123014", SchemeDCM, "Target Region"}
	ConceptImageLibrary         = Code{"111028", SchemeDCM, "Image Library"}
	ConceptImageLibraryGroup    = Code{"126200", SchemeDCM, "Image Library Group"}
	ConceptSeriesInstanceUID    = Code{"112002", SchemeDCM, "Series Instance UID"}
	ConceptSeriesDescription    = Code{"ddd002", SchemeDCM, "Series Description"}
	ConceptSeriesDate           = Code{"ddd003", SchemeDCM, "Series Date"}
	ConceptSeriesTime           = Code{"ddd004", SchemeDCM, "Series Time"}
	ConceptSeriesNumber         = Code{"ddd005", SchemeDCM, "Series Number"}
	ConceptNumberOfInstances    = Code{"ddd006", SchemeDCM, "Number of Series Related Instances"}

	// UnitNoUnits is the UCUM unit for dimensionless counts.
	UnitNoUnits = Code{"1", SchemeUCUM, "no units"}
)

// ModalityCode returns the DCM code for a modality defined term.
func ModalityCode(modality string) Code {
	return Code{Value: modality, Scheme: SchemeDCM, Meaning: modality}
}

// BodyPartCode returns a region code for a Body Part Examined defined term.
func BodyPartCode(bodyPart string) Code {
	return Code{Value: bodyPart, Scheme: SchemeDCM, Meaning: bodyPart}
}
