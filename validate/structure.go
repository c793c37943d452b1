package validate

import (
	"fmt"
	"strings"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/types"
)

func elementString(e *dicom.Element) string {
	s, _ := e.Value.(string)
	return strings.Trim(s, " \x00")
}

// checkSOPClasses classifies every referenced SOP class UID.
func checkSOPClasses(doc *document, res *Result) {
	doc.ds.Walk(func(path string, e *dicom.Element) {
		if e.Tag != dicom.TagReferencedSOPClassUID {
			return
		}
		v := elementString(e)
		if v == "" {
			return
		}
		switch info := types.GetSOPClassInfo(v); {
		case types.IsTransferSyntax(v):
			res.Errorf(ModuleSOPClass, path, "%s is a transfer syntax UID (%s), not a SOP class", v, types.GetTransferSyntaxInfo(v).Name)
		case v == types.VerificationSOPClass:
			res.Warnf(ModuleSOPClass, path, "referenced SOP class is the Verification SOP Class")
		case info.Known():
			if doc.verbose {
				res.Infof(ModuleSOPClass, path, "referenced SOP class %s", info.Name)
			}
		default:
			res.Warnf(ModuleSOPClass, path, "unknown SOP class %s", v)
		}
	})
}

// type1Sequences are the sequences that may not be present without items.
var type1Sequences = map[dicom.Tag]bool{
	dicom.TagCurrentRequestedProcedureEvidenceSeq: true,
	dicom.TagReferencedSeriesSequence:             true,
	dicom.TagReferencedSOPSequence:                true,
	dicom.TagConceptNameCodeSequence:              true,
	dicom.TagContentTemplateSequence:              true,
	dicom.TagContentSequence:                      true,
	dicom.TagConceptCodeSequence:                  true,
	dicom.TagMeasuredValueSequence:                true,
	dicom.TagMeasurementUnitsCodeSequence:         true,
	dicom.TagIdenticalDocumentsSequence:           true,
	dicom.TagVerifyingObserverSequence:            true,
}

// checkEmptySequences flags Type 1 sequences without items anywhere in the
// document. Paths already holding an ERROR are not reported twice.
func checkEmptySequences(doc *document, res *Result) {
	doc.ds.Walk(func(path string, e *dicom.Element) {
		if e.VR != dicom.VR_SQ || !type1Sequences[e.Tag] || len(e.Items()) > 0 {
			return
		}
		if res.HasErrorAt(path) {
			return
		}
		res.Errorf(ModuleEmptySequence, path, "Type 1 sequence %s has no item", dicom.Keyword(e.Tag))
	})
}

// checkPrivateTags reports private attributes and escalates those whose
// private creator element is missing.
func checkPrivateTags(doc *document, res *Result) {
	scanPrivate(doc.ds, "", res)
}

func scanPrivate(ds *dicom.Dataset, prefix string, res *Result) {
	for _, tag := range ds.Tags() {
		e, _ := ds.GetElement(tag)
		path := dicom.Keyword(tag)
		if prefix != "" {
			path = prefix + ">" + path
		}
		if tag.IsPrivate() && !tag.IsPrivateCreator() && tag.Element != 0 {
			creator := tag.CreatorTag()
			if owner := ds.GetString(creator); ds.Has(creator) && owner != "" {
				res.Warnf(ModulePrivateTags, path, "private attribute %s (creator %q)", tag, owner)
			} else {
				res.Errorf(ModulePrivateTags, path, "private attribute %s has no private creator %s", tag, creator)
			}
		}
		for i, item := range e.Items() {
			scanPrivate(item, fmt.Sprintf("%s[%d]", path, i), res)
		}
	}
}

// forbiddenAttributes are image pixel attributes that have no place in a
// manifest.
var forbiddenAttributes = []dicom.Tag{
	dicom.TagSamplesPerPixel,
	dicom.TagPhotometricInterpretation,
	dicom.TagRows,
	dicom.TagColumns,
	dicom.TagBitsAllocated,
	dicom.TagPixelData,
}

func checkForbidden(doc *document, res *Result) {
	for _, tag := range forbiddenAttributes {
		if doc.ds.Has(tag) {
			res.Errorf(ModuleForbidden, dicom.Keyword(tag), "%s is not allowed in a Key Object Selection document", tagLabel(tag))
		}
	}
}

// checkFileMeta requires a consistent File Meta Information group when the
// document carries one.
func checkFileMeta(doc *document, res *Result) {
	ds := doc.ds
	hasMeta := false
	for _, tag := range ds.Tags() {
		if tag.Group == 0x0002 {
			hasMeta = true
			break
		}
	}
	if !hasMeta {
		return
	}

	for _, tag := range []dicom.Tag{dicom.TagMediaStorageSOPClassUID, dicom.TagMediaStorageSOPInstanceUID, dicom.TagTransferSyntaxUID} {
		if ds.GetString(tag) == "" {
			res.Errorf(ModuleFileMeta, dicom.Keyword(tag), "%s is missing from the file meta information", tagLabel(tag))
		}
	}
	if msc, sc := ds.GetString(dicom.TagMediaStorageSOPClassUID), ds.GetString(dicom.TagSOPClassUID); msc != "" && msc != sc {
		res.Errorf(ModuleFileMeta, "MediaStorageSOPClassUID", "MediaStorageSOPClassUID %s does not match SOPClassUID %s", msc, sc)
	}
	if msi, si := ds.GetString(dicom.TagMediaStorageSOPInstanceUID), ds.GetString(dicom.TagSOPInstanceUID); msi != "" && msi != si {
		res.Errorf(ModuleFileMeta, "MediaStorageSOPInstanceUID", "MediaStorageSOPInstanceUID %s does not match SOPInstanceUID %s", msi, si)
	}
	if ts := ds.GetString(dicom.TagTransferSyntaxUID); ts != "" && !types.IsTransferSyntax(ts) {
		res.Errorf(ModuleFileMeta, "TransferSyntaxUID", "unknown transfer syntax %s", ts)
	}
}

// checkRetrieval requires retrieval addressing on every evidence series.
func checkRetrieval(doc *document, res *Result) {
	for i, study := range doc.ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq) {
		for j, s := range study.GetSequence(dicom.TagReferencedSeriesSequence) {
			path := fmt.Sprintf("Evidence[%d]>Series[%d]", i, j)
			location := s.GetString(dicom.TagRetrieveLocationUID)
			url := s.GetString(dicom.TagRetrieveURL)
			if location == "" && url == "" {
				res.Errorf(ModuleRetrieval, path, "series has neither RetrieveLocationUID nor RetrieveURL")
				continue
			}
			if location != "" {
				checkUID(res, ModuleRetrieval, path, location)
			}
		}
	}
}

// checkPatientIssuer requires an ISO universal entity ID for the patient ID
// assigning authority.
func checkPatientIssuer(doc *document, res *Result) {
	items := doc.ds.GetSequence(dicom.TagIssuerOfPatientIDQualifiersSequence)
	if len(items) == 0 {
		// Presence is checked by the module rules.
		return
	}
	const path = "IssuerOfPatientIDQualifiersSequence[0]"
	q := items[0]
	if q.GetString(dicom.TagUniversalEntityID) == "" {
		res.Errorf(ModulePatient, path, "UniversalEntityID of the patient ID issuer is missing")
	}
	if t := q.GetString(dicom.TagUniversalEntityIDType); t != "ISO" {
		res.Errorf(ModulePatient, path, "UniversalEntityIDType of the patient ID issuer is %q, expected ISO", t)
	}
}

// checkAccessionIssuer requires the accession number issuer to name its
// namespace.
func checkAccessionIssuer(doc *document, res *Result) {
	items := doc.ds.GetSequence(dicom.TagIssuerOfAccessionNumberSequence)
	if len(items) == 0 {
		return
	}
	const path = "IssuerOfAccessionNumberSequence[0]"
	item := items[0]
	local := item.GetString(dicom.TagLocalNamespaceEntityID)
	universal := item.GetString(dicom.TagUniversalEntityID)
	switch {
	case local == "" && universal == "":
		res.Errorf(ModuleStudy, path, "accession number issuer has neither LocalNamespaceEntityID nor UniversalEntityID")
	case universal != "" && item.GetString(dicom.TagUniversalEntityIDType) == "":
		res.Errorf(ModuleStudy, path, "accession number issuer has a UniversalEntityID without UniversalEntityIDType")
	}
}
