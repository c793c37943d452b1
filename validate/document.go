package validate

import (
	"fmt"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/sr"
)

// checkVerification applies the SR verification rules: a VERIFIED document
// names its verifying observers and the verification time.
func checkVerification(doc *document, res *Result) {
	ds := doc.ds
	if !ds.Has(dicom.TagVerificationFlag) {
		return
	}
	flag := ds.GetString(dicom.TagVerificationFlag)
	switch flag {
	case "UNVERIFIED":
		return
	case "VERIFIED":
	default:
		res.Errorf(ModuleDocument, "VerificationFlag", "VerificationFlag has value %q, expected VERIFIED or UNVERIFIED", flag)
		return
	}

	observers := ds.GetSequence(dicom.TagVerifyingObserverSequence)
	if len(observers) == 0 {
		res.Errorf(ModuleDocument, "VerifyingObserverSequence", "VERIFIED document must list at least one verifying observer")
	}
	for i, item := range observers {
		prefix := fmt.Sprintf("VerifyingObserverSequence[%d]", i)
		checkRule(item, ModuleDocument, prefix, Rule{Tag: dicom.TagVerifyingObserverName, Type: Type1}, res)
		checkRule(item, ModuleDocument, prefix, Rule{Tag: dicom.TagVerifyingOrganization, Type: Type1}, res)
		checkRule(item, ModuleDocument, prefix, Rule{Tag: dicom.TagVerificationDateTime, Type: Type1}, res)
	}
	if len(observers) == 0 && ds.GetString(dicom.TagVerificationDateTime) == "" {
		res.Errorf(ModuleDocument, "VerificationDateTime", "VERIFIED document must carry a verification date and time")
	}
}

// checkIdenticalDocuments checks the identifiers of the Identical Documents
// Sequence items.
func checkIdenticalDocuments(doc *document, res *Result) {
	// Presence is a Type 1C rule of the document module.
	for i, study := range doc.ds.GetSequence(dicom.TagIdenticalDocumentsSequence) {
		studyPath := fmt.Sprintf("IdenticalDocuments[%d]", i)
		requireUID(res, ModuleDocument, studyPath, study, dicom.TagStudyInstanceUID)
		series := study.GetSequence(dicom.TagReferencedSeriesSequence)
		if len(series) == 0 {
			res.Errorf(ModuleDocument, studyPath, "identical document reference has no ReferencedSeriesSequence item")
		}
		for j, s := range series {
			seriesPath := fmt.Sprintf("%s>Series[%d]", studyPath, j)
			requireUID(res, ModuleDocument, seriesPath, s, dicom.TagSeriesInstanceUID)
			sops := s.GetSequence(dicom.TagReferencedSOPSequence)
			if len(sops) == 0 {
				res.Errorf(ModuleDocument, seriesPath, "identical document series has no ReferencedSOPSequence item")
			}
			for k, sop := range sops {
				sopPath := fmt.Sprintf("%s>ReferencedSOP[%d]", seriesPath, k)
				requireUID(res, ModuleDocument, sopPath, sop, dicom.TagReferencedSOPClassUID)
				requireUID(res, ModuleDocument, sopPath, sop, dicom.TagReferencedSOPInstanceUID)
			}
		}
	}
}

// requireUID reports a missing or malformed UID attribute of item.
func requireUID(res *Result, module, path string, item *dicom.Dataset, tag dicom.Tag) bool {
	value := item.GetString(tag)
	if value == "" {
		res.Errorf(module, path, "%s is missing", tagLabel(tag))
		return false
	}
	checkUID(res, module, path, value)
	return true
}

// Attributes every MAC Parameters and Digital Signatures item must carry.
// Signature values are not verified.
var (
	macFields = []dicom.Tag{
		dicom.TagMACIDNumber,
		dicom.TagMACAlgorithm,
		dicom.TagDataElementsSigned,
	}
	signatureFields = []dicom.Tag{
		dicom.TagMACIDNumber,
		dicom.TagDigitalSignatureUID,
		dicom.TagDigitalSignatureDateTime,
		dicom.TagCertificateType,
		dicom.TagCertificateOfSigner,
		dicom.TagSignature,
	}
)

// checkSignatures requires a structurally complete signature block when the
// title claims a signed manifest, and checks any block that is present.
func checkSignatures(doc *document, res *Result) {
	ds := doc.ds
	signed := doc.hasTitle && sr.IsSignedTitle(doc.title)
	macs := ds.GetSequence(dicom.TagMACParametersSequence)
	sigs := ds.GetSequence(dicom.TagDigitalSignaturesSequence)

	if signed {
		if len(macs) == 0 {
			res.Errorf(ModuleSignatures, "MACParametersSequence", "document titled %s has no MAC parameters", doc.title)
		}
		if len(sigs) == 0 {
			res.Errorf(ModuleSignatures, "DigitalSignaturesSequence", "document titled %s has no digital signature", doc.title)
		}
	}

	for i, item := range macs {
		checkFields(res, fmt.Sprintf("MACParametersSequence[%d]", i), item, macFields)
	}
	for i, item := range sigs {
		path := fmt.Sprintf("DigitalSignaturesSequence[%d]", i)
		checkFields(res, path, item, signatureFields)
		if v := item.GetString(dicom.TagDigitalSignatureUID); v != "" {
			checkUID(res, ModuleSignatures, path, v)
		}
	}
	if !signed && len(sigs) > 0 && doc.verbose {
		res.Infof(ModuleSignatures, "DigitalSignaturesSequence", "document carries %d signature(s); signatures are not verified", len(sigs))
	}
}

func checkFields(res *Result, path string, item *dicom.Dataset, fields []dicom.Tag) {
	for _, tag := range fields {
		e, ok := item.GetElement(tag)
		if !ok {
			res.Errorf(ModuleSignatures, path, "%s is missing", tagLabel(tag))
			continue
		}
		if isEmpty(e) {
			res.Errorf(ModuleSignatures, path, "%s is empty", tagLabel(tag))
		}
	}
}
