package validate

import (
	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/sr"
)

// Pass names.
const (
	passModules         = "modules"
	passVerification    = "verification"
	passIdenticalDocs   = "identicalDocuments"
	passSignatures      = "signatures"
	passTitle           = "title"
	passContentTree     = "contentTree"
	passConsistency     = "consistency"
	passCharacterSet    = "characterSet"
	passPadding         = "padding"
	passTimezone        = "timezone"
	passSOPClass        = "sopClass"
	passTemplate        = "template"
	passEmptySequences  = "emptySequences"
	passPrivateTags     = "privateTags"
	passForbidden       = "forbiddenAttributes"
	passMADOShape       = "madoShape"
	passXDSITitle       = "xdsiTitle"
	passFileMeta        = "fileMeta"
	passRetrieval       = "retrieval"
	passIssuer          = "patientIssuer"
	passAccessionIssuer = "accessionIssuer"
	passImageLibrary    = "imageLibrary"
)

// GenericPasses returns the pass list of the generic KOS profile.
func GenericPasses() []Pass {
	return []Pass{
		{passModules, checkGenericModules},
		{passVerification, checkVerification},
		{passIdenticalDocs, checkIdenticalDocuments},
		{passSignatures, checkSignatures},
		{passTitle, checkTitle},
		{passContentTree, checkContentTree},
		{passConsistency, checkConsistency},
		{passCharacterSet, checkCharacterSet},
		{passPadding, checkPadding},
		{passTimezone, checkTimezone},
		{passSOPClass, checkSOPClasses},
		{passTemplate, checkTemplate},
		{passEmptySequences, checkEmptySequences},
		{passPrivateTags, checkPrivateTags},
		{passForbidden, checkForbidden},
	}
}

var madoModules = layer(genericModules, madoOverrides)

func checkGenericModules(doc *document, res *Result) {
	for _, m := range genericModules {
		checkModule(doc.ds, m, res)
	}
}

func checkMADOModules(doc *document, res *Result) {
	for _, m := range madoModules {
		checkModule(doc.ds, m, res)
	}
}

// checkTitle requires a document title from CID 7010. The MADO title is
// tolerated with a WARNING; both profiles share one SOP class.
func checkTitle(doc *document, res *Result) {
	if !requireTitle(doc, res) {
		return
	}
	switch {
	case sr.IsKOSTitle(doc.title):
	case doc.title.Is(sr.TitleManifestWithDescription):
		res.Warnf(ModuleSRContent, titlePath, "document title %s is the MADO title, not a CID 7010 title", doc.title)
	default:
		res.Errorf(ModuleSRContent, titlePath, "document title %s is not a Key Object Selection title (CID 7010)", doc.title)
	}
}

// checkXDSITitle requires the XDS-I.b manifest title.
func checkXDSITitle(doc *document, res *Result) {
	if !doc.hasTitle {
		return
	}
	if !doc.title.Is(sr.TitleManifest) && !doc.title.Is(sr.TitleSignedManifest) {
		res.Errorf(ModuleSRContent, titlePath, "XDS-I.b manifests require document title %s, found %s", sr.TitleManifest, doc.title)
	}
}

// checkMADOTitle accepts only "Manifest" and "Manifest with Description".
func checkMADOTitle(doc *document, res *Result) {
	if !requireTitle(doc, res) {
		return
	}
	if !doc.title.Is(sr.TitleManifest) && !doc.title.Is(sr.TitleManifestWithDescription) {
		res.Errorf(ModuleSRContent, titlePath, "MADO document title must be %s or %s, found %s",
			sr.TitleManifest, sr.TitleManifestWithDescription, doc.title)
	}
}

const titlePath = "ConceptNameCodeSequence"

func requireTitle(doc *document, res *Result) bool {
	if doc.hasTitle {
		return true
	}
	if doc.ds.Has(dicom.TagConceptNameCodeSequence) {
		res.Errorf(ModuleSRContent, titlePath, "document title sequence has no item")
	} else {
		res.Errorf(ModuleSRContent, titlePath, "document title (ConceptNameCodeSequence) is missing")
	}
	return false
}

// checkMADOShape suggests the MADO profile for documents holding an Image
// Library under the root.
func checkMADOShape(doc *document, res *Result) {
	if _, ok := imageLibrary(doc.ds); ok {
		res.Infof(ModuleProfile, "", "document contains an Image Library (TID 1600); validate with profile %s for MADO rules", ProfileMADO)
	}
}

// imageLibrary returns the index of the Image Library container in the
// root content sequence.
func imageLibrary(ds *dicom.Dataset) (int, bool) {
	for i, item := range ds.GetSequence(dicom.TagContentSequence) {
		if sr.ValueType(item.GetString(dicom.TagValueType)) != sr.ValueTypeContainer {
			continue
		}
		if c, ok := sr.FirstCode(item, dicom.TagConceptNameCodeSequence); ok && c.Is(sr.ConceptImageLibrary) {
			return i, true
		}
	}
	return -1, false
}
