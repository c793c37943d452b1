package validate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/sr"
)

// checkContentTree checks the structure of every content item below the root.
func checkContentTree(doc *document, res *Result) {
	for i, item := range doc.ds.GetSequence(dicom.TagContentSequence) {
		checkContentItem(item, fmt.Sprintf("Content[%d]", i), res)
	}
}

func checkContentItem(item *dicom.Dataset, path string, res *Result) {
	rel := sr.Relationship(item.GetString(dicom.TagRelationshipType))
	switch {
	case rel == "":
		res.Errorf(ModuleContentTree, path, "content item has no RelationshipType")
	case !rel.IsValid():
		res.Errorf(ModuleContentTree, path, "unknown relationship type %q", rel)
	}

	vt := sr.ValueType(item.GetString(dicom.TagValueType))
	if !vt.IsValid() {
		res.Errorf(ModuleContentTree, path, "unsupported value type %q", vt)
		return
	}
	if vt.RequiresConceptName() && !item.Has(dicom.TagConceptNameCodeSequence) {
		res.Errorf(ModuleContentTree, path, "%s item has no concept name", vt)
	}

	switch vt {
	case sr.ValueTypeContainer:
		if c := item.GetString(dicom.TagContinuityOfContent); c != sr.ContinuitySeparate && c != "CONTINUOUS" {
			res.Errorf(ModuleContentTree, path, "container has ContinuityOfContent %q", c)
		}
		for i, child := range item.GetSequence(dicom.TagContentSequence) {
			checkContentItem(child, fmt.Sprintf("%s>Content[%d]", path, i), res)
		}
	case sr.ValueTypeCode:
		if !item.Has(dicom.TagConceptCodeSequence) {
			res.Errorf(ModuleContentTree, path, "CODE item has no ConceptCodeSequence")
		}
	case sr.ValueTypeText:
		if !item.Has(dicom.TagTextValue) {
			res.Errorf(ModuleContentTree, path, "TEXT item has no TextValue")
		}
	case sr.ValueTypeNum:
		checkNumValue(item, path, res)
	case sr.ValueTypeUIDRef:
		if v := item.GetString(dicom.TagUID); v == "" {
			res.Errorf(ModuleContentTree, path, "UIDREF item has no UID")
		} else {
			checkUID(res, ModuleContentTree, path, v)
		}
	case sr.ValueTypeImage, sr.ValueTypeComposite:
		refs := item.GetSequence(dicom.TagReferencedSOPSequence)
		if len(refs) != 1 {
			res.Errorf(ModuleContentTree, path, "%s item must hold exactly one ReferencedSOPSequence item, found %d", vt, len(refs))
			return
		}
		requireUID(res, ModuleContentTree, path, refs[0], dicom.TagReferencedSOPClassUID)
		requireUID(res, ModuleContentTree, path, refs[0], dicom.TagReferencedSOPInstanceUID)
	}
}

func checkNumValue(item *dicom.Dataset, path string, res *Result) {
	mv, ok := item.FirstItem(dicom.TagMeasuredValueSequence)
	if !ok {
		if !item.Has(dicom.TagMeasuredValueSequence) {
			res.Errorf(ModuleContentTree, path, "NUM item has no MeasuredValueSequence")
		}
		return
	}
	value := mv.GetString(dicom.TagNumericValue)
	if _, err := decimal.NewFromString(value); err != nil {
		res.Errorf(ModuleContentTree, path, "NUM item has non-numeric value %q", value)
	}
	if !mv.Has(dicom.TagMeasurementUnitsCodeSequence) {
		res.Errorf(ModuleContentTree, path, "NUM item has no measurement units")
	}
}

type refKey struct {
	classUID    string
	instanceUID string
}

func (k refKey) String() string {
	return k.classUID + "/" + k.instanceUID
}

// checkConsistency compares the instances named by the evidence sequence
// with the IMAGE and COMPOSITE items of the content tree. A content reference
// missing from the evidence is an ERROR; evidence not reflected in the
// content is a WARNING.
func checkConsistency(doc *document, res *Result) {
	evidence := make(map[refKey]string)
	var order []refKey
	studies, series := 0, 0

	for i, study := range doc.ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq) {
		studies++
		studyPath := fmt.Sprintf("Evidence[%d]", i)
		requireUID(res, ModuleEvidence, studyPath, study, dicom.TagStudyInstanceUID)
		if !study.Has(dicom.TagReferencedSeriesSequence) {
			res.Errorf(ModuleEvidence, studyPath, "evidence study item has no ReferencedSeriesSequence")
		}
		for j, s := range study.GetSequence(dicom.TagReferencedSeriesSequence) {
			series++
			seriesPath := fmt.Sprintf("%s>Series[%d]", studyPath, j)
			requireUID(res, ModuleEvidence, seriesPath, s, dicom.TagSeriesInstanceUID)
			if !s.Has(dicom.TagReferencedSOPSequence) {
				res.Errorf(ModuleEvidence, seriesPath, "evidence series item has no ReferencedSOPSequence")
			}
			for k, sop := range s.GetSequence(dicom.TagReferencedSOPSequence) {
				sopPath := fmt.Sprintf("%s>ReferencedSOP[%d]", seriesPath, k)
				okClass := requireUID(res, ModuleEvidence, sopPath, sop, dicom.TagReferencedSOPClassUID)
				okInstance := requireUID(res, ModuleEvidence, sopPath, sop, dicom.TagReferencedSOPInstanceUID)
				if !okClass || !okInstance {
					continue
				}
				key := refKey{sop.GetString(dicom.TagReferencedSOPClassUID), sop.GetString(dicom.TagReferencedSOPInstanceUID)}
				if first, dup := evidence[key]; dup {
					res.Warnf(ModuleEvidence, sopPath, "instance %s is listed twice in the evidence (first at %s)", key.instanceUID, first)
					continue
				}
				evidence[key] = sopPath
				order = append(order, key)
			}
		}
	}

	content := make(map[refKey]bool)
	var walk func(items []*dicom.Dataset, prefix string)
	walk = func(items []*dicom.Dataset, prefix string) {
		for i, item := range items {
			path := fmt.Sprintf("%sContent[%d]", prefix, i)
			vt := sr.ValueType(item.GetString(dicom.TagValueType))
			if vt.IsReference() {
				ref, ok := item.FirstItem(dicom.TagReferencedSOPSequence)
				if !ok {
					continue
				}
				key := refKey{ref.GetString(dicom.TagReferencedSOPClassUID), ref.GetString(dicom.TagReferencedSOPInstanceUID)}
				content[key] = true
				if _, inEvidence := evidence[key]; !inEvidence {
					res.Errorf(ModuleEvidence, path, "content references %s which is not in the evidence", key)
				}
				continue
			}
			walk(item.GetSequence(dicom.TagContentSequence), path+">")
		}
	}
	walk(doc.ds.GetSequence(dicom.TagContentSequence), "")

	for _, key := range order {
		if !content[key] {
			res.Warnf(ModuleEvidence, evidence[key], "evidence instance %s is not reflected in the content tree", key)
		}
	}

	if doc.verbose {
		res.Infof(ModuleEvidence, "", "evidence references %d study(ies), %d series, %d instance(s)", studies, series, len(order))
	}
}

// Series-level descriptors of an Image Library Group.
var (
	requiredGroupItems    = []sr.Code{sr.ConceptModality, sr.ConceptSeriesInstanceUID}
	recommendedGroupItems = []sr.Code{
		sr.ConceptSeriesDescription, sr.ConceptSeriesDate, sr.ConceptSeriesTime,
		sr.ConceptSeriesNumber, sr.ConceptNumberOfInstances,
	}
)

// checkImageLibrary checks the TID 1600 shape of a MADO content tree: the
// study-level context, the Image Library and one group per series.
func checkImageLibrary(doc *document, res *Result) {
	ds := doc.ds
	root := ds.GetSequence(dicom.TagContentSequence)

	if _, ok := findConcept(root, sr.ConceptModality); !ok {
		res.Errorf(ModuleImageLibrary, "ContentSequence", "study-level Modality item (121139, DCM) is missing")
	}
	if item, ok := findConcept(root, sr.ConceptStudyInstanceUID); !ok {
		res.Errorf(ModuleImageLibrary, "ContentSequence", "study-level Study Instance UID item (110180, DCM) is missing")
	} else if v, study := item.GetString(dicom.TagUID), ds.GetString(dicom.TagStudyInstanceUID); v != study {
		res.Errorf(ModuleImageLibrary, "ContentSequence", "study-level Study Instance UID %q does not match StudyInstanceUID %q", v, study)
	}
	if _, ok := findConcept(root, sr.ConceptTargetRegion); !ok {
		res.Warnf(ModuleImageLibrary, "ContentSequence", "study-level Target Region item (123014, DCM) is missing")
	}

	idx, ok := imageLibrary(ds)
	if !ok {
		res.Errorf(ModuleImageLibrary, "ContentSequence", "Image Library container (111028, DCM) is missing")
		return
	}
	libPath := fmt.Sprintf("Content[%d]", idx)
	groups := root[idx].GetSequence(dicom.TagContentSequence)
	if len(groups) == 0 {
		res.Errorf(ModuleImageLibrary, libPath, "Image Library holds no Image Library Group")
		return
	}

	evidenceSeries := make(map[string]bool)
	for _, study := range ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq) {
		for _, s := range study.GetSequence(dicom.TagReferencedSeriesSequence) {
			evidenceSeries[s.GetString(dicom.TagSeriesInstanceUID)] = true
		}
	}

	for i, group := range groups {
		path := fmt.Sprintf("%s>Content[%d]", libPath, i)
		name, _ := sr.FirstCode(group, dicom.TagConceptNameCodeSequence)
		if sr.ValueType(group.GetString(dicom.TagValueType)) != sr.ValueTypeContainer || !name.Is(sr.ConceptImageLibraryGroup) {
			res.Errorf(ModuleImageLibrary, path, "Image Library item is not an Image Library Group container")
			continue
		}
		children := group.GetSequence(dicom.TagContentSequence)
		for _, c := range requiredGroupItems {
			if _, ok := findConcept(children, c); !ok {
				res.Errorf(ModuleImageLibrary, path, "Image Library Group has no %s item", c)
			}
		}
		for _, c := range recommendedGroupItems {
			if _, ok := findConcept(children, c); !ok {
				res.Warnf(ModuleImageLibrary, path, "Image Library Group has no %s item", c)
			}
		}
		if item, ok := findConcept(children, sr.ConceptSeriesInstanceUID); ok {
			if v := item.GetString(dicom.TagUID); !evidenceSeries[v] {
				res.Errorf(ModuleImageLibrary, path, "series %q is not in the evidence", v)
			}
		}
		entries := 0
		for _, c := range children {
			if sr.ValueType(c.GetString(dicom.TagValueType)).IsReference() {
				entries++
			}
		}
		if entries == 0 {
			res.Errorf(ModuleImageLibrary, path, "Image Library Group references no instance")
		}
	}
}

func findConcept(items []*dicom.Dataset, concept sr.Code) (*dicom.Dataset, bool) {
	for _, item := range items {
		if c, ok := sr.FirstCode(item, dicom.TagConceptNameCodeSequence); ok && c.Is(concept) {
			return item, true
		}
	}
	return nil, false
}

// checkTemplate requires the content template identification of TID 2010.
func checkTemplate(doc *document, res *Result) {
	checkTemplates(doc, res, sr.TemplateKeyObjectSelection)
}

// checkMADOTemplate additionally requires TID 1600.
func checkMADOTemplate(doc *document, res *Result) {
	checkTemplates(doc, res, sr.TemplateKeyObjectSelection, sr.TemplateImageLibrary)
}

func checkTemplates(doc *document, res *Result, required ...string) {
	const path = "ContentTemplateSequence"
	items := doc.ds.GetSequence(dicom.TagContentTemplateSequence)
	if !doc.ds.Has(dicom.TagContentTemplateSequence) {
		res.Errorf(ModuleTemplate, path, "ContentTemplateSequence is missing")
		return
	}
	if len(items) == 0 {
		res.Errorf(ModuleTemplate, path, "ContentTemplateSequence has no item")
		return
	}

	found := make(map[string]bool)
	for i, item := range items {
		id := item.GetString(dicom.TagTemplateIdentifier)
		resource := item.GetString(dicom.TagMappingResource)
		found[id] = true
		if contains(required, id) && resource != sr.SchemeDCMR {
			res.Errorf(ModuleTemplate, fmt.Sprintf("%s[%d]", path, i),
				"template %s must be identified with mapping resource %s, found %q", id, sr.SchemeDCMR, resource)
		}
	}
	for _, id := range required {
		if found[id] {
			continue
		}
		if id == sr.TemplateKeyObjectSelection {
			res.Warnf(ModuleTemplate, path, "no item identifies TID %s", id)
		} else {
			res.Errorf(ModuleTemplate, path, "no item identifies TID %s", id)
		}
	}
	if doc.verbose {
		ids := make([]string, 0, len(found))
		for _, item := range items {
			ids = append(ids, item.GetString(dicom.TagTemplateIdentifier))
		}
		res.Infof(ModuleTemplate, path, "content templates: %s", strings.Join(ids, ", "))
	}
}
