package validate

import (
	"fmt"
	"strings"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
	"github.com/caio-sobreiro/dicommanifest/uid"
)

// Module names used in findings.
const (
	ModulePatient       = "Patient"
	ModuleStudy         = "GeneralStudy"
	ModuleSeries        = "KeyObjectDocumentSeries"
	ModuleEquipment     = "GeneralEquipment"
	ModuleDocument      = "KeyObjectDocument"
	ModuleSRContent     = "SRDocumentContent"
	ModuleSOPCommon     = "SOPCommon"
	ModuleEvidence      = "Evidence"
	ModuleContentTree   = "ContentTree"
	ModuleImageLibrary  = "ImageLibrary"
	ModuleTemplate      = "Template"
	ModuleCharacterSet  = "CharacterSet"
	ModulePadding       = "Padding"
	ModuleTimezone      = "Timezone"
	ModuleSOPClass      = "SOPClass"
	ModuleEmptySequence = "EmptySequence"
	ModulePrivateTags   = "PrivateTags"
	ModuleForbidden     = "ForbiddenAttributes"
	ModuleSignatures    = "DigitalSignatures"
	ModuleFileMeta      = "FileMeta"
	ModuleRetrieval     = "XDSIRetrieval"
	ModuleProfile       = "Profile"
)

// AttrType is the DICOM attribute requirement type.
type AttrType int

const (
	// Type1 attributes are required and must not be empty.
	Type1 AttrType = iota
	// Type1C attributes are Type 1 when their condition holds.
	Type1C
	// Type2 attributes are required but may be empty.
	Type2
	// Type2C attributes are Type 2 when their condition holds.
	Type2C
	// Type3 attributes are optional.
	Type3
)

func (t AttrType) String() string {
	return [...]string{"1", "1C", "2", "2C", "3"}[t]
}

// Rule is one attribute requirement of a module.
type Rule struct {
	Tag  dicom.Tag
	Type AttrType
	// Enum lists the allowed values. Empty values of Type 2 attributes
	// are always allowed.
	Enum []string
	// Cond decides whether a conditional attribute is required.
	Cond func(*dicom.Dataset) bool
}

// ModuleRules is the rule table of one information module.
type ModuleRules struct {
	Name  string
	Rules []Rule
}

// genericModules holds the Key Object Selection Document IOD rules.
var genericModules = []ModuleRules{
	{ModulePatient, []Rule{
		{Tag: dicom.TagPatientName, Type: Type2},
		{Tag: dicom.TagPatientID, Type: Type2},
		{Tag: dicom.TagIssuerOfPatientID, Type: Type3},
		{Tag: dicom.TagIssuerOfPatientIDQualifiersSequence, Type: Type3},
		{Tag: dicom.TagPatientBirthDate, Type: Type2},
		{Tag: dicom.TagPatientSex, Type: Type2, Enum: []string{"M", "F", "O"}},
	}},
	{ModuleStudy, []Rule{
		{Tag: dicom.TagStudyInstanceUID, Type: Type1},
		{Tag: dicom.TagStudyDate, Type: Type2},
		{Tag: dicom.TagStudyTime, Type: Type2},
		{Tag: dicom.TagReferringPhysicianName, Type: Type2},
		{Tag: dicom.TagStudyID, Type: Type2},
		{Tag: dicom.TagAccessionNumber, Type: Type2},
		{Tag: dicom.TagIssuerOfAccessionNumberSequence, Type: Type3},
		{Tag: dicom.TagStudyDescription, Type: Type3},
	}},
	{ModuleSeries, []Rule{
		{Tag: dicom.TagModality, Type: Type1, Enum: []string{"KO"}},
		{Tag: dicom.TagSeriesInstanceUID, Type: Type1},
		{Tag: dicom.TagSeriesNumber, Type: Type1},
		{Tag: dicom.TagReferencedPerformedProcedureStep, Type: Type2},
	}},
	{ModuleEquipment, []Rule{
		{Tag: dicom.TagManufacturer, Type: Type2},
		{Tag: dicom.TagInstitutionName, Type: Type3},
		{Tag: dicom.TagManufacturerModelName, Type: Type3},
		{Tag: dicom.TagSoftwareVersions, Type: Type3},
	}},
	{ModuleDocument, []Rule{
		{Tag: dicom.TagInstanceNumber, Type: Type1},
		{Tag: dicom.TagContentDate, Type: Type1},
		{Tag: dicom.TagContentTime, Type: Type1},
		{Tag: dicom.TagReferencedRequestSequence, Type: Type3},
		{Tag: dicom.TagCurrentRequestedProcedureEvidenceSeq, Type: Type1C, Cond: referencesInstances},
		{Tag: dicom.TagIdenticalDocumentsSequence, Type: Type1C, Cond: multiStudy},
	}},
	{ModuleSRContent, []Rule{
		{Tag: dicom.TagValueType, Type: Type1, Enum: []string{string(sr.ValueTypeContainer)}},
		{Tag: dicom.TagContinuityOfContent, Type: Type1, Enum: []string{sr.ContinuitySeparate}},
		{Tag: dicom.TagContentSequence, Type: Type1},
	}},
	{ModuleSOPCommon, []Rule{
		{Tag: dicom.TagSOPClassUID, Type: Type1, Enum: []string{types.KeyObjectSelectionDocumentStorage}},
		{Tag: dicom.TagSOPInstanceUID, Type: Type1},
		{Tag: dicom.TagSpecificCharacterSet, Type: Type1C, Cond: hasExtendedCharacters},
		{Tag: dicom.TagInstanceCreationDate, Type: Type3},
		{Tag: dicom.TagInstanceCreationTime, Type: Type3},
		{Tag: dicom.TagTimezoneOffsetFromUTC, Type: Type3},
	}},
}

// madoOverrides escalate rules under the IHE MADO profile. A rule replaces
// the generic rule for the same tag.
var madoOverrides = map[string][]Rule{
	ModulePatient: {
		{Tag: dicom.TagIssuerOfPatientID, Type: Type1},
		{Tag: dicom.TagIssuerOfPatientIDQualifiersSequence, Type: Type1},
	},
	ModuleStudy: {
		{Tag: dicom.TagStudyDate, Type: Type1},
		{Tag: dicom.TagStudyTime, Type: Type1},
		{Tag: dicom.TagAccessionNumber, Type: Type1},
		{Tag: dicom.TagIssuerOfAccessionNumberSequence, Type: Type1},
	},
	ModuleSOPCommon: {
		{Tag: dicom.TagTimezoneOffsetFromUTC, Type: Type1},
	},
}

// layer returns base with overrides applied by tag. Rules for tags the base
// table does not hold are appended.
func layer(base []ModuleRules, overrides map[string][]Rule) []ModuleRules {
	out := make([]ModuleRules, 0, len(base))
	for _, m := range base {
		rules := append([]Rule(nil), m.Rules...)
		for _, o := range overrides[m.Name] {
			replaced := false
			for i := range rules {
				if rules[i].Tag == o.Tag {
					rules[i] = o
					replaced = true
				}
			}
			if !replaced {
				rules = append(rules, o)
			}
		}
		out = append(out, ModuleRules{Name: m.Name, Rules: rules})
	}
	return out
}

// checkModule applies one module's rules to the top level of ds.
func checkModule(ds *dicom.Dataset, m ModuleRules, res *Result) {
	for _, rule := range m.Rules {
		checkRule(ds, m.Name, "", rule, res)
	}
}

func checkRule(ds *dicom.Dataset, module, prefix string, rule Rule, res *Result) {
	name := dicom.Keyword(rule.Tag)
	path := name
	if prefix != "" {
		path = prefix + ">" + name
	}

	required := rule.Type
	switch rule.Type {
	case Type1C:
		required = Type3
		if rule.Cond != nil && rule.Cond(ds) {
			required = Type1
		}
	case Type2C:
		required = Type3
		if rule.Cond != nil && rule.Cond(ds) {
			required = Type2
		}
	}

	e, present := ds.GetElement(rule.Tag)
	if !present {
		if required == Type1 || required == Type2 {
			res.Errorf(module, path, "%s %s is missing (Type %s)", name, rule.Tag, rule.Type)
		}
		return
	}

	empty := isEmpty(e)
	if empty {
		if required == Type1 {
			res.Errorf(module, path, "%s %s is empty (Type %s)", name, rule.Tag, rule.Type)
		}
		return
	}

	if len(rule.Enum) > 0 {
		value := ds.GetString(rule.Tag)
		if !contains(rule.Enum, value) {
			res.Errorf(module, path, "%s has value %q, expected one of %s", name, value, strings.Join(rule.Enum, ", "))
		}
	}
	if e.VR == dicom.VR_UI {
		checkUID(res, module, path, ds.GetString(rule.Tag))
	}
}

// checkUID records the syntax problems of a UID value.
func checkUID(res *Result, module, path, value string) {
	for _, p := range uid.Check(value) {
		if p.Severity == uid.SeverityError {
			res.Errorf(module, path, "invalid UID %q: %s", value, p.Message)
		} else {
			res.Warnf(module, path, "UID %q: %s", value, p.Message)
		}
	}
}

func isEmpty(e *dicom.Element) bool {
	switch v := e.Value.(type) {
	case nil:
		return true
	case string:
		return strings.Trim(v, " \x00") == ""
	case []string:
		return len(v) == 0
	case []byte:
		return len(v) == 0
	case []*dicom.Dataset:
		return len(v) == 0
	case []dicom.Tag:
		return len(v) == 0
	}
	return false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// referencesInstances reports whether the content tree holds any IMAGE or
// COMPOSITE item.
func referencesInstances(ds *dicom.Dataset) bool {
	found := false
	var walk func(items []*dicom.Dataset)
	walk = func(items []*dicom.Dataset) {
		for _, item := range items {
			if found {
				return
			}
			if sr.ValueType(item.GetString(dicom.TagValueType)).IsReference() {
				found = true
				return
			}
			walk(item.GetSequence(dicom.TagContentSequence))
		}
	}
	walk(ds.GetSequence(dicom.TagContentSequence))
	return found
}

// multiStudy reports whether the evidence references more than one study.
func multiStudy(ds *dicom.Dataset) bool {
	return len(evidenceStudies(ds)) > 1
}

func evidenceStudies(ds *dicom.Dataset) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq) {
		s := item.GetString(dicom.TagStudyInstanceUID)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// hasExtendedCharacters reports whether any character string holds a byte
// outside the default repertoire.
func hasExtendedCharacters(ds *dicom.Dataset) bool {
	found := false
	ds.Walk(func(_ string, e *dicom.Element) {
		if found || !dicom.IsCharsetVR(e.VR) {
			return
		}
		if s, ok := e.Value.(string); ok && hasHighByte(s) {
			found = true
		}
	})
	return found
}

func hasHighByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return true
		}
	}
	return false
}

func tagLabel(tag dicom.Tag) string {
	return fmt.Sprintf("%s %s", dicom.Keyword(tag), tag)
}
