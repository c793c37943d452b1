package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/manifest"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
	"github.com/caio-sobreiro/dicommanifest/uid"
)

const (
	testStudyUID  = "1.2.826.0.1.3680043.10.500.1"
	testSeriesUID = "1.2.826.0.1.3680043.10.500.1.1"
	testLocation  = "1.2.826.0.1.3680043.10.500.99"
	testUniversal = "1.2.826.0.1.3680043.10.500.98"
)

func builderOptions(extra ...manifest.Option) []manifest.Option {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	return append([]manifest.Option{
		manifest.WithClock(func() time.Time { return now }),
		manifest.WithUIDGenerator(uid.Sequential("1.2.826.0.1.3680043.10.999")),
		manifest.WithUniversalEntityID(testUniversal),
		manifest.WithRetrieveLocationUID(testLocation),
	}, extra...)
}

func records() (*types.Study, []types.Series, map[string][]types.Instance) {
	study := &types.Study{
		StudyInstanceUID: testStudyUID,
		PatientID:        "PAT001",
		PatientName:      "Doe^Jane",
		PatientSex:       "F",
		StudyDate:        "20240315",
		StudyTime:        "093000",
		AccessionNumber:  "ACC-1",
		AccessionIssuer:  "1.2.3.4.5",
	}
	series := []types.Series{{
		SeriesInstanceUID: testSeriesUID,
		Modality:          "CT",
		SeriesNumber:      "2",
		SeriesDescription: "Axial",
		SeriesDate:        "20240315",
		SeriesTime:        "093100",
		BodyPartExamined:  "CHEST",
	}}
	instances := map[string][]types.Instance{
		testSeriesUID: {
			{SOPClassUID: types.CTImageStorage, SOPInstanceUID: testSeriesUID + ".1", InstanceNumber: "1"},
			{SOPClassUID: types.CTImageStorage, SOPInstanceUID: testSeriesUID + ".2", InstanceNumber: "2"},
			{SOPClassUID: types.CTImageStorage, SOPInstanceUID: testSeriesUID + ".3", InstanceNumber: "3"},
		},
	}
	return study, series, instances
}

func kosDocument(t *testing.T) *dicom.Dataset {
	t.Helper()
	study, series, instances := records()
	ds, err := manifest.BuildKOS(study, series, instances, builderOptions()...)
	require.NoError(t, err)
	return ds
}

func madoDocument(t *testing.T) *dicom.Dataset {
	t.Helper()
	study, series, instances := records()
	ds, err := manifest.BuildMADO(study, series, instances, builderOptions()...)
	require.NoError(t, err)
	return ds
}

func hasFinding(res *Result, sev Severity, module string) bool {
	for _, m := range res.Messages {
		if m.Severity == sev && m.Module == module {
			return true
		}
	}
	return false
}

func TestValidate_BuilderOutput(t *testing.T) {
	tests := []struct {
		name    string
		build   func(*testing.T) *dicom.Dataset
		profile Profile
	}{
		{"KOS generic", kosDocument, ProfileNone},
		{"KOS XDS-I.b", kosDocument, ProfileXDSIManifest},
		{"MADO", madoDocument, ProfileMADO},
		{"MADO generic", madoDocument, ProfileNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.build(t), tt.profile)
			assert.True(t, res.IsValid(), res.String())
		})
	}
}

func TestValidate_MissingTitle(t *testing.T) {
	ds := kosDocument(t)
	ds.AddSequence(dicom.TagConceptNameCodeSequence)

	res := Validate(ds, ProfileNone)

	errs := res.Errors()
	require.Len(t, errs, 1, res.String())
	assert.Equal(t, ModuleSRContent, errs[0].Module)
	assert.Equal(t, "ConceptNameCodeSequence", errs[0].Path)
}

func TestValidate_MissingImageLibrary(t *testing.T) {
	ds := madoDocument(t)
	idx, ok := imageLibrary(ds)
	require.True(t, ok)

	e, _ := ds.GetElement(dicom.TagContentSequence)
	items := e.Items()
	e.Value = append(append([]*dicom.Dataset{}, items[:idx]...), items[idx+1:]...)

	res := Validate(ds, ProfileMADO)

	assert.False(t, res.IsValid())
	assert.True(t, hasFinding(res, SeverityError, ModuleImageLibrary), res.String())
	for _, m := range res.ByModule(ModuleEvidence) {
		assert.NotEqual(t, SeverityError, m.Severity, m.String())
	}
	assert.Len(t, res.ByModule(ModuleEvidence), 3, "every evidence instance is now unreflected")
}

func TestValidate_UndeclaredExtendedCharacter(t *testing.T) {
	ds := kosDocument(t)
	ds.Remove(dicom.TagSpecificCharacterSet)
	ds.Set(dicom.TagPatientName, "Jos\xe9^Maria")

	res := Validate(ds, ProfileNone)

	require.False(t, res.IsValid())
	charset := res.ByModule(ModuleCharacterSet)
	require.NotEmpty(t, charset)
	assert.Equal(t, SeverityError, charset[0].Severity)
	assert.Equal(t, "PatientName", charset[0].Path)
	assert.Contains(t, charset[0].Text, "undeclared extended character")
	assert.True(t, hasFinding(res, SeverityError, ModuleSOPCommon), "SpecificCharacterSet becomes Type 1")
}

func TestValidate_Deterministic(t *testing.T) {
	ds := madoDocument(t)
	ds.Set(dicom.TagTimezoneOffsetFromUTC, "+2500")
	ds.Remove(dicom.TagPatientID)

	for _, profile := range Profiles {
		first := Validate(ds, profile, WithVerbose(true))
		second := Validate(ds, profile, WithVerbose(true))
		assert.Equal(t, first.Messages, second.Messages, profile.String())
	}
}

func TestValidate_DoesNotModifyDocument(t *testing.T) {
	ds := madoDocument(t)
	before := ds.Clone()

	Validate(ds, ProfileMADO, WithVerbose(true))

	assert.Equal(t, before, ds)
}

func TestValidate_UnknownProfile(t *testing.T) {
	ds := kosDocument(t)
	ds.Set(dicom.TagTimezoneOffsetFromUTC, "+2500")
	ds.Remove(dicom.TagPatientID)

	res := Validate(ds, Profile("DICOMWEB"))
	generic := Validate(ds, ProfileNone)

	require.NotEmpty(t, generic.Messages)
	require.Len(t, res.Messages, len(generic.Messages)+1)
	assert.Equal(t, SeverityWarning, res.Messages[0].Severity)
	assert.Equal(t, ModuleProfile, res.Messages[0].Module)
	assert.Equal(t, generic.Messages, res.Messages[1:])
}

func TestValidate_GenericChecks(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(ds *dicom.Dataset)
		severity Severity
		module   string
	}{
		{
			name:     "modality not KO",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagModality, "CT") },
			severity: SeverityError,
			module:   ModuleSeries,
		},
		{
			name:     "patient sex outside enum",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagPatientSex, "X") },
			severity: SeverityError,
			module:   ModulePatient,
		},
		{
			name:     "patient ID absent",
			mutate:   func(ds *dicom.Dataset) { ds.Remove(dicom.TagPatientID) },
			severity: SeverityError,
			module:   ModulePatient,
		},
		{
			name:     "UID with leading zero component",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagStudyInstanceUID, "1.2.03.4") },
			severity: SeverityWarning,
			module:   ModuleStudy,
		},
		{
			name:     "UID with double dot",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagSOPInstanceUID, "1.2..4") },
			severity: SeverityError,
			module:   ModuleSOPCommon,
		},
		{
			name:     "continuity not SEPARATE",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagContinuityOfContent, "CONTINUOUS") },
			severity: SeverityError,
			module:   ModuleSRContent,
		},
		{
			name: "title outside CID 7010",
			mutate: func(ds *dicom.Dataset) {
				setTitle(ds, sr.Code{Value: "11528-7", Scheme: "LN", Meaning: "Radiology Report"})
			},
			severity: SeverityError,
			module:   ModuleSRContent,
		},
		{
			name:     "verified without observers",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagVerificationFlag, "VERIFIED") },
			severity: SeverityError,
			module:   ModuleDocument,
		},
		{
			name:     "signed title without signatures",
			mutate:   func(ds *dicom.Dataset) { setTitle(ds, sr.TitleSignedManifest) },
			severity: SeverityError,
			module:   ModuleSignatures,
		},
		{
			name:     "second study without identical documents",
			mutate:   addEvidenceStudy,
			severity: SeverityError,
			module:   ModuleDocument,
		},
		{
			name: "phantom content reference",
			mutate: func(ds *dicom.Dataset) {
				ref := sr.Encode(sr.NewImage(sr.RelContains, sr.Reference{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2.3.999"}, nil))
				ds.AppendItem(dicom.TagContentSequence, ref)
			},
			severity: SeverityError,
			module:   ModuleEvidence,
		},
		{
			name: "evidence without content",
			mutate: func(ds *dicom.Dataset) {
				e, _ := ds.GetElement(dicom.TagContentSequence)
				items := e.Items()
				e.Value = items[:len(items)-1]
			},
			severity: SeverityWarning,
			module:   ModuleEvidence,
		},
		{
			name: "transfer syntax as SOP class",
			mutate: func(ds *dicom.Dataset) {
				firstEvidenceSOP(ds).Set(dicom.TagReferencedSOPClassUID, types.ExplicitVRLittleEndian)
			},
			severity: SeverityError,
			module:   ModuleSOPClass,
		},
		{
			name: "verification SOP class",
			mutate: func(ds *dicom.Dataset) {
				firstEvidenceSOP(ds).Set(dicom.TagReferencedSOPClassUID, types.VerificationSOPClass)
			},
			severity: SeverityWarning,
			module:   ModuleSOPClass,
		},
		{
			name: "unknown SOP class",
			mutate: func(ds *dicom.Dataset) {
				firstEvidenceSOP(ds).Set(dicom.TagReferencedSOPClassUID, "1.2.3.4.5.6")
			},
			severity: SeverityWarning,
			module:   ModuleSOPClass,
		},
		{
			name: "UTF-8 combined with another character set",
			mutate: func(ds *dicom.Dataset) {
				ds.Set(dicom.TagSpecificCharacterSet, []string{"ISO_IR 192", "ISO_IR 100"})
			},
			severity: SeverityError,
			module:   ModuleCharacterSet,
		},
		{
			name:     "unknown character set",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagSpecificCharacterSet, "ISO_IR 999") },
			severity: SeverityError,
			module:   ModuleCharacterSet,
		},
		{
			name:     "escape without ISO 2022",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagPatientName, "Yamada\x1b$B") },
			severity: SeverityError,
			module:   ModuleCharacterSet,
		},
		{
			name:     "invalid UTF-8",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagPatientName, "Doe\xff") },
			severity: SeverityError,
			module:   ModuleCharacterSet,
		},
		{
			name:     "extended character in a default repertoire VR",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagStudyDate, "2024\xb03\xb015") },
			severity: SeverityError,
			module:   ModuleCharacterSet,
		},
		{
			name: "UID padded with SPACE",
			mutate: func(ds *dicom.Dataset) {
				ds.Set(dicom.TagSeriesInstanceUID, "1.2.826.0.1.3680043.10.999.2 ")
			},
			severity: SeverityError,
			module:   ModulePadding,
		},
		{
			name:     "text padded with NUL",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagPatientID, "PAT01\x00") },
			severity: SeverityError,
			module:   ModulePadding,
		},
		{
			name:     "timezone hours above 14",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagTimezoneOffsetFromUTC, "+1500") },
			severity: SeverityError,
			module:   ModuleTimezone,
		},
		{
			name:     "timezone without sign",
			mutate:   func(ds *dicom.Dataset) { ds.Set(dicom.TagTimezoneOffsetFromUTC, "0100") },
			severity: SeverityError,
			module:   ModuleTimezone,
		},
		{
			name: "midnight without timezone",
			mutate: func(ds *dicom.Dataset) {
				ds.Remove(dicom.TagTimezoneOffsetFromUTC)
				ds.Set(dicom.TagStudyDate, "20240314")
			},
			severity: SeverityWarning,
			module:   ModuleTimezone,
		},
		{
			name: "template without mapping resource",
			mutate: func(ds *dicom.Dataset) {
				ds.GetSequence(dicom.TagContentTemplateSequence)[0].Set(dicom.TagMappingResource, "99LOCAL")
			},
			severity: SeverityError,
			module:   ModuleTemplate,
		},
		{
			name:     "template sequence absent",
			mutate:   func(ds *dicom.Dataset) { ds.Remove(dicom.TagContentTemplateSequence) },
			severity: SeverityError,
			module:   ModuleTemplate,
		},
		{
			name: "empty evidence series",
			mutate: func(ds *dicom.Dataset) {
				ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq)[0].AddSequence(dicom.TagReferencedSeriesSequence)
			},
			severity: SeverityError,
			module:   ModuleEmptySequence,
		},
		{
			name:     "private attribute with creator",
			mutate:   addPrivate(true),
			severity: SeverityWarning,
			module:   ModulePrivateTags,
		},
		{
			name:     "private attribute without creator",
			mutate:   addPrivate(false),
			severity: SeverityError,
			module:   ModulePrivateTags,
		},
		{
			name:     "pixel data",
			mutate:   func(ds *dicom.Dataset) { ds.AddElement(dicom.TagPixelData, dicom.VR_OW, []byte{0, 0}) },
			severity: SeverityError,
			module:   ModuleForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := kosDocument(t)
			tt.mutate(ds)

			res := Validate(ds, ProfileNone)

			assert.True(t, hasFinding(res, tt.severity, tt.module),
				"want %s from %s, got:\n%s", tt.severity, tt.module, res.String())
		})
	}
}

func TestValidate_ProfileChecks(t *testing.T) {
	tests := []struct {
		name    string
		build   func(*testing.T) *dicom.Dataset
		profile Profile
		mutate  func(ds *dicom.Dataset)
		module  string
	}{
		{
			name:    "XDS-I title",
			build:   kosDocument,
			profile: ProfileXDSIManifest,
			mutate:  func(ds *dicom.Dataset) { setTitle(ds, sr.TitleOfInterest) },
			module:  ModuleSRContent,
		},
		{
			name:    "XDS-I retrieval addressing",
			build:   kosDocument,
			profile: ProfileXDSIManifest,
			mutate: func(ds *dicom.Dataset) {
				ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq)[0].
					GetSequence(dicom.TagReferencedSeriesSequence)[0].Remove(dicom.TagRetrieveLocationUID)
			},
			module: ModuleRetrieval,
		},
		{
			name:    "XDS-I file meta mismatch",
			build:   kosDocument,
			profile: ProfileXDSIManifest,
			mutate: func(ds *dicom.Dataset) {
				ds.Set(dicom.TagMediaStorageSOPClassUID, types.KeyObjectSelectionDocumentStorage)
				ds.Set(dicom.TagMediaStorageSOPInstanceUID, "1.2.3.4")
				ds.Set(dicom.TagTransferSyntaxUID, types.ExplicitVRLittleEndian)
			},
			module: ModuleFileMeta,
		},
		{
			name:    "XDS-I file meta without transfer syntax",
			build:   kosDocument,
			profile: ProfileXDSIManifest,
			mutate: func(ds *dicom.Dataset) {
				ds.Set(dicom.TagMediaStorageSOPClassUID, ds.GetString(dicom.TagSOPClassUID))
				ds.Set(dicom.TagMediaStorageSOPInstanceUID, ds.GetString(dicom.TagSOPInstanceUID))
			},
			module: ModuleFileMeta,
		},
		{
			name:    "MADO title",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate:  func(ds *dicom.Dataset) { setTitle(ds, sr.TitleOfInterest) },
			module:  ModuleSRContent,
		},
		{
			name:    "MADO patient issuer qualifiers",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate:  func(ds *dicom.Dataset) { ds.Remove(dicom.TagIssuerOfPatientIDQualifiersSequence) },
			module:  ModulePatient,
		},
		{
			name:    "MADO universal entity ID type",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate: func(ds *dicom.Dataset) {
				ds.GetSequence(dicom.TagIssuerOfPatientIDQualifiersSequence)[0].Set(dicom.TagUniversalEntityIDType, "DNS")
			},
			module: ModulePatient,
		},
		{
			name:    "MADO study date",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate:  func(ds *dicom.Dataset) { ds.Set(dicom.TagStudyDate, "") },
			module:  ModuleStudy,
		},
		{
			name:    "MADO accession issuer",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate:  func(ds *dicom.Dataset) { ds.Remove(dicom.TagIssuerOfAccessionNumberSequence) },
			module:  ModuleStudy,
		},
		{
			name:    "MADO timezone",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate:  func(ds *dicom.Dataset) { ds.Remove(dicom.TagTimezoneOffsetFromUTC) },
			module:  ModuleSOPCommon,
		},
		{
			name:    "MADO image library template",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate: func(ds *dicom.Dataset) {
				ds.AddSequence(dicom.TagContentTemplateSequence, ds.GetSequence(dicom.TagContentTemplateSequence)[0])
			},
			module: ModuleTemplate,
		},
		{
			name:    "MADO study context",
			build:   madoDocument,
			profile: ProfileMADO,
			mutate: func(ds *dicom.Dataset) {
				e, _ := ds.GetElement(dicom.TagContentSequence)
				var kept []*dicom.Dataset
				for _, item := range e.Items() {
					if c, _ := sr.FirstCode(item, dicom.TagConceptNameCodeSequence); !c.Is(sr.ConceptStudyInstanceUID) {
						kept = append(kept, item)
					}
				}
				e.Value = kept
			},
			module: ModuleImageLibrary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := tt.build(t)
			require.True(t, Validate(ds, tt.profile).IsValid())
			tt.mutate(ds)

			res := Validate(ds, tt.profile)

			assert.True(t, hasFinding(res, SeverityError, tt.module),
				"want ERROR from %s, got:\n%s", tt.module, res.String())
		})
	}
}

func TestValidate_ProfileEscalation(t *testing.T) {
	ds := kosDocument(t)
	ds.Set(dicom.TagAccessionNumber, "")

	assert.True(t, Validate(ds, ProfileNone).IsValid(), "AccessionNumber is Type 2 in the generic profile")
	assert.False(t, Validate(ds, ProfileMADO).IsValid())
}

func TestValidate_MADOShapeUnderGenericProfile(t *testing.T) {
	res := Validate(madoDocument(t), ProfileNone)

	assert.True(t, hasFinding(res, SeverityInfo, ModuleProfile), res.String())
	assert.True(t, hasFinding(res, SeverityWarning, ModuleSRContent), "MADO title under the generic profile")
	assert.Empty(t, res.ByModule(ModuleImageLibrary), "TID 1600 rules only run under IHE_MADO")
}

func TestValidate_Verbose(t *testing.T) {
	quiet := Validate(kosDocument(t), ProfileNone)
	verbose := Validate(kosDocument(t), ProfileNone, WithVerbose(true))

	assert.Zero(t, quiet.Count(SeverityInfo))
	assert.Positive(t, verbose.Count(SeverityInfo))

	var summary []string
	for _, m := range verbose.ByModule(ModuleEvidence) {
		summary = append(summary, m.Text)
	}
	assert.Contains(t, summary, "evidence references 1 study(ies), 1 series, 3 instance(s)")
}

func TestValidate_PaddingSurvivesRoundTrip(t *testing.T) {
	ds := kosDocument(t)
	data, err := dicom.EncodePart10(ds, types.ExplicitVRLittleEndian)
	require.NoError(t, err)

	decoded, err := dicom.Decode(data)
	require.NoError(t, err)

	res := Validate(decoded, ProfileXDSIManifest)
	assert.Empty(t, res.ByModule(ModulePadding), res.String())
	assert.Empty(t, res.ByModule(ModuleFileMeta), res.String())
	assert.True(t, res.IsValid(), res.String())
}

func TestValidate_VerifiedDocument(t *testing.T) {
	ds := kosDocument(t)
	ds.Set(dicom.TagVerificationFlag, "VERIFIED")
	observer := dicom.NewDataset()
	observer.Set(dicom.TagVerifyingObserverName, "Smith^John")
	observer.Set(dicom.TagVerifyingOrganization, "Radiology")
	observer.Set(dicom.TagVerificationDateTime, "20240315103000")
	ds.AddSequence(dicom.TagVerifyingObserverSequence, observer)

	assert.True(t, Validate(ds, ProfileNone).IsValid())

	observer.Remove(dicom.TagVerifyingOrganization)
	res := Validate(ds, ProfileNone)
	require.Len(t, res.Errors(), 1, res.String())
	assert.Equal(t, "VerifyingObserverSequence[0]>VerifyingOrganization", res.Errors()[0].Path)
}

func TestValidate_SignatureBlock(t *testing.T) {
	ds := kosDocument(t)
	setTitle(ds, sr.TitleSignedManifest)

	mac := dicom.NewDataset()
	mac.Set(dicom.TagMACIDNumber, uint16(1))
	mac.Set(dicom.TagMACAlgorithm, "SHA256")
	mac.Set(dicom.TagDataElementsSigned, []dicom.Tag{dicom.TagSOPInstanceUID})
	ds.AddSequence(dicom.TagMACParametersSequence, mac)

	sig := dicom.NewDataset()
	sig.Set(dicom.TagMACIDNumber, uint16(1))
	sig.Set(dicom.TagDigitalSignatureUID, "1.2.826.0.1.3680043.10.500.7")
	sig.Set(dicom.TagDigitalSignatureDateTime, "20240315103000")
	sig.Set(dicom.TagCertificateType, "X509_1993_SIG")
	sig.Set(dicom.TagCertificateOfSigner, []byte{0x30, 0x82})
	sig.Set(dicom.TagSignature, []byte{0x01, 0x02})
	ds.AddSequence(dicom.TagDigitalSignaturesSequence, sig)

	assert.Empty(t, Validate(ds, ProfileNone).ByModule(ModuleSignatures))

	sig.Set(dicom.TagSignature, []byte{})
	res := Validate(ds, ProfileNone)
	require.Len(t, res.ByModule(ModuleSignatures), 1, res.String())
	assert.Equal(t, "DigitalSignaturesSequence[0]", res.ByModule(ModuleSignatures)[0].Path)
}

func TestValidate_IdenticalDocuments(t *testing.T) {
	ds := kosDocument(t)
	addEvidenceStudy(ds)

	identical := dicom.NewDataset()
	identical.Set(dicom.TagStudyInstanceUID, "1.2.826.0.1.3680043.10.500.2")
	series := dicom.NewDataset()
	series.Set(dicom.TagSeriesInstanceUID, "1.2.826.0.1.3680043.10.500.2.1")
	sop := dicom.NewDataset()
	sop.Set(dicom.TagReferencedSOPClassUID, types.KeyObjectSelectionDocumentStorage)
	series.AddSequence(dicom.TagReferencedSOPSequence, sop)
	identical.AddSequence(dicom.TagReferencedSeriesSequence, series)
	ds.AddSequence(dicom.TagIdenticalDocumentsSequence, identical)

	res := Validate(ds, ProfileNone)

	var paths []string
	for _, m := range res.Errors() {
		paths = append(paths, m.Path)
	}
	assert.Equal(t, []string{"IdenticalDocuments[0]>Series[0]>ReferencedSOP[0]"}, paths, res.String())
}

func TestRegistry_Override(t *testing.T) {
	extra := Pass{Name: "extra", Run: func(*document, *Result) {}}
	passes := override(GenericPasses(), map[string]Pass{
		passTitle: {passTitle, checkMADOTitle},
	}, extra)

	names := make([]string, 0, len(passes))
	for _, p := range passes {
		names = append(names, p.Name)
	}
	require.Len(t, names, len(GenericPasses())+1)
	assert.Equal(t, []string{"extra", passEmptySequences, passPrivateTags, passForbidden}, names[len(names)-4:])
	assert.Contains(t, names, passTitle)
}

func TestRegistry_CustomProfile(t *testing.T) {
	const custom Profile = "LOCAL"
	r := DefaultRegistry()
	r.Register(custom, []Pass{{
		Name: "always",
		Run: func(doc *document, res *Result) {
			res.Infof("Local", "", "checked %s", doc.ds.GetString(dicom.TagModality))
		},
	}})

	res := r.Validate(kosDocument(t), custom)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "checked KO", res.Messages[0].Text)

	r.Unregister(custom)
	res = r.Validate(kosDocument(t), custom)
	assert.Equal(t, ModuleProfile, res.Messages[0].Module)
}

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in   string
		want Profile
	}{
		{"", ProfileNone},
		{"none", ProfileNone},
		{"IHE_XDSI_MANIFEST", ProfileXDSIManifest},
		{"IHE_MADO", ProfileMADO},
		{"OTHER", Profile("OTHER")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseProfile(tt.in), tt.in)
	}
	assert.Equal(t, "none", ProfileNone.String())
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"+0100", time.Hour, false},
		{"-0530", -(5*time.Hour + 30*time.Minute), false},
		{"+1400", 14 * time.Hour, false},
		{"+1401", 14*time.Hour + time.Minute, false},
		{"+1500", 0, true},
		{"+0160", 0, true},
		{"0100", 0, true},
		{"+01:00", 0, true},
	}
	for _, tt := range tests {
		got, err := parseOffset(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, []string{"INFO", "WARNING", "ERROR"},
		[]string{SeverityInfo.String(), SeverityWarning.String(), SeverityError.String()})
	assert.Equal(t, "ERROR [Patient] PatientID: PatientID is missing",
		Message{Severity: SeverityError, Module: ModulePatient, Path: "PatientID", Text: "PatientID is missing"}.String())
}

func setTitle(ds *dicom.Dataset, title sr.Code) {
	ds.AddSequence(dicom.TagConceptNameCodeSequence, title.Dataset())
}

func firstEvidenceSOP(ds *dicom.Dataset) *dicom.Dataset {
	study := ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq)[0]
	series := study.GetSequence(dicom.TagReferencedSeriesSequence)[0]
	return series.GetSequence(dicom.TagReferencedSOPSequence)[0]
}

// addEvidenceStudy appends a second, well-formed study to the evidence.
func addEvidenceStudy(ds *dicom.Dataset) {
	sop := dicom.NewDataset()
	sop.Set(dicom.TagReferencedSOPClassUID, types.CTImageStorage)
	sop.Set(dicom.TagReferencedSOPInstanceUID, "1.2.826.0.1.3680043.10.500.2.1.1")
	series := dicom.NewDataset()
	series.Set(dicom.TagSeriesInstanceUID, "1.2.826.0.1.3680043.10.500.2.1")
	series.Set(dicom.TagRetrieveLocationUID, testLocation)
	series.AddSequence(dicom.TagReferencedSOPSequence, sop)
	study := dicom.NewDataset()
	study.Set(dicom.TagStudyInstanceUID, "1.2.826.0.1.3680043.10.500.2")
	study.AddSequence(dicom.TagReferencedSeriesSequence, series)
	ds.AppendItem(dicom.TagCurrentRequestedProcedureEvidenceSeq, study)
	ds.AppendItem(dicom.TagContentSequence, sr.Encode(sr.NewImage(sr.RelContains,
		sr.Reference{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2.826.0.1.3680043.10.500.2.1.1"}, nil)))
}

func addPrivate(withCreator bool) func(ds *dicom.Dataset) {
	return func(ds *dicom.Dataset) {
		if withCreator {
			ds.AddElement(dicom.Tag{Group: 0x0009, Element: 0x0010}, dicom.VR_LO, "ACME 1.0")
		}
		ds.AddElement(dicom.Tag{Group: 0x0009, Element: 0x1001}, dicom.VR_LO, "secret")
	}
}
