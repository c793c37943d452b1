package manifest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
	"github.com/caio-sobreiro/dicommanifest/uid"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600))

func testOptions(extra ...Option) []Option {
	return append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithUIDGenerator(uid.Sequential("1.2.826.0.1.3680043.10.999")),
	}, extra...)
}

func fixture() (*types.Study, []types.Series, map[string][]types.Instance) {
	study := &types.Study{
		StudyInstanceUID: "1.2.840.113619.2.55.3.0604688119.969.1268071029.320",
		PatientID:        "PAT001",
		PatientName:      "Doe^Jane",
		PatientSex:       "F",
		AccessionNumber:  "ACC-1",
		AccessionIssuer:  "1.2.3.4.5",
	}
	series := []types.Series{{
		SeriesInstanceUID: "1.2.840.113619.2.55.3.0604688119.969.1268071029.321",
		Modality:          "CT",
		SeriesNumber:      "2",
		SeriesDescription: "Axial",
		BodyPartExamined:  "CHEST",
	}}
	instances := map[string][]types.Instance{
		series[0].SeriesInstanceUID: {
			{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2.3.1.1", InstanceNumber: "1", Rows: "512", Columns: "512"},
			{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2.3.1.2", InstanceNumber: "2", Rows: "512", Columns: "512"},
			{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2.3.1.3", InstanceNumber: "3", Rows: "512", Columns: "512"},
		},
	}
	return study, series, instances
}

// evidencePairs flattens the evidence sequence in document order.
func evidencePairs(ds *dicom.Dataset) []sr.Reference {
	var refs []sr.Reference
	for _, study := range ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq) {
		for _, series := range study.GetSequence(dicom.TagReferencedSeriesSequence) {
			for _, sop := range series.GetSequence(dicom.TagReferencedSOPSequence) {
				refs = append(refs, sr.ReferenceFromDataset(sop))
			}
		}
	}
	return refs
}

func TestBuildKOS_ThreeInstances(t *testing.T) {
	study, series, instances := fixture()

	ds, err := BuildKOS(study, series, instances, testOptions()...)
	require.NoError(t, err)

	evidence := evidencePairs(ds)
	require.Len(t, evidence, 3)

	tree, err := sr.DecodeTree(ds)
	require.NoError(t, err)
	images := 0
	for _, child := range tree.Children {
		if child.ValueType() == sr.ValueTypeImage {
			images++
		}
	}
	assert.Equal(t, 3, images)
	assert.Equal(t, evidence, sr.References(tree))

	assert.Equal(t, types.KeyObjectSelectionDocumentStorage, ds.GetString(dicom.TagSOPClassUID))
	assert.Equal(t, "KO", ds.GetString(dicom.TagModality))
	assert.Equal(t, "1.2.826.0.1.3680043.10.999.1", ds.GetString(dicom.TagSOPInstanceUID))
	assert.Equal(t, "1.2.826.0.1.3680043.10.999.2", ds.GetString(dicom.TagSeriesInstanceUID))
	assert.Equal(t, "20240315", ds.GetString(dicom.TagContentDate))
	assert.Equal(t, "+0100", ds.GetString(dicom.TagTimezoneOffsetFromUTC))
	assert.Equal(t, DefaultIssuerOfPatientID, ds.GetString(dicom.TagIssuerOfPatientID))
	assert.Equal(t, DefaultInstitutionName, ds.GetString(dicom.TagInstitutionName))
	assert.Equal(t, "20240315", ds.GetString(dicom.TagStudyDate), "study date defaults to now")

	title, ok := sr.FirstCode(ds, dicom.TagConceptNameCodeSequence)
	require.True(t, ok)
	assert.True(t, title.Is(sr.TitleManifest))

	templates := ds.GetSequence(dicom.TagContentTemplateSequence)
	require.Len(t, templates, 1)
	assert.Equal(t, sr.TemplateKeyObjectSelection, templates[0].GetString(dicom.TagTemplateIdentifier))
}

func TestBuildKOS_NormalizesOnce(t *testing.T) {
	study, series, _ := fixture()
	instances := map[string][]types.Instance{
		series[0].SeriesInstanceUID: {
			{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2.03.004"},
		},
	}

	ds, err := BuildKOS(study, series, instances, testOptions()...)
	require.NoError(t, err)

	tree, err := sr.DecodeTree(ds)
	require.NoError(t, err)

	want := []sr.Reference{{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2.3.4"}}
	assert.Equal(t, want, evidencePairs(ds))
	assert.Equal(t, want, sr.References(tree))
	assert.Equal(t, "1.2.840.113619.2.55.3.604688119.969.1268071029.320", ds.GetString(dicom.TagStudyInstanceUID))
}

func TestBuildKOS_NonImageIsComposite(t *testing.T) {
	study, series, instances := fixture()
	key := series[0].SeriesInstanceUID
	instances[key] = append(instances[key], types.Instance{
		SOPClassUID: types.EncapsulatedPDFStorage, SOPInstanceUID: "1.2.3.1.9",
	})

	ds, err := BuildKOS(study, series, instances, testOptions()...)
	require.NoError(t, err)

	tree, err := sr.DecodeTree(ds)
	require.NoError(t, err)
	last := tree.Children[len(tree.Children)-1]
	assert.Equal(t, sr.ValueTypeComposite, last.ValueType())
}

func TestBuild_ConstructionErrors(t *testing.T) {
	study, series, _ := fixture()

	tests := []struct {
		name      string
		study     *types.Study
		series    []types.Series
		instances map[string][]types.Instance
		want      error
	}{
		{"no study", nil, series, nil, dicomerrors.ErrStudyNotFound},
		{"no series", study, nil, nil, dicomerrors.ErrNoSeries},
		{"series without instances", study, series, map[string][]types.Instance{series[0].SeriesInstanceUID: {}}, dicomerrors.ErrNoInstances},
		{"instances for another series", study, series, map[string][]types.Instance{"9.9": {{SOPInstanceUID: "1"}}}, dicomerrors.ErrNoInstances},
	}

	builders := map[string]func(*types.Study, []types.Series, map[string][]types.Instance, ...Option) (*dicom.Dataset, error){
		"KOS":  BuildKOS,
		"MADO": BuildMADO,
	}

	for kind, build := range builders {
		for _, tt := range tests {
			t.Run(kind+"/"+tt.name, func(t *testing.T) {
				ds, err := build(tt.study, tt.series, tt.instances, testOptions()...)
				assert.Nil(t, ds)
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.want)
				assert.True(t, dicomerrors.IsConstructionError(err))
			})
		}
	}
}

func TestBuildMADO_Structure(t *testing.T) {
	study, series, instances := fixture()

	ds, err := BuildMADO(study, series, instances, testOptions(WithRetrieveLocationUID("1.2.3.99"))...)
	require.NoError(t, err)

	tree, err := sr.DecodeTree(ds)
	require.NoError(t, err)
	require.NotNil(t, tree.Concept)
	assert.True(t, tree.Concept.Is(sr.TitleManifestWithDescription))
	require.Len(t, tree.Templates, 2)
	assert.Equal(t, sr.TemplateImageLibrary, tree.Templates[1].Identifier)

	library, ok := tree.Find(sr.ConceptImageLibrary)
	require.True(t, ok)
	require.Len(t, library.Children, 1)

	group := library.Children[0].(*sr.Container)
	modality := group.Children[0].(*sr.CodeItem)
	assert.Equal(t, "CT", modality.Value.Value)
	assert.Equal(t, "1.2.840.113619.2.55.3.604688119.969.1268071029.321", group.Children[1].(*sr.UIDRef).Value)

	assert.Equal(t, evidencePairs(ds), sr.References(tree))

	seriesItem := ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq)[0].GetSequence(dicom.TagReferencedSeriesSequence)[0]
	assert.Equal(t, "1.2.3.99", seriesItem.GetString(dicom.TagRetrieveLocationUID))

	qualifiers := ds.GetSequence(dicom.TagIssuerOfPatientIDQualifiersSequence)
	assert.Empty(t, qualifiers, "no universal entity ID configured")

	issuer := ds.GetSequence(dicom.TagIssuerOfAccessionNumberSequence)
	require.Len(t, issuer, 1)
	assert.Equal(t, "1.2.3.4.5", issuer[0].GetString(dicom.TagUniversalEntityID))
	assert.Equal(t, UniversalEntityIDTypeISO, issuer[0].GetString(dicom.TagUniversalEntityIDType))
}

func TestBuildMADO_WarnsWithoutUniversalEntityID(t *testing.T) {
	study, series, instances := fixture()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := BuildMADO(study, series, instances, testOptions(WithLogger(logger))...)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "without a universal entity ID")

	buf.Reset()
	ds, err := BuildMADO(study, series, instances, testOptions(WithLogger(logger), WithUniversalEntityID("1.2.3.98"))...)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "level=WARN")
	qualifiers := ds.GetSequence(dicom.TagIssuerOfPatientIDQualifiersSequence)
	require.Len(t, qualifiers, 1)
	assert.Equal(t, "1.2.3.98", qualifiers[0].GetString(dicom.TagUniversalEntityID))
}

func TestBuildMADO_InstanceOrdering(t *testing.T) {
	study, series, _ := fixture()
	key := series[0].SeriesInstanceUID
	instances := map[string][]types.Instance{key: {
		{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.1", InstanceNumber: ""},
		{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2", InstanceNumber: "10"},
		{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.3", InstanceNumber: "abc"},
		{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.4", InstanceNumber: "2"},
		{SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.5", InstanceNumber: " 3 "},
	}}

	ds, err := BuildMADO(study, series, instances, testOptions()...)
	require.NoError(t, err)

	tree, err := sr.DecodeTree(ds)
	require.NoError(t, err)

	var got []string
	for _, ref := range sr.References(tree) {
		got = append(got, ref.SOPInstanceUID)
	}
	assert.Equal(t, []string{"1.4", "1.5", "1.2", "1.1", "1.3"}, got)
	assert.Equal(t, evidencePairs(ds), sr.References(tree), "evidence follows the same order")
}

func TestBuildMADO_ExtendedMetadata(t *testing.T) {
	study, series, _ := fixture()
	key := series[0].SeriesInstanceUID
	instances := map[string][]types.Instance{key: {
		{
			SOPClassUID: types.EnhancedCTImageStorage, SOPInstanceUID: "1.1", InstanceNumber: "1",
			NumberOfFrames: "120", Rows: "512", Columns: "512", PixelSpacing: `0.5\0.5`,
			WindowCenter: "40", WindowWidth: "400", RescaleSlope: "1", RescaleIntercept: "-1024",
		},
		{
			SOPClassUID: types.CTImageStorage, SOPInstanceUID: "1.2", InstanceNumber: "2",
			NumberOfFrames: "3", PixelSpacing: "not-a-number", WindowCenter: "x",
		},
	}}

	ds, err := BuildMADO(study, series, instances, testOptions(WithExtendedMetadata(true))...)
	require.NoError(t, err)

	tree, err := sr.DecodeTree(ds)
	require.NoError(t, err)
	library, ok := tree.Find(sr.ConceptImageLibrary)
	require.True(t, ok)
	group := library.Children[0].(*sr.Container)

	var images []*sr.Image
	for _, child := range group.Children {
		if img, ok := child.(*sr.Image); ok {
			images = append(images, img)
		}
	}
	require.Len(t, images, 2)

	first := images[0].Meta
	require.NotNil(t, first)
	assert.Equal(t, "120", first.NumberOfFrames)
	assert.Equal(t, "512", first.Rows)
	assert.Equal(t, `0.5\0.5`, first.PixelSpacing)
	assert.Equal(t, "-1024", first.RescaleIntercept)

	second := images[1].Meta
	require.NotNil(t, second)
	assert.Equal(t, "2", second.InstanceNumber)
	assert.Empty(t, second.NumberOfFrames, "single-frame class carries no frame count")
	assert.Empty(t, second.PixelSpacing, "unparsable values are dropped")
	assert.Empty(t, second.WindowCenter)

	sop := ds.GetSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq)[0].
		GetSequence(dicom.TagReferencedSeriesSequence)[0].
		GetSequence(dicom.TagReferencedSOPSequence)[0]
	assert.Equal(t, "120", sop.GetString(dicom.TagNumberOfFrames))
	rows, ok := sop.GetUint16(dicom.TagRows)
	require.True(t, ok)
	assert.Equal(t, uint16(512), rows)
}

func TestBuild_StepFilter(t *testing.T) {
	study, series, instances := fixture()
	var seen []Step
	filter := func(s Step) bool {
		seen = append(seen, s)
		return s != StepPatientName && s != StepContentTemplate
	}

	ds, err := BuildKOS(study, series, instances, testOptions(WithStepFilter(filter))...)
	require.NoError(t, err)

	assert.False(t, ds.Has(dicom.TagPatientName))
	assert.False(t, ds.Has(dicom.TagContentTemplateSequence))
	assert.True(t, ds.Has(dicom.TagPatientID), "mandatory attributes are never filtered")
	assert.Contains(t, seen, StepStudyDate)
	for _, s := range seen {
		assert.Contains(t, Steps, s)
	}
}

func TestDecimalString(t *testing.T) {
	tests := []struct {
		value string
		want  int
		out   string
	}{
		{"40", 0, "40"},
		{`40\80`, 0, `40\80`},
		{"1.5e2", 0, "1.5e2"},
		{"abc", 0, ""},
		{"0.5", 2, ""},
		{"", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.out, decimalString(tt.value, tt.want))
		})
	}
}

type stubQuery struct {
	study     *types.Study
	series    []types.Series
	instances map[string][]types.Instance
	err       error
}

func (s *stubQuery) FindStudy(_ context.Context, studyUID, _ string) (*types.Study, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.study == nil || s.study.StudyInstanceUID != studyUID {
		return nil, nil
	}
	return s.study, nil
}

func (s *stubQuery) FindSeries(_ context.Context, _, _ string) ([]types.Series, error) {
	return s.series, nil
}

func (s *stubQuery) FindInstances(_ context.Context, _, seriesUID string) ([]types.Instance, error) {
	return s.instances[seriesUID], nil
}

func TestAssemble(t *testing.T) {
	study, series, instances := fixture()
	q := &stubQuery{study: study, series: series, instances: instances}
	b := New(testOptions()...)

	t.Run("MADO", func(t *testing.T) {
		ds, err := b.Assemble(context.Background(), q, Request{Kind: dicomerrors.KindMADO, StudyInstanceUID: study.StudyInstanceUID})
		require.NoError(t, err)
		title, _ := sr.FirstCode(ds, dicom.TagConceptNameCodeSequence)
		assert.True(t, title.Is(sr.TitleManifestWithDescription))
	})

	t.Run("unknown study", func(t *testing.T) {
		_, err := b.Assemble(context.Background(), q, Request{StudyInstanceUID: "9.9.9"})
		assert.ErrorIs(t, err, dicomerrors.ErrStudyNotFound)
	})

	t.Run("query failure", func(t *testing.T) {
		boom := errors.New("archive unavailable")
		_, err := b.Assemble(context.Background(), &stubQuery{err: boom}, Request{StudyInstanceUID: "1.2"})
		assert.ErrorIs(t, err, boom)
		assert.False(t, dicomerrors.IsConstructionError(err))
	})
}
