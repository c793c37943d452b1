package query

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/types"
)

// IndexDataset adds the study, series and instance records carried by one
// image dataset.
func (s *MemoryStore) IndexDataset(ds *dicom.Dataset) error {
	study, series, inst := recordsOf(ds)
	return s.Add(study, series, inst)
}

// IndexFile reads a Part 10 image file and indexes its records.
func (s *MemoryStore) IndexFile(path string) error {
	ds, err := dicom.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read DICOM file: %w", err)
	}
	if err := s.IndexDataset(ds); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	s.log().Debug("Indexed DICOM instance",
		"path", path,
		"sop_class", ds.GetString(dicom.TagSOPClassUID),
		"sop_instance", ds.GetString(dicom.TagSOPInstanceUID),
		"study_uid", ds.GetString(dicom.TagStudyInstanceUID),
		"series_uid", ds.GetString(dicom.TagSeriesInstanceUID))
	return nil
}

// IndexDir indexes every DICOM file below root and returns the number of
// indexed instances. Files that cannot be decoded or carry no instance
// UIDs are skipped with a warning. A patient conflict aborts the walk.
func (s *MemoryStore) IndexDir(ctx context.Context, root string) (int, error) {
	indexed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := s.IndexFile(path); err != nil {
			if errors.Is(err, dicomerrors.ErrConflict) {
				return err
			}
			s.log().WarnContext(ctx, "Skipping file", "path", path, "error", err)
			return nil
		}
		indexed++
		return nil
	})
	if err != nil {
		return indexed, fmt.Errorf("index %s: %w", root, err)
	}
	s.log().InfoContext(ctx, "Indexed image directory",
		"root", root,
		"instances", indexed,
		"studies", s.Len())
	return indexed, nil
}

func recordsOf(ds *dicom.Dataset) (types.Study, types.Series, types.Instance) {
	study := types.Study{
		StudyInstanceUID:   ds.GetString(dicom.TagStudyInstanceUID),
		PatientID:          ds.GetString(dicom.TagPatientID),
		PatientName:        ds.GetString(dicom.TagPatientName),
		PatientBirthDate:   ds.GetString(dicom.TagPatientBirthDate),
		PatientSex:         ds.GetString(dicom.TagPatientSex),
		IssuerOfPatientID:  ds.GetString(dicom.TagIssuerOfPatientID),
		StudyID:            ds.GetString(dicom.TagStudyID),
		StudyDate:          ds.GetString(dicom.TagStudyDate),
		StudyTime:          ds.GetString(dicom.TagStudyTime),
		StudyDescription:   ds.GetString(dicom.TagStudyDescription),
		AccessionNumber:    ds.GetString(dicom.TagAccessionNumber),
		ReferringPhysician: ds.GetString(dicom.TagReferringPhysicianName),
		InstitutionName:    ds.GetString(dicom.TagInstitutionName),
		TimezoneOffset:     ds.GetString(dicom.TagTimezoneOffsetFromUTC),
	}
	if q, ok := ds.FirstItem(dicom.TagIssuerOfPatientIDQualifiersSequence); ok {
		study.PatientUniversalID = q.GetString(dicom.TagUniversalEntityID)
	}
	if issuer, ok := ds.FirstItem(dicom.TagIssuerOfAccessionNumberSequence); ok {
		study.AccessionIssuer = issuer.GetString(dicom.TagUniversalEntityID)
		if study.AccessionIssuer == "" {
			study.AccessionIssuer = issuer.GetString(dicom.TagLocalNamespaceEntityID)
		}
	}

	series := types.Series{
		SeriesInstanceUID: ds.GetString(dicom.TagSeriesInstanceUID),
		Modality:          ds.GetString(dicom.TagModality),
		SeriesNumber:      ds.GetString(dicom.TagSeriesNumber),
		SeriesDescription: ds.GetString(dicom.TagSeriesDescription),
		SeriesDate:        ds.GetString(dicom.TagSeriesDate),
		SeriesTime:        ds.GetString(dicom.TagSeriesTime),
		BodyPartExamined:  ds.GetString(dicom.TagBodyPartExamined),
		RetrieveAETitle:   ds.GetString(dicom.TagRetrieveAETitle),
	}

	inst := types.Instance{
		SOPClassUID:      ds.GetString(dicom.TagSOPClassUID),
		SOPInstanceUID:   ds.GetString(dicom.TagSOPInstanceUID),
		InstanceNumber:   ds.GetString(dicom.TagInstanceNumber),
		NumberOfFrames:   ds.GetString(dicom.TagNumberOfFrames),
		Rows:             ds.GetString(dicom.TagRows),
		Columns:          ds.GetString(dicom.TagColumns),
		PixelSpacing:     ds.GetString(dicom.TagPixelSpacing),
		WindowCenter:     ds.GetString(dicom.TagWindowCenter),
		WindowWidth:      ds.GetString(dicom.TagWindowWidth),
		RescaleSlope:     ds.GetString(dicom.TagRescaleSlope),
		RescaleIntercept: ds.GetString(dicom.TagRescaleIntercept),
	}
	return study, series, inst
}
