package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/types"
	"github.com/caio-sobreiro/dicommanifest/uid"
)

// document writes the header modules shared by KOS and MADO manifests:
// SOP Common, Patient, General Study, Key Object Document Series, General
// Equipment and Key Object Document, including the evidence sequence.
func (b *Builder) document(study *types.Study, refs *referenceSet, now time.Time, hints bool) *dicom.Dataset {
	ds := dicom.NewDataset()

	// SOP Common
	if b.emit(StepCharacterSet) {
		ds.Set(dicom.TagSpecificCharacterSet, DefaultCharacterSet)
	}
	ds.Set(dicom.TagSOPClassUID, types.KeyObjectSelectionDocumentStorage)
	ds.Set(dicom.TagSOPInstanceUID, b.newUID())
	if b.emit(StepInstanceCreation) {
		ds.Set(dicom.TagInstanceCreationDate, formatDate(now))
		ds.Set(dicom.TagInstanceCreationTime, formatTime(now))
	}
	if study.TimezoneOffset != "" || b.emit(StepTimezone) {
		ds.Set(dicom.TagTimezoneOffsetFromUTC, timezoneOffset(study, now))
	}

	b.patient(ds, study)
	b.study(ds, study, refs, now)

	// Key Object Document Series
	ds.Set(dicom.TagModality, "KO")
	ds.Set(dicom.TagSeriesInstanceUID, b.newUID())
	ds.Set(dicom.TagSeriesNumber, DefaultSeriesNumber)
	if b.emit(StepPerformedProcedure) {
		ds.AddSequence(dicom.TagReferencedPerformedProcedureStep)
	}

	// General Equipment
	if b.emit(StepManufacturer) {
		ds.Set(dicom.TagManufacturer, b.manufacturer)
	}
	if b.emit(StepInstitution) {
		ds.Set(dicom.TagInstitutionName, firstNonEmpty(study.InstitutionName, b.institution))
	}
	if b.emit(StepModelName) {
		ds.Set(dicom.TagManufacturerModelName, "Manifest Builder")
	}
	if b.emit(StepSoftwareVersions) {
		ds.Set(dicom.TagSoftwareVersions, DefaultSoftwareVersion)
	}

	// Key Object Document
	ds.Set(dicom.TagInstanceNumber, "1")
	ds.Set(dicom.TagContentDate, formatDate(now))
	ds.Set(dicom.TagContentTime, formatTime(now))
	if study.AccessionNumber != "" && b.emit(StepReferencedRequest) {
		req := dicom.NewDataset()
		req.Set(dicom.TagStudyInstanceUID, refs.studyUID)
		req.Set(dicom.TagAccessionNumber, study.AccessionNumber)
		if study.AccessionIssuer != "" {
			req.AddSequence(dicom.TagIssuerOfAccessionNumberSequence, issuerItem(study.AccessionIssuer))
		}
		ds.AddSequence(dicom.TagReferencedRequestSequence, req)
	}
	ds.AddSequence(dicom.TagCurrentRequestedProcedureEvidenceSeq, b.evidence(refs, hints))

	return ds
}

func (b *Builder) patient(ds *dicom.Dataset, study *types.Study) {
	if b.emit(StepPatientName) {
		ds.Set(dicom.TagPatientName, study.PatientName)
	}
	ds.Set(dicom.TagPatientID, study.PatientID)
	if b.emit(StepIssuerOfPatientID) {
		ds.Set(dicom.TagIssuerOfPatientID, firstNonEmpty(study.IssuerOfPatientID, b.issuerOfPatientID))
	}
	if universal := firstNonEmpty(study.PatientUniversalID, b.universalEntityID); universal != "" && b.emit(StepIssuerQualifiers) {
		q := dicom.NewDataset()
		q.Set(dicom.TagUniversalEntityID, universal)
		q.Set(dicom.TagUniversalEntityIDType, UniversalEntityIDTypeISO)
		ds.AddSequence(dicom.TagIssuerOfPatientIDQualifiersSequence, q)
	}
	if b.emit(StepPatientBirthDate) {
		ds.Set(dicom.TagPatientBirthDate, study.PatientBirthDate)
	}
	if b.emit(StepPatientSex) {
		ds.Set(dicom.TagPatientSex, study.PatientSex)
	}
}

func (b *Builder) study(ds *dicom.Dataset, study *types.Study, refs *referenceSet, now time.Time) {
	ds.Set(dicom.TagStudyInstanceUID, refs.studyUID)
	if b.emit(StepStudyDate) {
		ds.Set(dicom.TagStudyDate, firstNonEmpty(study.StudyDate, formatDate(now)))
	}
	if b.emit(StepStudyTime) {
		ds.Set(dicom.TagStudyTime, firstNonEmpty(study.StudyTime, formatTime(now)))
	}
	if b.emit(StepReferringPhysician) {
		ds.Set(dicom.TagReferringPhysicianName, study.ReferringPhysician)
	}
	if b.emit(StepStudyID) {
		ds.Set(dicom.TagStudyID, study.StudyID)
	}
	if b.emit(StepAccessionNumber) {
		ds.Set(dicom.TagAccessionNumber, study.AccessionNumber)
	}
	if study.AccessionIssuer != "" && b.emit(StepAccessionIssuer) {
		ds.AddSequence(dicom.TagIssuerOfAccessionNumberSequence, issuerItem(study.AccessionIssuer))
	}
	if study.StudyDescription != "" && b.emit(StepStudyDescription) {
		ds.Set(dicom.TagStudyDescription, study.StudyDescription)
	}
}

// evidence builds the single study item of the Current Requested Procedure
// Evidence Sequence, in reference-set order.
func (b *Builder) evidence(refs *referenceSet, hints bool) *dicom.Dataset {
	studyItem := dicom.NewDataset()
	studyItem.Set(dicom.TagStudyInstanceUID, refs.studyUID)

	seriesItems := make([]*dicom.Dataset, 0, len(refs.series))
	for _, s := range refs.series {
		item := dicom.NewDataset()
		item.Set(dicom.TagSeriesInstanceUID, s.uid)
		if b.emit(StepRetrieveAddress) {
			b.retrieveAddress(item, refs.studyUID, s)
		}

		sops := make([]*dicom.Dataset, 0, len(s.instances))
		for _, inst := range s.instances {
			sop := dicom.NewDataset()
			sop.Set(dicom.TagReferencedSOPClassUID, inst.classUID)
			sop.Set(dicom.TagReferencedSOPInstanceUID, inst.instanceUID)
			if hints && b.emit(StepEvidenceHints) {
				evidenceHints(sop, inst)
			}
			sops = append(sops, sop)
		}
		item.AddSequence(dicom.TagReferencedSOPSequence, sops...)
		seriesItems = append(seriesItems, item)
	}
	studyItem.AddSequence(dicom.TagReferencedSeriesSequence, seriesItems...)
	return studyItem
}

func (b *Builder) retrieveAddress(item *dicom.Dataset, studyUID string, s seriesRef) {
	if location := firstNonEmpty(s.record.RetrieveLocationUID, b.retrieveLocationUID); location != "" {
		item.Set(dicom.TagRetrieveLocationUID, uid.Normalize(location))
	}
	url := s.record.RetrieveURL
	if url == "" && b.retrieveURLBase != "" {
		url = fmt.Sprintf("%s/studies/%s/series/%s", strings.TrimRight(b.retrieveURLBase, "/"), studyUID, s.uid)
	}
	if url != "" {
		item.Set(dicom.TagRetrieveURL, url)
	}
	if s.record.RetrieveAETitle != "" {
		item.Set(dicom.TagRetrieveAETitle, s.record.RetrieveAETitle)
	}
}

// evidenceHints copies frame count and matrix size to an evidence item so
// consumers can estimate transfer size. Unparsable values are left out.
func evidenceHints(sop *dicom.Dataset, inst instanceRef) {
	if types.IsMultiFrameSOPClass(inst.classUID) {
		if frames, ok := parseInt(inst.record.NumberOfFrames); ok {
			sop.Set(dicom.TagNumberOfFrames, strconv.Itoa(frames))
		}
	}
	if rows, ok := parseUint16(inst.record.Rows); ok {
		sop.Set(dicom.TagRows, rows)
	}
	if cols, ok := parseUint16(inst.record.Columns); ok {
		sop.Set(dicom.TagColumns, cols)
	}
}

// issuerItem encodes an assigning authority. OIDs are written as ISO
// universal entity IDs, anything else as a local namespace.
func issuerItem(issuer string) *dicom.Dataset {
	item := dicom.NewDataset()
	if uid.IsValid(issuer) {
		item.Set(dicom.TagUniversalEntityID, issuer)
		item.Set(dicom.TagUniversalEntityIDType, UniversalEntityIDTypeISO)
	} else {
		item.Set(dicom.TagLocalNamespaceEntityID, issuer)
	}
	return item
}

func timezoneOffset(study *types.Study, now time.Time) string {
	if study.TimezoneOffset != "" {
		return study.TimezoneOffset
	}
	return now.Format("-0700")
}

func formatDate(t time.Time) string {
	return t.Format("20060102")
}

func formatTime(t time.Time) string {
	return t.Format("150405")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseUint16(s string) (uint16, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint16(n), true
}
