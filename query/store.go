// Package query provides an in-memory implementation of the record
// collaborator the manifest builders query.
//
// A MemoryStore is filled from a YAML records file, from DICOM Part 10
// image files, or programmatically. It answers study, series and instance
// queries in insertion order.
//
// Example usage:
//
//	store, err := query.LoadYAML("records.yaml")
//	if err != nil {
//	    return err
//	}
//	ds, err := manifest.New().Assemble(ctx, store, manifest.Request{
//	    Kind:             dicomerrors.KindMADO,
//	    StudyInstanceUID: "1.2.3",
//	})
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/interfaces"
	"github.com/caio-sobreiro/dicommanifest/types"
)

var _ interfaces.QueryService = (*MemoryStore)(nil)

type studyEntry struct {
	study     types.Study
	series    []types.Series
	instances map[string][]types.Instance
}

// MemoryStore holds study, series and instance records keyed by UID.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	studies map[string]*studyEntry
	order   []string
	logger  *slog.Logger
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithLogger overrides the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *MemoryStore) {
		s.logger = logger
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		studies: make(map[string]*studyEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Put stores a study with its series and instances, replacing any study
// with the same UID. instances is keyed by series instance UID.
func (s *MemoryStore) Put(study types.Study, series []types.Series, instances map[string][]types.Instance) error {
	if study.StudyInstanceUID == "" {
		return fmt.Errorf("put study: %w", dicomerrors.ErrMissingUID)
	}
	entry := &studyEntry{
		study:     study,
		instances: make(map[string][]types.Instance, len(series)),
	}
	for _, se := range series {
		if se.SeriesInstanceUID == "" {
			return fmt.Errorf("put study %s: series: %w", study.StudyInstanceUID, dicomerrors.ErrMissingUID)
		}
		entry.series = append(entry.series, se)
		for _, inst := range instances[se.SeriesInstanceUID] {
			if inst.SOPInstanceUID == "" {
				return fmt.Errorf("put series %s: instance: %w", se.SeriesInstanceUID, dicomerrors.ErrMissingUID)
			}
			entry.instances[se.SeriesInstanceUID] = append(entry.instances[se.SeriesInstanceUID], inst)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studies[study.StudyInstanceUID]; !ok {
		s.order = append(s.order, study.StudyInstanceUID)
	}
	s.studies[study.StudyInstanceUID] = entry
	return nil
}

// Add merges one instance into the store. The study and series records are
// created on first sight; later records only fill fields still empty. An
// instance already present is replaced.
func (s *MemoryStore) Add(study types.Study, series types.Series, inst types.Instance) error {
	switch {
	case study.StudyInstanceUID == "":
		return fmt.Errorf("add instance: study: %w", dicomerrors.ErrMissingUID)
	case series.SeriesInstanceUID == "":
		return fmt.Errorf("add instance: series: %w", dicomerrors.ErrMissingUID)
	case inst.SOPInstanceUID == "":
		return fmt.Errorf("add instance: %w", dicomerrors.ErrMissingUID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.studies[study.StudyInstanceUID]
	if !ok {
		entry = &studyEntry{study: study, instances: make(map[string][]types.Instance)}
		s.studies[study.StudyInstanceUID] = entry
		s.order = append(s.order, study.StudyInstanceUID)
	} else {
		if entry.study.PatientID != "" && study.PatientID != "" && entry.study.PatientID != study.PatientID {
			return fmt.Errorf("add instance %s: patient %s in study of patient %s: %w",
				inst.SOPInstanceUID, study.PatientID, entry.study.PatientID, dicomerrors.ErrConflict)
		}
		fillStudy(&entry.study, study)
	}

	idx := -1
	for i := range entry.series {
		if entry.series[i].SeriesInstanceUID == series.SeriesInstanceUID {
			idx = i
			break
		}
	}
	if idx < 0 {
		entry.series = append(entry.series, series)
	} else {
		fillSeries(&entry.series[idx], series)
	}

	list := entry.instances[series.SeriesInstanceUID]
	for i := range list {
		if list[i].SOPInstanceUID == inst.SOPInstanceUID {
			list[i] = inst
			return nil
		}
	}
	entry.instances[series.SeriesInstanceUID] = append(list, inst)
	return nil
}

// Len returns the number of stored studies.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Studies returns every stored study record in insertion order.
func (s *MemoryStore) Studies() []types.Study {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Study, 0, len(s.order))
	for _, uid := range s.order {
		out = append(out, s.studies[uid].study)
	}
	return out
}

// FindStudy returns the study record, or nil if none matches.
func (s *MemoryStore) FindStudy(ctx context.Context, studyInstanceUID, patientID string) (*types.Study, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.studies[studyInstanceUID]
	if !ok {
		s.log().DebugContext(ctx, "Study not found", "study_uid", studyInstanceUID)
		return nil, nil
	}
	if patientID != "" && entry.study.PatientID != patientID {
		s.log().DebugContext(ctx, "Study belongs to another patient",
			"study_uid", studyInstanceUID,
			"patient_id", patientID)
		return nil, nil
	}
	study := entry.study
	return &study, nil
}

// FindSeries returns the series of a study, or the single matching series
// when seriesInstanceUID is set.
func (s *MemoryStore) FindSeries(ctx context.Context, studyInstanceUID, seriesInstanceUID string) ([]types.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.studies[studyInstanceUID]
	if !ok {
		return nil, nil
	}
	var out []types.Series
	for _, se := range entry.series {
		if seriesInstanceUID == "" || se.SeriesInstanceUID == seriesInstanceUID {
			out = append(out, se)
		}
	}
	return out, nil
}

// FindInstances returns the instances of one series.
func (s *MemoryStore) FindInstances(ctx context.Context, studyInstanceUID, seriesInstanceUID string) ([]types.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.studies[studyInstanceUID]
	if !ok {
		return nil, nil
	}
	list := entry.instances[seriesInstanceUID]
	if len(list) == 0 {
		return nil, nil
	}
	return append([]types.Instance(nil), list...), nil
}

func fillStudy(dst *types.Study, src types.Study) {
	fill(&dst.PatientID, src.PatientID)
	fill(&dst.PatientName, src.PatientName)
	fill(&dst.PatientBirthDate, src.PatientBirthDate)
	fill(&dst.PatientSex, src.PatientSex)
	fill(&dst.IssuerOfPatientID, src.IssuerOfPatientID)
	fill(&dst.PatientUniversalID, src.PatientUniversalID)
	fill(&dst.StudyID, src.StudyID)
	fill(&dst.StudyDate, src.StudyDate)
	fill(&dst.StudyTime, src.StudyTime)
	fill(&dst.StudyDescription, src.StudyDescription)
	fill(&dst.AccessionNumber, src.AccessionNumber)
	fill(&dst.AccessionIssuer, src.AccessionIssuer)
	fill(&dst.ReferringPhysician, src.ReferringPhysician)
	fill(&dst.InstitutionName, src.InstitutionName)
	fill(&dst.TimezoneOffset, src.TimezoneOffset)
}

func fillSeries(dst *types.Series, src types.Series) {
	fill(&dst.Modality, src.Modality)
	fill(&dst.SeriesNumber, src.SeriesNumber)
	fill(&dst.SeriesDescription, src.SeriesDescription)
	fill(&dst.SeriesDate, src.SeriesDate)
	fill(&dst.SeriesTime, src.SeriesTime)
	fill(&dst.NumberOfInstances, src.NumberOfInstances)
	fill(&dst.BodyPartExamined, src.BodyPartExamined)
	fill(&dst.RetrieveAETitle, src.RetrieveAETitle)
	fill(&dst.RetrieveLocationUID, src.RetrieveLocationUID)
	fill(&dst.RetrieveURL, src.RetrieveURL)
}

func fill(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}
