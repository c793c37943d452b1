package query

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caio-sobreiro/dicommanifest/types"
)

// RecordsFile is the YAML shape of a records file:
//
//	studies:
//	  - study_instance_uid: 1.2.3
//	    patient_id: P1
//	    series:
//	      - series_instance_uid: 1.2.3.1
//	        modality: CT
//	        instances:
//	          - sop_class_uid: 1.2.840.10008.5.1.4.1.1.2
//	            sop_instance_uid: 1.2.3.1.1
type RecordsFile struct {
	Studies []StudyRecord `yaml:"studies"`
}

// StudyRecord is a study with its series.
type StudyRecord struct {
	types.Study `yaml:",inline"`
	Series      []SeriesRecord `yaml:"series"`
}

// SeriesRecord is a series with its instances.
type SeriesRecord struct {
	types.Series `yaml:",inline"`
	Instances    []types.Instance `yaml:"instances"`
}

// Decode reads a records file into a new store.
func Decode(r io.Reader, opts ...Option) (*MemoryStore, error) {
	var file RecordsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	s := NewMemoryStore(opts...)
	if err := s.Load(file); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadYAML reads a records file from disk.
func LoadYAML(path string, opts ...Option) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	s, err := Decode(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.log().Debug("Loaded records", "path", path, "studies", s.Len())
	return s, nil
}

// Load stores every study of a records file.
func (s *MemoryStore) Load(file RecordsFile) error {
	for _, st := range file.Studies {
		series := make([]types.Series, 0, len(st.Series))
		instances := make(map[string][]types.Instance, len(st.Series))
		for _, se := range st.Series {
			series = append(series, se.Series)
			instances[se.SeriesInstanceUID] = append(instances[se.SeriesInstanceUID], se.Instances...)
		}
		if err := s.Put(st.Study, series, instances); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the store content in records-file shape.
func (s *MemoryStore) Snapshot() RecordsFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var file RecordsFile
	for _, uid := range s.order {
		entry := s.studies[uid]
		rec := StudyRecord{Study: entry.study}
		for _, se := range entry.series {
			rec.Series = append(rec.Series, SeriesRecord{
				Series:    se,
				Instances: append([]types.Instance(nil), entry.instances[se.SeriesInstanceUID]...),
			})
		}
		file.Studies = append(file.Studies, rec)
	}
	return file
}

// Encode writes the store content as a records file.
func (s *MemoryStore) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Snapshot()); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return enc.Close()
}
