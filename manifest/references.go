package manifest

import (
	"math"
	"sort"
	"strconv"
	"strings"

	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
	"github.com/caio-sobreiro/dicommanifest/uid"
)

// unnumbered is the sort key of instances whose instance number is missing
// or not an integer. They sort after every numbered instance.
const unnumbered = math.MaxInt

// instanceRef is one referenced instance. Its UIDs are normalized once, here,
// and read by both the evidence writer and the content tree writer.
type instanceRef struct {
	classUID    string
	instanceUID string
	record      types.Instance
}

func (r instanceRef) reference() sr.Reference {
	return sr.Reference{SOPClassUID: r.classUID, SOPInstanceUID: r.instanceUID}
}

type seriesRef struct {
	uid       string
	record    types.Series
	instances []instanceRef
}

// referenceSet is the single list from which evidence and content are built.
type referenceSet struct {
	studyUID string
	series   []seriesRef
}

func (s *referenceSet) count() int {
	n := 0
	for _, series := range s.series {
		n += len(series.instances)
	}
	return n
}

// collect normalizes the source records into a referenceSet. Series without
// instances are dropped.
func collect(kind dicomerrors.ConstructionKind, study *types.Study, series []types.Series, instances map[string][]types.Instance) (*referenceSet, error) {
	if study == nil {
		return nil, dicomerrors.NewConstructionError(kind, "", dicomerrors.ErrStudyNotFound)
	}
	set := &referenceSet{studyUID: uid.Normalize(study.StudyInstanceUID)}
	if len(series) == 0 {
		return nil, dicomerrors.NewConstructionError(kind, set.studyUID, dicomerrors.ErrNoSeries)
	}

	for _, s := range series {
		seriesUID := uid.Normalize(s.SeriesInstanceUID)
		records, ok := instances[s.SeriesInstanceUID]
		if !ok {
			records = instances[seriesUID]
		}
		if len(records) == 0 {
			continue
		}
		ref := seriesRef{uid: seriesUID, record: s, instances: make([]instanceRef, 0, len(records))}
		for _, inst := range records {
			ref.instances = append(ref.instances, instanceRef{
				classUID:    uid.Normalize(inst.SOPClassUID),
				instanceUID: uid.Normalize(inst.SOPInstanceUID),
				record:      inst,
			})
		}
		set.series = append(set.series, ref)
	}

	if len(set.series) == 0 {
		return nil, dicomerrors.NewConstructionError(kind, set.studyUID, dicomerrors.ErrNoInstances)
	}
	return set, nil
}

// sortByInstanceNumber orders every series' instances by instance number.
// The sort is stable so unnumbered instances keep their relative order.
func (s *referenceSet) sortByInstanceNumber() {
	for _, series := range s.series {
		refs := series.instances
		sort.SliceStable(refs, func(i, j int) bool {
			return instanceOrder(refs[i].record.InstanceNumber) < instanceOrder(refs[j].record.InstanceNumber)
		})
	}
}

func instanceOrder(number string) int {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return unnumbered
	}
	return n
}
