package manifest

import (
	"context"
	"fmt"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/interfaces"
	"github.com/caio-sobreiro/dicommanifest/types"
)

// Request identifies the study a manifest is assembled for.
type Request struct {
	Kind              dicomerrors.ConstructionKind
	StudyInstanceUID  string
	PatientID         string // optional
	SeriesInstanceUID string // optional, restricts the manifest to one series
}

// Assemble queries the study, its series and their instances and builds the
// requested manifest. Empty query answers are reported as construction
// errors; query failures are returned wrapped.
func (b *Builder) Assemble(ctx context.Context, q interfaces.QueryService, req Request) (*dicom.Dataset, error) {
	kind := req.Kind
	if kind == "" {
		kind = dicomerrors.KindKOS
	}

	study, err := q.FindStudy(ctx, req.StudyInstanceUID, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("query study %s: %w", req.StudyInstanceUID, err)
	}
	if study == nil {
		return nil, dicomerrors.NewConstructionError(kind, req.StudyInstanceUID, dicomerrors.ErrStudyNotFound)
	}

	series, err := q.FindSeries(ctx, req.StudyInstanceUID, req.SeriesInstanceUID)
	if err != nil {
		return nil, fmt.Errorf("query series of study %s: %w", req.StudyInstanceUID, err)
	}

	instances := make(map[string][]types.Instance, len(series))
	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := q.FindInstances(ctx, req.StudyInstanceUID, s.SeriesInstanceUID)
		if err != nil {
			return nil, fmt.Errorf("query instances of series %s: %w", s.SeriesInstanceUID, err)
		}
		instances[s.SeriesInstanceUID] = found
	}

	b.log().DebugContext(ctx, "Assembling manifest",
		"kind", kind,
		"study_uid", req.StudyInstanceUID,
		"series", len(series))

	switch kind {
	case dicomerrors.KindKOS:
		return b.BuildKOS(study, series, instances)
	case dicomerrors.KindMADO:
		return b.BuildMADO(study, series, instances)
	default:
		return nil, fmt.Errorf("unknown manifest kind %q", kind)
	}
}
