// Package interfaces contains the collaborator contracts consumed by the manifest builders
package interfaces

import (
	"context"

	"github.com/caio-sobreiro/dicommanifest/dicom"
	"github.com/caio-sobreiro/dicommanifest/types"
)

// QueryService retrieves the records a manifest is built from.
// Implementations return empty results, not errors, when nothing matches.
type QueryService interface {
	// FindStudy returns the study record, or nil if none matches.
	// patientID is optional and narrows the match when set.
	FindStudy(ctx context.Context, studyInstanceUID, patientID string) (*types.Study, error)

	// FindSeries returns the series of a study. seriesInstanceUID is optional.
	FindSeries(ctx context.Context, studyInstanceUID, seriesInstanceUID string) ([]types.Series, error)

	// FindInstances returns the instances of one series.
	FindInstances(ctx context.Context, studyInstanceUID, seriesInstanceUID string) ([]types.Instance, error)
}

// DatasetCodec reads and writes persisted documents
type DatasetCodec interface {
	Encode(ds *dicom.Dataset) ([]byte, error)
	Decode(data []byte) (*dicom.Dataset, error)
}
