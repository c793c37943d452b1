// Package errors provides manifest-specific error types for better error handling
package errors

import (
	"errors"
	"fmt"
)

// Construction errors
var (
	ErrStudyNotFound = errors.New("manifest: study not found")
	ErrNoSeries      = errors.New("manifest: no series found")
	ErrNoInstances   = errors.New("manifest: no instances found")
)

// Codec errors
var (
	ErrNotPart10           = errors.New("dicom: not a DICOM Part 10 file")
	ErrTruncated           = errors.New("dicom: truncated data")
	ErrMalformed           = errors.New("dicom: malformed data")
	ErrUnsupportedTransfer = errors.New("dicom: unsupported transfer syntax")
)

// Record store errors
var (
	ErrMissingUID = errors.New("query: record without instance UID")
	ErrConflict   = errors.New("query: record conflicts with stored study")
)

// ConstructionKind identifies the manifest type a builder was asked to produce
type ConstructionKind string

const (
	KindKOS  ConstructionKind = "KOS"
	KindMADO ConstructionKind = "MADO"
)

// ConstructionError is returned when a builder cannot produce a document.
// No partial document accompanies it.
type ConstructionError struct {
	Kind             ConstructionKind
	StudyInstanceUID string
	Err              error
}

func (e *ConstructionError) Error() string {
	if e.StudyInstanceUID == "" {
		return fmt.Sprintf("cannot build %s manifest: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cannot build %s manifest for study %s: %v", e.Kind, e.StudyInstanceUID, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// NewConstructionError creates a new construction error
func NewConstructionError(kind ConstructionKind, studyInstanceUID string, err error) *ConstructionError {
	return &ConstructionError{
		Kind:             kind,
		StudyInstanceUID: studyInstanceUID,
		Err:              err,
	}
}

// DecodeError reports where in a byte stream decoding failed
type DecodeError struct {
	Offset int
	Tag    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("decode error at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("decode error at offset %d (tag %s): %v", e.Offset, e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new decode error
func NewDecodeError(offset int, tag string, err error) *DecodeError {
	return &DecodeError{
		Offset: offset,
		Tag:    tag,
		Err:    err,
	}
}

// IsConstructionError reports whether err carries a ConstructionError
func IsConstructionError(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce)
}
