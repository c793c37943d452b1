package dicom

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
)

const (
	preambleLength = 128
	part10Magic    = "DICM"

	// ImplementationClassUID identifies this implementation in File Meta Information.
	ImplementationClassUID = "2.25.245563195926371245262931383926391722135"
	// ImplementationVersionName is written alongside ImplementationClassUID.
	ImplementationVersionName = "DCMMANIFEST_1"
)

// HasPart10Header checks if the data starts with a DICOM Part 10 header.
//
// Returns true if the data contains the 128-byte preamble followed by "DICM".
func HasPart10Header(data []byte) bool {
	if len(data) < preambleLength+4 {
		return false
	}
	return string(data[preambleLength:preambleLength+4]) == part10Magic
}

// EncodePart10 wraps a dataset in a DICOM Part 10 file.
//
// DICOM Part 10 files contain:
//   - 128 byte preamble
//   - 4 byte "DICM" prefix
//   - File Meta Information elements (group 0x0002), always Explicit VR Little Endian
//   - Dataset encoded with the transfer syntax named in the meta group
//
// Group 0002 elements already present in the dataset are kept as given,
// missing ones are derived from the dataset's SOP Common attributes.
func EncodePart10(ds *Dataset, transferSyntaxUID string) ([]byte, error) {
	if transferSyntaxUID == "" {
		transferSyntaxUID = TransferSyntaxExplicitVRLittleEndian
	}

	meta := NewDataset()
	body := NewDataset()
	for tag, e := range ds.Elements {
		if tag.Group == 0x0002 {
			meta.Elements[tag] = e
		} else {
			body.Elements[tag] = e
		}
	}

	if !meta.Has(TagFileMetaInformationVersion) {
		meta.Set(TagFileMetaInformationVersion, []byte{0x00, 0x01})
	}
	if !meta.Has(TagMediaStorageSOPClassUID) {
		meta.Set(TagMediaStorageSOPClassUID, ds.GetString(TagSOPClassUID))
	}
	if !meta.Has(TagMediaStorageSOPInstanceUID) {
		meta.Set(TagMediaStorageSOPInstanceUID, ds.GetString(TagSOPInstanceUID))
	}
	if !meta.Has(TagTransferSyntaxUID) {
		meta.Set(TagTransferSyntaxUID, transferSyntaxUID)
	}
	if !meta.Has(TagImplementationClassUID) {
		meta.Set(TagImplementationClassUID, ImplementationClassUID)
	}
	if !meta.Has(TagImplementationVersionName) {
		meta.Set(TagImplementationVersionName, ImplementationVersionName)
	}
	meta.Remove(TagFileMetaInformationGroupLength)

	metaBytes := meta.EncodeDataset()
	groupLength := NewDataset()
	groupLength.AddElement(TagFileMetaInformationGroupLength, VR_UL, uint32(len(metaBytes)))

	bodyBytes, err := EncodeDatasetWithTransferSyntax(body, meta.GetString(TagTransferSyntaxUID))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(make([]byte, preambleLength))
	buf.WriteString(part10Magic)
	buf.Write(groupLength.EncodeDataset())
	buf.Write(metaBytes)
	buf.Write(bodyBytes)
	return buf.Bytes(), nil
}

// DecodePart10 parses a DICOM Part 10 file. The File Meta Information
// elements are merged into the returned dataset.
func DecodePart10(data []byte) (*Dataset, error) {
	if !HasPart10Header(data) {
		return nil, fmt.Errorf("%w (need %d byte preamble and DICM prefix, got %d bytes)",
			dicomerrors.ErrNotPart10, preambleLength+4, len(data))
	}

	p := &parser{data: data, explicit: true}
	meta := NewDataset()
	offset := preambleLength + 4
	for offset+8 <= len(data) {
		tag := Tag{Group: p.u16(offset), Element: p.u16(offset + 2)}
		// If we've passed group 0x0002, we're at the dataset
		if tag.Group != 0x0002 {
			break
		}
		element, next, err := p.element(tag, offset, len(data))
		if err != nil {
			return nil, fmt.Errorf("file meta information: %w", err)
		}
		meta.Elements[tag] = element
		offset = next
	}

	transferSyntaxUID := meta.GetString(TagTransferSyntaxUID)
	slog.Debug("Found Transfer Syntax UID in File Meta Information",
		"transfer_syntax", transferSyntaxUID,
		"dataset_start_offset", offset)

	ds, err := ParseDatasetWithTransferSyntax(data[offset:], transferSyntaxUID)
	if err != nil {
		return nil, err
	}
	for tag, e := range meta.Elements {
		ds.Elements[tag] = e
	}
	return ds, nil
}

// Decode parses either a Part 10 file or a bare Explicit VR Little Endian dataset.
func Decode(data []byte) (*Dataset, error) {
	if HasPart10Header(data) {
		return DecodePart10(data)
	}
	return ParseDataset(data)
}

// WriteFile writes a dataset as a Part 10 file in Explicit VR Little Endian.
func WriteFile(path string, ds *Dataset) error {
	data, err := EncodePart10(ds, TransferSyntaxExplicitVRLittleEndian)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads a Part 10 file or bare dataset from disk.
func ReadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Codec implements the dataset codec contract for a fixed transfer syntax.
type Codec struct {
	TransferSyntaxUID string
}

// Encode writes a Part 10 file.
func (c Codec) Encode(ds *Dataset) ([]byte, error) {
	return EncodePart10(ds, c.TransferSyntaxUID)
}

// Decode reads a Part 10 file or bare dataset.
func (c Codec) Decode(data []byte) (*Dataset, error) {
	return Decode(data)
}
