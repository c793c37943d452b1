package dicom

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
)

func manifestDataset() *Dataset {
	ds := NewDataset()
	ds.Set(TagSOPClassUID, "1.2.840.10008.5.1.4.1.1.88.59")
	ds.Set(TagSOPInstanceUID, "2.25.1234")
	ds.Set(TagPatientName, "TEST^PATIENT")
	return ds
}

func TestEncodePart10_Header(t *testing.T) {
	data, err := EncodePart10(manifestDataset(), "")
	if err != nil {
		t.Fatalf("EncodePart10() error = %v", err)
	}

	if !HasPart10Header(data) {
		t.Fatal("encoded data has no Part 10 header")
	}
	for i := 0; i < 128; i++ {
		if data[i] != 0 {
			t.Fatalf("preamble byte %d = %#x, want 0", i, data[i])
		}
	}
	// File Meta Information Group Length is the first element
	if data[132] != 0x02 || data[134] != 0x00 || string(data[136:138]) != VR_UL {
		t.Errorf("Expected group length element first, got % x", data[132:140])
	}
}

func TestDecodePart10_MergesMeta(t *testing.T) {
	for _, ts := range []string{TransferSyntaxExplicitVRLittleEndian, TransferSyntaxImplicitVRLittleEndian} {
		t.Run(ts, func(t *testing.T) {
			data, err := EncodePart10(manifestDataset(), ts)
			if err != nil {
				t.Fatalf("EncodePart10() error = %v", err)
			}

			ds, err := DecodePart10(data)
			if err != nil {
				t.Fatalf("DecodePart10() error = %v", err)
			}

			if got := ds.GetString(TagMediaStorageSOPInstanceUID); got != "2.25.1234" {
				t.Errorf("MediaStorageSOPInstanceUID = %q", got)
			}
			if got := ds.GetString(TagTransferSyntaxUID); got != ts {
				t.Errorf("TransferSyntaxUID = %q, want %q", got, ts)
			}
			if got := ds.GetString(TagPatientName); got != "TEST^PATIENT" {
				t.Errorf("PatientName = %q", got)
			}
		})
	}
}

func TestEncodePart10_KeepsExistingMeta(t *testing.T) {
	ds := manifestDataset()
	ds.Set(TagMediaStorageSOPInstanceUID, "9.9.9")

	data, err := EncodePart10(ds, "")
	if err != nil {
		t.Fatalf("EncodePart10() error = %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := decoded.GetString(TagMediaStorageSOPInstanceUID); got != "9.9.9" {
		t.Errorf("MediaStorageSOPInstanceUID = %q, want 9.9.9", got)
	}
}

func TestDecodePart10_NotPart10(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Too short", []byte{0x01, 0x02, 0x03}},
		{"Missing DICM", make([]byte, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePart10(tt.data)
			if !errors.Is(err, dicomerrors.ErrNotPart10) {
				t.Errorf("DecodePart10() error = %v, want ErrNotPart10", err)
			}
		})
	}
}

func TestDecode_RawDataset(t *testing.T) {
	raw := manifestDataset().EncodeDataset()

	ds, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ds.Has(TagTransferSyntaxUID) {
		t.Error("raw dataset should carry no file meta")
	}
	if got := ds.GetString(TagSOPInstanceUID); got != "2.25.1234" {
		t.Errorf("SOPInstanceUID = %q", got)
	}
}

func TestHasPart10Header(t *testing.T) {
	valid := make([]byte, 132)
	copy(valid[128:], "DICM")

	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"Valid", valid, true},
		{"Too short", []byte("DICM"), false},
		{"No DICM", make([]byte, 132), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPart10Header(tt.data); got != tt.expected {
				t.Errorf("HasPart10Header() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.dcm")

	if err := WriteFile(path, manifestDataset()); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	ds, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := ds.GetString(TagSOPClassUID); got != "1.2.840.10008.5.1.4.1.1.88.59" {
		t.Errorf("SOPClassUID = %q", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.dcm")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want not exist", err)
	}
}
