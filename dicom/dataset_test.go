package dicom

import (
	"encoding/binary"
	"reflect"
	"testing"
)

func TestTag_String(t *testing.T) {
	tests := []struct {
		name     string
		tag      Tag
		expected string
	}{
		{"Patient Name", Tag{0x0010, 0x0010}, "(0010,0010)"},
		{"Study Instance UID", Tag{0x0020, 0x000D}, "(0020,000d)"},
		{"Content Sequence", TagContentSequence, "(0040,a730)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.tag.String()
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestTag_Private(t *testing.T) {
	tests := []struct {
		name      string
		tag       Tag
		private   bool
		creator   bool
		creatorOf Tag
	}{
		{"Standard", TagPatientName, false, false, Tag{0x0010, 0x0000}},
		{"Private creator", Tag{0x0009, 0x0010}, true, true, Tag{0x0009, 0x0000}},
		{"Private data", Tag{0x0009, 0x1001}, true, false, Tag{0x0009, 0x0010}},
		{"Private high block", Tag{0x0029, 0x20FF}, true, false, Tag{0x0029, 0x0020}},
		{"Reserved odd group", Tag{0x0003, 0x0010}, false, false, Tag{0x0003, 0x0000}},
		{"Delimiter", TagItem, false, false, Tag{0xFFFE, 0x00E0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tag.IsPrivate(); got != tt.private {
				t.Errorf("IsPrivate() = %v, want %v", got, tt.private)
			}
			if got := tt.tag.IsPrivateCreator(); got != tt.creator {
				t.Errorf("IsPrivateCreator() = %v, want %v", got, tt.creator)
			}
			if got := tt.tag.CreatorTag(); got != tt.creatorOf {
				t.Errorf("CreatorTag() = %v, want %v", got, tt.creatorOf)
			}
		})
	}
}

func TestNewDataset(t *testing.T) {
	ds := NewDataset()
	if ds == nil {
		t.Fatal("NewDataset returned nil")
	}
	if ds.Elements == nil {
		t.Error("Elements map is nil")
	}
	if ds.Len() != 0 {
		t.Errorf("Expected empty dataset, got %d elements", ds.Len())
	}
}

func TestDataset_Set(t *testing.T) {
	ds := NewDataset()
	ds.Set(TagStudyInstanceUID, "1.2.3")
	ds.Set(Tag{0x0009, 0x0010}, "ACME")
	ds.Set(Tag{0x0009, 0x1001}, []byte{0x01, 0x02})

	tests := []struct {
		tag Tag
		vr  string
	}{
		{TagStudyInstanceUID, VR_UI},
		{Tag{0x0009, 0x0010}, VR_LO},
		{Tag{0x0009, 0x1001}, VR_UN},
	}

	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			e, ok := ds.GetElement(tt.tag)
			if !ok {
				t.Fatalf("element %v not found", tt.tag)
			}
			if e.VR != tt.vr {
				t.Errorf("VR = %s, want %s", e.VR, tt.vr)
			}
		})
	}
}

func TestDataset_GetString(t *testing.T) {
	ds := NewDataset()
	ds.AddElement(TagPatientName, VR_PN, "DOE^JOHN ")
	ds.AddElement(TagStudyInstanceUID, VR_UI, "1.2.3\x00")
	ds.AddElement(TagRows, VR_US, uint16(512))

	tests := []struct {
		name     string
		tag      Tag
		expected string
	}{
		{"Space padded", TagPatientName, "DOE^JOHN"},
		{"NUL padded", TagStudyInstanceUID, "1.2.3"},
		{"Binary US", TagRows, "512"},
		{"Missing", TagPatientID, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ds.GetString(tt.tag); got != tt.expected {
				t.Errorf("GetString() = %q, want %q", got, tt.expected)
			}
		})
	}

	raw, ok := ds.RawString(TagStudyInstanceUID)
	if !ok || raw != "1.2.3\x00" {
		t.Errorf("RawString() = %q, %v; want padded value", raw, ok)
	}
}

func TestDataset_GetStrings(t *testing.T) {
	ds := NewDataset()
	ds.AddElement(TagPixelSpacing, VR_DS, "0.5\\0.5 ")
	ds.AddElement(TagModality, VR_CS, []string{"CT", "MR"})

	if got := ds.GetStrings(TagPixelSpacing); !reflect.DeepEqual(got, []string{"0.5", "0.5"}) {
		t.Errorf("GetStrings(PixelSpacing) = %v", got)
	}
	if got := ds.GetStrings(TagModality); !reflect.DeepEqual(got, []string{"CT", "MR"}) {
		t.Errorf("GetStrings(Modality) = %v", got)
	}
	if got := ds.GetStrings(TagPatientID); got != nil {
		t.Errorf("GetStrings(missing) = %v, want nil", got)
	}
}

func TestDataset_Sequences(t *testing.T) {
	ds := NewDataset()
	ds.AddSequence(TagContentSequence)

	if !ds.Has(TagContentSequence) {
		t.Fatal("empty sequence should be present")
	}
	if items := ds.GetSequence(TagContentSequence); items == nil || len(items) != 0 {
		t.Errorf("GetSequence() = %v, want empty non-nil", items)
	}

	first := NewDataset()
	first.Set(TagValueType, "TEXT")
	second := NewDataset()
	second.Set(TagValueType, "IMAGE")
	ds.AppendItem(TagContentSequence, first)
	ds.AppendItem(TagContentSequence, second)

	items := ds.GetSequence(TagContentSequence)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if item, ok := ds.FirstItem(TagContentSequence); !ok || item.GetString(TagValueType) != "TEXT" {
		t.Error("FirstItem() did not return the first appended item")
	}

	ds.Remove(TagContentSequence)
	if _, ok := ds.FirstItem(TagContentSequence); ok {
		t.Error("FirstItem() found an item after Remove")
	}
}

func TestDataset_Clone(t *testing.T) {
	item := NewDataset()
	item.Set(TagCodeValue, "113030")
	ds := NewDataset()
	ds.AddSequence(TagConceptNameCodeSequence, item)
	ds.Set(TagSignature, []byte{0x01, 0x02})

	clone := ds.Clone()
	clone.GetSequence(TagConceptNameCodeSequence)[0].Set(TagCodeValue, "999")
	clone.GetBytes(TagSignature)[0] = 0xFF

	if got := ds.GetSequence(TagConceptNameCodeSequence)[0].GetString(TagCodeValue); got != "113030" {
		t.Errorf("original item changed to %q", got)
	}
	if ds.GetBytes(TagSignature)[0] != 0x01 {
		t.Error("original bytes changed")
	}
}

func TestDataset_Walk(t *testing.T) {
	text := NewDataset()
	text.Set(TagTextValue, "hello")
	ds := NewDataset()
	ds.Set(TagPatientID, "P1")
	ds.AddSequence(TagContentSequence, text)

	var paths []string
	ds.Walk(func(path string, e *Element) {
		paths = append(paths, path)
	})

	expected := []string{"PatientID", "ContentSequence", "ContentSequence[0]>TextValue"}
	if !reflect.DeepEqual(paths, expected) {
		t.Errorf("Walk paths = %v, want %v", paths, expected)
	}
}

func TestParseDataset(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedLen int
		checks      func(t *testing.T, ds *Dataset)
	}{
		{
			name:        "Empty dataset",
			data:        []byte{},
			expectedLen: 0,
		},
		{
			name: "Single element",
			data: func() []byte {
				// Explicit VR: Tag (4) + VR (2) + Length (2) + Value
				data := make([]byte, 8)
				binary.LittleEndian.PutUint16(data[0:2], 0x0010)
				binary.LittleEndian.PutUint16(data[2:4], 0x0010)
				data[4] = 'P'
				data[5] = 'N'
				binary.LittleEndian.PutUint16(data[6:8], 8)
				data = append(data, []byte("DOE^JOHN")...)
				return data
			}(),
			expectedLen: 1,
			checks: func(t *testing.T, ds *Dataset) {
				value := ds.GetString(Tag{0x0010, 0x0010})
				if value != "DOE^JOHN" {
					t.Errorf("Expected DOE^JOHN, got %s", value)
				}
			},
		},
		{
			name: "Padding is preserved",
			data: func() []byte {
				data := make([]byte, 8)
				binary.LittleEndian.PutUint16(data[0:2], 0x0020)
				binary.LittleEndian.PutUint16(data[2:4], 0x000D)
				data[4] = 'U'
				data[5] = 'I'
				binary.LittleEndian.PutUint16(data[6:8], 6)
				data = append(data, []byte("1.2.3 ")...)
				return data
			}(),
			expectedLen: 1,
			checks: func(t *testing.T, ds *Dataset) {
				raw, _ := ds.RawString(TagStudyInstanceUID)
				if raw != "1.2.3 " {
					t.Errorf("Expected raw value with SPACE pad, got %q", raw)
				}
			},
		},
		{
			name: "Undefined length sequence and item",
			data: func() []byte {
				var data []byte
				// (0040,A730) SQ, undefined length
				data = append(data, 0x40, 0x00, 0x30, 0xA7, 'S', 'Q', 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF)
				// Item, undefined length
				data = append(data, 0xFE, 0xFF, 0x00, 0xE0, 0xFF, 0xFF, 0xFF, 0xFF)
				// (0040,A040) CS "TEXT"
				data = append(data, 0x40, 0x00, 0x40, 0xA0, 'C', 'S', 0x04, 0x00)
				data = append(data, []byte("TEXT")...)
				// Item delimitation
				data = append(data, 0xFE, 0xFF, 0x0D, 0xE0, 0x00, 0x00, 0x00, 0x00)
				// Sequence delimitation
				data = append(data, 0xFE, 0xFF, 0xDD, 0xE0, 0x00, 0x00, 0x00, 0x00)
				return data
			}(),
			expectedLen: 1,
			checks: func(t *testing.T, ds *Dataset) {
				items := ds.GetSequence(TagContentSequence)
				if len(items) != 1 {
					t.Fatalf("Expected 1 item, got %d", len(items))
				}
				if vt := items[0].GetString(TagValueType); vt != "TEXT" {
					t.Errorf("Expected TEXT, got %s", vt)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseDataset(tt.data)
			if err != nil {
				t.Fatalf("ParseDataset failed: %v", err)
			}

			if len(ds.Elements) != tt.expectedLen {
				t.Errorf("Expected %d elements, got %d", tt.expectedLen, len(ds.Elements))
			}

			if tt.checks != nil {
				tt.checks(t, ds)
			}
		})
	}
}

func TestParseDataset_Truncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Short header", []byte{0x10, 0x00, 0x10}},
		{"Value past end", []byte{0x10, 0x00, 0x10, 0x00, 'P', 'N', 0x08, 0x00, 'D', 'O'}},
		{"Unterminated sequence", []byte{0x40, 0x00, 0x30, 0xA7, 'S', 'Q', 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDataset(tt.data); err == nil {
				t.Error("Expected error for truncated data")
			}
		})
	}
}

func TestDataset_EncodeDataset(t *testing.T) {
	ds := NewDataset()
	ds.Set(TagStudyInstanceUID, "1.2.3")
	ds.Set(TagPatientName, "DOE")

	data := ds.EncodeDataset()

	// Tags are ordered: (0010,0010) precedes (0020,000D)
	if g := binary.LittleEndian.Uint16(data[0:2]); g != 0x0010 {
		t.Fatalf("first group = %04x, want 0010", g)
	}
	// "DOE" is padded with SPACE
	if data[8+3] != 0x20 {
		t.Errorf("PN pad byte = %#x, want 0x20", data[8+3])
	}
	// "1.2.3" is padded with NUL
	uidValue := data[12+8 : 12+8+6]
	if uidValue[5] != 0x00 {
		t.Errorf("UI pad byte = %#x, want 0x00", uidValue[5])
	}
}

func TestDataset_RoundTrip(t *testing.T) {
	code := NewDataset()
	code.Set(TagCodeValue, "113030")
	code.Set(TagCodingSchemeDesignator, "DCM")
	code.Set(TagCodeMeaning, "Manifest")

	signature := NewDataset()
	signature.Set(TagMACIDNumber, uint16(1))
	signature.Set(TagDataElementsSigned, []Tag{TagSOPInstanceUID, TagStudyInstanceUID})

	original := NewDataset()
	original.Set(TagSOPClassUID, "1.2.840.10008.5.1.4.1.1.88.59")
	original.Set(TagPatientName, "DOE^JOHN")
	original.Set(TagAccessionNumber, "")
	original.AddSequence(TagConceptNameCodeSequence, code)
	original.AddSequence(TagMACParametersSequence, signature)
	original.AddSequence(TagReferencedRequestSequence)

	for _, ts := range []string{TransferSyntaxExplicitVRLittleEndian, TransferSyntaxImplicitVRLittleEndian} {
		t.Run(ts, func(t *testing.T) {
			data, err := EncodeDatasetWithTransferSyntax(original, ts)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			parsed, err := ParseDatasetWithTransferSyntax(data, ts)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}

			if got := parsed.GetString(TagPatientName); got != "DOE^JOHN" {
				t.Errorf("PatientName = %q", got)
			}
			if !parsed.Has(TagAccessionNumber) {
				t.Error("empty AccessionNumber lost")
			}
			if items := parsed.GetSequence(TagReferencedRequestSequence); items == nil || len(items) != 0 {
				t.Errorf("empty sequence = %v", items)
			}
			item, ok := parsed.FirstItem(TagConceptNameCodeSequence)
			if !ok || item.GetString(TagCodeMeaning) != "Manifest" {
				t.Error("nested code item lost")
			}
			mac, ok := parsed.FirstItem(TagMACParametersSequence)
			if !ok {
				t.Fatal("MAC parameters lost")
			}
			if id, _ := mac.GetUint16(TagMACIDNumber); id != 1 {
				t.Errorf("MACIDNumber = %d, want 1", id)
			}
			if signed := mac.GetTags(TagDataElementsSigned); len(signed) != 2 || signed[1] != TagStudyInstanceUID {
				t.Errorf("DataElementsSigned = %v", signed)
			}
		})
	}
}

func TestEncodeDatasetWithTransferSyntax_Unsupported(t *testing.T) {
	_, err := EncodeDatasetWithTransferSyntax(NewDataset(), "1.2.840.10008.1.2.4.50")
	if err == nil {
		t.Error("Expected error for compressed transfer syntax")
	}
}

func TestDetermineVR(t *testing.T) {
	tests := []struct {
		tag Tag
		vr  string
	}{
		{TagPatientName, VR_PN},
		{TagContentSequence, VR_SQ},
		{TagStudyInstanceUID, VR_UI},
		{Tag{0x0011, 0x0010}, VR_LO},
		{Tag{0x0008, 0x0000}, VR_UL},
		{Tag{0x0011, 0x1010}, VR_UN},
	}

	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			if got := determineVR(tt.tag); got != tt.vr {
				t.Errorf("determineVR(%v) = %s, want %s", tt.tag, got, tt.vr)
			}
		})
	}
}

func TestEncodeElementValue_VariousTypes(t *testing.T) {
	tests := []struct {
		name     string
		element  *Element
		expected []byte
	}{
		{"String value", &Element{Tag: TagPatientName, VR: VR_PN, Value: "DOE^JOHN"}, []byte("DOE^JOHN")},
		{"String array", &Element{Tag: TagModality, VR: VR_CS, Value: []string{"CT", "MR"}}, []byte("CT\\MR")},
		{"Integer string", &Element{Tag: TagInstanceNumber, VR: VR_IS, Value: 42}, []byte("42")},
		{"Uint16 value", &Element{Tag: TagRows, VR: VR_US, Value: uint16(0x0020)}, []byte{0x20, 0x00}},
		{"Int as US", &Element{Tag: TagRows, VR: VR_US, Value: 512}, []byte{0x00, 0x02}},
		{"Attribute tags", &Element{Tag: TagDataElementsSigned, VR: VR_AT, Value: []Tag{{0x0008, 0x0018}}}, []byte{0x08, 0x00, 0x18, 0x00}},
		{"Nil value", &Element{Tag: TagAccessionNumber, VR: VR_SH}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := encodeElementValue(tt.element)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("encodeElementValue() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestKeyword(t *testing.T) {
	if got := Keyword(TagCurrentRequestedProcedureEvidenceSeq); got != "CurrentRequestedProcedureEvidenceSequence" {
		t.Errorf("Keyword() = %s", got)
	}
	if got := Keyword(Tag{0x0009, 0x1001}); got != "(0009,1001)" {
		t.Errorf("Keyword(private) = %s", got)
	}
}
