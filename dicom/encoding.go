package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
)

const undefinedLength = 0xFFFFFFFF

// isLongVR reports whether an explicit VR uses the 4-byte length form.
func isLongVR(vr string) bool {
	switch vr {
	case VR_OB, VR_OD, VR_OF, VR_OL, VR_OV, VR_OW, VR_SQ, VR_SV, VR_UC, VR_UN, VR_UR, VR_UT, VR_UV:
		return true
	}
	return false
}

// EncodeDataset encodes a dataset to bytes (Explicit VR Little Endian)
func (d *Dataset) EncodeDataset() []byte {
	var buf bytes.Buffer
	encodeElements(&buf, d, true)
	return buf.Bytes()
}

// EncodeDatasetWithTransferSyntax encodes a dataset using the provided transfer syntax.
func EncodeDatasetWithTransferSyntax(dataset *Dataset, transferSyntaxUID string) ([]byte, error) {
	if dataset == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	switch transferSyntaxUID {
	case "", TransferSyntaxExplicitVRLittleEndian:
		encodeElements(&buf, dataset, true)
	case TransferSyntaxImplicitVRLittleEndian:
		encodeElements(&buf, dataset, false)
	default:
		return nil, fmt.Errorf("%w: %s", dicomerrors.ErrUnsupportedTransfer, transferSyntaxUID)
	}
	return buf.Bytes(), nil
}

func encodeElements(buf *bytes.Buffer, d *Dataset, explicit bool) {
	for _, tag := range d.Tags() {
		encodeElement(buf, d.Elements[tag], explicit)
	}
}

func encodeElement(buf *bytes.Buffer, element *Element, explicit bool) {
	var valueBytes []byte
	if element.VR == VR_SQ {
		valueBytes = encodeItems(element.Items(), explicit)
	} else {
		valueBytes = encodeElementValue(element)
		// DICOM requires even lengths
		if len(valueBytes)%2 == 1 {
			valueBytes = append(valueBytes, paddingByte(element.VR))
		}
	}

	writeTag(buf, element.Tag)
	if !explicit {
		writeUint32(buf, uint32(len(valueBytes)))
		buf.Write(valueBytes)
		return
	}

	buf.WriteString(element.VR)
	if isLongVR(element.VR) {
		buf.Write([]byte{0x00, 0x00})
		writeUint32(buf, uint32(len(valueBytes)))
	} else {
		if len(valueBytes) > 0xFFFF {
			valueBytes = valueBytes[:0xFFFF-1]
		}
		writeUint16(buf, uint16(len(valueBytes)))
	}
	buf.Write(valueBytes)
}

func encodeItems(items []*Dataset, explicit bool) []byte {
	var buf bytes.Buffer
	for _, item := range items {
		var itemBuf bytes.Buffer
		if item != nil {
			encodeElements(&itemBuf, item, explicit)
		}
		writeTag(&buf, TagItem)
		writeUint32(&buf, uint32(itemBuf.Len()))
		buf.Write(itemBuf.Bytes())
	}
	return buf.Bytes()
}

// paddingByte returns the byte used to reach an even value length:
// NUL for UIDs and binary values, SPACE for character strings.
func paddingByte(vr string) byte {
	switch vr {
	case VR_UI, VR_OB, VR_UN:
		return 0x00
	}
	return 0x20
}

// encodeElementValue encodes an element value to bytes
func encodeElementValue(element *Element) []byte {
	switch v := element.Value.(type) {
	case nil:
		return nil
	case string:
		return []byte(v)
	case []string:
		return []byte(strings.Join(v, "\\"))
	case []byte:
		return v
	case int:
		if element.VR == VR_US {
			return leUint16(uint16(v))
		}
		if element.VR == VR_UL {
			return leUint32(uint32(v))
		}
		return []byte(strconv.Itoa(v))
	case uint16:
		return leUint16(v)
	case uint32:
		return leUint32(v)
	case []Tag:
		result := make([]byte, 0, 4*len(v))
		for _, t := range v {
			result = append(result, leUint16(t.Group)...)
			result = append(result, leUint16(t.Element)...)
		}
		return result
	default:
		return []byte(fmt.Sprintf("%v", v))
	}
}

func writeTag(buf *bytes.Buffer, tag Tag) {
	writeUint16(buf, tag.Group)
	writeUint16(buf, tag.Element)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	buf.Write(leUint16(v))
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	buf.Write(leUint32(v))
}

func leUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func leUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// ParseDataset parses a DICOM dataset from raw bytes (Explicit VR Little Endian).
// String values keep their padding bytes; use GetString for trimmed values.
func ParseDataset(data []byte) (*Dataset, error) {
	p := &parser{data: data, explicit: true}
	ds, _, err := p.dataset(0, len(data), false)
	return ds, err
}

// ParseDatasetWithTransferSyntax parses a dataset using the provided transfer syntax.
func ParseDatasetWithTransferSyntax(data []byte, transferSyntaxUID string) (*Dataset, error) {
	switch transferSyntaxUID {
	case "", TransferSyntaxExplicitVRLittleEndian:
		return ParseDataset(data)
	case TransferSyntaxImplicitVRLittleEndian:
		return parseImplicitVRDataset(data)
	default:
		return nil, fmt.Errorf("%w: %s", dicomerrors.ErrUnsupportedTransfer, transferSyntaxUID)
	}
}

func parseImplicitVRDataset(data []byte) (*Dataset, error) {
	p := &parser{data: data, explicit: false}
	ds, _, err := p.dataset(0, len(data), false)
	return ds, err
}

type parser struct {
	data     []byte
	explicit bool
}

func (p *parser) u16(off int) uint16 {
	return binary.LittleEndian.Uint16(p.data[off : off+2])
}

func (p *parser) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(p.data[off : off+4])
}

// dataset parses elements in [off,end). When delimited is set the dataset
// is an undefined-length item terminated by an Item Delimitation Item.
func (p *parser) dataset(off, end int, delimited bool) (*Dataset, int, error) {
	ds := NewDataset()
	for off < end {
		if off+8 > end {
			return nil, off, dicomerrors.NewDecodeError(off, "", dicomerrors.ErrTruncated)
		}
		tag := Tag{Group: p.u16(off), Element: p.u16(off + 2)}
		if tag == TagItemDelimitationItem {
			if !delimited {
				return nil, off, dicomerrors.NewDecodeError(off, tag.String(), dicomerrors.ErrMalformed)
			}
			return ds, off + 8, nil
		}

		element, next, err := p.element(tag, off, end)
		if err != nil {
			return nil, off, err
		}
		ds.Elements[tag] = element
		off = next
	}
	if delimited {
		return nil, off, dicomerrors.NewDecodeError(off, "", dicomerrors.ErrTruncated)
	}
	return ds, off, nil
}

func (p *parser) element(tag Tag, off, end int) (*Element, int, error) {
	var vr string
	var length uint32
	var valueOffset int

	if p.explicit {
		vr = string(p.data[off+4 : off+6])
		if isLongVR(vr) {
			// Tag (4) + VR (2) + Reserved (2) + Length (4)
			if off+12 > end {
				return nil, off, dicomerrors.NewDecodeError(off, tag.String(), dicomerrors.ErrTruncated)
			}
			length = p.u32(off + 8)
			valueOffset = off + 12
		} else {
			length = uint32(p.u16(off + 6))
			valueOffset = off + 8
		}
	} else {
		vr = determineVR(tag)
		length = p.u32(off + 4)
		valueOffset = off + 8
	}

	if length == undefinedLength {
		if vr != VR_SQ && vr != VR_UN {
			return nil, off, dicomerrors.NewDecodeError(off, tag.String(), dicomerrors.ErrMalformed)
		}
		items, next, err := p.sequence(valueOffset, end, true)
		if err != nil {
			return nil, off, err
		}
		return &Element{Tag: tag, VR: VR_SQ, Length: undefinedLength, Value: items}, next, nil
	}

	next := valueOffset + int(length)
	if next > end || next < valueOffset {
		return nil, off, dicomerrors.NewDecodeError(off, tag.String(), dicomerrors.ErrTruncated)
	}

	element := &Element{Tag: tag, VR: vr, Length: length}
	if vr == VR_SQ {
		items, _, err := p.sequence(valueOffset, next, false)
		if err != nil {
			return nil, off, err
		}
		element.Value = items
	} else {
		element.Value = parseElementValue(vr, p.data[valueOffset:next])
	}
	return element, next, nil
}

// sequence parses items in [off,end). An undefined-length sequence ends at
// the Sequence Delimitation Item.
func (p *parser) sequence(off, end int, undefined bool) ([]*Dataset, int, error) {
	items := []*Dataset{}
	for {
		if off >= end {
			if undefined {
				return nil, off, dicomerrors.NewDecodeError(off, "", dicomerrors.ErrTruncated)
			}
			return items, off, nil
		}
		if off+8 > end {
			return nil, off, dicomerrors.NewDecodeError(off, "", dicomerrors.ErrTruncated)
		}
		tag := Tag{Group: p.u16(off), Element: p.u16(off + 2)}
		length := p.u32(off + 4)

		switch tag {
		case TagSequenceDelimitationItem:
			if !undefined {
				return nil, off, dicomerrors.NewDecodeError(off, tag.String(), dicomerrors.ErrMalformed)
			}
			return items, off + 8, nil
		case TagItem:
		default:
			return nil, off, dicomerrors.NewDecodeError(off, tag.String(), dicomerrors.ErrMalformed)
		}

		if length == undefinedLength {
			item, next, err := p.dataset(off+8, end, true)
			if err != nil {
				return nil, off, err
			}
			items = append(items, item)
			off = next
			continue
		}

		itemEnd := off + 8 + int(length)
		if itemEnd > end || itemEnd < off {
			return nil, off, dicomerrors.NewDecodeError(off, tag.String(), dicomerrors.ErrTruncated)
		}
		item, _, err := p.dataset(off+8, itemEnd, false)
		if err != nil {
			return nil, off, err
		}
		items = append(items, item)
		off = itemEnd
	}
}

// parseElementValue parses the value based on the VR and raw data.
// Character values are returned unmodified so padding stays observable.
func parseElementValue(vr string, data []byte) interface{} {
	switch vr {
	case VR_US:
		if len(data) == 2 {
			return binary.LittleEndian.Uint16(data)
		}
	case VR_UL:
		if len(data) == 4 {
			return binary.LittleEndian.Uint32(data)
		}
	case VR_AT:
		if len(data)%4 == 0 {
			tags := make([]Tag, 0, len(data)/4)
			for i := 0; i+4 <= len(data); i += 4 {
				tags = append(tags, Tag{
					Group:   binary.LittleEndian.Uint16(data[i : i+2]),
					Element: binary.LittleEndian.Uint16(data[i+2 : i+4]),
				})
			}
			return tags
		}
	}

	if IsTextVR(vr) || vr == VR_UI {
		return string(data)
	}
	return append([]byte(nil), data...)
}
