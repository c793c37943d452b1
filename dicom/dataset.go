package dicom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/caio-sobreiro/dicommanifest/types"
)

// VR (Value Representation) constants
const (
	VR_AE = "AE" // Application Entity
	VR_AS = "AS" // Age String
	VR_AT = "AT" // Attribute Tag
	VR_CS = "CS" // Code String
	VR_DA = "DA" // Date
	VR_DS = "DS" // Decimal String
	VR_DT = "DT" // Date Time
	VR_FL = "FL" // Floating Point Single
	VR_FD = "FD" // Floating Point Double
	VR_IS = "IS" // Integer String
	VR_LO = "LO" // Long String
	VR_LT = "LT" // Long Text
	VR_OB = "OB" // Other Byte
	VR_OD = "OD" // Other Double
	VR_OF = "OF" // Other Float
	VR_OL = "OL" // Other Long
	VR_OV = "OV" // Other Very Long
	VR_OW = "OW" // Other Word
	VR_PN = "PN" // Person Name
	VR_SH = "SH" // Short String
	VR_SL = "SL" // Signed Long
	VR_SQ = "SQ" // Sequence of Items
	VR_SS = "SS" // Signed Short
	VR_ST = "ST" // Short Text
	VR_SV = "SV" // Signed Very Long
	VR_TM = "TM" // Time
	VR_UC = "UC" // Unlimited Characters
	VR_UI = "UI" // Unique Identifier
	VR_UL = "UL" // Unsigned Long
	VR_UN = "UN" // Unknown
	VR_UR = "UR" // Universal Resource
	VR_US = "US" // Unsigned Short
	VR_UT = "UT" // Unlimited Text
	VR_UV = "UV" // Unsigned Very Long
)

// Common transfer syntax UIDs
const (
	TransferSyntaxImplicitVRLittleEndian = types.ImplicitVRLittleEndian
	TransferSyntaxExplicitVRLittleEndian = types.ExplicitVRLittleEndian
)

// IsTextVR reports whether values of the VR are character strings subject
// to SPACE padding.
func IsTextVR(vr string) bool {
	switch vr {
	case VR_AE, VR_AS, VR_CS, VR_DA, VR_DS, VR_DT, VR_IS, VR_LO, VR_LT,
		VR_PN, VR_SH, VR_ST, VR_TM, VR_UC, VR_UR, VR_UT:
		return true
	}
	return false
}

// IsCharsetVR reports whether values of the VR are affected by the
// Specific Character Set. The remaining text VRs use the default repertoire.
func IsCharsetVR(vr string) bool {
	switch vr {
	case VR_LO, VR_LT, VR_PN, VR_SH, VR_ST, VR_UC, VR_UT:
		return true
	}
	return false
}

// Tag represents a DICOM tag (group, element)
type Tag struct {
	Group   uint16
	Element uint16
}

// String returns the tag as a string in (GGGG,EEEE) format
func (t Tag) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group, t.Element)
}

// Less orders tags by group, then element.
func (t Tag) Less(o Tag) bool {
	if t.Group != o.Group {
		return t.Group < o.Group
	}
	return t.Element < o.Element
}

// IsPrivate reports whether the tag belongs to an odd, vendor-private group.
// Groups 0001, 0003, 0005, 0007 and FFFF are reserved and not private.
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1 && t.Group > 0x0008 && t.Group != 0xFFFF
}

// IsPrivateCreator reports whether the tag is a private creator element
// (gggg,0010-00FF) reserving a block of its private group.
func (t Tag) IsPrivateCreator() bool {
	return t.IsPrivate() && t.Element >= 0x0010 && t.Element <= 0x00FF
}

// CreatorTag returns the private creator element owning a private data
// element. For (0009,1001) this is (0009,0010).
func (t Tag) CreatorTag() Tag {
	return Tag{Group: t.Group, Element: t.Element >> 8}
}

// Element represents a DICOM data element.
//
// Value holds one of: string (raw, padding preserved after decoding),
// []string, []byte, uint16, uint32, int, []Tag, or []*Dataset for SQ.
type Element struct {
	Tag    Tag
	VR     string
	Length uint32
	Value  interface{}
}

// Items returns the sequence items of an SQ element.
func (e *Element) Items() []*Dataset {
	if e == nil {
		return nil
	}
	items, _ := e.Value.([]*Dataset)
	return items
}

// Dataset represents a collection of DICOM elements
type Dataset struct {
	Elements map[Tag]*Element
}

// NewDataset creates a new empty dataset
func NewDataset() *Dataset {
	return &Dataset{
		Elements: make(map[Tag]*Element),
	}
}

// AddElement adds an element to the dataset
func (d *Dataset) AddElement(tag Tag, vr string, value interface{}) {
	element := &Element{
		Tag:   tag,
		VR:    vr,
		Value: value,
	}
	d.Elements[tag] = element
}

// Set adds an element using the dictionary VR for the tag.
func (d *Dataset) Set(tag Tag, value interface{}) {
	vr, ok := LookupVR(tag)
	if !ok {
		vr = determineVR(tag)
	}
	d.AddElement(tag, vr, value)
}

// GetElement returns an element by tag
func (d *Dataset) GetElement(tag Tag) (*Element, bool) {
	element, exists := d.Elements[tag]
	return element, exists
}

// Has reports whether the tag is present, empty or not.
func (d *Dataset) Has(tag Tag) bool {
	_, ok := d.Elements[tag]
	return ok
}

// Remove deletes the tag from the dataset.
func (d *Dataset) Remove(tag Tag) {
	delete(d.Elements, tag)
}

// Len returns the number of top-level elements.
func (d *Dataset) Len() int {
	return len(d.Elements)
}

// Tags returns the dataset's tags in ascending order.
func (d *Dataset) Tags() []Tag {
	tags := make([]Tag, 0, len(d.Elements))
	for tag := range d.Elements {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Less(tags[j]) })
	return tags
}

// GetString returns a string value for a tag with SPACE and NUL padding removed
func (d *Dataset) GetString(tag Tag) string {
	element, exists := d.Elements[tag]
	if !exists {
		return ""
	}
	switch v := element.Value.(type) {
	case string:
		return strings.Trim(v, " \x00")
	case []string:
		return strings.Join(v, "\\")
	case uint16:
		return strconv.Itoa(int(v))
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// RawString returns the unmodified string value for a tag, including any
// padding bytes read from the wire.
func (d *Dataset) RawString(tag Tag) (string, bool) {
	element, exists := d.Elements[tag]
	if !exists {
		return "", false
	}
	s, ok := element.Value.(string)
	return s, ok
}

// GetStrings returns a slice of string values for a tag
func (d *Dataset) GetStrings(tag Tag) []string {
	if element, exists := d.Elements[tag]; exists {
		switch v := element.Value.(type) {
		case string:
			// Split by backslash for multiple values
			parts := strings.Split(v, "\\")
			result := make([]string, len(parts))
			for i, part := range parts {
				result[i] = strings.Trim(part, " \x00")
			}
			return result
		case []string:
			return v
		}
	}
	return nil
}

// GetUint16 returns a US value for a tag.
func (d *Dataset) GetUint16(tag Tag) (uint16, bool) {
	element, exists := d.Elements[tag]
	if !exists {
		return 0, false
	}
	v, ok := element.Value.(uint16)
	return v, ok
}

// GetTags returns an AT value for a tag.
func (d *Dataset) GetTags(tag Tag) []Tag {
	element, exists := d.Elements[tag]
	if !exists {
		return nil
	}
	v, _ := element.Value.([]Tag)
	return v
}

// GetBytes returns a binary value for a tag.
func (d *Dataset) GetBytes(tag Tag) []byte {
	element, exists := d.Elements[tag]
	if !exists {
		return nil
	}
	switch v := element.Value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}

// AddSequence adds an SQ element holding the given items.
func (d *Dataset) AddSequence(tag Tag, items ...*Dataset) {
	if items == nil {
		items = []*Dataset{}
	}
	d.AddElement(tag, VR_SQ, items)
}

// AppendItem appends an item to an SQ element, creating it if absent.
func (d *Dataset) AppendItem(tag Tag, item *Dataset) {
	element, exists := d.Elements[tag]
	if !exists || element.VR != VR_SQ {
		d.AddSequence(tag, item)
		return
	}
	element.Value = append(element.Items(), item)
}

// GetSequence returns the items of an SQ element, or nil if absent.
func (d *Dataset) GetSequence(tag Tag) []*Dataset {
	element, exists := d.Elements[tag]
	if !exists {
		return nil
	}
	return element.Items()
}

// FirstItem returns the first item of an SQ element.
func (d *Dataset) FirstItem(tag Tag) (*Dataset, bool) {
	items := d.GetSequence(tag)
	if len(items) == 0 {
		return nil, false
	}
	return items[0], true
}

// Merge copies every element of o into d, replacing elements with the same tag.
func (d *Dataset) Merge(o *Dataset) {
	for tag, e := range o.Elements {
		d.Elements[tag] = e
	}
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := NewDataset()
	for tag, e := range d.Elements {
		out.Elements[tag] = &Element{
			Tag:    e.Tag,
			VR:     e.VR,
			Length: e.Length,
			Value:  cloneValue(e.Value),
		}
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return append([]byte(nil), val...)
	case []string:
		return append([]string(nil), val...)
	case []Tag:
		return append([]Tag(nil), val...)
	case []*Dataset:
		items := make([]*Dataset, len(val))
		for i, item := range val {
			items[i] = item.Clone()
		}
		return items
	default:
		return val
	}
}

// Walk visits every element depth first in tag order. The path is a
// breadcrumb of keywords leading to the element, for example
// "ContentSequence[0]>TextValue".
func (d *Dataset) Walk(fn func(path string, e *Element)) {
	d.walk("", fn)
}

func (d *Dataset) walk(prefix string, fn func(path string, e *Element)) {
	for _, tag := range d.Tags() {
		e := d.Elements[tag]
		path := Keyword(tag)
		if prefix != "" {
			path = prefix + ">" + path
		}
		fn(path, e)
		for i, item := range e.Items() {
			item.walk(fmt.Sprintf("%s[%d]", path, i), fn)
		}
	}
}
