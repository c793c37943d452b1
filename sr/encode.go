package sr

import (
	"fmt"
	"strings"

	"github.com/caio-sobreiro/dicommanifest/dicom"
)

// Encode returns the content item dataset for n and its subtree. For the
// root container the result holds the document-level SR attributes and is
// merged into the document by the caller.
func Encode(n Node) *dicom.Dataset {
	e := &encoder{}
	n.Accept(e)
	return e.out
}

type encoder struct {
	out *dicom.Dataset
}

func (e *encoder) header(n Node) *dicom.Dataset {
	ds := dicom.NewDataset()
	h := n.Base()
	if h.Relationship != "" {
		ds.Set(dicom.TagRelationshipType, string(h.Relationship))
	}
	ds.Set(dicom.TagValueType, string(n.ValueType()))
	if h.Concept != nil {
		ds.AddSequence(dicom.TagConceptNameCodeSequence, h.Concept.Dataset())
	}
	return ds
}

func (e *encoder) VisitContainer(n *Container) {
	ds := e.header(n)
	ds.Set(dicom.TagContinuityOfContent, ContinuitySeparate)
	if len(n.Templates) > 0 {
		items := make([]*dicom.Dataset, 0, len(n.Templates))
		for _, t := range n.Templates {
			item := dicom.NewDataset()
			item.Set(dicom.TagMappingResource, t.MappingResource)
			item.Set(dicom.TagTemplateIdentifier, t.Identifier)
			items = append(items, item)
		}
		ds.AddSequence(dicom.TagContentTemplateSequence, items...)
	}
	children := make([]*dicom.Dataset, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, Encode(child))
	}
	ds.AddSequence(dicom.TagContentSequence, children...)
	e.out = ds
}

func (e *encoder) VisitCode(n *CodeItem) {
	ds := e.header(n)
	ds.AddSequence(dicom.TagConceptCodeSequence, n.Value.Dataset())
	e.out = ds
}

func (e *encoder) VisitText(n *Text) {
	ds := e.header(n)
	ds.Set(dicom.TagTextValue, n.Value)
	e.out = ds
}

func (e *encoder) VisitNum(n *Num) {
	ds := e.header(n)
	mv := dicom.NewDataset()
	mv.Set(dicom.TagNumericValue, n.Value)
	mv.AddSequence(dicom.TagMeasurementUnitsCodeSequence, n.Unit.Dataset())
	ds.AddSequence(dicom.TagMeasuredValueSequence, mv)
	e.out = ds
}

func (e *encoder) VisitUIDRef(n *UIDRef) {
	ds := e.header(n)
	ds.Set(dicom.TagUID, n.Value)
	e.out = ds
}

func (e *encoder) VisitImage(n *Image) {
	ds := e.header(n)
	ref := referenceItem(n.Ref)
	if n.Meta != nil {
		n.Meta.encode(ref)
	}
	ds.AddSequence(dicom.TagReferencedSOPSequence, ref)
	e.out = ds
}

func (e *encoder) VisitComposite(n *Composite) {
	ds := e.header(n)
	ds.AddSequence(dicom.TagReferencedSOPSequence, referenceItem(n.Ref))
	e.out = ds
}

func referenceItem(r Reference) *dicom.Dataset {
	item := dicom.NewDataset()
	item.Set(dicom.TagReferencedSOPClassUID, r.SOPClassUID)
	item.Set(dicom.TagReferencedSOPInstanceUID, r.SOPInstanceUID)
	return item
}

func (m *ImageMetadata) fields() []struct {
	tag   dicom.Tag
	value *string
} {
	return []struct {
		tag   dicom.Tag
		value *string
	}{
		{dicom.TagInstanceNumber, &m.InstanceNumber},
		{dicom.TagNumberOfFrames, &m.NumberOfFrames},
		{dicom.TagRows, &m.Rows},
		{dicom.TagColumns, &m.Columns},
		{dicom.TagPixelSpacing, &m.PixelSpacing},
		{dicom.TagWindowCenter, &m.WindowCenter},
		{dicom.TagWindowWidth, &m.WindowWidth},
		{dicom.TagRescaleSlope, &m.RescaleSlope},
		{dicom.TagRescaleIntercept, &m.RescaleIntercept},
	}
}

// encode writes the non-empty metadata fields into a ReferencedSOPSequence item.
func (m *ImageMetadata) encode(item *dicom.Dataset) {
	for _, f := range m.fields() {
		if *f.value == "" {
			continue
		}
		switch f.tag {
		case dicom.TagRows, dicom.TagColumns:
			var n uint16
			if _, err := fmt.Sscan(*f.value, &n); err != nil {
				continue
			}
			item.Set(f.tag, n)
		default:
			item.Set(f.tag, *f.value)
		}
	}
}

func decodeMetadata(item *dicom.Dataset) *ImageMetadata {
	m := &ImageMetadata{}
	found := false
	for _, f := range m.fields() {
		if item.Has(f.tag) {
			*f.value = item.GetString(f.tag)
			found = true
		}
	}
	if !found {
		return nil
	}
	return m
}

// Format renders the tree as indented text, one item per line.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n, 0)
	return b.String()
}

func format(b *strings.Builder, n Node, depth int) {
	h := n.Base()
	b.WriteString(strings.Repeat("  ", depth))
	if h.Relationship != "" {
		fmt.Fprintf(b, "%s ", h.Relationship)
	}
	fmt.Fprintf(b, "%s", n.ValueType())
	if h.Concept != nil {
		fmt.Fprintf(b, " %s", h.Concept)
	}
	switch v := n.(type) {
	case *Container:
		b.WriteString("\n")
		for _, child := range v.Children {
			format(b, child, depth+1)
		}
		return
	case *CodeItem:
		fmt.Fprintf(b, " = %s", v.Value)
	case *Text:
		fmt.Fprintf(b, " = %q", v.Value)
	case *Num:
		fmt.Fprintf(b, " = %s %s", v.Value, v.Unit.Value)
	case *UIDRef:
		fmt.Fprintf(b, " = %s", v.Value)
	case *Image:
		fmt.Fprintf(b, " = %s / %s", v.Ref.SOPClassUID, v.Ref.SOPInstanceUID)
	case *Composite:
		fmt.Fprintf(b, " = %s / %s", v.Ref.SOPClassUID, v.Ref.SOPInstanceUID)
	}
	b.WriteString("\n")
}
