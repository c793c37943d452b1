package sr

import (
	"fmt"

	"github.com/caio-sobreiro/dicommanifest/dicom"
)

// DecodeTree rebuilds the content tree rooted at the document dataset.
// Items with an unsupported value type make decoding fail; missing optional
// attributes decode to zero values.
func DecodeTree(ds *dicom.Dataset) (*Container, error) {
	n, err := decodeItem(ds, "Root")
	if err != nil {
		return nil, err
	}
	root, ok := n.(*Container)
	if !ok {
		return nil, fmt.Errorf("root content item is %s, want CONTAINER", n.ValueType())
	}
	return root, nil
}

func decodeItem(ds *dicom.Dataset, path string) (Node, error) {
	h := Header{Relationship: Relationship(ds.GetString(dicom.TagRelationshipType))}
	if c, ok := FirstCode(ds, dicom.TagConceptNameCodeSequence); ok {
		h.Concept = &c
	}

	switch vt := ValueType(ds.GetString(dicom.TagValueType)); vt {
	case ValueTypeContainer:
		n := &Container{Header: h}
		for _, item := range ds.GetSequence(dicom.TagContentTemplateSequence) {
			n.Templates = append(n.Templates, Template{
				MappingResource: item.GetString(dicom.TagMappingResource),
				Identifier:      item.GetString(dicom.TagTemplateIdentifier),
			})
		}
		for i, item := range ds.GetSequence(dicom.TagContentSequence) {
			child, err := decodeItem(item, fmt.Sprintf("%s>Content[%d]", path, i))
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	case ValueTypeCode:
		value, _ := FirstCode(ds, dicom.TagConceptCodeSequence)
		return &CodeItem{Header: h, Value: value}, nil
	case ValueTypeText:
		return &Text{Header: h, Value: ds.GetString(dicom.TagTextValue)}, nil
	case ValueTypeNum:
		n := &Num{Header: h}
		if mv, ok := ds.FirstItem(dicom.TagMeasuredValueSequence); ok {
			n.Value = mv.GetString(dicom.TagNumericValue)
			n.Unit, _ = FirstCode(mv, dicom.TagMeasurementUnitsCodeSequence)
		}
		return n, nil
	case ValueTypeUIDRef:
		return &UIDRef{Header: h, Value: ds.GetString(dicom.TagUID)}, nil
	case ValueTypeImage:
		n := &Image{Header: h}
		if item, ok := ds.FirstItem(dicom.TagReferencedSOPSequence); ok {
			n.Ref = ReferenceFromDataset(item)
			n.Meta = decodeMetadata(item)
		}
		return n, nil
	case ValueTypeComposite:
		n := &Composite{Header: h}
		if item, ok := ds.FirstItem(dicom.TagReferencedSOPSequence); ok {
			n.Ref = ReferenceFromDataset(item)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%s: unsupported value type %q", path, vt)
	}
}

// ReferenceFromDataset reads a SOP reference from a ReferencedSOPSequence item.
func ReferenceFromDataset(item *dicom.Dataset) Reference {
	return Reference{
		SOPClassUID:    item.GetString(dicom.TagReferencedSOPClassUID),
		SOPInstanceUID: item.GetString(dicom.TagReferencedSOPInstanceUID),
	}
}
