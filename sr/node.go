// Package sr models the structured-report content tree of a manifest:
// typed content items, their coded concept names and their dataset encoding.
package sr

// ValueType names the kind of a content item.
type ValueType string

const (
	ValueTypeContainer ValueType = "CONTAINER"
	ValueTypeCode      ValueType = "CODE"
	ValueTypeText      ValueType = "TEXT"
	ValueTypeNum       ValueType = "NUM"
	ValueTypeUIDRef    ValueType = "UIDREF"
	ValueTypeImage     ValueType = "IMAGE"
	ValueTypeComposite ValueType = "COMPOSITE"
)

// ValueTypes lists every supported value type.
var ValueTypes = []ValueType{
	ValueTypeContainer, ValueTypeCode, ValueTypeText, ValueTypeNum,
	ValueTypeUIDRef, ValueTypeImage, ValueTypeComposite,
}

// IsValid reports whether v is a supported value type.
func (v ValueType) IsValid() bool {
	for _, d := range ValueTypes {
		if v == d {
			return true
		}
	}
	return false
}

// RequiresConceptName reports whether items of the value type must carry a
// concept name. IMAGE and COMPOSITE items may omit it.
func (v ValueType) RequiresConceptName() bool {
	switch v {
	case ValueTypeImage, ValueTypeComposite:
		return false
	}
	return true
}

// IsReference reports whether items of the value type reference a SOP instance.
func (v ValueType) IsReference() bool {
	return v == ValueTypeImage || v == ValueTypeComposite
}

// Relationship links a content item to its parent.
type Relationship string

const (
	RelContains      Relationship = "CONTAINS"
	RelHasAcqContext Relationship = "HAS ACQ CONTEXT"
	RelHasProperties Relationship = "HAS PROPERTIES"
	RelHasObsContext Relationship = "HAS OBS CONTEXT"
	RelHasConceptMod Relationship = "HAS CONCEPT MOD"
	RelInferredFrom  Relationship = "INFERRED FROM"
	RelSelectedFrom  Relationship = "SELECTED FROM"
)

// ContinuitySeparate is the only continuity of content used by manifests.
const ContinuitySeparate = "SEPARATE"

// Relationships lists every defined relationship type.
var Relationships = []Relationship{
	RelContains, RelHasAcqContext, RelHasProperties, RelHasObsContext,
	RelHasConceptMod, RelInferredFrom, RelSelectedFrom,
}

// IsValid reports whether r is a defined relationship type.
func (r Relationship) IsValid() bool {
	for _, d := range Relationships {
		if r == d {
			return true
		}
	}
	return false
}

// Reference identifies a SOP instance.
type Reference struct {
	SOPClassUID    string
	SOPInstanceUID string
}

// ImageMetadata is the optional per-instance description carried by MADO
// image entries. Values are copied from the source record as strings.
type ImageMetadata struct {
	InstanceNumber   string
	NumberOfFrames   string
	Rows             string
	Columns          string
	PixelSpacing     string
	WindowCenter     string
	WindowWidth      string
	RescaleSlope     string
	RescaleIntercept string
}

// Header holds the attributes common to every content item. The root
// container has no relationship.
type Header struct {
	Relationship Relationship
	Concept      *Code
}

// Base returns the item's header.
func (h *Header) Base() *Header { return h }

// Node is one content item. The set of implementations is closed: every
// Visitor must handle each of them.
type Node interface {
	ValueType() ValueType
	Base() *Header
	Accept(v Visitor)
}

// Visitor receives one call per content item kind.
type Visitor interface {
	VisitContainer(n *Container)
	VisitCode(n *CodeItem)
	VisitText(n *Text)
	VisitNum(n *Num)
	VisitUIDRef(n *UIDRef)
	VisitImage(n *Image)
	VisitComposite(n *Composite)
}

// Template identifies a content template in ContentTemplateSequence.
type Template struct {
	MappingResource string
	Identifier      string
}

// Container groups child items.
type Container struct {
	Header
	Templates []Template
	Children  []Node
}

// CodeItem carries a coded value.
type CodeItem struct {
	Header
	Value Code
}

// Text carries a literal text value.
type Text struct {
	Header
	Value string
}

// Num carries a numeric value and its unit.
type Num struct {
	Header
	Value string
	Unit  Code
}

// UIDRef carries a unique identifier.
type UIDRef struct {
	Header
	Value string
}

// Image references an image instance.
type Image struct {
	Header
	Ref  Reference
	Meta *ImageMetadata
}

// Composite references a non-image instance.
type Composite struct {
	Header
	Ref Reference
}

func (*Container) ValueType() ValueType { return ValueTypeContainer }
func (*CodeItem) ValueType() ValueType  { return ValueTypeCode }
func (*Text) ValueType() ValueType      { return ValueTypeText }
func (*Num) ValueType() ValueType       { return ValueTypeNum }
func (*UIDRef) ValueType() ValueType    { return ValueTypeUIDRef }
func (*Image) ValueType() ValueType     { return ValueTypeImage }
func (*Composite) ValueType() ValueType { return ValueTypeComposite }

func (n *Container) Accept(v Visitor) { v.VisitContainer(n) }
func (n *CodeItem) Accept(v Visitor)  { v.VisitCode(n) }
func (n *Text) Accept(v Visitor)      { v.VisitText(n) }
func (n *Num) Accept(v Visitor)       { v.VisitNum(n) }
func (n *UIDRef) Accept(v Visitor)    { v.VisitUIDRef(n) }
func (n *Image) Accept(v Visitor)     { v.VisitImage(n) }
func (n *Composite) Accept(v Visitor) { v.VisitComposite(n) }

// Add appends children to the container and returns it.
func (n *Container) Add(children ...Node) *Container {
	n.Children = append(n.Children, children...)
	return n
}

// Find returns the first direct child container with the given concept name.
func (n *Container) Find(concept Code) (*Container, bool) {
	for _, c := range n.Children {
		if child, ok := c.(*Container); ok && child.Concept != nil && child.Concept.Is(concept) {
			return child, true
		}
	}
	return nil, false
}

func concept(c Code) *Code { return &c }

// NewContainer creates a container item.
func NewContainer(rel Relationship, name Code, children ...Node) *Container {
	return &Container{Header: Header{Relationship: rel, Concept: concept(name)}, Children: children}
}

// NewCode creates a CODE item.
func NewCode(rel Relationship, name, value Code) *CodeItem {
	return &CodeItem{Header: Header{Relationship: rel, Concept: concept(name)}, Value: value}
}

// NewText creates a TEXT item.
func NewText(rel Relationship, name Code, value string) *Text {
	return &Text{Header: Header{Relationship: rel, Concept: concept(name)}, Value: value}
}

// NewNum creates a NUM item.
func NewNum(rel Relationship, name Code, value string, unit Code) *Num {
	return &Num{Header: Header{Relationship: rel, Concept: concept(name)}, Value: value, Unit: unit}
}

// NewUIDRef creates a UIDREF item.
func NewUIDRef(rel Relationship, name Code, value string) *UIDRef {
	return &UIDRef{Header: Header{Relationship: rel, Concept: concept(name)}, Value: value}
}

// NewImage creates an IMAGE item without a concept name.
func NewImage(rel Relationship, ref Reference, meta *ImageMetadata) *Image {
	return &Image{Header: Header{Relationship: rel}, Ref: ref, Meta: meta}
}

// NewComposite creates a COMPOSITE item without a concept name.
func NewComposite(rel Relationship, ref Reference) *Composite {
	return &Composite{Header: Header{Relationship: rel}, Ref: ref}
}

// referenceCollector gathers IMAGE and COMPOSITE references in tree order.
type referenceCollector struct {
	refs []Reference
}

func (c *referenceCollector) VisitContainer(n *Container) {
	for _, child := range n.Children {
		child.Accept(c)
	}
}
func (c *referenceCollector) VisitCode(*CodeItem)         {}
func (c *referenceCollector) VisitText(*Text)             {}
func (c *referenceCollector) VisitNum(*Num)               {}
func (c *referenceCollector) VisitUIDRef(*UIDRef)         {}
func (c *referenceCollector) VisitImage(n *Image)         { c.refs = append(c.refs, n.Ref) }
func (c *referenceCollector) VisitComposite(n *Composite) { c.refs = append(c.refs, n.Ref) }

// References returns every instance referenced below n, in tree order.
func References(n Node) []Reference {
	c := &referenceCollector{}
	n.Accept(c)
	return c.refs
}

// Count returns the number of items in the subtree rooted at n, n included.
func Count(n Node) int {
	total := 1
	if c, ok := n.(*Container); ok {
		for _, child := range c.Children {
			total += Count(child)
		}
	}
	return total
}
