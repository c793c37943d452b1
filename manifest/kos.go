package manifest

import (
	"github.com/caio-sobreiro/dicommanifest/dicom"
	dicomerrors "github.com/caio-sobreiro/dicommanifest/errors"
	"github.com/caio-sobreiro/dicommanifest/sr"
	"github.com/caio-sobreiro/dicommanifest/types"
)

// BuildKOS builds a Key Object Selection manifest (TID 2010) with a
// default Builder.
func BuildKOS(study *types.Study, series []types.Series, instances map[string][]types.Instance, opts ...Option) (*dicom.Dataset, error) {
	return New(opts...).BuildKOS(study, series, instances)
}

// BuildKOS builds a Key Object Selection manifest for one study. instances
// is keyed by series instance UID. The content tree holds one IMAGE or
// COMPOSITE item per referenced instance, in evidence order.
func (b *Builder) BuildKOS(study *types.Study, series []types.Series, instances map[string][]types.Instance) (*dicom.Dataset, error) {
	refs, err := collect(dicomerrors.KindKOS, study, series, instances)
	if err != nil {
		return nil, err
	}

	now := b.now()
	ds := b.document(study, refs, now, false)

	root := sr.NewContainer("", sr.TitleManifest)
	if b.emit(StepContentTemplate) {
		root.Templates = []sr.Template{{MappingResource: sr.SchemeDCMR, Identifier: sr.TemplateKeyObjectSelection}}
	}
	if study.StudyDescription != "" && b.emit(StepKeyObjectDescription) {
		root.Add(sr.NewText(sr.RelContains, sr.ConceptKeyObjectDescription, study.StudyDescription))
	}
	for _, s := range refs.series {
		for _, inst := range s.instances {
			root.Add(referenceItem(inst, nil))
		}
	}
	ds.Merge(sr.Encode(root))

	b.log().Debug("Built KOS manifest",
		"study_uid", refs.studyUID,
		"series", len(refs.series),
		"instances", refs.count())
	return ds, nil
}

// referenceItem returns the content item referencing inst: IMAGE for image
// storage classes, COMPOSITE for documents and other non-image objects.
func referenceItem(inst instanceRef, meta *sr.ImageMetadata) sr.Node {
	if types.IsImageSOPClass(inst.classUID) {
		return sr.NewImage(sr.RelContains, inst.reference(), meta)
	}
	return sr.NewComposite(sr.RelContains, inst.reference())
}
