// Package types contains the SOP Class and Transfer Syntax registries and the
// study/series/instance records consumed by the manifest builders.
package types

// DICOM SOP Class UIDs as defined in DICOM Part 4, Annex B and Part 6, Annex A
// https://dicom.nema.org/medical/dicom/current/output/chtml/part04/sect_B.5.html

// Verification Service
const (
	VerificationSOPClass = "1.2.840.10008.1.1"
)

// Structured Reporting and Key Object Selection
const (
	// KeyObjectSelectionDocumentStorage is the SOP Class shared by KOS and MADO manifests
	KeyObjectSelectionDocumentStorage = "1.2.840.10008.5.1.4.1.1.88.59"

	BasicTextSRStorage           = "1.2.840.10008.5.1.4.1.1.88.11"
	EnhancedSRStorage            = "1.2.840.10008.5.1.4.1.1.88.22"
	ComprehensiveSRStorage       = "1.2.840.10008.5.1.4.1.1.88.33"
	Comprehensive3DSRStorage     = "1.2.840.10008.5.1.4.1.1.88.34"
	MammographyCADSRStorage      = "1.2.840.10008.5.1.4.1.1.88.50"
	XRayRadiationDoseSRStorage   = "1.2.840.10008.5.1.4.1.1.88.67"
	AcquisitionContextSRStorage  = "1.2.840.10008.5.1.4.1.1.88.71"
	GrayscaleSoftcopyPSStorage   = "1.2.840.10008.5.1.4.1.1.11.1"
	ColorSoftcopyPSStorage       = "1.2.840.10008.5.1.4.1.1.11.2"
	SegmentationStorage          = "1.2.840.10008.5.1.4.1.1.66.4"
	EncapsulatedPDFStorage       = "1.2.840.10008.5.1.4.1.1.104.1"
	EncapsulatedCDAStorage       = "1.2.840.10008.5.1.4.1.1.104.2"
	RawDataStorage               = "1.2.840.10008.5.1.4.1.1.66"
	SpatialRegistrationStorage   = "1.2.840.10008.5.1.4.1.1.66.1"
	RTStructureSetStorage        = "1.2.840.10008.5.1.4.1.1.481.3"
	RTPlanStorage                = "1.2.840.10008.5.1.4.1.1.481.5"
	StudyRootQueryRetrieveFind   = "1.2.840.10008.5.1.4.1.2.2.1"
	StudyRootQueryRetrieveMove   = "1.2.840.10008.5.1.4.1.2.2.2"
	PatientRootQueryRetrieveFind = "1.2.840.10008.5.1.4.1.2.1.1"
)

// Storage Service - Image Storage SOP Classes
const (
	ComputedRadiographyImageStorage                   = "1.2.840.10008.5.1.4.1.1.1"
	DigitalXRayImageStorageForPresentation            = "1.2.840.10008.5.1.4.1.1.1.1"
	DigitalMammographyXRayImageStorageForPresentation = "1.2.840.10008.5.1.4.1.1.1.2"
	CTImageStorage                                    = "1.2.840.10008.5.1.4.1.1.2"
	EnhancedCTImageStorage                            = "1.2.840.10008.5.1.4.1.1.2.1"
	UltrasoundMultiFrameImageStorage                  = "1.2.840.10008.5.1.4.1.1.3.1"
	MRImageStorage                                    = "1.2.840.10008.5.1.4.1.1.4"
	EnhancedMRImageStorage                            = "1.2.840.10008.5.1.4.1.1.4.1"
	UltrasoundImageStorage                            = "1.2.840.10008.5.1.4.1.1.6.1"
	SecondaryCaptureImageStorage                      = "1.2.840.10008.5.1.4.1.1.7"
	MultiFrameGrayscaleByteSecondaryCaptureStorage    = "1.2.840.10008.5.1.4.1.1.7.2"
	MultiFrameTrueColorSecondaryCaptureStorage        = "1.2.840.10008.5.1.4.1.1.7.4"
	XRayAngiographicImageStorage                      = "1.2.840.10008.5.1.4.1.1.12.1"
	EnhancedXAImageStorage                            = "1.2.840.10008.5.1.4.1.1.12.1.1"
	XRayRadiofluoroscopicImageStorage                 = "1.2.840.10008.5.1.4.1.1.12.2"
	BreastTomosynthesisImageStorage                   = "1.2.840.10008.5.1.4.1.1.13.1.3"
	NuclearMedicineImageStorage                       = "1.2.840.10008.5.1.4.1.1.20"
	VLEndoscopicImageStorage                          = "1.2.840.10008.5.1.4.1.1.77.1.1"
	VLPhotographicImageStorage                        = "1.2.840.10008.5.1.4.1.1.77.1.4"
	VLWholeSlideMicroscopyImageStorage                = "1.2.840.10008.5.1.4.1.1.77.1.6"
	OphthalmicPhotography8BitImageStorage             = "1.2.840.10008.5.1.4.1.1.77.1.5.1"
	OphthalmicTomographyImageStorage                  = "1.2.840.10008.5.1.4.1.1.77.1.5.4"
	PETImageStorage                                   = "1.2.840.10008.5.1.4.1.1.128"
	EnhancedPETImageStorage                           = "1.2.840.10008.5.1.4.1.1.130"
	RTImageStorage                                    = "1.2.840.10008.5.1.4.1.1.481.1"
	RTDoseStorage                                     = "1.2.840.10008.5.1.4.1.1.481.2"
)

// SOP Class categories
const (
	CategoryStorage          = "Storage"
	CategoryStructuredReport = "Structured Report"
	CategoryKeyObject        = "Key Object Selection"
	CategoryVerification     = "Verification"
	CategoryQueryRetrieve    = "Query/Retrieve"
	CategoryUnknown          = "Unknown"
)

// SOPClassInfo provides human-readable information about a SOP Class UID
type SOPClassInfo struct {
	UID         string
	Name        string
	Category    string
	Modality    string
	IsImage     bool
	MultiFrame  bool
	Description string
}

// Known reports whether the UID was found in the registry.
func (i *SOPClassInfo) Known() bool {
	return i.Category != CategoryUnknown
}

// GetSOPClassInfo returns information about a SOP Class UID
func GetSOPClassInfo(uid string) *SOPClassInfo {
	info, ok := sopClassRegistry[uid]
	if !ok {
		return &SOPClassInfo{
			UID:      uid,
			Name:     "Unknown",
			Category: CategoryUnknown,
		}
	}
	return &info
}

// IsStorageSOPClass returns true if the UID is a storage SOP class, including
// structured reports and key object selection documents
func IsStorageSOPClass(uid string) bool {
	switch GetSOPClassInfo(uid).Category {
	case CategoryStorage, CategoryStructuredReport, CategoryKeyObject:
		return true
	}
	return false
}

// IsMultiFrameSOPClass returns true if instances of the class carry Number of Frames
func IsMultiFrameSOPClass(uid string) bool {
	return GetSOPClassInfo(uid).MultiFrame
}

// IsImageSOPClass returns true if instances of the class are referenced as
// IMAGE content items. Unknown classes are assumed to be images.
func IsImageSOPClass(uid string) bool {
	info := GetSOPClassInfo(uid)
	return info.IsImage || !info.Known()
}

// ModalityForSOPClass returns the modality a SOP class is usually produced by,
// or "OT" if unknown
func ModalityForSOPClass(uid string) string {
	if m := GetSOPClassInfo(uid).Modality; m != "" {
		return m
	}
	return "OT"
}

func image(uid, name, modality string, multiFrame bool) SOPClassInfo {
	info := SOPClassInfo{UID: uid, Name: name, Category: CategoryStorage, Modality: modality, IsImage: true, MultiFrame: multiFrame}
	if multiFrame {
		info.Description = "multi-frame"
	}
	return info
}

func document(uid, name, category, modality string) SOPClassInfo {
	return SOPClassInfo{UID: uid, Name: name, Category: category, Modality: modality}
}

// sopClassRegistry maps SOP Class UIDs to their information
var sopClassRegistry = map[string]SOPClassInfo{
	VerificationSOPClass: document(VerificationSOPClass, "Verification SOP Class", CategoryVerification, ""),

	ComputedRadiographyImageStorage:                   image(ComputedRadiographyImageStorage, "Computed Radiography Image Storage", "CR", false),
	DigitalXRayImageStorageForPresentation:            image(DigitalXRayImageStorageForPresentation, "Digital X-Ray Image Storage - For Presentation", "DX", false),
	DigitalMammographyXRayImageStorageForPresentation: image(DigitalMammographyXRayImageStorageForPresentation, "Digital Mammography X-Ray Image Storage - For Presentation", "MG", false),
	CTImageStorage:                                 image(CTImageStorage, "CT Image Storage", "CT", false),
	EnhancedCTImageStorage:                         image(EnhancedCTImageStorage, "Enhanced CT Image Storage", "CT", true),
	UltrasoundMultiFrameImageStorage:               image(UltrasoundMultiFrameImageStorage, "Ultrasound Multi-frame Image Storage", "US", true),
	MRImageStorage:                                 image(MRImageStorage, "MR Image Storage", "MR", false),
	EnhancedMRImageStorage:                         image(EnhancedMRImageStorage, "Enhanced MR Image Storage", "MR", true),
	UltrasoundImageStorage:                         image(UltrasoundImageStorage, "Ultrasound Image Storage", "US", false),
	SecondaryCaptureImageStorage:                   image(SecondaryCaptureImageStorage, "Secondary Capture Image Storage", "OT", false),
	MultiFrameGrayscaleByteSecondaryCaptureStorage: image(MultiFrameGrayscaleByteSecondaryCaptureStorage, "Multi-frame Grayscale Byte Secondary Capture Image Storage", "OT", true),
	MultiFrameTrueColorSecondaryCaptureStorage:     image(MultiFrameTrueColorSecondaryCaptureStorage, "Multi-frame True Color Secondary Capture Image Storage", "OT", true),
	XRayAngiographicImageStorage:                   image(XRayAngiographicImageStorage, "X-Ray Angiographic Image Storage", "XA", true),
	EnhancedXAImageStorage:                         image(EnhancedXAImageStorage, "Enhanced XA Image Storage", "XA", true),
	XRayRadiofluoroscopicImageStorage:              image(XRayRadiofluoroscopicImageStorage, "X-Ray Radiofluoroscopic Image Storage", "RF", true),
	BreastTomosynthesisImageStorage:                image(BreastTomosynthesisImageStorage, "Breast Tomosynthesis Image Storage", "MG", true),
	NuclearMedicineImageStorage:                    image(NuclearMedicineImageStorage, "Nuclear Medicine Image Storage", "NM", true),
	VLEndoscopicImageStorage:                       image(VLEndoscopicImageStorage, "VL Endoscopic Image Storage", "ES", false),
	VLPhotographicImageStorage:                     image(VLPhotographicImageStorage, "VL Photographic Image Storage", "XC", false),
	VLWholeSlideMicroscopyImageStorage:             image(VLWholeSlideMicroscopyImageStorage, "VL Whole Slide Microscopy Image Storage", "SM", true),
	OphthalmicPhotography8BitImageStorage:          image(OphthalmicPhotography8BitImageStorage, "Ophthalmic Photography 8 Bit Image Storage", "OP", true),
	OphthalmicTomographyImageStorage:               image(OphthalmicTomographyImageStorage, "Ophthalmic Tomography Image Storage", "OPT", true),
	PETImageStorage:                                image(PETImageStorage, "PET Image Storage", "PT", false),
	EnhancedPETImageStorage:                        image(EnhancedPETImageStorage, "Enhanced PET Image Storage", "PT", true),
	RTImageStorage:                                 image(RTImageStorage, "RT Image Storage", "RTIMAGE", true),
	RTDoseStorage:                                  image(RTDoseStorage, "RT Dose Storage", "RTDOSE", true),

	KeyObjectSelectionDocumentStorage: document(KeyObjectSelectionDocumentStorage, "Key Object Selection Document Storage", CategoryKeyObject, "KO"),
	BasicTextSRStorage:                document(BasicTextSRStorage, "Basic Text SR Storage", CategoryStructuredReport, "SR"),
	EnhancedSRStorage:                 document(EnhancedSRStorage, "Enhanced SR Storage", CategoryStructuredReport, "SR"),
	ComprehensiveSRStorage:            document(ComprehensiveSRStorage, "Comprehensive SR Storage", CategoryStructuredReport, "SR"),
	Comprehensive3DSRStorage:          document(Comprehensive3DSRStorage, "Comprehensive 3D SR Storage", CategoryStructuredReport, "SR"),
	MammographyCADSRStorage:           document(MammographyCADSRStorage, "Mammography CAD SR Storage", CategoryStructuredReport, "SR"),
	XRayRadiationDoseSRStorage:        document(XRayRadiationDoseSRStorage, "X-Ray Radiation Dose SR Storage", CategoryStructuredReport, "SR"),
	AcquisitionContextSRStorage:       document(AcquisitionContextSRStorage, "Acquisition Context SR Storage", CategoryStructuredReport, "SR"),
	GrayscaleSoftcopyPSStorage:        document(GrayscaleSoftcopyPSStorage, "Grayscale Softcopy Presentation State Storage", CategoryStorage, "PR"),
	ColorSoftcopyPSStorage:            document(ColorSoftcopyPSStorage, "Color Softcopy Presentation State Storage", CategoryStorage, "PR"),
	SegmentationStorage:               document(SegmentationStorage, "Segmentation Storage", CategoryStorage, "SEG"),
	RawDataStorage:                    document(RawDataStorage, "Raw Data Storage", CategoryStorage, "OT"),
	SpatialRegistrationStorage:        document(SpatialRegistrationStorage, "Spatial Registration Storage", CategoryStorage, "REG"),
	EncapsulatedPDFStorage:            document(EncapsulatedPDFStorage, "Encapsulated PDF Storage", CategoryStorage, "DOC"),
	EncapsulatedCDAStorage:            document(EncapsulatedCDAStorage, "Encapsulated CDA Storage", CategoryStorage, "DOC"),
	RTStructureSetStorage:             document(RTStructureSetStorage, "RT Structure Set Storage", CategoryStorage, "RTSTRUCT"),
	RTPlanStorage:                     document(RTPlanStorage, "RT Plan Storage", CategoryStorage, "RTPLAN"),

	StudyRootQueryRetrieveFind:   document(StudyRootQueryRetrieveFind, "Study Root Query/Retrieve - FIND", CategoryQueryRetrieve, ""),
	StudyRootQueryRetrieveMove:   document(StudyRootQueryRetrieveMove, "Study Root Query/Retrieve - MOVE", CategoryQueryRetrieve, ""),
	PatientRootQueryRetrieveFind: document(PatientRootQueryRetrieveFind, "Patient Root Query/Retrieve - FIND", CategoryQueryRetrieve, ""),
}
