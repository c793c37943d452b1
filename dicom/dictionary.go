package dicom

// Attribute tags used by manifest documents. Only the subset of the DICOM
// data dictionary that the builders and the validator touch is listed here.
var (
	// File Meta Information
	TagFileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	TagFileMetaInformationVersion     = Tag{0x0002, 0x0001}
	TagMediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	TagMediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TagTransferSyntaxUID              = Tag{0x0002, 0x0010}
	TagImplementationClassUID         = Tag{0x0002, 0x0012}
	TagImplementationVersionName      = Tag{0x0002, 0x0013}

	// SOP Common
	TagSpecificCharacterSet  = Tag{0x0008, 0x0005}
	TagInstanceCreationDate  = Tag{0x0008, 0x0012}
	TagInstanceCreationTime  = Tag{0x0008, 0x0013}
	TagSOPClassUID           = Tag{0x0008, 0x0016}
	TagSOPInstanceUID        = Tag{0x0008, 0x0018}
	TagTimezoneOffsetFromUTC = Tag{0x0008, 0x0201}

	// Study / Series / Equipment
	TagStudyDate                        = Tag{0x0008, 0x0020}
	TagSeriesDate                       = Tag{0x0008, 0x0021}
	TagContentDate                      = Tag{0x0008, 0x0023}
	TagStudyTime                        = Tag{0x0008, 0x0030}
	TagSeriesTime                       = Tag{0x0008, 0x0031}
	TagContentTime                      = Tag{0x0008, 0x0033}
	TagAccessionNumber                  = Tag{0x0008, 0x0050}
	TagIssuerOfAccessionNumberSequence  = Tag{0x0008, 0x0051}
	TagRetrieveAETitle                  = Tag{0x0008, 0x0054}
	TagModality                         = Tag{0x0008, 0x0060}
	TagManufacturer                     = Tag{0x0008, 0x0070}
	TagInstitutionName                  = Tag{0x0008, 0x0080}
	TagReferringPhysicianName           = Tag{0x0008, 0x0090}
	TagCodeValue                        = Tag{0x0008, 0x0100}
	TagCodingSchemeDesignator           = Tag{0x0008, 0x0102}
	TagCodeMeaning                      = Tag{0x0008, 0x0104}
	TagMappingResource                  = Tag{0x0008, 0x0105}
	TagStudyDescription                 = Tag{0x0008, 0x1030}
	TagSeriesDescription                = Tag{0x0008, 0x103E}
	TagManufacturerModelName            = Tag{0x0008, 0x1090}
	TagReferencedPerformedProcedureStep = Tag{0x0008, 0x1111}
	TagReferencedSeriesSequence         = Tag{0x0008, 0x1115}
	TagReferencedSOPClassUID            = Tag{0x0008, 0x1150}
	TagReferencedSOPInstanceUID         = Tag{0x0008, 0x1155}
	TagReferencedFrameNumber            = Tag{0x0008, 0x1160}
	TagRetrieveURL                      = Tag{0x0008, 0x1190}
	TagReferencedSOPSequence            = Tag{0x0008, 0x1199}

	// Patient
	TagPatientName                         = Tag{0x0010, 0x0010}
	TagPatientID                           = Tag{0x0010, 0x0020}
	TagIssuerOfPatientID                   = Tag{0x0010, 0x0021}
	TagIssuerOfPatientIDQualifiersSequence = Tag{0x0010, 0x0024}
	TagPatientBirthDate                    = Tag{0x0010, 0x0030}
	TagPatientSex                          = Tag{0x0010, 0x0040}

	TagBodyPartExamined = Tag{0x0018, 0x0015}
	TagSoftwareVersions = Tag{0x0018, 0x1020}

	TagStudyInstanceUID               = Tag{0x0020, 0x000D}
	TagSeriesInstanceUID              = Tag{0x0020, 0x000E}
	TagStudyID                        = Tag{0x0020, 0x0010}
	TagSeriesNumber                   = Tag{0x0020, 0x0011}
	TagInstanceNumber                 = Tag{0x0020, 0x0013}
	TagNumberOfSeriesRelatedInstances = Tag{0x0020, 0x1209}

	// Image Pixel (forbidden at the top level of a manifest)
	TagSamplesPerPixel           = Tag{0x0028, 0x0002}
	TagPhotometricInterpretation = Tag{0x0028, 0x0004}
	TagNumberOfFrames            = Tag{0x0028, 0x0008}
	TagRows                      = Tag{0x0028, 0x0010}
	TagColumns                   = Tag{0x0028, 0x0011}
	TagPixelSpacing              = Tag{0x0028, 0x0030}
	TagBitsAllocated             = Tag{0x0028, 0x0100}
	TagWindowCenter              = Tag{0x0028, 0x1050}
	TagWindowWidth               = Tag{0x0028, 0x1051}
	TagRescaleIntercept          = Tag{0x0028, 0x1052}
	TagRescaleSlope              = Tag{0x0028, 0x1053}

	// Issuer qualifiers
	TagLocalNamespaceEntityID = Tag{0x0040, 0x0031}
	TagUniversalEntityID      = Tag{0x0040, 0x0032}
	TagUniversalEntityIDType  = Tag{0x0040, 0x0033}

	TagMeasurementUnitsCodeSequence = Tag{0x0040, 0x08EA}

	// SR Document
	TagRelationshipType                     = Tag{0x0040, 0xA010}
	TagVerificationDateTime                 = Tag{0x0040, 0xA030}
	TagValueType                            = Tag{0x0040, 0xA040}
	TagConceptNameCodeSequence              = Tag{0x0040, 0xA043}
	TagContinuityOfContent                  = Tag{0x0040, 0xA050}
	TagVerifyingObserverSequence            = Tag{0x0040, 0xA073}
	TagVerifyingObserverName                = Tag{0x0040, 0xA075}
	TagVerifyingOrganization                = Tag{0x0040, 0xA027}
	TagUID                                  = Tag{0x0040, 0xA124}
	TagTextValue                            = Tag{0x0040, 0xA160}
	TagConceptCodeSequence                  = Tag{0x0040, 0xA168}
	TagMeasuredValueSequence                = Tag{0x0040, 0xA300}
	TagNumericValue                         = Tag{0x0040, 0xA30A}
	TagReferencedRequestSequence            = Tag{0x0040, 0xA370}
	TagCurrentRequestedProcedureEvidenceSeq = Tag{0x0040, 0xA375}
	TagVerificationFlag                     = Tag{0x0040, 0xA493}
	TagContentTemplateSequence              = Tag{0x0040, 0xA504}
	TagIdenticalDocumentsSequence           = Tag{0x0040, 0xA525}
	TagContentSequence                      = Tag{0x0040, 0xA730}
	TagTemplateIdentifier                   = Tag{0x0040, 0xDB00}
	TagRetrieveLocationUID                  = Tag{0x0040, 0xE011}
	TagMACIDNumber                          = Tag{0x0400, 0x0005}
	TagMACCalculationTransferSyntaxUID      = Tag{0x0400, 0x0010}
	TagMACAlgorithm                         = Tag{0x0400, 0x0015}
	TagDataElementsSigned                   = Tag{0x0400, 0x0020}
	TagDigitalSignatureUID                  = Tag{0x0400, 0x0100}
	TagDigitalSignatureDateTime             = Tag{0x0400, 0x0105}
	TagCertificateType                      = Tag{0x0400, 0x0110}
	TagCertificateOfSigner                  = Tag{0x0400, 0x0115}
	TagSignature                            = Tag{0x0400, 0x0120}
	TagMACParametersSequence                = Tag{0x4FFE, 0x0001}
	TagPixelData                            = Tag{0x7FE0, 0x0010}
	TagDigitalSignaturesSequence            = Tag{0xFFFA, 0xFFFA}

	// Item delimitation
	TagItem                     = Tag{0xFFFE, 0xE000}
	TagItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	TagSequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)

type dictEntry struct {
	keyword string
	vr      string
}

var dictionary = map[Tag]dictEntry{
	TagFileMetaInformationGroupLength: {"FileMetaInformationGroupLength", VR_UL},
	TagFileMetaInformationVersion:     {"FileMetaInformationVersion", VR_OB},
	TagMediaStorageSOPClassUID:        {"MediaStorageSOPClassUID", VR_UI},
	TagMediaStorageSOPInstanceUID:     {"MediaStorageSOPInstanceUID", VR_UI},
	TagTransferSyntaxUID:              {"TransferSyntaxUID", VR_UI},
	TagImplementationClassUID:         {"ImplementationClassUID", VR_UI},
	TagImplementationVersionName:      {"ImplementationVersionName", VR_SH},

	TagSpecificCharacterSet:  {"SpecificCharacterSet", VR_CS},
	TagInstanceCreationDate:  {"InstanceCreationDate", VR_DA},
	TagInstanceCreationTime:  {"InstanceCreationTime", VR_TM},
	TagSOPClassUID:           {"SOPClassUID", VR_UI},
	TagSOPInstanceUID:        {"SOPInstanceUID", VR_UI},
	TagTimezoneOffsetFromUTC: {"TimezoneOffsetFromUTC", VR_SH},

	TagStudyDate:                        {"StudyDate", VR_DA},
	TagSeriesDate:                       {"SeriesDate", VR_DA},
	TagContentDate:                      {"ContentDate", VR_DA},
	TagStudyTime:                        {"StudyTime", VR_TM},
	TagSeriesTime:                       {"SeriesTime", VR_TM},
	TagContentTime:                      {"ContentTime", VR_TM},
	TagAccessionNumber:                  {"AccessionNumber", VR_SH},
	TagIssuerOfAccessionNumberSequence:  {"IssuerOfAccessionNumberSequence", VR_SQ},
	TagRetrieveAETitle:                  {"RetrieveAETitle", VR_AE},
	TagModality:                         {"Modality", VR_CS},
	TagManufacturer:                     {"Manufacturer", VR_LO},
	TagInstitutionName:                  {"InstitutionName", VR_LO},
	TagReferringPhysicianName:           {"ReferringPhysicianName", VR_PN},
	TagCodeValue:                        {"CodeValue", VR_SH},
	TagCodingSchemeDesignator:           {"CodingSchemeDesignator", VR_SH},
	TagCodeMeaning:                      {"CodeMeaning", VR_LO},
	TagMappingResource:                  {"MappingResource", VR_CS},
	TagStudyDescription:                 {"StudyDescription", VR_LO},
	TagSeriesDescription:                {"SeriesDescription", VR_LO},
	TagManufacturerModelName:            {"ManufacturerModelName", VR_LO},
	TagReferencedPerformedProcedureStep: {"ReferencedPerformedProcedureStepSequence", VR_SQ},
	TagReferencedSeriesSequence:         {"ReferencedSeriesSequence", VR_SQ},
	TagReferencedSOPClassUID:            {"ReferencedSOPClassUID", VR_UI},
	TagReferencedSOPInstanceUID:         {"ReferencedSOPInstanceUID", VR_UI},
	TagReferencedFrameNumber:            {"ReferencedFrameNumber", VR_IS},
	TagRetrieveURL:                      {"RetrieveURL", VR_UR},
	TagReferencedSOPSequence:            {"ReferencedSOPSequence", VR_SQ},

	TagPatientName:                         {"PatientName", VR_PN},
	TagPatientID:                           {"PatientID", VR_LO},
	TagIssuerOfPatientID:                   {"IssuerOfPatientID", VR_LO},
	TagIssuerOfPatientIDQualifiersSequence: {"IssuerOfPatientIDQualifiersSequence", VR_SQ},
	TagPatientBirthDate:                    {"PatientBirthDate", VR_DA},
	TagPatientSex:                          {"PatientSex", VR_CS},

	TagBodyPartExamined: {"BodyPartExamined", VR_CS},
	TagSoftwareVersions: {"SoftwareVersions", VR_LO},

	TagStudyInstanceUID:               {"StudyInstanceUID", VR_UI},
	TagSeriesInstanceUID:              {"SeriesInstanceUID", VR_UI},
	TagStudyID:                        {"StudyID", VR_SH},
	TagSeriesNumber:                   {"SeriesNumber", VR_IS},
	TagInstanceNumber:                 {"InstanceNumber", VR_IS},
	TagNumberOfSeriesRelatedInstances: {"NumberOfSeriesRelatedInstances", VR_IS},

	TagSamplesPerPixel:           {"SamplesPerPixel", VR_US},
	TagPhotometricInterpretation: {"PhotometricInterpretation", VR_CS},
	TagNumberOfFrames:            {"NumberOfFrames", VR_IS},
	TagRows:                      {"Rows", VR_US},
	TagColumns:                   {"Columns", VR_US},
	TagPixelSpacing:              {"PixelSpacing", VR_DS},
	TagBitsAllocated:             {"BitsAllocated", VR_US},
	TagWindowCenter:              {"WindowCenter", VR_DS},
	TagWindowWidth:               {"WindowWidth", VR_DS},
	TagRescaleIntercept:          {"RescaleIntercept", VR_DS},
	TagRescaleSlope:              {"RescaleSlope", VR_DS},

	TagLocalNamespaceEntityID: {"LocalNamespaceEntityID", VR_UT},
	TagUniversalEntityID:      {"UniversalEntityID", VR_UT},
	TagUniversalEntityIDType:  {"UniversalEntityIDType", VR_CS},

	TagMeasurementUnitsCodeSequence: {"MeasurementUnitsCodeSequence", VR_SQ},

	TagRelationshipType:                     {"RelationshipType", VR_CS},
	TagVerificationDateTime:                 {"VerificationDateTime", VR_DT},
	TagValueType:                            {"ValueType", VR_CS},
	TagConceptNameCodeSequence:              {"ConceptNameCodeSequence", VR_SQ},
	TagContinuityOfContent:                  {"ContinuityOfContent", VR_CS},
	TagVerifyingObserverSequence:            {"VerifyingObserverSequence", VR_SQ},
	TagVerifyingObserverName:                {"VerifyingObserverName", VR_PN},
	TagVerifyingOrganization:                {"VerifyingOrganization", VR_LO},
	TagUID:                                  {"UID", VR_UI},
	TagTextValue:                            {"TextValue", VR_UT},
	TagConceptCodeSequence:                  {"ConceptCodeSequence", VR_SQ},
	TagMeasuredValueSequence:                {"MeasuredValueSequence", VR_SQ},
	TagNumericValue:                         {"NumericValue", VR_DS},
	TagReferencedRequestSequence:            {"ReferencedRequestSequence", VR_SQ},
	TagCurrentRequestedProcedureEvidenceSeq: {"CurrentRequestedProcedureEvidenceSequence", VR_SQ},
	TagVerificationFlag:                     {"VerificationFlag", VR_CS},
	TagContentTemplateSequence:              {"ContentTemplateSequence", VR_SQ},
	TagIdenticalDocumentsSequence:           {"IdenticalDocumentsSequence", VR_SQ},
	TagContentSequence:                      {"ContentSequence", VR_SQ},
	TagTemplateIdentifier:                   {"TemplateIdentifier", VR_CS},
	TagRetrieveLocationUID:                  {"RetrieveLocationUID", VR_UI},
	TagMACIDNumber:                          {"MACIDNumber", VR_US},
	TagMACCalculationTransferSyntaxUID:      {"MACCalculationTransferSyntaxUID", VR_UI},
	TagMACAlgorithm:                         {"MACAlgorithm", VR_CS},
	TagDataElementsSigned:                   {"DataElementsSigned", VR_AT},
	TagDigitalSignatureUID:                  {"DigitalSignatureUID", VR_UI},
	TagDigitalSignatureDateTime:             {"DigitalSignatureDateTime", VR_DT},
	TagCertificateType:                      {"CertificateType", VR_CS},
	TagCertificateOfSigner:                  {"CertificateOfSigner", VR_OB},
	TagSignature:                            {"Signature", VR_OB},
	TagMACParametersSequence:                {"MACParametersSequence", VR_SQ},
	TagPixelData:                            {"PixelData", VR_OW},
	TagDigitalSignaturesSequence:            {"DigitalSignaturesSequence", VR_SQ},
}

// Keyword returns the dictionary keyword for a tag. Tags outside the
// dictionary are rendered in (gggg,eeee) form.
func Keyword(tag Tag) string {
	if e, ok := dictionary[tag]; ok {
		return e.keyword
	}
	return tag.String()
}

// LookupVR returns the dictionary VR for a tag and whether the tag is known.
func LookupVR(tag Tag) (string, bool) {
	e, ok := dictionary[tag]
	if !ok {
		return VR_UN, false
	}
	return e.vr, true
}

// determineVR determines the VR of an implicitly encoded element.
func determineVR(tag Tag) string {
	if tag.IsPrivateCreator() {
		return VR_LO
	}
	if tag.Element == 0x0000 {
		return VR_UL
	}
	vr, _ := LookupVR(tag)
	return vr
}
