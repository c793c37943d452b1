package types

// DICOM Transfer Syntax UIDs as defined in DICOM Part 5, Section 8 and Part 6, Annex A.4
// https://dicom.nema.org/medical/dicom/current/output/chtml/part05/chapter_8.html

// Uncompressed Transfer Syntaxes
const (
	// ImplicitVRLittleEndian - Default Transfer Syntax for DICOM
	ImplicitVRLittleEndian = "1.2.840.10008.1.2"

	// ExplicitVRLittleEndian - Explicit VR with little endian byte ordering
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

	// ExplicitVRBigEndian - Explicit VR with big endian byte ordering (retired)
	ExplicitVRBigEndian = "1.2.840.10008.1.2.2"

	// DeflatedExplicitVRLittleEndian - Deflate compression with explicit VR
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
)

// Compressed Transfer Syntaxes
const (
	JPEGBaseline8Bit   = "1.2.840.10008.1.2.4.50"
	JPEGExtended12Bit  = "1.2.840.10008.1.2.4.51"
	JPEGLossless       = "1.2.840.10008.1.2.4.57"
	JPEGLosslessSV1    = "1.2.840.10008.1.2.4.70"
	JPEGLSLossless     = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossless = "1.2.840.10008.1.2.4.81"
	JPEG2000Lossless   = "1.2.840.10008.1.2.4.90"
	JPEG2000           = "1.2.840.10008.1.2.4.91"
	JPIPReferenced     = "1.2.840.10008.1.2.4.94"
	MPEG2MainProfile   = "1.2.840.10008.1.2.4.100"
	MPEG4AVCH264High   = "1.2.840.10008.1.2.4.102"
	HEVCH265Main       = "1.2.840.10008.1.2.4.107"
	HTJ2KLossless      = "1.2.840.10008.1.2.4.201"
	HTJ2K              = "1.2.840.10008.1.2.4.203"
	RLELossless        = "1.2.840.10008.1.2.5"
)

// TransferSyntaxInfo provides metadata about a transfer syntax
type TransferSyntaxInfo struct {
	UID          string
	Name         string
	IsCompressed bool
	IsLossless   bool
	IsRetired    bool
}

// GetTransferSyntaxInfo returns information about a transfer syntax UID
func GetTransferSyntaxInfo(uid string) *TransferSyntaxInfo {
	info, ok := transferSyntaxRegistry[uid]
	if !ok {
		return &TransferSyntaxInfo{
			UID:        uid,
			Name:       "Unknown",
			IsLossless: true,
		}
	}
	return &info
}

// IsTransferSyntax returns true if the UID names a registered transfer syntax
func IsTransferSyntax(uid string) bool {
	_, ok := transferSyntaxRegistry[uid]
	return ok
}

// IsCompressed returns true if the transfer syntax uses compression
func IsCompressed(uid string) bool {
	return GetTransferSyntaxInfo(uid).IsCompressed
}

// IsRetired returns true if the transfer syntax is retired
func IsRetired(uid string) bool {
	return GetTransferSyntaxInfo(uid).IsRetired
}

func uncompressed(uid, name string, retired bool) TransferSyntaxInfo {
	return TransferSyntaxInfo{UID: uid, Name: name, IsLossless: true, IsRetired: retired}
}

func compressed(uid, name string, lossless bool) TransferSyntaxInfo {
	return TransferSyntaxInfo{UID: uid, Name: name, IsCompressed: true, IsLossless: lossless}
}

// transferSyntaxRegistry maps transfer syntax UIDs to their information
var transferSyntaxRegistry = map[string]TransferSyntaxInfo{
	ImplicitVRLittleEndian:         uncompressed(ImplicitVRLittleEndian, "Implicit VR Little Endian", false),
	ExplicitVRLittleEndian:         uncompressed(ExplicitVRLittleEndian, "Explicit VR Little Endian", false),
	ExplicitVRBigEndian:            uncompressed(ExplicitVRBigEndian, "Explicit VR Big Endian", true),
	DeflatedExplicitVRLittleEndian: compressed(DeflatedExplicitVRLittleEndian, "Deflated Explicit VR Little Endian", true),

	JPEGBaseline8Bit:   compressed(JPEGBaseline8Bit, "JPEG Baseline (Process 1)", false),
	JPEGExtended12Bit:  compressed(JPEGExtended12Bit, "JPEG Extended (Process 2 & 4)", false),
	JPEGLossless:       compressed(JPEGLossless, "JPEG Lossless (Process 14)", true),
	JPEGLosslessSV1:    compressed(JPEGLosslessSV1, "JPEG Lossless, Non-Hierarchical, First-Order Prediction", true),
	JPEGLSLossless:     compressed(JPEGLSLossless, "JPEG-LS Lossless", true),
	JPEGLSNearLossless: compressed(JPEGLSNearLossless, "JPEG-LS Near-Lossless", false),
	JPEG2000Lossless:   compressed(JPEG2000Lossless, "JPEG 2000 Lossless Only", true),
	JPEG2000:           compressed(JPEG2000, "JPEG 2000", false),
	JPIPReferenced:     compressed(JPIPReferenced, "JPIP Referenced", false),
	MPEG2MainProfile:   compressed(MPEG2MainProfile, "MPEG2 Main Profile @ Main Level", false),
	MPEG4AVCH264High:   compressed(MPEG4AVCH264High, "MPEG-4 AVC/H.264 High Profile / Level 4.1", false),
	HEVCH265Main:       compressed(HEVCH265Main, "HEVC/H.265 Main Profile / Level 5.1", false),
	HTJ2KLossless:      compressed(HTJ2KLossless, "High-Throughput JPEG 2000 Lossless Only", true),
	HTJ2K:              compressed(HTJ2K, "High-Throughput JPEG 2000", false),
	RLELossless:        compressed(RLELossless, "RLE Lossless", true),
}
