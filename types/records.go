package types

// Study is the study-level record returned by the query collaborator.
// Empty fields are absent; the builders apply their own defaults.
type Study struct {
	StudyInstanceUID   string `yaml:"study_instance_uid,omitempty"`
	PatientID          string `yaml:"patient_id,omitempty"`
	PatientName        string `yaml:"patient_name,omitempty"`
	PatientBirthDate   string `yaml:"patient_birth_date,omitempty"`
	PatientSex         string `yaml:"patient_sex,omitempty"`
	IssuerOfPatientID  string `yaml:"issuer_of_patient_id,omitempty"`
	PatientUniversalID string `yaml:"patient_universal_entity_id,omitempty"`
	StudyID            string `yaml:"study_id,omitempty"`
	StudyDate          string `yaml:"study_date,omitempty"`
	StudyTime          string `yaml:"study_time,omitempty"`
	StudyDescription   string `yaml:"study_description,omitempty"`
	AccessionNumber    string `yaml:"accession_number,omitempty"`
	AccessionIssuer    string `yaml:"accession_issuer,omitempty"`
	ReferringPhysician string `yaml:"referring_physician,omitempty"`
	InstitutionName    string `yaml:"institution_name,omitempty"`
	TimezoneOffset     string `yaml:"timezone_offset,omitempty"`
}

// Series is a series-level record.
type Series struct {
	SeriesInstanceUID   string `yaml:"series_instance_uid,omitempty"`
	Modality            string `yaml:"modality,omitempty"`
	SeriesNumber        string `yaml:"series_number,omitempty"`
	SeriesDescription   string `yaml:"series_description,omitempty"`
	SeriesDate          string `yaml:"series_date,omitempty"`
	SeriesTime          string `yaml:"series_time,omitempty"`
	NumberOfInstances   string `yaml:"number_of_instances,omitempty"`
	BodyPartExamined    string `yaml:"body_part_examined,omitempty"`
	RetrieveAETitle     string `yaml:"retrieve_ae_title,omitempty"`
	RetrieveLocationUID string `yaml:"retrieve_location_uid,omitempty"`
	RetrieveURL         string `yaml:"retrieve_url,omitempty"`
}

// Instance is an instance-level record. The geometry and windowing fields
// are only used when extended metadata is requested.
type Instance struct {
	SOPClassUID      string `yaml:"sop_class_uid,omitempty"`
	SOPInstanceUID   string `yaml:"sop_instance_uid,omitempty"`
	InstanceNumber   string `yaml:"instance_number,omitempty"`
	NumberOfFrames   string `yaml:"number_of_frames,omitempty"`
	Rows             string `yaml:"rows,omitempty"`
	Columns          string `yaml:"columns,omitempty"`
	PixelSpacing     string `yaml:"pixel_spacing,omitempty"`
	WindowCenter     string `yaml:"window_center,omitempty"`
	WindowWidth      string `yaml:"window_width,omitempty"`
	RescaleSlope     string `yaml:"rescale_slope,omitempty"`
	RescaleIntercept string `yaml:"rescale_intercept,omitempty"`
}
