package entity

import "time"

type DocumentType string

const (
	TypeUnprocessed      DocumentType = "unprocessed"
	TypeBloodTest        DocumentType = "Blood Test Report"
	TypeRadiology        DocumentType = "Radiology Report"
	TypeProgressNote     DocumentType = "Doctor Progress Note"
	TypePrescription     DocumentType = "Prescription"
	TypeMedicalHistory   DocumentType = "Medical History"
	TypeDischargeSummary DocumentType = "Discharge Summary"
	TypePathology        DocumentType = "Pathology Report"
	TypeSurgical         DocumentType = "Surgical Report"
	TypeImmunization     DocumentType = "Immunization Record"
	TypeOther            DocumentType = "Other"
)

// KnownTypes is the closed classification set. Classification output is
// always one of these, never a freeform string.
var KnownTypes = []DocumentType{
	TypeBloodTest,
	TypeRadiology,
	TypeProgressNote,
	TypePrescription,
	TypeMedicalHistory,
	TypeDischargeSummary,
	TypePathology,
	TypeSurgical,
	TypeImmunization,
	TypeOther,
}

func ParseDocumentType(s string) (DocumentType, bool) {
	for _, t := range KnownTypes {
		if string(t) == s {
			return t, true
		}
	}
	return TypeOther, false
}

type DocumentMetadata struct {
	DocumentType  DocumentType   `json:"documentType"`
	PatientID     string         `json:"patientId"`
	PatientName   string         `json:"patientName"`
	DoctorName    string         `json:"doctorName,omitempty"`
	ReportDate    *time.Time     `json:"reportDate,omitempty"`
	MedicalValues map[string]any `json:"medicalValues,omitempty"`
	Summary       string         `json:"summary,omitempty"`
}

type Document struct {
	ID          string           `db:"id" json:"id"`
	Filename    string           `db:"filename" json:"filename"`
	StoragePath string           `db:"storage_path" json:"storagePath"`
	UploadDate  time.Time        `db:"upload_date" json:"uploadDate"`
	Processed   bool             `db:"processed" json:"processed"`
	Tags        []string         `db:"-" json:"tags"`
	Metadata    DocumentMetadata `db:"-" json:"metadata"`
}

// HasTag reports whether the document carries the given tag.
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
