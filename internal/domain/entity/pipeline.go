package entity

// Classification is the output of the document classification stage.
type Classification struct {
	DocumentType DocumentType `json:"documentType"`
	Confidence   float64      `json:"confidence"`
	Reason       string       `json:"reason,omitempty"`
	PatientID    string       `json:"patientId,omitempty"`
	Date         string       `json:"date,omitempty"`
}

// LabResult is one line of a blood test report.
type LabResult struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"reference_range"`
	Flag           string `json:"flag"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Refills   string `json:"refills"`
}

// Extraction carries the structured output of the extraction stage.
// Exactly one of the typed sections is populated depending on the
// document category; Generic holds the label/value bag for categories
// without a dedicated schema. Failed extractions keep the raw model
// output instead of raising past the boundary.
type Extraction struct {
	DocumentType DocumentType   `json:"documentType"`
	PatientMRN   string         `json:"patientMrn,omitempty"`
	PatientName  string         `json:"patientName,omitempty"`
	DoctorName   string         `json:"doctorName,omitempty"`
	Date         string         `json:"date,omitempty"`
	Tests        []LabResult    `json:"tests,omitempty"`
	Modality     string         `json:"modality,omitempty"`
	BodyPart     string         `json:"bodyPart,omitempty"`
	Findings     string         `json:"findings,omitempty"`
	Impression   string         `json:"impression,omitempty"`
	Medications  []Medication   `json:"medications,omitempty"`
	Generic      map[string]any `json:"generic,omitempty"`
	Summary      string         `json:"summary,omitempty"`

	Failed    bool   `json:"failed,omitempty"`
	RawOutput string `json:"rawOutput,omitempty"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ComplianceResult is the schema-validated output of the compliance
// stage. Booleans come from the structured model response, never from
// scanning its prose.
type ComplianceResult struct {
	Compliant          bool      `json:"compliant"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	ContainsPHI        bool      `json:"containsPhi"`
	RecommendedActions []string  `json:"recommendedActions"`
}

type PipelineStage string

const (
	StageClassified        PipelineStage = "classified"
	StageExtracted         PipelineStage = "extracted"
	StageComplianceChecked PipelineStage = "compliance_checked"
)

// PipelineResult holds whatever the ingest pipeline produced. A stage
// failure aborts the remaining stages but earlier results are kept.
type PipelineResult struct {
	DocumentID     string            `json:"documentId"`
	Filename       string            `json:"filename"`
	Classification *Classification   `json:"classification,omitempty"`
	Extraction     *Extraction       `json:"extraction,omitempty"`
	Compliance     *ComplianceResult `json:"compliance,omitempty"`
	CompletedStage PipelineStage     `json:"completedStage,omitempty"`
	FailedStage    PipelineStage     `json:"failedStage,omitempty"`
	Err            error             `json:"-"`
}

func (r *PipelineResult) Succeeded() bool {
	return r.Err == nil && r.CompletedStage == StageComplianceChecked
}
