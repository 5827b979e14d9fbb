package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/usecase/agent"

	"github.com/rs/zerolog"
)

type mockDocRepo struct {
	docs map[string]*entity.Document
}

func newMockDocRepo() *mockDocRepo {
	return &mockDocRepo{docs: make(map[string]*entity.Document)}
}

func (m *mockDocRepo) Create(_ context.Context, doc *entity.Document) error {
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *mockDocRepo) FindByID(_ context.Context, id string) (*entity.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (m *mockDocRepo) FindByPatientID(_ context.Context, patientID string) ([]entity.Document, error) {
	var out []entity.Document
	for _, d := range m.docs {
		if d.Metadata.PatientID == patientID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockDocRepo) UpdateProcessingResult(_ context.Context, id string, meta entity.DocumentMetadata, tags []string, processed bool) error {
	doc, ok := m.docs[id]
	if !ok {
		return apperror.NotFound("document not found")
	}
	doc.Metadata = meta
	doc.Tags = tags
	doc.Processed = processed
	return nil
}

type memBlobStore struct {
	objects map[string][]byte

	uploadErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (m *memBlobStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memBlobStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

// scriptedCompletion plays completion responses in call order.
type scriptedCompletion struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedCompletion) Complete(_ context.Context, _, _ string, _ float32) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("scriptedCompletion: no scripted response")
}

type docFixture struct {
	uc        *DocumentUsecase
	docRepo   *mockDocRepo
	blobStore *memBlobStore
	chunkRepo *mockChunkRepo
}

func newDocFixture(llm *scriptedCompletion) *docFixture {
	docRepo := newMockDocRepo()
	blobStore := newMemBlobStore()
	chunkRepo := newMockChunkRepo()
	pipeline := agent.NewIngestPipeline(
		agent.NewClassifier(llm, 4000),
		agent.NewExtractor(llm, 4000),
		agent.NewComplianceChecker(llm, 4000),
		time.Minute,
		zerolog.Nop(),
	)
	indexer := NewIndexer(chunkRepo, &fakeEmbedder{}, NewChunker(1000, 200), 0)
	uc := NewDocumentUsecase(docRepo, blobStore, pipeline, indexer, zerolog.Nop())
	return &docFixture{uc: uc, docRepo: docRepo, blobStore: blobStore, chunkRepo: chunkRepo}
}

const labReportText = "CBC panel for follow-up. Hemoglobin 14.2 g/dL. Glucose 142 mg/dL fasting."

func uploadLabReport(t *testing.T, f *docFixture) *entity.Document {
	t.Helper()
	doc, err := f.uc.Upload(context.Background(), "cbc.txt", []byte(labReportText), "text/plain",
		"patient-1", "John Carter", "Dr. Greene", "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return doc
}

func TestDocumentUsecase_Upload(t *testing.T) {
	f := newDocFixture(&scriptedCompletion{})

	doc := uploadLabReport(t, f)

	if doc.ID == "" {
		t.Error("document has no id")
	}
	if doc.Processed {
		t.Error("fresh upload marked processed")
	}
	if !doc.HasTag("unprocessed") {
		t.Errorf("tags = %v", doc.Tags)
	}
	if doc.Metadata.DocumentType != entity.TypeUnprocessed {
		t.Errorf("document type = %q", doc.Metadata.DocumentType)
	}
	if doc.Metadata.PatientID != "patient-1" || doc.Metadata.PatientName != "John Carter" {
		t.Errorf("metadata = %+v", doc.Metadata)
	}

	stored, ok := f.blobStore.objects[doc.StoragePath]
	if !ok {
		t.Fatalf("no object at %q", doc.StoragePath)
	}
	if string(stored) != labReportText {
		t.Error("stored file does not match the upload")
	}
	if !strings.HasSuffix(doc.StoragePath, ".txt") {
		t.Errorf("storage path = %q", doc.StoragePath)
	}
}

func TestDocumentUsecase_UploadValidation(t *testing.T) {
	f := newDocFixture(&scriptedCompletion{})
	ctx := context.Background()

	if _, err := f.uc.Upload(ctx, "a.txt", []byte("x"), "text/plain", "", "", "", ""); !apperror.IsValidation(err) {
		t.Errorf("missing patient: err = %v", err)
	}
	if _, err := f.uc.Upload(ctx, "a.txt", nil, "text/plain", "patient-1", "", "", ""); !apperror.IsValidation(err) {
		t.Errorf("empty file: err = %v", err)
	}
}

func TestDocumentUsecase_UploadBlobFailure(t *testing.T) {
	f := newDocFixture(&scriptedCompletion{})
	f.blobStore.uploadErr = errors.New("connection refused")

	if _, err := f.uc.Upload(context.Background(), "a.txt", []byte("x"), "text/plain", "patient-1", "", "", ""); !apperror.IsUpstream(err) {
		t.Errorf("err = %v", err)
	}
	if len(f.docRepo.docs) != 0 {
		t.Error("document record created despite failed blob upload")
	}
}

func TestDocumentUsecase_ProcessSuccess(t *testing.T) {
	llm := &scriptedCompletion{responses: []string{
		`{"document_type": "Blood Test Report", "confidence": 0.95, "identified_metadata": {"date": "2023-09-15"}}`,
		`{"tests": [{"name": "Hemoglobin", "value": "14.2", "unit": "g/dL", "reference_range": "13.5-17.5", "flag": "normal"}], "doctor_name": "Dr. Greene", "summary": "Routine CBC, all values normal."}`,
		`{"phi_present": true, "compliance_status": "compliant", "risk_level": "low", "recommended_actions": []}`,
	}}
	f := newDocFixture(llm)
	doc := uploadLabReport(t, f)

	result, updated, err := f.uc.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("pipeline failed: stage %q, err %v", result.FailedStage, result.Err)
	}

	if !updated.Processed {
		t.Error("document not marked processed")
	}
	if updated.Metadata.DocumentType != entity.TypeBloodTest {
		t.Errorf("document type = %q", updated.Metadata.DocumentType)
	}
	if updated.Metadata.ReportDate == nil || updated.Metadata.ReportDate.Format("2006-01-02") != "2023-09-15" {
		t.Errorf("report date = %v", updated.Metadata.ReportDate)
	}
	if updated.Metadata.Summary != "Routine CBC, all values normal." {
		t.Errorf("summary = %q", updated.Metadata.Summary)
	}
	if _, ok := updated.Metadata.MedicalValues["tests"]; !ok {
		t.Errorf("medical values = %v", updated.Metadata.MedicalValues)
	}

	if !updated.HasTag(string(entity.TypeBloodTest)) {
		t.Errorf("tags = %v", updated.Tags)
	}
	if updated.HasTag("unprocessed") || updated.HasTag("compliance_issue") || updated.HasTag("processing_error") {
		t.Errorf("tags = %v", updated.Tags)
	}

	// persisted, not just returned
	stored, _ := f.docRepo.FindByID(context.Background(), doc.ID)
	if !stored.Processed {
		t.Error("processed flag not persisted")
	}

	if len(f.chunkRepo.chunks[doc.ID]) == 0 {
		t.Error("document was not indexed after processing")
	}
}

func TestDocumentUsecase_ProcessComplianceIssueTag(t *testing.T) {
	llm := &scriptedCompletion{responses: []string{
		`{"document_type": "Prescription", "confidence": 0.9}`,
		`{"medications": [{"name": "Amoxicillin", "dosage": "500mg", "frequency": "TID", "duration": "7 days"}]}`,
		`{"phi_present": true, "compliance_status": "non_compliant", "risk_level": "high", "recommended_actions": ["redact patient identifiers"]}`,
	}}
	f := newDocFixture(llm)
	doc := uploadLabReport(t, f)

	result, updated, err := f.uc.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("pipeline failed: %v", result.Err)
	}

	if !updated.HasTag("compliance_issue") {
		t.Errorf("tags = %v", updated.Tags)
	}
	if !updated.Processed {
		t.Error("a compliance issue still counts as processed")
	}
}

func TestDocumentUsecase_ProcessPartialFailure(t *testing.T) {
	llm := &scriptedCompletion{
		responses: []string{`{"document_type": "Radiology Report", "confidence": 0.9}`},
		errs:      []error{nil, apperror.Upstream("rate limited", nil)},
	}
	f := newDocFixture(llm)
	doc := uploadLabReport(t, f)

	result, updated, err := f.uc.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("pipeline should have failed at extraction")
	}

	if updated.Processed {
		t.Error("partially processed document marked processed")
	}
	// classification survives the later failure
	if updated.Metadata.DocumentType != entity.TypeRadiology {
		t.Errorf("document type = %q", updated.Metadata.DocumentType)
	}
	if !updated.HasTag("processing_error") {
		t.Errorf("tags = %v", updated.Tags)
	}

	if len(f.chunkRepo.chunks[doc.ID]) != 0 {
		t.Error("failed document was indexed")
	}
}

func TestDocumentUsecase_ProcessUnknownDocument(t *testing.T) {
	f := newDocFixture(&scriptedCompletion{})

	if _, _, err := f.uc.Process(context.Background(), "missing"); !apperror.IsNotFound(err) {
		t.Errorf("err = %v", err)
	}
}
