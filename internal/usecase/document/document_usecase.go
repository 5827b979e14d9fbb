package document

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"medvault-api/internal/adapter/storage"
	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/domain/repository"
	"medvault-api/internal/usecase/agent"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	tagUnprocessed     = "unprocessed"
	tagComplianceIssue = "compliance_issue"
	tagProcessingError = "processing_error"
)

var reportDateLayouts = []string{
	"2006-01-02", "01/02/2006", "2006-01-02T15:04:05Z07:00", "January 2, 2006",
}

type DocumentUsecase struct {
	docRepo   repository.DocumentRepository
	blobStore storage.BlobStore
	pipeline  *agent.IngestPipeline
	indexer   *Indexer
	extractor *TextExtractor
	logger    zerolog.Logger
}

func NewDocumentUsecase(
	docRepo repository.DocumentRepository,
	blobStore storage.BlobStore,
	pipeline *agent.IngestPipeline,
	indexer *Indexer,
	logger zerolog.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		docRepo:   docRepo,
		blobStore: blobStore,
		pipeline:  pipeline,
		indexer:   indexer,
		extractor: NewTextExtractor(),
		logger:    logger,
	}
}

// Upload stores the raw file and creates the document record in its
// unprocessed state. Processing happens on a separate request.
func (uc *DocumentUsecase) Upload(
	ctx context.Context,
	filename string,
	fileData []byte,
	mimeType string,
	patientID, patientName, doctorName, notes string,
) (*entity.Document, error) {
	if patientID == "" {
		return nil, apperror.Validation("patient_id is required")
	}
	if len(fileData) == 0 {
		return nil, apperror.Validation("file is empty")
	}

	documentID := uuid.New().String()
	storagePath := fmt.Sprintf("documents/%s%s", documentID, filepath.Ext(filename))

	if err := uc.blobStore.Upload(ctx, storagePath, fileData, mimeType); err != nil {
		return nil, apperror.Upstream("failed to store file", err)
	}

	doc := &entity.Document{
		ID:          documentID,
		Filename:    filename,
		StoragePath: storagePath,
		UploadDate:  time.Now(),
		Processed:   false,
		Tags:        []string{tagUnprocessed},
		Metadata: entity.DocumentMetadata{
			DocumentType: entity.TypeUnprocessed,
			PatientID:    patientID,
			PatientName:  patientName,
			DoctorName:   doctorName,
			Summary:      notes,
		},
	}

	if err := uc.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("document_id", doc.ID).Str("patient_id", patientID).Msg("document uploaded")
	return doc, nil
}

// Process runs the ingest pipeline over a stored document, persists
// whatever the pipeline produced, and re-indexes the document when the
// pipeline completed. Partial results are kept with processed=false
// and an error tag.
func (uc *DocumentUsecase) Process(ctx context.Context, documentID string) (*entity.PipelineResult, *entity.Document, error) {
	doc, err := uc.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, apperror.NotFound("document not found")
	}

	fileData, err := uc.blobStore.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, apperror.Upstream("failed to read stored file", err)
	}

	text, err := uc.extractor.ExtractText(fileData, mimeTypeFor(doc.Filename))
	if err != nil {
		return nil, nil, apperror.Validation(err.Error())
	}

	result := uc.pipeline.Run(ctx, doc.ID, text, doc.Filename)

	meta, tags, processed := uc.applyResult(doc, result)
	doc.Metadata = meta
	doc.Tags = tags
	doc.Processed = processed

	if err := uc.docRepo.UpdateProcessingResult(ctx, doc.ID, meta, tags, processed); err != nil {
		return result, doc, err
	}

	if result.Succeeded() {
		count, err := uc.indexer.Index(ctx, doc.ID, text, IndexMeta{
			DocumentType: meta.DocumentType,
			PatientID:    meta.PatientID,
			Date:         dateString(meta.ReportDate),
		})
		if err != nil {
			// the processed document stands; indexing is retried on the
			// next processing request
			uc.logger.Error().Err(err).Str("document_id", doc.ID).Msg("indexing failed")
			return result, doc, err
		}
		uc.logger.Info().Str("document_id", doc.ID).Int("chunks", count).Msg("document indexed")
	}

	return result, doc, nil
}

// applyResult folds pipeline output into the document metadata and
// tags. Classification already computed survives a later stage failure.
func (uc *DocumentUsecase) applyResult(doc *entity.Document, result *entity.PipelineResult) (entity.DocumentMetadata, []string, bool) {
	meta := doc.Metadata

	if result.Classification != nil {
		meta.DocumentType = result.Classification.DocumentType
		if meta.ReportDate == nil {
			meta.ReportDate = parseReportDate(result.Classification.Date)
		}
	}

	if ex := result.Extraction; ex != nil && !ex.Failed {
		if ex.DoctorName != "" {
			meta.DoctorName = ex.DoctorName
		}
		if ex.Summary != "" {
			meta.Summary = ex.Summary
		}
		if meta.ReportDate == nil {
			meta.ReportDate = parseReportDate(ex.Date)
		}
		meta.MedicalValues = medicalValues(ex)
	}

	tags := []string{string(meta.DocumentType)}
	if result.Compliance != nil && !result.Compliance.Compliant {
		tags = append(tags, tagComplianceIssue)
	}
	if !result.Succeeded() {
		tags = append(tags, tagProcessingError)
	}

	return meta, tags, result.Succeeded()
}

func (uc *DocumentUsecase) GetByID(ctx context.Context, documentID string) (*entity.Document, error) {
	doc, err := uc.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NotFound("document not found")
	}
	return doc, nil
}

func (uc *DocumentUsecase) GetByPatientID(ctx context.Context, patientID string) ([]entity.Document, error) {
	return uc.docRepo.FindByPatientID(ctx, patientID)
}

// Search exposes scoped similarity search over the chunk index.
func (uc *DocumentUsecase) Search(ctx context.Context, query string, scope entity.SearchScope, k int) ([]entity.SimilarChunk, error) {
	return uc.indexer.Search(ctx, query, scope, k)
}

func medicalValues(ex *entity.Extraction) map[string]any {
	values := map[string]any{}
	for k, v := range ex.Generic {
		values[k] = v
	}
	if len(ex.Tests) > 0 {
		values["tests"] = ex.Tests
	}
	if len(ex.Medications) > 0 {
		values["medications"] = ex.Medications
	}
	if ex.Modality != "" {
		values["modality"] = ex.Modality
	}
	if ex.BodyPart != "" {
		values["body_part"] = ex.BodyPart
	}
	if ex.Findings != "" {
		values["findings"] = ex.Findings
	}
	if ex.Impression != "" {
		values["impression"] = ex.Impression
	}
	return values
}

func parseReportDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range reportDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func mimeTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".md":
		return "text/plain"
	default:
		return ""
	}
}
