package agent

import (
	"context"
	"encoding/json"
	"time"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"

	"github.com/rs/zerolog"
)

// IngestPipeline runs the three document stages strictly in order:
// classify, extract, compliance-check. Each stage's output feeds the
// next one. A stage failure aborts the remaining stages; whatever was
// already produced stays in the result, tagged with the failed stage.
type IngestPipeline struct {
	classifier   *Classifier
	extractor    *Extractor
	compliance   *ComplianceChecker
	stageTimeout time.Duration
	logger       zerolog.Logger
}

func NewIngestPipeline(
	classifier *Classifier,
	extractor *Extractor,
	compliance *ComplianceChecker,
	stageTimeout time.Duration,
	logger zerolog.Logger,
) *IngestPipeline {
	return &IngestPipeline{
		classifier:   classifier,
		extractor:    extractor,
		compliance:   compliance,
		stageTimeout: stageTimeout,
		logger:       logger,
	}
}

func (p *IngestPipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.stageTimeout)
}

// Run executes the pipeline for one document. It always returns a
// result; check FailedStage / Err for partial completion.
func (p *IngestPipeline) Run(ctx context.Context, documentID, text, filename string) *entity.PipelineResult {
	result := &entity.PipelineResult{DocumentID: documentID, Filename: filename}
	log := p.logger.With().Str("document_id", documentID).Logger()

	// stage 1: classify
	stageCtx, cancel := p.stageContext(ctx)
	classification, err := p.classifier.Classify(stageCtx, text)
	cancel()
	if err != nil && classification == nil {
		result.FailedStage = entity.StageClassified
		result.Err = apperror.WithStage(string(entity.StageClassified), err)
		log.Error().Err(err).Msg("classification stage failed")
		return result
	}
	if err != nil {
		// parse fallback: category is Other with low confidence, which
		// is a defined outcome, not a stage failure
		log.Warn().Err(err).Msg("classification fell back to Other")
	}
	result.Classification = classification
	result.CompletedStage = entity.StageClassified
	log.Info().Str("document_type", string(classification.DocumentType)).
		Float64("confidence", classification.Confidence).Msg("document classified")

	// stage 2: extract, schema chosen by the classification
	stageCtx, cancel = p.stageContext(ctx)
	extraction, err := p.extractor.Extract(stageCtx, text, classification.DocumentType)
	cancel()
	if err != nil {
		result.FailedStage = entity.StageExtracted
		result.Err = apperror.WithStage(string(entity.StageExtracted), err)
		log.Error().Err(err).Msg("extraction stage failed")
		return result
	}
	result.Extraction = extraction
	result.CompletedStage = entity.StageExtracted
	if extraction.Failed {
		log.Warn().Msg("extraction returned unstructured output")
	}

	// stage 3: compliance review of the extracted data
	reviewText := text
	if !extraction.Failed {
		if encoded, err := json.Marshal(extraction); err == nil {
			reviewText = string(encoded)
		}
	}
	stageCtx, cancel = p.stageContext(ctx)
	compliance, err := p.compliance.Check(stageCtx, reviewText)
	cancel()
	if err != nil {
		result.FailedStage = entity.StageComplianceChecked
		result.Err = apperror.WithStage(string(entity.StageComplianceChecked), err)
		log.Error().Err(err).Msg("compliance stage failed")
		return result
	}
	result.Compliance = compliance
	result.CompletedStage = entity.StageComplianceChecked
	log.Info().Bool("compliant", compliance.Compliant).
		Bool("contains_phi", compliance.ContainsPHI).Msg("compliance check finished")

	return result
}
