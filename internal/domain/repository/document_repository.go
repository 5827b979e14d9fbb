package repository

import (
	"context"

	"medvault-api/internal/domain/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	FindByID(ctx context.Context, id string) (*entity.Document, error)
	FindByPatientID(ctx context.Context, patientID string) ([]entity.Document, error)
	// UpdateProcessingResult persists the mutations of the ingest
	// pipeline: metadata, tags and the processed flag.
	UpdateProcessingResult(ctx context.Context, id string, meta entity.DocumentMetadata, tags []string, processed bool) error
}
