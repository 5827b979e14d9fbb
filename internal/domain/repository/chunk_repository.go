package repository

import (
	"context"

	"medvault-api/internal/domain/entity"

	"github.com/pgvector/pgvector-go"
)

type ChunkRepository interface {
	// ReplaceForDocument swaps the full chunk set of a document in one
	// transaction. Re-indexing replaces, never duplicates, and a
	// concurrent search never observes a partially written set.
	ReplaceForDocument(ctx context.Context, documentID string, chunks []entity.DocumentChunk) error
	SearchSimilar(ctx context.Context, embedding pgvector.Vector, scope entity.SearchScope, topK int) ([]entity.SimilarChunk, error)
	CountByDocumentID(ctx context.Context, documentID string) (int, error)
	DeleteByDocumentID(ctx context.Context, documentID string) error
}
