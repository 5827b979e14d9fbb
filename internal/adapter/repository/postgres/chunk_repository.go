package postgres

import (
	"context"
	"time"

	"medvault-api/internal/domain/entity"
	"medvault-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

type chunkRepository struct {
	db *sqlx.DB
}

func NewChunkRepository(db *sqlx.DB) repository.ChunkRepository {
	return &chunkRepository{db: db}
}

// ReplaceForDocument deletes the old chunk set and inserts the new one
// in a single transaction, so re-indexing is idempotent and readers
// never see a half-written index.
func (r *chunkRepository) ReplaceForDocument(ctx context.Context, documentID string, chunks []entity.DocumentChunk) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	query := `
		INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range chunks {
		chunks[i].ID = uuid.New().String()
		chunks[i].CreatedAt = time.Now()

		_, err := tx.ExecContext(ctx, query,
			chunks[i].ID,
			chunks[i].DocumentID,
			chunks[i].ChunkIndex,
			chunks[i].Content,
			chunks[i].Embedding,
			chunks[i].Metadata,
			chunks[i].CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SearchSimilar runs a cosine nearest-neighbor query restricted to one
// document or to the union of one patient's documents. The patient
// scope joins through the documents table, so every indexed document of
// that patient contributes candidates.
func (r *chunkRepository) SearchSimilar(ctx context.Context, embedding pgvector.Vector, scope entity.SearchScope, topK int) ([]entity.SimilarChunk, error) {
	var (
		query string
		arg   string
	)
	switch {
	case scope.DocumentID != "":
		query = `
			SELECT dc.id, dc.document_id, dc.chunk_index, dc.content, dc.metadata, dc.created_at,
			       1 - (dc.embedding <=> $1) AS similarity
			FROM document_chunks dc
			WHERE dc.document_id = $2
			ORDER BY dc.embedding <=> $1
			LIMIT $3
		`
		arg = scope.DocumentID
	default:
		query = `
			SELECT dc.id, dc.document_id, dc.chunk_index, dc.content, dc.metadata, dc.created_at,
			       1 - (dc.embedding <=> $1) AS similarity
			FROM document_chunks dc
			INNER JOIN documents d ON dc.document_id = d.id
			WHERE d.patient_id = $2
			ORDER BY dc.embedding <=> $1
			LIMIT $3
		`
		arg = scope.PatientID
	}

	rows, err := r.db.QueryContext(ctx, query, embedding, arg, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []entity.SimilarChunk
	for rows.Next() {
		var chunk entity.SimilarChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

func (r *chunkRepository) CountByDocumentID(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`, documentID)
	return count, err
}

func (r *chunkRepository) DeleteByDocumentID(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}
