package entity

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ChunkMetadata always carries the owning document id so search results
// keep their provenance.
type ChunkMetadata struct {
	DocumentID   string       `json:"documentId"`
	ChunkIndex   int          `json:"chunkIndex"`
	DocumentType DocumentType `json:"documentType"`
	PatientID    string       `json:"patientId"`
	Date         string       `json:"date,omitempty"`
}

type DocumentChunk struct {
	ID         string          `db:"id" json:"id"`
	DocumentID string          `db:"document_id" json:"documentId"`
	ChunkIndex int             `db:"chunk_index" json:"chunkIndex"`
	Content    string          `db:"content" json:"content"`
	Embedding  pgvector.Vector `db:"embedding" json:"-"`
	Metadata   []byte          `db:"metadata" json:"metadata"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

type SimilarChunk struct {
	DocumentChunk
	Similarity float64 `db:"similarity" json:"similarity"`
}

// SearchScope restricts a similarity search to one document or to the
// union of one patient's documents.
type SearchScope struct {
	DocumentID string
	PatientID  string
}

func DocumentScope(documentID string) SearchScope {
	return SearchScope{DocumentID: documentID}
}

func PatientScope(patientID string) SearchScope {
	return SearchScope{PatientID: patientID}
}
