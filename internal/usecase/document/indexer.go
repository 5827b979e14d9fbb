package document

import (
	"context"
	"encoding/json"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/domain/repository"

	"github.com/pgvector/pgvector-go"
)

type EmbeddingService interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// Indexer maintains the per-document chunk index and answers
// similarity queries against it. Results below minSimilarity are
// dropped; zero disables the cutoff.
type Indexer struct {
	chunkRepo     repository.ChunkRepository
	embedder      EmbeddingService
	chunker       *Chunker
	minSimilarity float64
}

func NewIndexer(chunkRepo repository.ChunkRepository, embedder EmbeddingService, chunker *Chunker, minSimilarity float64) *Indexer {
	return &Indexer{
		chunkRepo:     chunkRepo,
		embedder:      embedder,
		chunker:       chunker,
		minSimilarity: minSimilarity,
	}
}

// IndexMeta is attached to every chunk of a document; the document id
// is filled in per chunk for provenance.
type IndexMeta struct {
	DocumentType entity.DocumentType
	PatientID    string
	Date         string
}

// Index chunks the text, embeds every chunk and swaps the document's
// chunk set in one transaction. Indexing the same document twice
// replaces the previous index.
func (ix *Indexer) Index(ctx context.Context, documentID, text string, meta IndexMeta) (int, error) {
	textChunks := ix.chunker.ChunkText(text)
	if len(textChunks) == 0 {
		return 0, apperror.Validation("no chunks generated from document text")
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, textChunks)
	if err != nil {
		return 0, err
	}
	if len(embeddings) != len(textChunks) {
		return 0, apperror.Upstream("embedding count does not match chunk count", nil)
	}

	chunks := make([]entity.DocumentChunk, 0, len(textChunks))
	for i, content := range textChunks {
		chunkMeta, err := json.Marshal(entity.ChunkMetadata{
			DocumentID:   documentID,
			ChunkIndex:   i,
			DocumentType: meta.DocumentType,
			PatientID:    meta.PatientID,
			Date:         meta.Date,
		})
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, entity.DocumentChunk{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    content,
			Embedding:  embeddings[i],
			Metadata:   chunkMeta,
		})
	}

	if err := ix.chunkRepo.ReplaceForDocument(ctx, documentID, chunks); err != nil {
		return 0, err
	}

	return len(chunks), nil
}

// Search returns the top-k most similar chunks within the scope, which
// is either one document or the union of one patient's documents.
func (ix *Indexer) Search(ctx context.Context, query string, scope entity.SearchScope, k int) ([]entity.SimilarChunk, error) {
	if scope.DocumentID == "" && scope.PatientID == "" {
		return nil, apperror.Validation("search scope requires a document id or a patient id")
	}
	if k <= 0 {
		return nil, apperror.Validation("search requires k > 0")
	}

	embedding, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := ix.chunkRepo.SearchSimilar(ctx, embedding, scope, k)
	if err != nil {
		return nil, err
	}
	if ix.minSimilarity <= 0 {
		return chunks, nil
	}

	kept := chunks[:0]
	for _, chunk := range chunks {
		if chunk.Similarity >= ix.minSimilarity {
			kept = append(kept, chunk)
		}
	}
	return kept, nil
}
