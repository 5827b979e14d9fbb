package document

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"testing"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"

	"github.com/pgvector/pgvector-go"
)

// fakeEmbedder maps a handful of clinical keywords onto fixed vector
// components so similarity is deterministic in tests.
type fakeEmbedder struct {
	batchShort bool // return one embedding fewer than requested
	err        error
}

var embedKeywords = []string{"glucose", "radiograph", "amoxicillin"}

func embedText(text string) pgvector.Vector {
	text = strings.ToLower(text)
	v := make([]float32, len(embedKeywords)+1)
	for i, kw := range embedKeywords {
		v[i] = float32(strings.Count(text, kw))
	}
	v[len(embedKeywords)] = 0.1
	return pgvector.NewVector(v)
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (pgvector.Vector, error) {
	if f.err != nil {
		return pgvector.Vector{}, f.err
	}
	return embedText(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([]pgvector.Vector, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]pgvector.Vector, 0, len(texts))
	for _, t := range texts {
		out = append(out, embedText(t))
	}
	if f.batchShort && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// mockChunkRepo keeps chunks per document in memory and resolves the
// patient scope from the chunk metadata, the way the real store joins
// through the documents table.
type mockChunkRepo struct {
	chunks map[string][]entity.DocumentChunk
}

func newMockChunkRepo() *mockChunkRepo {
	return &mockChunkRepo{chunks: make(map[string][]entity.DocumentChunk)}
}

func (m *mockChunkRepo) ReplaceForDocument(_ context.Context, documentID string, chunks []entity.DocumentChunk) error {
	m.chunks[documentID] = append([]entity.DocumentChunk(nil), chunks...)
	return nil
}

func (m *mockChunkRepo) SearchSimilar(_ context.Context, embedding pgvector.Vector, scope entity.SearchScope, topK int) ([]entity.SimilarChunk, error) {
	var results []entity.SimilarChunk
	for docID, chunks := range m.chunks {
		for _, ch := range chunks {
			var meta entity.ChunkMetadata
			if err := json.Unmarshal(ch.Metadata, &meta); err != nil {
				return nil, err
			}
			if scope.DocumentID != "" && docID != scope.DocumentID {
				continue
			}
			if scope.DocumentID == "" && meta.PatientID != scope.PatientID {
				continue
			}
			results = append(results, entity.SimilarChunk{
				DocumentChunk: ch,
				Similarity:    cosine(embedding.Slice(), ch.Embedding.Slice()),
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *mockChunkRepo) CountByDocumentID(_ context.Context, documentID string) (int, error) {
	return len(m.chunks[documentID]), nil
}

func (m *mockChunkRepo) DeleteByDocumentID(_ context.Context, documentID string) error {
	delete(m.chunks, documentID)
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func newTestIndexer(repo *mockChunkRepo) *Indexer {
	return NewIndexer(repo, &fakeEmbedder{}, NewChunker(100, 20), 0)
}

func TestIndexer_IndexStoresChunksWithProvenance(t *testing.T) {
	repo := newMockChunkRepo()
	ix := newTestIndexer(repo)

	text := strings.Repeat("glucose fasting 142 mg/dL measured at clinic. ", 10)
	count, err := ix.Index(context.Background(), "doc-1", text, IndexMeta{
		DocumentType: entity.TypeBloodTest,
		PatientID:    "patient-1",
		Date:         "2023-09-15",
	})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if count < 2 {
		t.Fatalf("count = %d, want multiple chunks", count)
	}
	if len(repo.chunks["doc-1"]) != count {
		t.Errorf("stored %d chunks, reported %d", len(repo.chunks["doc-1"]), count)
	}

	for i, ch := range repo.chunks["doc-1"] {
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, ch.ChunkIndex)
		}
		if ch.DocumentID != "doc-1" {
			t.Errorf("chunk %d has document id %q", i, ch.DocumentID)
		}
		var meta entity.ChunkMetadata
		if err := json.Unmarshal(ch.Metadata, &meta); err != nil {
			t.Fatalf("chunk %d metadata: %v", i, err)
		}
		if meta.DocumentID != "doc-1" || meta.PatientID != "patient-1" {
			t.Errorf("chunk %d metadata = %+v", i, meta)
		}
		if meta.DocumentType != entity.TypeBloodTest || meta.Date != "2023-09-15" {
			t.Errorf("chunk %d metadata = %+v", i, meta)
		}
	}
}

func TestIndexer_ReindexReplacesPreviousChunks(t *testing.T) {
	repo := newMockChunkRepo()
	ix := newTestIndexer(repo)
	ctx := context.Background()
	meta := IndexMeta{DocumentType: entity.TypeOther, PatientID: "patient-1"}

	first, err := ix.Index(ctx, "doc-1", strings.Repeat("long report text with details. ", 20), meta)
	if err != nil {
		t.Fatalf("first Index: %v", err)
	}
	if first < 2 {
		t.Fatalf("first index produced %d chunks, want multiple", first)
	}

	second, err := ix.Index(ctx, "doc-1", "short corrected report", meta)
	if err != nil {
		t.Fatalf("second Index: %v", err)
	}
	if second != 1 {
		t.Errorf("second index count = %d, want 1", second)
	}

	stored := repo.chunks["doc-1"]
	if len(stored) != 1 {
		t.Fatalf("stored %d chunks after re-index, want 1", len(stored))
	}
	if stored[0].Content != "short corrected report" {
		t.Errorf("stored content = %q", stored[0].Content)
	}
}

func TestIndexer_SearchDocumentScope(t *testing.T) {
	repo := newMockChunkRepo()
	ix := newTestIndexer(repo)
	ctx := context.Background()

	mustIndex(t, ix, "doc-1", "fasting glucose was 142 mg/dL", "patient-1")
	mustIndex(t, ix, "doc-2", "chest radiograph shows no acute findings", "patient-1")

	got, err := ix.Search(ctx, "what was the glucose level", entity.DocumentScope("doc-2"), 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, ch := range got {
		if ch.DocumentID != "doc-2" {
			t.Errorf("document scope leaked chunk from %q", ch.DocumentID)
		}
	}
}

func TestIndexer_SearchPatientScopeSpansDocuments(t *testing.T) {
	repo := newMockChunkRepo()
	ix := newTestIndexer(repo)
	ctx := context.Background()

	mustIndex(t, ix, "doc-1", "fasting glucose was 142 mg/dL", "patient-1")
	mustIndex(t, ix, "doc-2", "chest radiograph shows no acute findings", "patient-1")
	mustIndex(t, ix, "doc-3", "fasting glucose was 190 mg/dL", "patient-2")

	got, err := ix.Search(ctx, "glucose result", entity.PatientScope("patient-1"), 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want the 2 chunks of patient-1", len(got))
	}
	if got[0].DocumentID != "doc-1" {
		t.Errorf("best match from %q, want doc-1", got[0].DocumentID)
	}

	seen := map[string]bool{}
	for _, ch := range got {
		seen[ch.DocumentID] = true
		if ch.DocumentID == "doc-3" {
			t.Error("patient scope leaked another patient's chunk")
		}
	}
	if !seen["doc-1"] || !seen["doc-2"] {
		t.Errorf("patient scope did not span both documents: %v", seen)
	}
}

func TestIndexer_SearchAppliesSimilarityThreshold(t *testing.T) {
	repo := newMockChunkRepo()
	ix := NewIndexer(repo, &fakeEmbedder{}, NewChunker(100, 20), 0.5)
	ctx := context.Background()

	mustIndex(t, ix, "doc-1", "fasting glucose was 142 mg/dL", "patient-1")
	mustIndex(t, ix, "doc-2", "chest radiograph shows no acute findings", "patient-1")

	got, err := ix.Search(ctx, "glucose result", entity.PatientScope("patient-1"), 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("results = %d, want only the chunk above the cutoff", len(got))
	}
	if got[0].DocumentID != "doc-1" {
		t.Errorf("kept chunk from %q, want doc-1", got[0].DocumentID)
	}
}

func TestIndexer_SearchValidation(t *testing.T) {
	ix := newTestIndexer(newMockChunkRepo())
	ctx := context.Background()

	if _, err := ix.Search(ctx, "q", entity.SearchScope{}, 5); !apperror.IsValidation(err) {
		t.Errorf("empty scope: err = %v", err)
	}
	if _, err := ix.Search(ctx, "q", entity.DocumentScope("doc-1"), 0); !apperror.IsValidation(err) {
		t.Errorf("k=0: err = %v", err)
	}
}

func TestIndexer_SearchEmbedderFailure(t *testing.T) {
	ix := NewIndexer(newMockChunkRepo(), &fakeEmbedder{err: apperror.Upstream("provider down", nil)}, NewChunker(100, 20), 0)

	if _, err := ix.Search(context.Background(), "q", entity.DocumentScope("doc-1"), 5); !apperror.IsUpstream(err) {
		t.Errorf("err = %v", err)
	}
}

func TestIndexer_IndexEmptyText(t *testing.T) {
	ix := newTestIndexer(newMockChunkRepo())

	if _, err := ix.Index(context.Background(), "doc-1", "   ", IndexMeta{}); !apperror.IsValidation(err) {
		t.Errorf("err = %v", err)
	}
}

func TestIndexer_EmbeddingCountMismatch(t *testing.T) {
	repo := newMockChunkRepo()
	ix := NewIndexer(repo, &fakeEmbedder{batchShort: true}, NewChunker(100, 20), 0)

	text := strings.Repeat("report body text for testing purposes. ", 10)
	if _, err := ix.Index(context.Background(), "doc-1", text, IndexMeta{}); !apperror.IsUpstream(err) {
		t.Errorf("err = %v", err)
	}
	if len(repo.chunks["doc-1"]) != 0 {
		t.Error("chunks were stored despite the embedding mismatch")
	}
}

func mustIndex(t *testing.T, ix *Indexer, docID, text, patientID string) {
	t.Helper()
	if _, err := ix.Index(context.Background(), docID, text, IndexMeta{
		DocumentType: entity.TypeOther,
		PatientID:    patientID,
	}); err != nil {
		t.Fatalf("Index %s: %v", docID, err)
	}
}
