package dto

import (
	"encoding/json"
	"time"

	"medvault-api/internal/domain/entity"
)

type UploadDocumentResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

type DocumentInfo struct {
	ID         string                  `json:"id"`
	Filename   string                  `json:"filename"`
	UploadDate time.Time               `json:"uploadDate"`
	Processed  bool                    `json:"processed"`
	Tags       []string                `json:"tags"`
	Metadata   entity.DocumentMetadata `json:"metadata"`
}

func NewDocumentInfo(doc *entity.Document) DocumentInfo {
	return DocumentInfo{
		ID:         doc.ID,
		Filename:   doc.Filename,
		UploadDate: doc.UploadDate,
		Processed:  doc.Processed,
		Tags:       doc.Tags,
		Metadata:   doc.Metadata,
	}
}

type PatientDocumentsResponse struct {
	PatientID     string         `json:"patientId"`
	DocumentCount int            `json:"documentCount"`
	Documents     []DocumentInfo `json:"documents"`
}

type SearchResultItem struct {
	DocumentID string          `json:"documentId"`
	ChunkIndex int             `json:"chunkIndex"`
	Content    string          `json:"content"`
	Similarity float64         `json:"similarity"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

func NewSearchResultItem(chunk *entity.SimilarChunk) SearchResultItem {
	return SearchResultItem{
		DocumentID: chunk.DocumentID,
		ChunkIndex: chunk.ChunkIndex,
		Content:    chunk.Content,
		Similarity: chunk.Similarity,
		Metadata:   json.RawMessage(chunk.Metadata),
	}
}

type SearchDocumentsResponse struct {
	Query       string             `json:"query"`
	ResultCount int                `json:"resultCount"`
	Results     []SearchResultItem `json:"results"`
}

type ProcessDocumentResponse struct {
	Message        string                   `json:"message"`
	DocumentID     string                   `json:"documentId"`
	DocumentType   string                   `json:"documentType"`
	Tags           []string                 `json:"tags"`
	Processed      bool                     `json:"processed"`
	CompletedStage string                   `json:"completedStage,omitempty"`
	FailedStage    string                   `json:"failedStage,omitempty"`
	Error          string                   `json:"error,omitempty"`
	Classification *entity.Classification   `json:"classification,omitempty"`
	Extraction     *entity.Extraction       `json:"extraction,omitempty"`
	Compliance     *entity.ComplianceResult `json:"compliance,omitempty"`
}
