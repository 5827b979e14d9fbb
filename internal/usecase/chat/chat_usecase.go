package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/domain/repository"
	"medvault-api/internal/usecase/agent"
	"medvault-api/internal/usecase/document"

	"github.com/rs/zerolog"
)

type ChatUsecase struct {
	chatRepo  repository.ChatRepository
	indexer   *document.Indexer
	assistant *agent.DoctorAssistant
	topK      int
	logger    zerolog.Logger
}

func NewChatUsecase(
	chatRepo repository.ChatRepository,
	indexer *document.Indexer,
	assistant *agent.DoctorAssistant,
	topK int,
	logger zerolog.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		chatRepo:  chatRepo,
		indexer:   indexer,
		assistant: assistant,
		topK:      topK,
		logger:    logger,
	}
}

// CreateSession starts a conversation about one patient. The doctor and
// patient are fixed for the session's lifetime.
func (uc *ChatUsecase) CreateSession(ctx context.Context, doctorID, patientID string) (*entity.ChatSession, error) {
	if doctorID == "" || patientID == "" {
		return nil, apperror.Validation("doctor_id and patient_id are required")
	}

	session := &entity.ChatSession{
		DoctorID:         doctorID,
		PatientID:        patientID,
		Messages:         []entity.ChatMessage{},
		RelatedDocuments: []string{},
	}
	if err := uc.chatRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *ChatUsecase) GetSession(ctx context.Context, sessionID string) (*entity.ChatSession, error) {
	session, err := uc.chatRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("chat session not found")
	}
	return session, nil
}

func (uc *ChatUsecase) GetSessionsByDoctor(ctx context.Context, doctorID string) ([]entity.ChatSession, error) {
	return uc.chatRepo.FindSessionsByDoctorID(ctx, doctorID)
}

// SendMessage appends the doctor's message, asks the assistant with
// retrieved patient context, and appends the reply. When the assistant
// fails, the doctor's message is still persisted and the failure is
// reported inline instead of failing the request.
func (uc *ChatUsecase) SendMessage(ctx context.Context, sessionID, content string) (*entity.ChatMessage, *entity.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, apperror.Validation("message content is required")
	}

	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	userMessage := entity.ChatMessage{
		SessionID: session.ID,
		Role:      entity.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}

	answer, sources, answerErr := uc.AnswerQuery(ctx, content, session.PatientID, session.DoctorID)
	if answerErr != nil {
		if err := uc.chatRepo.AppendMessages(ctx, session.ID, userMessage); err != nil {
			return nil, nil, err
		}
		uc.logger.Error().Err(answerErr).Str("session_id", session.ID).Msg("assistant failed")
		return &userMessage, nil, answerErr
	}

	assistantMessage := entity.ChatMessage{
		SessionID: session.ID,
		Role:      entity.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now(),
	}

	if err := uc.chatRepo.AppendMessages(ctx, session.ID, userMessage, assistantMessage); err != nil {
		return nil, nil, err
	}

	for _, docID := range sourceDocumentIDs(sources) {
		if err := uc.chatRepo.AddRelatedDocument(ctx, session.ID, docID); err != nil {
			uc.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to link related document")
		}
	}

	return &userMessage, &assistantMessage, nil
}

// AnswerQuery retrieves patient context by similarity search, formats
// it into a context block and asks the assistant.
func (uc *ChatUsecase) AnswerQuery(ctx context.Context, query, patientID, doctorID string) (string, []entity.SimilarChunk, error) {
	chunks, err := uc.indexer.Search(ctx, query, entity.PatientScope(patientID), uc.topK)
	if err != nil {
		return "", nil, err
	}

	answer, err := uc.assistant.Answer(ctx, query, FormatContext(chunks))
	if err != nil {
		return "", chunks, err
	}
	return answer, chunks, nil
}

// FormatContext renders retrieved chunks the way the assistant prompt
// expects them: document type and date header, then the chunk content.
func FormatContext(chunks []entity.SimilarChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		var meta entity.ChunkMetadata
		if err := json.Unmarshal(chunk.Metadata, &meta); err != nil {
			meta = entity.ChunkMetadata{DocumentID: chunk.DocumentID}
		}

		docType := string(meta.DocumentType)
		if docType == "" {
			docType = "Unknown"
		}
		date := meta.Date
		if date == "" {
			date = "Unknown date"
		}

		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Document: %s - %s\nContent: %s", docType, date, chunk.Content)
	}
	return b.String()
}

func sourceDocumentIDs(chunks []entity.SimilarChunk) []string {
	seen := map[string]bool{}
	var ids []string
	for _, chunk := range chunks {
		if !seen[chunk.DocumentID] {
			seen[chunk.DocumentID] = true
			ids = append(ids, chunk.DocumentID)
		}
	}
	return ids
}
