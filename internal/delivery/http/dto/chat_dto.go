package dto

import (
	"time"

	"medvault-api/internal/domain/entity"
)

type CreateSessionRequest struct {
	PatientID string `json:"patientId"`
}

type CreateSessionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type ChatMessageInfo struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChatMessageInfo(m *entity.ChatMessage) *ChatMessageInfo {
	if m == nil {
		return nil
	}
	return &ChatMessageInfo{
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

type ChatSessionInfo struct {
	ID               string            `json:"id"`
	DoctorID         string            `json:"doctorId"`
	PatientID        string            `json:"patientId"`
	Messages         []ChatMessageInfo `json:"messages"`
	RelatedDocuments []string          `json:"relatedDocuments"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func NewChatSessionInfo(s *entity.ChatSession) ChatSessionInfo {
	messages := make([]ChatMessageInfo, 0, len(s.Messages))
	for i := range s.Messages {
		messages = append(messages, *NewChatMessageInfo(&s.Messages[i]))
	}
	related := s.RelatedDocuments
	if related == nil {
		related = []string{}
	}
	return ChatSessionInfo{
		ID:               s.ID,
		DoctorID:         s.DoctorID,
		PatientID:        s.PatientID,
		Messages:         messages,
		RelatedDocuments: related,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	UserMessage      *ChatMessageInfo `json:"userMessage"`
	AssistantMessage *ChatMessageInfo `json:"assistantMessage,omitempty"`
	Error            string           `json:"error,omitempty"`
}

type SessionListResponse struct {
	DoctorID     string            `json:"doctorId"`
	SessionCount int               `json:"sessionCount"`
	Sessions     []ChatSessionInfo `json:"sessions"`
}
