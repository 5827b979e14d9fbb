package repository

import (
	"context"

	"medvault-api/internal/domain/entity"
)

type ChatRepository interface {
	CreateSession(ctx context.Context, session *entity.ChatSession) error
	// FindSessionByID loads the session with its messages in append order.
	FindSessionByID(ctx context.Context, id string) (*entity.ChatSession, error)
	FindSessionsByDoctorID(ctx context.Context, doctorID string) ([]entity.ChatSession, error)
	// AppendMessages appends in the given order and bumps updated_at.
	AppendMessages(ctx context.Context, sessionID string, messages ...entity.ChatMessage) error
	AddRelatedDocument(ctx context.Context, sessionID, documentID string) error
}
