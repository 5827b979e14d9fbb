package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"medvault-api/internal/domain/entity"
	"medvault-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type chatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateSession(ctx context.Context, session *entity.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `
		INSERT INTO chat_sessions (id, doctor_id, patient_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.DoctorID, session.PatientID, session.CreatedAt, session.UpdatedAt)
	return err
}

// FindSessionByID loads the session and its messages ordered by the
// insertion sequence, which keeps append order exact even when
// timestamps collide.
func (r *chatRepository) FindSessionByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	var session entity.ChatSession
	query := `SELECT id, doctor_id, patient_id, created_at, updated_at FROM chat_sessions WHERE id = $1`
	err := r.db.GetContext(ctx, &session, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	messages := []entity.ChatMessage{}
	query = `
		SELECT id, session_id, role, content, timestamp
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY seq ASC
	`
	if err := r.db.SelectContext(ctx, &messages, query, id); err != nil {
		return nil, err
	}
	session.Messages = messages

	related := []string{}
	query = `SELECT document_id FROM chat_session_documents WHERE session_id = $1`
	if err := r.db.SelectContext(ctx, &related, query, id); err != nil {
		return nil, err
	}
	session.RelatedDocuments = related

	return &session, nil
}

func (r *chatRepository) FindSessionsByDoctorID(ctx context.Context, doctorID string) ([]entity.ChatSession, error) {
	var sessions []entity.ChatSession
	query := `
		SELECT id, doctor_id, patient_id, created_at, updated_at
		FROM chat_sessions
		WHERE doctor_id = $1
		ORDER BY updated_at DESC
	`
	if err := r.db.SelectContext(ctx, &sessions, query, doctorID); err != nil {
		return nil, err
	}
	return sessions, nil
}

// AppendMessages inserts messages in the given order inside one
// transaction and bumps the session's updated_at.
func (r *chatRepository) AppendMessages(ctx context.Context, sessionID string, messages ...entity.ChatMessage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO chat_messages (id, session_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range messages {
		if messages[i].ID == "" {
			messages[i].ID = uuid.New().String()
		}
		messages[i].SessionID = sessionID

		_, err := tx.ExecContext(ctx, query,
			messages[i].ID, sessionID, string(messages[i].Role), messages[i].Content, messages[i].Timestamp)
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, sessionID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *chatRepository) AddRelatedDocument(ctx context.Context, sessionID, documentID string) error {
	query := `
		INSERT INTO chat_session_documents (session_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, sessionID, documentID)
	return err
}
