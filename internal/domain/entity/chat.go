package entity

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is immutable once appended. Ordering within a session is
// append order, which is also chronological order.
type ChatMessage struct {
	ID        string      `db:"id" json:"id"`
	SessionID string      `db:"session_id" json:"sessionId"`
	Role      MessageRole `db:"role" json:"role"`
	Content   string      `db:"content" json:"content"`
	Timestamp time.Time   `db:"timestamp" json:"timestamp"`
}

// ChatSession belongs to exactly one doctor and one patient for its
// lifetime.
type ChatSession struct {
	ID               string        `db:"id" json:"id"`
	DoctorID         string        `db:"doctor_id" json:"doctorId"`
	PatientID        string        `db:"patient_id" json:"patientId"`
	Messages         []ChatMessage `db:"-" json:"messages"`
	RelatedDocuments []string      `db:"-" json:"relatedDocuments"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}
