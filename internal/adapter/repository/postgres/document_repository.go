package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"medvault-api/internal/domain/entity"
	"medvault-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

// documentRow flattens Document plus its metadata record; tags and
// medical values live in jsonb columns.
type documentRow struct {
	ID            string     `db:"id"`
	Filename      string     `db:"filename"`
	StoragePath   string     `db:"storage_path"`
	UploadDate    time.Time  `db:"upload_date"`
	Processed     bool       `db:"processed"`
	Tags          []byte     `db:"tags"`
	DocumentType  string     `db:"document_type"`
	PatientID     string     `db:"patient_id"`
	PatientName   string     `db:"patient_name"`
	DoctorName    string     `db:"doctor_name"`
	ReportDate    *time.Time `db:"report_date"`
	MedicalValues []byte     `db:"medical_values"`
	Summary       string     `db:"summary"`
}

func (r documentRow) toEntity() (*entity.Document, error) {
	doc := &entity.Document{
		ID:          r.ID,
		Filename:    r.Filename,
		StoragePath: r.StoragePath,
		UploadDate:  r.UploadDate,
		Processed:   r.Processed,
		Metadata: entity.DocumentMetadata{
			DocumentType: entity.DocumentType(r.DocumentType),
			PatientID:    r.PatientID,
			PatientName:  r.PatientName,
			DoctorName:   r.DoctorName,
			ReportDate:   r.ReportDate,
			Summary:      r.Summary,
		},
	}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &doc.Tags); err != nil {
			return nil, err
		}
	}
	if len(r.MedicalValues) > 0 {
		if err := json.Unmarshal(r.MedicalValues, &doc.Metadata.MedicalValues); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// create document
func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now()
	}

	tags, err := json.Marshal(doc.Tags)
	if err != nil {
		return err
	}
	values, err := json.Marshal(doc.Metadata.MedicalValues)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents
			(id, filename, storage_path, upload_date, processed, tags,
			 document_type, patient_id, patient_name, doctor_name, report_date, medical_values, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.ExecContext(ctx, query,
		doc.ID, doc.Filename, doc.StoragePath, doc.UploadDate, doc.Processed, tags,
		string(doc.Metadata.DocumentType), doc.Metadata.PatientID, doc.Metadata.PatientName,
		doc.Metadata.DoctorName, doc.Metadata.ReportDate, values, doc.Metadata.Summary,
	)
	return err
}

// find document by id
func (r *documentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	var row documentRow
	query := `SELECT * FROM documents WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity()
}

// all documents belonging to one patient, newest first
func (r *documentRepository) FindByPatientID(ctx context.Context, patientID string) ([]entity.Document, error) {
	var rows []documentRow
	query := `SELECT * FROM documents WHERE patient_id = $1 ORDER BY upload_date DESC`
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, err
	}

	docs := make([]entity.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (r *documentRepository) UpdateProcessingResult(ctx context.Context, id string, meta entity.DocumentMetadata, tags []string, processed bool) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	values, err := json.Marshal(meta.MedicalValues)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET document_type = $1, doctor_name = $2, report_date = $3,
		    medical_values = $4, summary = $5, tags = $6, processed = $7
		WHERE id = $8
	`
	_, err = r.db.ExecContext(ctx, query,
		string(meta.DocumentType), meta.DoctorName, meta.ReportDate,
		values, meta.Summary, tagsJSON, processed, id,
	)
	return err
}
