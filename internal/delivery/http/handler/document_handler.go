package handler

import (
	"io"

	"medvault-api/internal/delivery/http/dto"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/usecase/document"

	"github.com/gofiber/fiber/v2"
)

type DocumentHandler struct {
	docUsecase *document.DocumentUsecase
}

func NewDocumentHandler(docUsecase *document.DocumentUsecase) *DocumentHandler {
	return &DocumentHandler{docUsecase: docUsecase}
}

// Upload accepts a multipart medical document plus patient details and
// stores it unprocessed. Processing is requested separately.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to get file"})
	}

	patientID := c.FormValue("patient_id")
	patientName := c.FormValue("patient_name")
	notes := c.FormValue("notes")
	doctorName, _ := c.Locals("email").(string)

	fileData, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer fileData.Close()

	buf, err := io.ReadAll(fileData)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	doc, err := h.docUsecase.Upload(
		c.Context(),
		file.Filename,
		buf,
		file.Header.Get("Content-Type"),
		patientID,
		patientName,
		doctorName,
		notes,
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.UploadDocumentResponse{
		ID:       doc.ID,
		Filename: doc.Filename,
		Status:   "uploaded",
		Message:  "Document uploaded. Request processing to run the pipeline.",
	})
}

// Process runs the ingest pipeline on demand. Partial results are
// returned with the stage that failed; they are not discarded.
func (h *DocumentHandler) Process(c *fiber.Ctx) error {
	documentID := c.Params("id")

	result, doc, err := h.docUsecase.Process(c.Context(), documentID)
	if err != nil && result == nil {
		return writeError(c, err)
	}

	resp := dto.ProcessDocumentResponse{
		DocumentID:     documentID,
		DocumentType:   string(doc.Metadata.DocumentType),
		Tags:           doc.Tags,
		Processed:      doc.Processed,
		CompletedStage: string(result.CompletedStage),
		FailedStage:    string(result.FailedStage),
		Classification: result.Classification,
		Extraction:     result.Extraction,
		Compliance:     result.Compliance,
	}
	switch {
	case result.Succeeded() && err == nil:
		resp.Message = "Document processed successfully"
	case result.Succeeded():
		// the pipeline finished but indexing or persistence failed;
		// reprocessing retries both
		resp.Message = "Document processed but not fully saved"
		resp.Error = err.Error()
	default:
		resp.Message = "Document processing incomplete"
		if result.Err != nil {
			resp.Error = result.Err.Error()
		} else if err != nil {
			resp.Error = err.Error()
		}
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Search runs a scoped similarity search over the chunk index. Scope is
// either document_id or patient_id.
func (h *DocumentHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query parameter q is required"})
	}

	scope := entity.SearchScope{
		DocumentID: c.Query("document_id"),
		PatientID:  c.Query("patient_id"),
	}
	k := c.QueryInt("k", 5)

	chunks, err := h.docUsecase.Search(c.Context(), query, scope, k)
	if err != nil {
		return writeError(c, err)
	}

	results := make([]dto.SearchResultItem, 0, len(chunks))
	for i := range chunks {
		results = append(results, dto.NewSearchResultItem(&chunks[i]))
	}

	return c.Status(fiber.StatusOK).JSON(dto.SearchDocumentsResponse{
		Query:       query,
		ResultCount: len(results),
		Results:     results,
	})
}

func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.docUsecase.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewDocumentInfo(doc))
}

func (h *DocumentHandler) GetByPatient(c *fiber.Ctx) error {
	patientID := c.Params("id")

	docs, err := h.docUsecase.GetByPatientID(c.Context(), patientID)
	if err != nil {
		return writeError(c, err)
	}

	infos := make([]dto.DocumentInfo, 0, len(docs))
	for i := range docs {
		infos = append(infos, dto.NewDocumentInfo(&docs[i]))
	}

	return c.Status(fiber.StatusOK).JSON(dto.PatientDocumentsResponse{
		PatientID:     patientID,
		DocumentCount: len(infos),
		Documents:     infos,
	})
}
