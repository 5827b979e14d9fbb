package handler

import (
	"medvault-api/internal/delivery/http/dto"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/usecase/chat"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatUsecase *chat.ChatUsecase
}

func NewChatHandler(chatUsecase *chat.ChatUsecase) *ChatHandler {
	return &ChatHandler{chatUsecase: chatUsecase}
}

// CreateSession opens a conversation about a patient. Doctors only.
func (h *ChatHandler) CreateSession(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != string(entity.RoleDoctor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only doctors can create chat sessions"})
	}

	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	doctorID, _ := c.Locals("userID").(string)
	session, err := h.chatUsecase.CreateSession(c.Context(), doctorID, req.PatientID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateSessionResponse{
		Message:   "Chat session created",
		SessionID: session.ID,
	})
}

func (h *ChatHandler) GetDoctorSessions(c *fiber.Ctx) error {
	doctorID := c.Params("doctorId")
	userID, _ := c.Locals("userID").(string)
	role, _ := c.Locals("role").(string)

	if userID != doctorID && role != string(entity.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized access"})
	}

	sessions, err := h.chatUsecase.GetSessionsByDoctor(c.Context(), doctorID)
	if err != nil {
		return writeError(c, err)
	}

	infos := make([]dto.ChatSessionInfo, 0, len(sessions))
	for i := range sessions {
		infos = append(infos, dto.NewChatSessionInfo(&sessions[i]))
	}

	return c.Status(fiber.StatusOK).JSON(dto.SessionListResponse{
		DoctorID:     doctorID,
		SessionCount: len(infos),
		Sessions:     infos,
	})
}

func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.chatUsecase.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	userID, _ := c.Locals("userID").(string)
	role, _ := c.Locals("role").(string)
	if userID != session.DoctorID && role != string(entity.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized access"})
	}

	return c.Status(fiber.StatusOK).JSON(dto.NewChatSessionInfo(session))
}

// SendMessage appends the doctor's message and the assistant's reply.
// An assistant failure still persists the doctor's message; the error
// is reported inline in the response.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	session, err := h.chatUsecase.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	userID, _ := c.Locals("userID").(string)
	role, _ := c.Locals("role").(string)
	if userID != session.DoctorID && role != string(entity.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized access"})
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userMsg, assistantMsg, err := h.chatUsecase.SendMessage(c.Context(), session.ID, req.Content)
	if err != nil && userMsg == nil {
		return writeError(c, err)
	}

	resp := dto.SendMessageResponse{
		UserMessage:      dto.NewChatMessageInfo(userMsg),
		AssistantMessage: dto.NewChatMessageInfo(assistantMsg),
	}
	if err != nil {
		resp.Error = err.Error()
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
