package handler

import (
	"medvault-api/internal/delivery/http/dto"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/usecase/auth"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authUsecase *auth.AuthUsecase
}

func NewAuthHandler(authUsecase *auth.AuthUsecase) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

func userInfo(u *entity.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.authUsecase.Register(c.Context(), req.Email, req.Password, req.FullName, entity.UserRole(req.Role))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    userInfo(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	token, user, err := h.authUsecase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	return c.Status(fiber.StatusOK).JSON(dto.LoginResponse{
		Token: token,
		User:  userInfo(user),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	user, err := h.authUsecase.GetByID(c.Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(userInfo(user))
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.authUsecase.UpdateProfile(c.Context(), userID, req.Email, req.FullName, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(userInfo(user))
}

func (h *AuthHandler) DeleteMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	if err := h.authUsecase.DeleteAccount(c.Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// admin only
func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != string(entity.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	users, err := h.authUsecase.ListUsers(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	infos := make([]dto.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, userInfo(&users[i]))
	}
	return c.Status(fiber.StatusOK).JSON(infos)
}
