package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/services"
)

type SkillMateHandler struct {
	service *services.SkillMateService
}

func NewSkillMateHandler(service *services.SkillMateService) *SkillMateHandler {
	return &SkillMateHandler{service: service}
}

type sendSkillMateBody struct {
	AddresseeID int64 `json:"addressee_id"`
}

func (h *SkillMateHandler) SendRequest(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendSkillMateBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mate, err := h.service.SendRequest(c.Context(), userID, req.AddresseeID)
	if err != nil {
		return mapSkillMateError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"skillmate": mate})
}

func (h *SkillMateHandler) Accept(c *fiber.Ctx) error {
	return h.resolve(c, h.service.Accept)
}

func (h *SkillMateHandler) Reject(c *fiber.Ctx) error {
	return h.resolve(c, h.service.Reject)
}

func (h *SkillMateHandler) resolve(c *fiber.Ctx, fn func(ctx context.Context, mateID, actorID int64) (*models.SkillMate, error)) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	mateID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid SkillMate id"})
	}

	mate, err := fn(c.Context(), mateID, userID)
	if err != nil {
		return mapSkillMateError(c, err)
	}

	return c.JSON(fiber.Map{"skillmate": mate})
}

func (h *SkillMateHandler) List(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	mates, err := h.service.List(c.Context(), userID, c.Query("status"))
	if err != nil {
		return mapSkillMateError(c, err)
	}

	return c.JSON(fiber.Map{"skillmates": mates})
}

func (h *SkillMateHandler) ListIncoming(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	mates, err := h.service.ListIncoming(c.Context(), userID)
	if err != nil {
		return mapSkillMateError(c, err)
	}

	return c.JSON(fiber.Map{"skillmates": mates})
}

func mapSkillMateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "SkillMate request not found"})
	case errors.Is(err, services.ErrDuplicateConnection):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotPending):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process SkillMate request"})
	}
}
