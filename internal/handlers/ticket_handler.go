package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/repository"
)

type TicketHandler struct {
	tickets *repository.TicketRepository
}

func NewTicketHandler(tickets *repository.TicketRepository) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

type createTicketBody struct {
	Category       string `json:"category"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	ReportedUserID *int64 `json:"reported_user_id"`
}

func (h *TicketHandler) Create(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createTicketBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Subject == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Subject and message are required"})
	}
	switch req.Category {
	case models.TicketSupport, models.TicketAbuse:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ticket category"})
	}
	if req.Category == models.TicketAbuse && req.ReportedUserID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Abuse reports require a reported user"})
	}

	ticket, err := h.tickets.Create(c.Context(), repository.CreateTicketInput{
		UserID:         userID,
		Category:       req.Category,
		Subject:        req.Subject,
		Message:        req.Message,
		ReportedUserID: req.ReportedUserID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create ticket"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ticket": ticket})
}

func (h *TicketHandler) Get(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ticket id"})
	}

	ticket, err := h.tickets.GetByIDForUser(c.Context(), ticketID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Ticket not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch ticket"})
	}

	return c.JSON(fiber.Map{"ticket": ticket})
}

func (h *TicketHandler) List(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tickets, err := h.tickets.ListForUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tickets"})
	}

	return c.JSON(fiber.Map{"tickets": tickets})
}
