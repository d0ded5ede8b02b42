package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/repository"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/services"
)

type sessionApplicationService interface {
	CreateSessionRequest(ctx context.Context, requesterID int64, input services.CreateSessionRequestInput) (*models.SessionRequestDetail, error)
	Approve(ctx context.Context, requestID, tutorID int64) (*models.SessionRequestDetail, error)
	Reject(ctx context.Context, requestID, tutorID int64) (*models.SessionRequestDetail, error)
	Start(ctx context.Context, requestID, tutorID int64) (*models.SessionRequestDetail, error)
	Complete(ctx context.Context, requestID, actorID int64, clientMinutes *float64) (*models.SessionRequestDetail, error)
	Cancel(ctx context.Context, requestID, requesterID int64) (*models.SessionRequestDetail, error)
	Rate(ctx context.Context, requestID, actorID int64, rating int, feedback *string) (*services.RatingResult, error)
	ValidateJoin(ctx context.Context, requestID, actorID int64) (*models.JoinCheck, error)
	ListSessionRequests(ctx context.Context, userID int64, filter repository.SessionRequestListFilter) ([]models.SessionRequest, error)
	GetSessionRequest(ctx context.Context, requestID, actorID int64) (*models.SessionRequestDetail, error)
}

type SessionHandler struct {
	service sessionApplicationService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequestBody struct {
	TutorID  int64   `json:"tutor_id"`
	Subject  string  `json:"subject"`
	Topic    *string `json:"topic"`
	Message  *string `json:"message"`
	CoinType string  `json:"coin_type"`
}

type completeSessionBody struct {
	DurationMinutes *float64 `json:"duration_minutes"`
}

type rateSessionBody struct {
	Rating   int     `json:"rating"`
	Feedback *string `json:"feedback"`
}

func (h *SessionHandler) CreateSessionRequest(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createSessionRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	detail, err := h.service.CreateSessionRequest(c.Context(), userID, services.CreateSessionRequestInput{
		TutorID:  req.TutorID,
		Subject:  req.Subject,
		Topic:    req.Topic,
		Message:  req.Message,
		CoinType: req.CoinType,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_request": detail})
}

func (h *SessionHandler) ListSessionRequests(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requests, err := h.service.ListSessionRequests(c.Context(), userID, repository.SessionRequestListFilter{
		Side:   c.Query("side"),
		Status: c.Query("status"),
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session_requests": requests})
}

func (h *SessionHandler) GetSessionRequest(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	detail, err := h.service.GetSessionRequest(c.Context(), requestID, userID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session_request": detail})
}

func (h *SessionHandler) Approve(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	detail, err := h.service.Approve(c.Context(), requestID, userID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session_request": detail})
}

func (h *SessionHandler) Reject(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	detail, err := h.service.Reject(c.Context(), requestID, userID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session_request": detail})
}

func (h *SessionHandler) Start(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	detail, err := h.service.Start(c.Context(), requestID, userID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session_request": detail})
}

func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	var req completeSessionBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	detail, err := h.service.Complete(c.Context(), requestID, userID, req.DurationMinutes)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session_request": detail})
}

func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	detail, err := h.service.Cancel(c.Context(), requestID, userID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session_request": detail})
}

func (h *SessionHandler) Rate(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	var req rateSessionBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.Rate(c.Context(), requestID, userID, req.Rating, req.Feedback)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(result)
}

// ValidateJoin is the read-only balance pre-flight for a session.
func (h *SessionHandler) ValidateJoin(c *fiber.Ctx) error {
	userID, requestID, err := h.actorAndRequest(c)
	if err != nil {
		return err
	}

	check, err := h.service.ValidateJoin(c.Context(), requestID, userID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(check)
}

func (h *SessionHandler) actorAndRequest(c *fiber.Ctx) (int64, int64, error) {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return 0, 0, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return 0, 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session request id"})
	}

	return userID, requestID, nil
}

func mapSessionError(c *fiber.Ctx, err error) error {
	var insufficient *services.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": insufficient.Error()})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrBalanceCheckFailed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrDuplicatePending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyRated):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotPending),
		errors.Is(err, services.ErrNotApproved),
		errors.Is(err, services.ErrNotActive),
		errors.Is(err, services.ErrNotCancellable),
		errors.Is(err, services.ErrNotCompleted),
		errors.Is(err, services.ErrTutorUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTutorNotFound), errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session request not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
