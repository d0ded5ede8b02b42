package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/repository"
)

var ErrDuplicateConnection = errors.New("a connection with this user already exists")

type skillMateStore interface {
	Create(ctx context.Context, requesterID, addresseeID int64) (*models.SkillMate, error)
	GetByID(ctx context.Context, id int64) (*models.SkillMate, error)
	ExistsBetween(ctx context.Context, a, b int64) (bool, error)
	Resolve(ctx context.Context, id, addresseeID int64, status string) (*models.SkillMate, error)
	ListForUser(ctx context.Context, userID int64, status string) ([]models.SkillMate, error)
	ListIncoming(ctx context.Context, userID int64) ([]models.SkillMate, error)
}

type SkillMateService struct {
	mates         skillMateStore
	users         userLedger
	notifications notificationSink
}

func NewSkillMateService(
	mates skillMateStore,
	users userLedger,
	notifications notificationSink,
) *SkillMateService {
	return &SkillMateService{
		mates:         mates,
		users:         users,
		notifications: notifications,
	}
}

// SendRequest creates a pending SkillMate connection toward another user.
func (s *SkillMateService) SendRequest(ctx context.Context, requesterID, addresseeID int64) (*models.SkillMate, error) {
	if addresseeID <= 0 || addresseeID == requesterID {
		return nil, ErrInvalidInput
	}

	addressee, err := s.users.GetByID(ctx, addresseeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	exists, err := s.mates.ExistsBetween(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateConnection
	}

	mate, err := s.mates.Create(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}

	if requester, err := s.users.GetByID(ctx, requesterID); err == nil {
		actorRef := requester.ID
		_ = s.notifications.Notify(ctx, repository.CreateNotificationInput{
			UserID:    addressee.ID,
			Type:      "skillmate_request",
			Message:   fmt.Sprintf("%s wants to be your SkillMate", displayName(requester)),
			ActorID:   &actorRef,
			ActorName: requester.FullName,
		})
	}

	return mate, nil
}

func (s *SkillMateService) Accept(ctx context.Context, mateID, actorID int64) (*models.SkillMate, error) {
	return s.resolve(ctx, mateID, actorID, models.MateAccepted)
}

func (s *SkillMateService) Reject(ctx context.Context, mateID, actorID int64) (*models.SkillMate, error) {
	return s.resolve(ctx, mateID, actorID, models.MateRejected)
}

// resolve lets only the addressee settle a pending request; the conditional
// update in the repository makes a second resolve a no-op.
func (s *SkillMateService) resolve(ctx context.Context, mateID, actorID int64, status string) (*models.SkillMate, error) {
	mate, err := s.mates.GetByID(ctx, mateID)
	if err != nil {
		return nil, err
	}
	if mate.AddresseeID != actorID {
		return nil, ErrForbidden
	}
	if mate.Status != models.MatePending {
		return nil, ErrNotPending
	}

	resolved, err := s.mates.Resolve(ctx, mateID, actorID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotPending
		}
		return nil, err
	}

	if status == models.MateAccepted {
		if actor, err := s.users.GetByID(ctx, actorID); err == nil {
			actorRef := actor.ID
			_ = s.notifications.Notify(ctx, repository.CreateNotificationInput{
				UserID:    resolved.RequesterID,
				Type:      "skillmate_accepted",
				Message:   fmt.Sprintf("%s accepted your SkillMate request", displayName(actor)),
				ActorID:   &actorRef,
				ActorName: actor.FullName,
			})
		}
	}

	return resolved, nil
}

func (s *SkillMateService) List(ctx context.Context, userID int64, status string) ([]models.SkillMateDetail, error) {
	switch status {
	case "", models.MatePending, models.MateAccepted, models.MateRejected:
	default:
		return nil, ErrInvalidInput
	}

	mates, err := s.mates.ListForUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	return s.withProfiles(ctx, mates), nil
}

func (s *SkillMateService) ListIncoming(ctx context.Context, userID int64) ([]models.SkillMateDetail, error) {
	mates, err := s.mates.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withProfiles(ctx, mates), nil
}

// withProfiles attaches both parties' public profiles to each connection so
// lists can be rendered without extra lookups. A party that no longer exists
// leaves its slot nil.
func (s *SkillMateService) withProfiles(ctx context.Context, mates []models.SkillMate) []models.SkillMateDetail {
	profiles := make(map[int64]*models.PublicProfile)
	lookup := func(userID int64) *models.PublicProfile {
		if profile, ok := profiles[userID]; ok {
			return profile
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			profiles[userID] = nil
			return nil
		}
		profile := user.Public()
		profiles[userID] = &profile
		return &profile
	}

	details := make([]models.SkillMateDetail, 0, len(mates))
	for _, mate := range mates {
		details = append(details, models.SkillMateDetail{
			SkillMate: mate,
			Requester: lookup(mate.RequesterID),
			Addressee: lookup(mate.AddresseeID),
		})
	}
	return details
}
