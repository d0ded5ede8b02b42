package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/economy"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/email"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/repository"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrTutorNotFound      = errors.New("tutor not found")
	ErrTutorUnavailable   = errors.New("tutor is not accepting session requests")
	ErrDuplicatePending   = errors.New("a pending request to this tutor already exists")
	ErrNotPending         = errors.New("request is not pending")
	ErrNotApproved        = errors.New("request is not approved")
	ErrNotActive          = errors.New("session is not active")
	ErrNotCancellable     = errors.New("request can no longer be cancelled")
	ErrNotCompleted       = errors.New("session is not completed")
	ErrAlreadyRated       = errors.New("session already rated by this participant")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrBalanceCheckFailed = errors.New("unable to validate balance")
)

// InsufficientBalanceError names the coin type that blocked a session start.
type InsufficientBalanceError struct {
	CoinType    string
	Balance     float64
	MinRequired float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: have %.2f, need %.2f", e.CoinType, e.Balance, e.MinRequired)
}

// Notification types and email templates attached to lifecycle transitions.
const (
	NotifySessionRequested = "session_requested"
	NotifyRequestApproved  = "request_approved"
	NotifyRequestRejected  = "request_rejected"
	NotifySessionStarted   = "session_started"
	NotifySessionCompleted = "session_completed"
	NotifySessionCancelled = "session_cancelled"
	NotifySessionRated     = "session_rated"

	ActivitySessionCompleted = "session_completed"
)

type sessionRequestStore interface {
	Create(ctx context.Context, input repository.CreateSessionRequestInput) (*models.SessionRequest, error)
	GetByID(ctx context.Context, id int64) (*models.SessionRequest, error)
	HasPendingBetween(ctx context.Context, requesterID, tutorID int64) (bool, error)
	ListForUser(ctx context.Context, userID int64, filter repository.SessionRequestListFilter) ([]models.SessionRequest, error)
	UpdateStatusIfCurrent(ctx context.Context, id int64, currentStatus, nextStatus string) (*models.SessionRequest, error)
	StartIfApproved(ctx context.Context, id int64) (*models.SessionRequest, error)
	CancelIfOpen(ctx context.Context, id int64) (*models.SessionRequest, error)
	CompleteIfActive(ctx context.Context, id int64, endedAt time.Time) (*models.SessionRequest, error)
	RecordSettlement(ctx context.Context, id int64, startedAt time.Time, durationMinutes, coinsSpent int, coinsCredited float64, coinTypeUsed string) (*models.SessionRequest, error)
	SetRequesterRating(ctx context.Context, id int64, rating int, feedback *string) (*models.SessionRequest, error)
	SetTutorRating(ctx context.Context, id int64, rating int, feedback *string) (*models.SessionRequest, error)
}

type userLedger interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	TryDebit(ctx context.Context, userID int64, coinType string, amount float64) (bool, error)
	Credit(ctx context.Context, userID int64, coinType string, amount float64) error
	ApplyRating(ctx context.Context, userID int64, rating int) error
}

type notificationSink interface {
	Notify(ctx context.Context, input repository.CreateNotificationInput) error
}

type emailSender interface {
	Send(ctx context.Context, templateKey, recipient string, vars map[string]string) error
}

type activityRecorder interface {
	Record(ctx context.Context, userID int64, activityType string, activityID int64) error
}

type SessionService struct {
	requests      sessionRequestStore
	users         userLedger
	notifications notificationSink
	email         emailSender
	activity      activityRecorder
	rates         economy.RateTable
	logger        *zap.SugaredLogger
	now           func() time.Time
}

func NewSessionService(
	requests sessionRequestStore,
	users userLedger,
	notifications notificationSink,
	email emailSender,
	activity activityRecorder,
	rates economy.RateTable,
	logger *zap.SugaredLogger,
) *SessionService {
	return &SessionService{
		requests:      requests,
		users:         users,
		notifications: notifications,
		email:         email,
		activity:      activity,
		rates:         rates,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type CreateSessionRequestInput struct {
	TutorID  int64
	Subject  string
	Topic    *string
	Message  *string
	CoinType string
}

type RatingResult struct {
	Rating   int     `json:"rating"`
	Feedback *string `json:"feedback"`
}

// postCommitHook is a named side effect run after the primary mutation
// succeeded. Hooks are fault-isolated: a failing hook is logged and never
// affects other hooks or the caller's result.
type postCommitHook struct {
	name string
	run  func(ctx context.Context) error
}

func (s *SessionService) runPostCommit(ctx context.Context, sessionID int64, hooks []postCommitHook) {
	for _, hook := range hooks {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					s.logger.Errorw("post-commit hook panicked", "hook", hook.name, "session_id", sessionID, "panic", rec)
				}
			}()
			if err := hook.run(ctx); err != nil {
				s.logger.Warnw("post-commit hook failed", "hook", hook.name, "session_id", sessionID, "error", err)
			}
		}()
	}
}

func (s *SessionService) notifyHook(req *models.SessionRequest, targetID int64, notifType, message string, actor *models.User) postCommitHook {
	sessionID := req.ID
	input := repository.CreateNotificationInput{
		UserID:    targetID,
		Type:      notifType,
		Message:   message,
		SessionID: &sessionID,
	}
	if actor != nil {
		actorID := actor.ID
		input.ActorID = &actorID
		input.ActorName = actor.FullName
	}
	return postCommitHook{
		name: "notify:" + notifType,
		run: func(ctx context.Context) error {
			return s.notifications.Notify(ctx, input)
		},
	}
}

func (s *SessionService) emailHook(templateKey, recipient string, vars map[string]string) postCommitHook {
	return postCommitHook{
		name: "email:" + templateKey,
		run: func(ctx context.Context) error {
			return s.email.Send(ctx, templateKey, recipient, vars)
		},
	}
}

func (s *SessionService) activityHook(userID int64, activityID int64) postCommitHook {
	return postCommitHook{
		name: "activity:" + ActivitySessionCompleted,
		run: func(ctx context.Context) error {
			return s.activity.Record(ctx, userID, ActivitySessionCompleted, activityID)
		},
	}
}

func displayName(user *models.User) string {
	if user != nil && user.FullName != nil && strings.TrimSpace(*user.FullName) != "" {
		return *user.FullName
	}
	return "a SkillSwap user"
}

// detail loads both parties' public profiles onto the response.
func (s *SessionService) detail(ctx context.Context, req *models.SessionRequest) (*models.SessionRequestDetail, error) {
	detail := &models.SessionRequestDetail{SessionRequest: *req}

	requester, err := s.users.GetByID(ctx, req.RequesterID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if requester != nil {
		profile := requester.Public()
		detail.Requester = &profile
	}

	tutor, err := s.users.GetByID(ctx, req.TutorID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if tutor != nil {
		profile := tutor.Public()
		detail.Tutor = &profile
	}

	return detail, nil
}

func (s *SessionService) CreateSessionRequest(ctx context.Context, requesterID int64, input CreateSessionRequestInput) (*models.SessionRequestDetail, error) {
	if input.TutorID <= 0 || input.TutorID == requesterID {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, ErrInvalidInput
	}
	if input.CoinType != "" && !models.ValidCoinType(input.CoinType) {
		return nil, ErrInvalidInput
	}
	coinType := economy.NormalizeCoinType(input.CoinType)

	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tutor, err := s.users.GetByID(ctx, input.TutorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTutorNotFound
		}
		return nil, err
	}
	if !tutor.TutorAvailable {
		return nil, ErrTutorUnavailable
	}

	duplicate, err := s.requests.HasPendingBetween(ctx, requesterID, input.TutorID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicatePending
	}

	req, err := s.requests.Create(ctx, repository.CreateSessionRequestInput{
		RequesterID: requesterID,
		TutorID:     input.TutorID,
		Subject:     strings.TrimSpace(input.Subject),
		Topic:       input.Topic,
		Message:     input.Message,
		CoinType:    coinType,
	})
	if err != nil {
		return nil, err
	}

	s.runPostCommit(ctx, req.ID, []postCommitHook{
		s.notifyHook(req, tutor.ID, NotifySessionRequested,
			fmt.Sprintf("%s requested a %s session", displayName(requester), req.Subject), requester),
		s.emailHook(email.TemplateSessionRequested, tutor.Email, map[string]string{
			"requester_name": displayName(requester),
			"subject":        req.Subject,
		}),
	})

	return s.detail(ctx, req)
}

func (s *SessionService) Approve(ctx context.Context, requestID, tutorID int64) (*models.SessionRequestDetail, error) {
	return s.resolvePending(ctx, requestID, tutorID, models.StatusApproved)
}

func (s *SessionService) Reject(ctx context.Context, requestID, tutorID int64) (*models.SessionRequestDetail, error) {
	return s.resolvePending(ctx, requestID, tutorID, models.StatusRejected)
}

func (s *SessionService) resolvePending(ctx context.Context, requestID, tutorID int64, nextStatus string) (*models.SessionRequestDetail, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TutorID != tutorID {
		return nil, ErrForbidden
	}

	updated, err := s.requests.UpdateStatusIfCurrent(ctx, requestID, models.StatusPending, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotPending
		}
		return nil, err
	}

	tutor, _ := s.users.GetByID(ctx, tutorID)
	requester, _ := s.users.GetByID(ctx, updated.RequesterID)

	notifType := NotifyRequestApproved
	templateKey := email.TemplateRequestApproved
	verb := "approved"
	if nextStatus == models.StatusRejected {
		notifType = NotifyRequestRejected
		templateKey = email.TemplateRequestDeclined
		verb = "declined"
	}

	hooks := []postCommitHook{
		s.notifyHook(updated, updated.RequesterID, notifType,
			fmt.Sprintf("%s %s your %s session request", displayName(tutor), verb, updated.Subject), tutor),
	}
	if requester != nil {
		hooks = append(hooks, s.emailHook(templateKey, requester.Email, map[string]string{
			"tutor_name": displayName(tutor),
			"subject":    updated.Subject,
		}))
	}
	s.runPostCommit(ctx, updated.ID, hooks)

	return s.detail(ctx, updated)
}

// Start flips an approved request to active after the balance-sufficiency
// guard passes for the requester.
func (s *SessionService) Start(ctx context.Context, requestID, tutorID int64) (*models.SessionRequestDetail, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TutorID != tutorID {
		return nil, ErrForbidden
	}
	if req.Status != models.StatusApproved {
		return nil, ErrNotApproved
	}

	check, err := s.guardBalance(ctx, req)
	if err != nil {
		return nil, err
	}
	if !check.HasEnough {
		return nil, &InsufficientBalanceError{
			CoinType:    check.CoinType,
			Balance:     check.AvailableBalance,
			MinRequired: check.MinRequired,
		}
	}

	updated, err := s.requests.StartIfApproved(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotApproved
		}
		return nil, err
	}

	tutor, _ := s.users.GetByID(ctx, tutorID)
	requester, _ := s.users.GetByID(ctx, updated.RequesterID)

	hooks := []postCommitHook{
		s.notifyHook(updated, updated.RequesterID, NotifySessionStarted,
			fmt.Sprintf("your %s session with %s has started", updated.Subject, displayName(tutor)), tutor),
	}
	if requester != nil {
		hooks = append(hooks, s.emailHook(email.TemplateSessionStarted, requester.Email, map[string]string{
			"tutor_name": displayName(tutor),
			"subject":    updated.Subject,
		}))
	}
	s.runPostCommit(ctx, updated.ID, hooks)

	return s.detail(ctx, updated)
}

// guardBalance runs the balance-sufficiency check for the request's
// requester. A missing requester record maps to ErrBalanceCheckFailed.
func (s *SessionService) guardBalance(ctx context.Context, req *models.SessionRequest) (*models.JoinCheck, error) {
	coinType := economy.NormalizeCoinType(req.CoinType)

	requester, err := s.users.GetByID(ctx, req.RequesterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBalanceCheckFailed
		}
		return nil, err
	}

	balance := requester.CoinBalance(coinType)
	minRequired := s.rates.MinRequired(coinType)

	return &models.JoinCheck{
		CoinType:         coinType,
		AvailableBalance: balance,
		MinRequired:      minRequired,
		HasEnough:        balance >= minRequired,
	}, nil
}

// ValidateJoin exposes the guard read-only so clients can pre-flight before
// attempting to join; no transition happens.
func (s *SessionService) ValidateJoin(ctx context.Context, requestID, actorID int64) (*models.JoinCheck, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrForbidden
	}
	return s.guardBalance(ctx, req)
}

func (s *SessionService) Cancel(ctx context.Context, requestID, requesterID int64) (*models.SessionRequestDetail, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != requesterID {
		return nil, ErrForbidden
	}

	updated, err := s.requests.CancelIfOpen(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotCancellable
		}
		return nil, err
	}

	requester, _ := s.users.GetByID(ctx, requesterID)
	tutor, _ := s.users.GetByID(ctx, updated.TutorID)

	hooks := []postCommitHook{
		s.notifyHook(updated, updated.TutorID, NotifySessionCancelled,
			fmt.Sprintf("%s cancelled the %s session", displayName(requester), updated.Subject), requester),
	}
	if tutor != nil {
		hooks = append(hooks, s.emailHook(email.TemplateSessionCancelled, tutor.Email, map[string]string{
			"requester_name": displayName(requester),
			"subject":        updated.Subject,
		}))
	}
	s.runPostCommit(ctx, updated.ID, hooks)

	return s.detail(ctx, updated)
}

// Complete finishes an active session and settles coins between the two
// balances. The active -> completed flip is a single conditional update, so
// of N concurrent calls exactly one runs settlement; the rest observe the
// already-completed record and return it idempotently.
func (s *SessionService) Complete(ctx context.Context, requestID, actorID int64, clientMinutes *float64) (*models.SessionRequestDetail, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrForbidden
	}
	if req.Status == models.StatusCompleted {
		return s.detail(ctx, req)
	}

	now := s.now()
	flipped, err := s.requests.CompleteIfActive(ctx, requestID, now)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		// Lost the race or the session was never active; re-read to tell
		// idempotent success apart from an illegal transition.
		current, readErr := s.requests.GetByID(ctx, requestID)
		if readErr != nil {
			return nil, readErr
		}
		if current.Status == models.StatusCompleted {
			return s.detail(ctx, current)
		}
		return nil, ErrNotActive
	}

	coinType := economy.NormalizeCoinType(flipped.CoinType)
	duration, startedAt := economy.DeriveDuration(flipped.StartedAt, now, clientMinutes)
	settlement := s.rates.Settle(coinType, startedAt, now, duration)

	settled, err := s.requests.RecordSettlement(
		ctx,
		requestID,
		settlement.StartedAt,
		settlement.DurationMinutes,
		settlement.CoinsSpent,
		settlement.CoinsEarned,
		settlement.CoinType,
	)
	if err != nil {
		return nil, err
	}

	s.applySettlement(ctx, settled, settlement)

	actor, _ := s.users.GetByID(ctx, actorID)
	counterpartyID := settled.CounterpartyOf(actorID)

	hooks := []postCommitHook{
		s.notifyHook(settled, counterpartyID, NotifySessionCompleted,
			fmt.Sprintf("your %s session is complete (%d min)", settled.Subject, settlement.DurationMinutes), actor),
		s.activityHook(settled.RequesterID, settled.ID),
		s.activityHook(settled.TutorID, settled.ID),
	}
	for _, partyID := range []int64{settled.RequesterID, settled.TutorID} {
		if party, err := s.users.GetByID(ctx, partyID); err == nil {
			hooks = append(hooks, s.emailHook(email.TemplateSessionCompleted, party.Email, map[string]string{
				"subject":  settled.Subject,
				"duration": fmt.Sprintf("%d", settlement.DurationMinutes),
			}))
		}
	}
	s.runPostCommit(ctx, settled.ID, hooks)

	return s.detail(ctx, settled)
}

// applySettlement moves coins between the two balances. Completion is never
// rolled back on a balance failure: an insufficient-funds debit is logged and
// the tutor is still credited (soft consistency).
func (s *SessionService) applySettlement(ctx context.Context, req *models.SessionRequest, settlement economy.Settlement) {
	if settlement.CoinsSpent > 0 {
		ok, err := s.users.TryDebit(ctx, req.RequesterID, settlement.CoinType, float64(settlement.CoinsSpent))
		if err != nil {
			s.logger.Errorw("settlement debit failed",
				"session_id", req.ID, "requester_id", req.RequesterID,
				"coin_type", settlement.CoinType, "amount", settlement.CoinsSpent, "error", err)
		} else if !ok {
			s.logger.Warnw("settlement debit skipped: insufficient balance",
				"session_id", req.ID, "requester_id", req.RequesterID,
				"coin_type", settlement.CoinType, "amount", settlement.CoinsSpent)
		}
	}

	if err := s.users.Credit(ctx, req.TutorID, settlement.CoinType, settlement.CoinsEarned); err != nil {
		s.logger.Errorw("settlement credit failed",
			"session_id", req.ID, "tutor_id", req.TutorID,
			"coin_type", settlement.CoinType, "amount", settlement.CoinsEarned, "error", err)
	}
}

// Rate records a participant's one-time rating of the other party and folds
// it into the target's running average.
func (s *SessionService) Rate(ctx context.Context, requestID, actorID int64, rating int, feedback *string) (*RatingResult, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrForbidden
	}
	if req.Status != models.StatusCompleted {
		return nil, ErrNotCompleted
	}

	var targetID int64
	var updated *models.SessionRequest
	if actorID == req.RequesterID {
		if req.RatingByRequester != nil {
			return nil, ErrAlreadyRated
		}
		targetID = req.TutorID
		updated, err = s.requests.SetRequesterRating(ctx, requestID, rating, feedback)
	} else {
		if req.RatingByTutor != nil {
			return nil, ErrAlreadyRated
		}
		targetID = req.RequesterID
		updated, err = s.requests.SetTutorRating(ctx, requestID, rating, feedback)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	if err := s.users.ApplyRating(ctx, targetID, rating); err != nil {
		return nil, err
	}

	actor, _ := s.users.GetByID(ctx, actorID)
	s.runPostCommit(ctx, updated.ID, []postCommitHook{
		s.notifyHook(updated, targetID, NotifySessionRated,
			fmt.Sprintf("%s rated your %s session %d/5", displayName(actor), updated.Subject, rating), actor),
	})

	return &RatingResult{Rating: rating, Feedback: feedback}, nil
}

func (s *SessionService) ListSessionRequests(ctx context.Context, userID int64, filter repository.SessionRequestListFilter) ([]models.SessionRequest, error) {
	switch filter.Side {
	case "", "learning", "teaching":
	default:
		return nil, ErrInvalidInput
	}
	return s.requests.ListForUser(ctx, userID, filter)
}

func (s *SessionService) GetSessionRequest(ctx context.Context, requestID, actorID int64) (*models.SessionRequestDetail, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrForbidden
	}
	return s.detail(ctx, req)
}
