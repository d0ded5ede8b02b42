package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/economy"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/email"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/repository"
)

// fakeRequestStore keeps session requests in memory and mirrors the
// conditional-update semantics of the Postgres repository: a guarded update
// that matches no row returns pgx.ErrNoRows.
type fakeRequestStore struct {
	nextID   int64
	requests map[int64]*models.SessionRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{nextID: 1, requests: make(map[int64]*models.SessionRequest)}
}

func (f *fakeRequestStore) add(req models.SessionRequest) *models.SessionRequest {
	if req.ID == 0 {
		req.ID = f.nextID
		f.nextID++
	}
	stored := req
	f.requests[stored.ID] = &stored
	return &stored
}

func (f *fakeRequestStore) Create(_ context.Context, input repository.CreateSessionRequestInput) (*models.SessionRequest, error) {
	req := f.add(models.SessionRequest{
		RequesterID: input.RequesterID,
		TutorID:     input.TutorID,
		Subject:     input.Subject,
		Topic:       input.Topic,
		Message:     input.Message,
		Status:      models.StatusPending,
		CoinType:    input.CoinType,
		CreatedAt:   time.Now().UTC(),
	})
	return copyRequest(req), nil
}

func (f *fakeRequestStore) GetByID(_ context.Context, id int64) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyRequest(req), nil
}

func (f *fakeRequestStore) HasPendingBetween(_ context.Context, requesterID, tutorID int64) (bool, error) {
	for _, req := range f.requests {
		if req.RequesterID == requesterID && req.TutorID == tutorID && req.Status == models.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStore) ListForUser(_ context.Context, userID int64, filter repository.SessionRequestListFilter) ([]models.SessionRequest, error) {
	out := make([]models.SessionRequest, 0)
	for _, req := range f.requests {
		if !req.IsParticipant(userID) {
			continue
		}
		if filter.Side == "learning" && req.RequesterID != userID {
			continue
		}
		if filter.Side == "teaching" && req.TutorID != userID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, *copyRequest(req))
	}
	return out, nil
}

func (f *fakeRequestStore) UpdateStatusIfCurrent(_ context.Context, id int64, currentStatus, nextStatus string) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok || req.Status != currentStatus {
		return nil, pgx.ErrNoRows
	}
	req.Status = nextStatus
	return copyRequest(req), nil
}

func (f *fakeRequestStore) StartIfApproved(_ context.Context, id int64) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok || req.Status != models.StatusApproved {
		return nil, pgx.ErrNoRows
	}
	now := time.Now().UTC()
	req.Status = models.StatusActive
	req.StartedAt = &now
	return copyRequest(req), nil
}

func (f *fakeRequestStore) CancelIfOpen(_ context.Context, id int64) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok || (req.Status != models.StatusApproved && req.Status != models.StatusActive) {
		return nil, pgx.ErrNoRows
	}
	req.Status = models.StatusCancelled
	return copyRequest(req), nil
}

func (f *fakeRequestStore) CompleteIfActive(_ context.Context, id int64, endedAt time.Time) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok || req.Status != models.StatusActive {
		return nil, pgx.ErrNoRows
	}
	req.Status = models.StatusCompleted
	req.EndedAt = &endedAt
	return copyRequest(req), nil
}

func (f *fakeRequestStore) RecordSettlement(_ context.Context, id int64, startedAt time.Time, durationMinutes, coinsSpent int, coinsCredited float64, coinTypeUsed string) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	req.StartedAt = &startedAt
	req.DurationMinutes = &durationMinutes
	req.CoinsSpent = &coinsSpent
	req.CoinsCredited = &coinsCredited
	req.CoinTypeUsed = &coinTypeUsed
	return copyRequest(req), nil
}

func (f *fakeRequestStore) SetRequesterRating(_ context.Context, id int64, rating int, feedback *string) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok || req.Status != models.StatusCompleted || req.RatingByRequester != nil {
		return nil, pgx.ErrNoRows
	}
	now := time.Now().UTC()
	req.RatingByRequester = &rating
	req.FeedbackByRequester = feedback
	req.RatedByRequesterAt = &now
	req.Rating = &rating
	req.ReviewText = feedback
	return copyRequest(req), nil
}

func (f *fakeRequestStore) SetTutorRating(_ context.Context, id int64, rating int, feedback *string) (*models.SessionRequest, error) {
	req, ok := f.requests[id]
	if !ok || req.Status != models.StatusCompleted || req.RatingByTutor != nil {
		return nil, pgx.ErrNoRows
	}
	now := time.Now().UTC()
	req.RatingByTutor = &rating
	req.FeedbackByTutor = feedback
	req.RatedByTutorAt = &now
	return copyRequest(req), nil
}

func copyRequest(req *models.SessionRequest) *models.SessionRequest {
	clone := *req
	return &clone
}

// fakeLedger mirrors the conditional debit of the user repository: a debit
// only succeeds when the balance covers it.
type fakeLedger struct {
	users       map[int64]*models.User
	debitCalls  int
	creditCalls int
	ratings     map[int64][]int
}

func newFakeLedger(users ...*models.User) *fakeLedger {
	ledger := &fakeLedger{users: make(map[int64]*models.User), ratings: make(map[int64][]int)}
	for _, user := range users {
		ledger.users[user.ID] = user
	}
	return ledger
}

func (f *fakeLedger) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeLedger) TryDebit(_ context.Context, userID int64, coinType string, amount float64) (bool, error) {
	f.debitCalls++
	user, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	if user.CoinBalance(coinType) < amount {
		return false, nil
	}
	f.adjust(user, coinType, -amount)
	return true, nil
}

func (f *fakeLedger) Credit(_ context.Context, userID int64, coinType string, amount float64) error {
	f.creditCalls++
	user, ok := f.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	f.adjust(user, coinType, amount)
	return nil
}

func (f *fakeLedger) ApplyRating(_ context.Context, userID int64, rating int) error {
	f.ratings[userID] = append(f.ratings[userID], rating)
	return nil
}

func (f *fakeLedger) adjust(user *models.User, coinType string, delta float64) {
	switch coinType {
	case models.CoinGold:
		user.GoldCoins += delta
	case models.CoinBronze:
		user.BronzeCoins += delta
	default:
		user.SilverCoins += delta
	}
}

type recordingSink struct {
	inputs []repository.CreateNotificationInput
}

func (r *recordingSink) Notify(_ context.Context, input repository.CreateNotificationInput) error {
	r.inputs = append(r.inputs, input)
	return nil
}

type recordingEmail struct {
	templates  []string
	recipients []string
}

func (r *recordingEmail) Send(_ context.Context, templateKey, recipient string, _ map[string]string) error {
	r.templates = append(r.templates, templateKey)
	r.recipients = append(r.recipients, recipient)
	return nil
}

type recordingActivity struct {
	records []int64
}

func (r *recordingActivity) Record(_ context.Context, userID int64, _ string, _ int64) error {
	r.records = append(r.records, userID)
	return nil
}

type sessionFixture struct {
	service  *SessionService
	store    *fakeRequestStore
	ledger   *fakeLedger
	sink     *recordingSink
	email    *recordingEmail
	activity *recordingActivity
}

func newSessionFixture(users ...*models.User) *sessionFixture {
	store := newFakeRequestStore()
	ledger := newFakeLedger(users...)
	sink := &recordingSink{}
	mail := &recordingEmail{}
	activity := &recordingActivity{}
	service := NewSessionService(
		store,
		ledger,
		sink,
		mail,
		activity,
		economy.DefaultRateTable(),
		zap.NewNop().Sugar(),
	)
	return &sessionFixture{service: service, store: store, ledger: ledger, sink: sink, email: mail, activity: activity}
}

func strPtr(s string) *string { return &s }

func testUser(id int64, name string) *models.User {
	return &models.User{
		ID:             id,
		Email:          name + "@example.com",
		FullName:       strPtr(name),
		TutorAvailable: true,
	}
}

func TestCreateSessionRequestRejectsUnavailableTutor(t *testing.T) {
	requester := testUser(1, "Asha")
	tutor := testUser(2, "Ben")
	tutor.TutorAvailable = false
	fx := newSessionFixture(requester, tutor)

	_, err := fx.service.CreateSessionRequest(context.Background(), 1, CreateSessionRequestInput{
		TutorID: 2,
		Subject: "Algebra",
	})
	if !errors.Is(err, ErrTutorUnavailable) {
		t.Fatalf("expected ErrTutorUnavailable, got %v", err)
	}
}

func TestCreateSessionRequestRejectsDuplicatePending(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))

	if _, err := fx.service.CreateSessionRequest(context.Background(), 1, CreateSessionRequestInput{
		TutorID: 2,
		Subject: "Algebra",
	}); err != nil {
		t.Fatalf("first request: %v", err)
	}

	_, err := fx.service.CreateSessionRequest(context.Background(), 1, CreateSessionRequestInput{
		TutorID: 2,
		Subject: "Geometry",
	})
	if !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}
}

func TestApproveRequiresPendingStatus(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusRejected, CoinType: models.CoinSilver,
	})

	_, err := fx.service.Approve(context.Background(), req.ID, 2)
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestApproveForbiddenForNonTutor(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusPending, CoinType: models.CoinSilver,
	})

	_, err := fx.service.Approve(context.Background(), req.ID, 1)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResolvePendingDispatchesTemplateKeys(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	approve := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusPending, CoinType: models.CoinSilver,
	})
	reject := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Chemistry",
		Status: models.StatusPending, CoinType: models.CoinSilver,
	})

	if _, err := fx.service.Approve(context.Background(), approve.ID, 2); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := fx.service.Reject(context.Background(), reject.ID, 2); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	want := []string{email.TemplateRequestApproved, email.TemplateRequestDeclined}
	if len(fx.email.templates) != len(want) {
		t.Fatalf("expected %d emails, got %v", len(want), fx.email.templates)
	}
	for i, key := range want {
		if fx.email.templates[i] != key {
			t.Fatalf("email %d: expected template %q, got %q", i, key, fx.email.templates[i])
		}
		if fx.email.recipients[i] != "Asha@example.com" {
			t.Fatalf("email %d: expected the requester's address, got %q", i, fx.email.recipients[i])
		}
	}
}

func TestStartBlocksBelowMinimumBalance(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.BronzeCoins = 39
	fx := newSessionFixture(requester, testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusApproved, CoinType: models.CoinBronze,
	})

	_, err := fx.service.Start(context.Background(), req.ID, 2)
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.MinRequired != 40 {
		t.Fatalf("expected min 40 bronze, got %.2f", insufficient.MinRequired)
	}

	current, _ := fx.store.GetByID(context.Background(), req.ID)
	if current.Status != models.StatusApproved {
		t.Fatalf("status should stay approved, got %s", current.Status)
	}
}

func TestStartPassesAtExactMinimum(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.BronzeCoins = 40
	fx := newSessionFixture(requester, testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusApproved, CoinType: models.CoinBronze,
	})

	detail, err := fx.service.Start(context.Background(), req.ID, 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if detail.Status != models.StatusActive {
		t.Fatalf("expected active, got %s", detail.Status)
	}
	if detail.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}
}

func TestStartRequiresApprovedStatus(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.SilverCoins = 100
	fx := newSessionFixture(requester, testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusPending, CoinType: models.CoinSilver,
	})

	_, err := fx.service.Start(context.Background(), req.ID, 2)
	if !errors.Is(err, ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}

func TestFullLifecycleSilverSession(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.SilverCoins = 20
	tutor := testUser(2, "Ben")
	fx := newSessionFixture(requester, tutor)
	ctx := context.Background()

	created, err := fx.service.CreateSessionRequest(ctx, 1, CreateSessionRequestInput{
		TutorID:  2,
		Subject:  "Algebra",
		CoinType: models.CoinSilver,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.service.Approve(ctx, created.ID, 2); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := fx.service.Start(ctx, created.ID, 2); err != nil {
		t.Fatalf("start: %v", err)
	}

	minutes := 5.0
	done, err := fx.service.Complete(ctx, created.ID, 1, &minutes)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if done.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.DurationMinutes == nil || *done.DurationMinutes != 5 {
		t.Fatalf("expected duration 5, got %v", done.DurationMinutes)
	}
	if done.CoinsSpent == nil || *done.CoinsSpent != 5 {
		t.Fatalf("expected 5 spent, got %v", done.CoinsSpent)
	}
	if done.CoinsCredited == nil || *done.CoinsCredited != 3.75 {
		t.Fatalf("expected 3.75 credited, got %v", done.CoinsCredited)
	}
	if got := fx.ledger.users[1].SilverCoins; got != 15 {
		t.Fatalf("expected requester balance 15, got %.2f", got)
	}
	if got := fx.ledger.users[2].SilverCoins; got != 3.75 {
		t.Fatalf("expected tutor balance 3.75, got %.2f", got)
	}
}

func TestValidateJoinReportsBalanceWithoutTransition(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.SilverCoins = 4
	fx := newSessionFixture(requester, testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusApproved, CoinType: models.CoinSilver,
	})

	check, err := fx.service.ValidateJoin(context.Background(), req.ID, 1)
	if err != nil {
		t.Fatalf("ValidateJoin: %v", err)
	}
	if check.HasEnough {
		t.Fatal("4 silver should not satisfy a 10 silver minimum")
	}
	if check.MinRequired != 10 {
		t.Fatalf("expected min 10, got %.2f", check.MinRequired)
	}

	current, _ := fx.store.GetByID(context.Background(), req.ID)
	if current.Status != models.StatusApproved {
		t.Fatalf("join check must not change status, got %s", current.Status)
	}
}

func TestCompleteSettlesCoinsWithClientDuration(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.SilverCoins = 50
	tutor := testUser(2, "Ben")
	fx := newSessionFixture(requester, tutor)

	startedAt := time.Now().UTC().Add(-30 * time.Minute)
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusActive, CoinType: models.CoinSilver,
		StartedAt: &startedAt,
	})

	minutes := 5.0
	detail, err := fx.service.Complete(context.Background(), req.ID, 2, &minutes)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if detail.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", detail.Status)
	}
	if detail.DurationMinutes == nil || *detail.DurationMinutes != 5 {
		t.Fatalf("expected duration 5, got %v", detail.DurationMinutes)
	}
	if detail.CoinsSpent == nil || *detail.CoinsSpent != 5 {
		t.Fatalf("expected 5 coins spent, got %v", detail.CoinsSpent)
	}
	if detail.CoinsCredited == nil || *detail.CoinsCredited != 3.75 {
		t.Fatalf("expected 3.75 coins credited, got %v", detail.CoinsCredited)
	}

	if got := fx.ledger.users[1].SilverCoins; got != 45 {
		t.Fatalf("expected requester balance 45, got %.2f", got)
	}
	if got := fx.ledger.users[2].SilverCoins; got != 3.75 {
		t.Fatalf("expected tutor balance 3.75, got %.2f", got)
	}
	if fx.ledger.debitCalls != 1 || fx.ledger.creditCalls != 1 {
		t.Fatalf("expected exactly one debit and one credit, got %d/%d", fx.ledger.debitCalls, fx.ledger.creditCalls)
	}
	if len(fx.activity.records) != 2 {
		t.Fatalf("expected activity for both parties, got %d", len(fx.activity.records))
	}
}

func TestCompleteBronzeRate(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.BronzeCoins = 100
	fx := newSessionFixture(requester, testUser(2, "Ben"))

	startedAt := time.Now().UTC().Add(-10 * time.Minute)
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Debate",
		Status: models.StatusActive, CoinType: models.CoinBronze,
		StartedAt: &startedAt,
	})

	minutes := 10.0
	detail, err := fx.service.Complete(context.Background(), req.ID, 1, &minutes)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if detail.CoinsSpent == nil || *detail.CoinsSpent != 40 {
		t.Fatalf("expected 40 bronze spent for 10 minutes, got %v", detail.CoinsSpent)
	}
	if detail.CoinsCredited == nil || *detail.CoinsCredited != 30 {
		t.Fatalf("expected 30 bronze credited, got %v", detail.CoinsCredited)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.SilverCoins = 50
	fx := newSessionFixture(requester, testUser(2, "Ben"))

	startedAt := time.Now().UTC().Add(-5 * time.Minute)
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusActive, CoinType: models.CoinSilver,
		StartedAt: &startedAt,
	})

	minutes := 5.0
	first, err := fx.service.Complete(context.Background(), req.ID, 2, &minutes)
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	second, err := fx.service.Complete(context.Background(), req.ID, 1, &minutes)
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}

	if second.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", second.Status)
	}
	if *second.CoinsSpent != *first.CoinsSpent {
		t.Fatalf("second completion changed coins spent: %d vs %d", *second.CoinsSpent, *first.CoinsSpent)
	}
	if fx.ledger.debitCalls != 1 || fx.ledger.creditCalls != 1 {
		t.Fatalf("settlement ran more than once: %d debits, %d credits", fx.ledger.debitCalls, fx.ledger.creditCalls)
	}
}

func TestCompleteRejectsNonActive(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusPending, CoinType: models.CoinSilver,
	})

	_, err := fx.service.Complete(context.Background(), req.ID, 1, nil)
	if !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if fx.ledger.debitCalls != 0 {
		t.Fatalf("no settlement should run, got %d debits", fx.ledger.debitCalls)
	}
}

func TestCompleteCreditsTutorEvenWhenDebitFallsShort(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.SilverCoins = 2
	fx := newSessionFixture(requester, testUser(2, "Ben"))

	startedAt := time.Now().UTC().Add(-20 * time.Minute)
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusActive, CoinType: models.CoinSilver,
		StartedAt: &startedAt,
	})

	minutes := 20.0
	detail, err := fx.service.Complete(context.Background(), req.ID, 2, &minutes)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if detail.Status != models.StatusCompleted {
		t.Fatalf("completion must not roll back, got %s", detail.Status)
	}
	if got := fx.ledger.users[1].SilverCoins; got != 2 {
		t.Fatalf("failed debit must not change balance, got %.2f", got)
	}
	if got := fx.ledger.users[2].SilverCoins; got != 15 {
		t.Fatalf("tutor should still be credited 15, got %.2f", got)
	}
}

func TestCompleteFallsBackToOneMinute(t *testing.T) {
	requester := testUser(1, "Asha")
	requester.SilverCoins = 50
	fx := newSessionFixture(requester, testUser(2, "Ben"))

	// Active but started_at never recorded.
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusActive, CoinType: models.CoinSilver,
	})

	detail, err := fx.service.Complete(context.Background(), req.ID, 1, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if detail.DurationMinutes == nil || *detail.DurationMinutes != 1 {
		t.Fatalf("expected 1 minute fallback, got %v", detail.DurationMinutes)
	}
	if detail.StartedAt == nil {
		t.Fatal("expected started_at backfill")
	}
}

func TestRateIsWriteOncePerParty(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusCompleted, CoinType: models.CoinSilver,
	})

	if _, err := fx.service.Rate(context.Background(), req.ID, 1, 5, strPtr("great session")); err != nil {
		t.Fatalf("requester rating: %v", err)
	}

	_, err := fx.service.Rate(context.Background(), req.ID, 1, 3, nil)
	if !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}

	// The tutor's slot is still open.
	if _, err := fx.service.Rate(context.Background(), req.ID, 2, 4, nil); err != nil {
		t.Fatalf("tutor rating: %v", err)
	}

	if got := fx.ledger.ratings[2]; len(got) != 1 || got[0] != 5 {
		t.Fatalf("tutor should carry one rating of 5, got %v", got)
	}
	if got := fx.ledger.ratings[1]; len(got) != 1 || got[0] != 4 {
		t.Fatalf("requester should carry one rating of 4, got %v", got)
	}

	current, _ := fx.store.GetByID(context.Background(), req.ID)
	if current.Rating == nil || *current.Rating != 5 {
		t.Fatalf("legacy rating mirror should hold 5, got %v", current.Rating)
	}
}

func TestRateRequiresCompletedSession(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusActive, CoinType: models.CoinSilver,
	})

	_, err := fx.service.Rate(context.Background(), req.ID, 1, 5, nil)
	if !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}
}

func TestRateRejectsOutOfRange(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))

	for _, rating := range []int{0, 6, -1} {
		if _, err := fx.service.Rate(context.Background(), 1, 1, rating, nil); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestCancelOnlyByRequesterWhileOpen(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	req := fx.store.add(models.SessionRequest{
		RequesterID: 1, TutorID: 2, Subject: "Algebra",
		Status: models.StatusApproved, CoinType: models.CoinSilver,
	})

	if _, err := fx.service.Cancel(context.Background(), req.ID, 2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("tutor cancel: expected ErrForbidden, got %v", err)
	}

	detail, err := fx.service.Cancel(context.Background(), req.ID, 1)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if detail.Status != models.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", detail.Status)
	}

	if _, err := fx.service.Cancel(context.Background(), req.ID, 1); !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("second cancel: expected ErrNotCancellable, got %v", err)
	}
}

func TestListSessionRequestsFiltersBySide(t *testing.T) {
	fx := newSessionFixture(testUser(1, "Asha"), testUser(2, "Ben"))
	fx.store.add(models.SessionRequest{RequesterID: 1, TutorID: 2, Subject: "Algebra", Status: models.StatusPending, CoinType: models.CoinSilver})
	fx.store.add(models.SessionRequest{RequesterID: 2, TutorID: 1, Subject: "Chemistry", Status: models.StatusPending, CoinType: models.CoinSilver})

	learning, err := fx.service.ListSessionRequests(context.Background(), 1, repository.SessionRequestListFilter{Side: "learning"})
	if err != nil {
		t.Fatalf("list learning: %v", err)
	}
	if len(learning) != 1 || learning[0].Subject != "Algebra" {
		t.Fatalf("expected only the Algebra request, got %v", learning)
	}

	if _, err := fx.service.ListSessionRequests(context.Background(), 1, repository.SessionRequestListFilter{Side: "bogus"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad side, got %v", err)
	}
}
