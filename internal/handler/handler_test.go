package handler_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/farhan/stepmates/internal/apperror"
	"github.com/farhan/stepmates/internal/auth"
	"github.com/farhan/stepmates/internal/mail"
	"github.com/farhan/stepmates/internal/metrics"
	"github.com/farhan/stepmates/internal/model"
	"github.com/farhan/stepmates/internal/otp"
	"github.com/farhan/stepmates/internal/service"
)

// memStore is an in-memory implementation of both repository interfaces,
// shared by the handler tests.
type memStore struct {
	accounts map[string]*model.Account
	records  map[string]*model.ActivityRecord
	order    []string
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]*model.Account),
		records:  make(map[string]*model.ActivityRecord),
	}
}

func (m *memStore) FindByID(_ context.Context, id string) (*model.Account, error) {
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, apperror.NotFound("account", id)
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("account", email)
}

func (m *memStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.Username == username || a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("account", username)
}

func (m *memStore) Create(_ context.Context, account *model.Account) error {
	m.nextID++
	account.ID = "acct-" + strconv.Itoa(m.nextID)
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *memStore) Update(_ context.Context, account *model.Account) error {
	if _, ok := m.accounts[account.ID]; !ok {
		return apperror.NotFound("account", account.ID)
	}
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *memStore) GetByAccount(_ context.Context, accountID string) (*model.ActivityRecord, error) {
	rec, ok := m.records[accountID]
	if !ok {
		return nil, apperror.NotFound("activity record", accountID)
	}
	copied := *rec
	copied.Days = make(map[string]int64, len(rec.Days))
	for k, v := range rec.Days {
		copied.Days[k] = v
	}
	return &copied, nil
}

func (m *memStore) Save(_ context.Context, record *model.ActivityRecord) error {
	if _, ok := m.records[record.AccountID]; !ok {
		record.ID = "rec-" + record.AccountID
		m.order = append(m.order, record.AccountID)
	}
	copied := *record
	copied.Days = make(map[string]int64, len(record.Days))
	for k, v := range record.Days {
		copied.Days[k] = v
	}
	m.records[record.AccountID] = &copied
	return nil
}

func (m *memStore) TopByTotalSteps(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	sort.SliceStable(ids, func(i, j int) bool {
		return m.records[ids[i]].TotalSteps > m.records[ids[j]].TotalSteps
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	entries := make([]model.LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		rec := m.records[id]
		entries = append(entries, model.LeaderboardEntry{
			Name:       m.accounts[id].Username,
			TotalSteps: rec.TotalSteps,
			DailyGoal:  rec.DailyGoal,
		})
	}
	return entries, nil
}

// okMailer accepts every delivery.
type okMailer struct{}

func (okMailer) Send(context.Context, string, string, string) bool { return true }

var _ mail.Mailer = okMailer{}

// fixedCode is the code the test generator always issues.
const fixedCode = "654321"

type env struct {
	store    *memStore
	tokens   *auth.TokenService
	authSvc  *service.AuthService
	actSvc   *service.ActivityService
	logger  *slog.Logger
	nowDate string
}

// newEnv wires real services over the in-memory store, with a fixed
// verification code and the wall clock.
func newEnv(t *testing.T) *env {
	t.Helper()

	store := newMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	gen := otp.NewGeneratorForTest(func(int) int { return 554321 }, time.Now)

	authSvc := service.NewAuthService(store, tokens,
		auth.NewPasswordServiceForTest(bcrypt.MinCost),
		gen, okMailer{}, metrics.Nop{}, logger)
	actSvc := service.NewActivityService(store, store, metrics.Nop{}, logger)

	return &env{
		store:   store,
		tokens:  tokens,
		authSvc: authSvc,
		actSvc:  actSvc,
		logger:  logger,
		nowDate: time.Now().Format(model.DateLayout),
	}
}

// registerVerified seeds a verified account through the real flow and
// returns its session token.
func (e *env) registerVerified(t *testing.T, username, email, password string) string {
	t.Helper()
	if _, err := e.authSvc.Register(context.Background(), username, email, password); err != nil {
		t.Fatalf("Register: %v", err)
	}
	res, err := e.authSvc.VerifyCode(context.Background(), email, fixedCode)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	return res.Token
}
