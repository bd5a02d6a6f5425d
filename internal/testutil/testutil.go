// Package testutil provides an in-memory database and fakes for tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/config"
	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every table migrated
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// Config returns a configuration suitable for tests
func Config() *config.Config {
	return &config.Config{
		AppMode:     "dev",
		AppName:     "CourseMart",
		Port:        "3000",
		PublicURL:   "http://api.test",
		FrontendURL: "http://shop.test",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
			DownloadLinkMins: 15,
		},
		Cookie:  config.CookieConfig{SameSite: "lax"},
		Gateway: config.GatewayConfig{StoreID: "teststore", StorePasswd: "secret", Currency: "BDT", Timeout: 5 * time.Second},
		Scheduler: config.SchedulerConfig{
			PaymentExpirySpec:    "@every 10m",
			PaymentExpiryMinutes: 60,
			TokenCleanupSpec:     "0 3 * * *",
		},
		BcryptCost: 4,
	}
}

// CreateUser inserts a user whose password is "password123"
func CreateUser(t testing.TB, db *gorm.DB, name string, role domain.Role) *models.User {
	t.Helper()

	hashed, err := password.HashWithCost("password123", 4)
	require.NoError(t, err)

	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: hashed,
		Role:     role,
		Status:   domain.UserActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCourse inserts a course owned by instructorID
func CreateCourse(t testing.TB, db *gorm.DB, instructorID uint, title string, price int64, status domain.CourseStatus) *models.Course {
	t.Helper()

	course := &models.Course{
		Title:        title,
		Description:  title + " description",
		Price:        decimal.NewFromInt(price),
		Category:     "Programming",
		InstructorID: instructorID,
		Status:       status,
	}
	if status == domain.CoursePublished {
		now := time.Now()
		course.PublishedAt = &now
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

// FakeGateway is an in-memory payment gateway. Sessions are recorded and
// captures registered with Capture are returned by Validate and
// QueryTransaction.
type FakeGateway struct {
	mu       sync.Mutex
	Sessions []domain.CheckoutRequest
	byValID  map[string]domain.GatewayTransaction
	byTranID map[string][]domain.GatewayTransaction

	InitErr     error
	BadSign     bool
	Validations int
}

// NewFakeGateway creates an empty fake
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		byValID:  map[string]domain.GatewayTransaction{},
		byTranID: map[string][]domain.GatewayTransaction{},
	}
}

// InitSession records the checkout request
func (g *FakeGateway) InitSession(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.InitErr != nil {
		return nil, g.InitErr
	}
	g.Sessions = append(g.Sessions, req)
	return &domain.CheckoutSession{
		SessionKey: "SESSION" + req.TransactionID,
		GatewayURL: "https://sandbox.gateway.test/pay/" + req.TransactionID,
	}, nil
}

// Validate returns the capture registered for valID
func (g *FakeGateway) Validate(_ context.Context, valID string) (*domain.GatewayTransaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Validations++
	tx, ok := g.byValID[valID]
	if !ok {
		return &domain.GatewayTransaction{Status: "INVALID_TRANSACTION"}, nil
	}
	return &tx, nil
}

// QueryTransaction returns every capture registered for tranID
func (g *FakeGateway) QueryTransaction(_ context.Context, tranID string) ([]domain.GatewayTransaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.GatewayTransaction(nil), g.byTranID[tranID]...), nil
}

// VerifySign accepts every signature unless BadSign is set
func (g *FakeGateway) VerifySign(map[string]string) bool {
	return !g.BadSign
}

// LastSession returns the most recent checkout request
func (g *FakeGateway) LastSession() (domain.CheckoutRequest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Sessions) == 0 {
		return domain.CheckoutRequest{}, errors.New("no checkout session")
	}
	return g.Sessions[len(g.Sessions)-1], nil
}

// Capture registers a valid payment for req with the given amount and
// returns its validation id
func (g *FakeGateway) Capture(req domain.CheckoutRequest, amount decimal.Decimal) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	valID := "VAL" + req.TransactionID
	tx := domain.GatewayTransaction{
		Status:            "VALID",
		TransactionID:     req.TransactionID,
		ValidationID:      valID,
		BankTransactionID: "BANK" + req.TransactionID[3:9],
		CardType:          "VISA-Dutch Bangla",
		Amount:            amount,
		Currency:          req.Currency,
	}
	g.byValID[valID] = tx
	g.byTranID[req.TransactionID] = append(g.byTranID[req.TransactionID], tx)
	return valID
}

// Mailer records sent messages
type Mailer struct {
	mu   sync.Mutex
	Sent []domain.MailMessage
}

// Send records msg
func (m *Mailer) Send(_ context.Context, msg domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// Count returns the number of sent messages
func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ChatClient is a canned tutor backend
type ChatClient struct {
	Reply    string
	Err      error
	Disabled bool
	Received [][]domain.ChatMessage
}

// Configured reports whether the fake is enabled
func (c *ChatClient) Configured() bool {
	return !c.Disabled
}

// Complete records the conversation and returns the canned reply
func (c *ChatClient) Complete(_ context.Context, messages []domain.ChatMessage) (string, error) {
	c.Received = append(c.Received, messages)
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}
