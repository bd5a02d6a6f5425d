package services

import (
	"context"

	"coursemart/internal/core/domain"
)

// PaymentGateway is the hosted checkout provider
type PaymentGateway interface {
	InitSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
	Validate(ctx context.Context, valID string) (*domain.GatewayTransaction, error)
	QueryTransaction(ctx context.Context, tranID string) ([]domain.GatewayTransaction, error)
	VerifySign(fields map[string]string) bool
}

// Mailer delivers transactional e-mail
type Mailer interface {
	Send(ctx context.Context, msg domain.MailMessage) error
}

// ChatCompleter answers tutor conversations
type ChatCompleter interface {
	Configured() bool
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}
