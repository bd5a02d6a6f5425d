package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/config"

	"github.com/robfig/cron/v3"
)

// MaintenanceService runs the periodic housekeeping jobs
type MaintenanceService struct {
	payments *PaymentService
	tokens   repositories.RefreshTokenRepository
	cfg      config.SchedulerConfig
	cron     *cron.Cron
}

// NewMaintenanceService creates the scheduler. Jobs are registered by Start.
func NewMaintenanceService(payments *PaymentService, tokens repositories.RefreshTokenRepository, cfg config.SchedulerConfig) *MaintenanceService {
	return &MaintenanceService{
		payments: payments,
		tokens:   tokens,
		cfg:      cfg,
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start registers the jobs and starts the scheduler
func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.PaymentExpirySpec, func() { s.ExpirePayments(context.Background()) }); err != nil {
		return fmt.Errorf("payment expiry schedule %q: %w", s.cfg.PaymentExpirySpec, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.TokenCleanupSpec, func() { s.CleanupTokens(context.Background()) }); err != nil {
		return fmt.Errorf("token cleanup schedule %q: %w", s.cfg.TokenCleanupSpec, err)
	}

	s.cron.Start()
	log.Printf("🚀 Scheduler started [expiry: %s, cleanup: %s]", s.cfg.PaymentExpirySpec, s.cfg.TokenCleanupSpec)
	return nil
}

// Stop waits for running jobs to finish
func (s *MaintenanceService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Scheduler stopped")
}

// ExpirePayments cancels checkouts that were abandoned at the gateway
func (s *MaintenanceService) ExpirePayments(ctx context.Context) int {
	maxAge := time.Duration(s.cfg.PaymentExpiryMinutes) * time.Minute
	n, err := s.payments.ExpireStale(ctx, maxAge)
	if err != nil {
		log.Printf("❌ Payment expiry failed after %d: %v", n, err)
		return n
	}
	if n > 0 {
		log.Printf("✅ Expired %d stale checkouts", n)
	}
	return n
}

// CleanupTokens removes expired and revoked refresh tokens
func (s *MaintenanceService) CleanupTokens(ctx context.Context) int64 {
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		log.Printf("❌ Token cleanup failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("✅ Removed %d refresh tokens", n)
	}
	return n
}
