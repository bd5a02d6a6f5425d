package repositories

import (
	"context"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/core/domain"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a payment attempt
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID gets a payment by ID
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByTrxID gets a payment by the merchant transaction id
func (r *paymentRepository) GetByTrxID(ctx context.Context, trxID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("trx_id = ?", trxID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// List lists payments with pagination
func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter, offset, limit int) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// TransitionStatus applies updates only while the payment is in one of from
func (r *paymentRepository) TransitionStatus(ctx context.Context, id uint, from []domain.PaymentStatus, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

// CloseOpenAttempts moves every PENDING attempt of an enrollment to the given status
func (r *paymentRepository) CloseOpenAttempts(ctx context.Context, enrollmentID string, to domain.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("enrollment_id = ? AND status = ?", enrollmentID, domain.PaymentPending).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()}).Error
}

// ListByStatus lists every payment in a status
func (r *paymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).Where("status = ?", status).Find(&payments).Error
	return payments, err
}
