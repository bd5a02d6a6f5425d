package repositories

import (
	"context"

	"coursemart/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// invoiceRepository implements InvoiceRepository interface
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// CreateIfAbsent inserts the invoice unless one already exists for the
// enrollment. Reports whether a row was written.
func (r *invoiceRepository) CreateIfAbsent(ctx context.Context, invoice *models.Invoice) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(invoice)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetByEnrollmentID gets the invoice of an enrollment
func (r *invoiceRepository) GetByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).Where("enrollment_id = ?", enrollmentID).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
