package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursemart/internal/core/domain"
)

func init() {
	// prices travel as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"size:100;not null" json:"name"`
	Email     string            `gorm:"uniqueIndex;size:150;not null" json:"email"`
	Password  string            `gorm:"size:255;not null" json:"-"`
	Role      domain.Role       `gorm:"size:20;not null;default:'student';index" json:"role"`
	Status    domain.UserStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

// IsBlocked reports whether the account may not sign in
func (u *User) IsBlocked() bool {
	return u.Status == domain.UserBlocked
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Course Catalog
// ============================================================

// Course represents courses table
type Course struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	Title           string                      `gorm:"size:200;not null" json:"title"`
	Description     string                      `gorm:"type:text" json:"description"`
	Price           decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	Duration        string                      `gorm:"size:50" json:"duration"`
	Category        string                      `gorm:"size:100;index" json:"category"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	InstructorID    uint                        `gorm:"not null;index" json:"instructor_id"`
	Status          domain.CourseStatus         `gorm:"size:20;not null;default:'draft';index" json:"status"`
	RejectionReason string                      `gorm:"type:text" json:"rejection_reason,omitempty"`
	PublishedAt     *time.Time                  `json:"published_at"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt              `gorm:"index" json:"-"`

	// Relations
	Instructor *User `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseResponse DTO
type CourseResponse struct {
	ID               uint                `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Price            decimal.Decimal     `json:"price"`
	Duration         string              `json:"duration"`
	Category         string              `json:"category"`
	Tags             []string            `json:"tags"`
	InstructorID     uint                `json:"instructor_id"`
	InstructorName   string              `json:"instructor_name,omitempty"`
	Status           domain.CourseStatus `json:"status"`
	RejectionReason  string              `json:"rejection_reason,omitempty"`
	EnrolledStudents int64               `json:"enrolled_students"`
	PublishedAt      *time.Time          `json:"published_at"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (c *Course) ToResponse() *CourseResponse {
	resp := &CourseResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		Price:           c.Price,
		Duration:        c.Duration,
		Category:        c.Category,
		Tags:            []string(c.Tags),
		InstructorID:    c.InstructorID,
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
		PublishedAt:     c.PublishedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if c.Instructor != nil {
		resp.InstructorName = c.Instructor.Name
	}
	return resp
}

// CourseStudent is the enrolled-students set of a course
type CourseStudent struct {
	CourseID  uint      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CourseStudent) TableName() string {
	return "course_students"
}

// ============================================================
// Enrollment Ledger
// ============================================================

// Enrollment represents enrollments table. Student and course fields are
// snapshots taken at enrollment time.
type Enrollment struct {
	ID             string                  `gorm:"primaryKey;size:36" json:"id"`
	StudentID      uint                    `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID       uint                    `gorm:"not null;uniqueIndex:idx_enrollment_student_course;index" json:"course_id"`
	StudentName    string                  `gorm:"size:100" json:"student_name"`
	StudentEmail   string                  `gorm:"size:150" json:"student_email"`
	CourseTitle    string                  `gorm:"size:200" json:"course_title"`
	CoursePrice    decimal.Decimal         `gorm:"type:decimal(12,2);not null" json:"course_price"`
	Status         domain.EnrollmentStatus `gorm:"size:20;not null;index" json:"status"`
	TransactionID  *string                 `gorm:"size:64;index" json:"transaction_id"`
	ValidationID   *string                 `gorm:"size:100" json:"validation_id"`
	Progress       int                     `gorm:"not null;default:0" json:"progress"`
	EnrollmentDate time.Time               `gorm:"not null" json:"enrollment_date"`
	PaymentStartAt *time.Time              `json:"payment_started_at"`
	PaidAt         *time.Time              `gorm:"index" json:"paid_at"`
	CompletionDate *time.Time              `json:"completion_date"`
	CertificateURL *string                 `gorm:"size:255" json:"certificate_url"`
	CreatedAt      time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// BeforeCreate assigns a random id
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// PaymentStatus maps the enrollment state onto the public payment status
func (e *Enrollment) PaymentStatus() string {
	switch {
	case e.Status.IsPending():
		return "pending"
	case e.Status == domain.EnrollmentPaid:
		return "completed"
	default:
		return string(e.Status)
	}
}

// EnrollmentResponse DTO
type EnrollmentResponse struct {
	ID             string                  `json:"id"`
	StudentID      uint                    `json:"student_id"`
	CourseID       uint                    `json:"course_id"`
	StudentName    string                  `json:"student_name"`
	StudentEmail   string                  `json:"student_email"`
	CourseTitle    string                  `json:"course_title"`
	CoursePrice    decimal.Decimal         `json:"course_price"`
	Status         domain.EnrollmentStatus `json:"status"`
	PaymentStatus  string                  `json:"payment_status"`
	TransactionID  *string                 `json:"transaction_id"`
	ValidationID   *string                 `json:"validation_id"`
	Progress       int                     `json:"progress"`
	EnrollmentDate time.Time               `json:"enrollment_date"`
	PaidAt         *time.Time              `json:"paid_at"`
	CompletionDate *time.Time              `json:"completion_date"`
	CertificateURL *string                 `json:"certificate_url"`
	Course         *CourseResponse         `json:"course,omitempty"`
}

func (e *Enrollment) ToResponse() *EnrollmentResponse {
	resp := &EnrollmentResponse{
		ID:             e.ID,
		StudentID:      e.StudentID,
		CourseID:       e.CourseID,
		StudentName:    e.StudentName,
		StudentEmail:   e.StudentEmail,
		CourseTitle:    e.CourseTitle,
		CoursePrice:    e.CoursePrice,
		Status:         e.Status,
		PaymentStatus:  e.PaymentStatus(),
		TransactionID:  e.TransactionID,
		ValidationID:   e.ValidationID,
		Progress:       e.Progress,
		EnrollmentDate: e.EnrollmentDate,
		PaidAt:         e.PaidAt,
		CompletionDate: e.CompletionDate,
		CertificateURL: e.CertificateURL,
	}
	if e.Course != nil {
		resp.Course = e.Course.ToResponse()
	}
	return resp
}

// Payment is one payment attempt for an enrollment
type Payment struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	EnrollmentID string               `gorm:"size:36;not null;index" json:"enrollment_id"`
	UserID       uint                 `gorm:"not null;index" json:"user_id"`
	CourseID     uint                 `gorm:"not null;index" json:"course_id"`
	Amount       decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency     string               `gorm:"size:3;not null" json:"currency"`
	Status       domain.PaymentStatus `gorm:"size:20;not null;index" json:"status"`
	Method       domain.PaymentMethod `gorm:"size:20;not null" json:"method"`
	TrxID        string               `gorm:"size:64;uniqueIndex;not null" json:"trx_id"`
	ValID        *string              `gorm:"size:100" json:"val_id"`
	BankTrxID    *string              `gorm:"size:100" json:"bank_trx_id"`
	CardType     *string              `gorm:"size:50" json:"card_type"`
	RefundReason string               `gorm:"type:text" json:"refund_reason,omitempty"`
	CreatedAt    time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// Invoice is the immutable receipt of a paid enrollment
type Invoice struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	InvoiceNumber string               `gorm:"size:32;index;not null" json:"invoice_number"`
	EnrollmentID  string               `gorm:"size:36;uniqueIndex;not null" json:"enrollment_id"`
	StudentID     uint                 `gorm:"not null;index" json:"student_id"`
	CourseID      uint                 `gorm:"not null;index" json:"course_id"`
	Amount        decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string               `gorm:"size:3;not null" json:"currency"`
	TransactionID string               `gorm:"size:64" json:"transaction_id"`
	ValidationID  string               `gorm:"size:100" json:"validation_id"`
	PaymentMethod domain.PaymentMethod `gorm:"size:20" json:"payment_method"`
	Status        string               `gorm:"size:20;not null" json:"status"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// Invoice statuses
const (
	InvoiceStatusPaid = "PAID"
)

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Course{},
		&CourseStudent{},
		&Enrollment{},
		&Payment{},
		&Invoice{},
	)
}
