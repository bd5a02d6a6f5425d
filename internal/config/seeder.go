package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/password"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	if s.cfg.IsDev() {
		if err := s.seedDemoCatalog(); err != nil {
			log.Printf("⚠️ Demo catalog seeder skipped: %v", err)
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first administrator from ADMIN_EMAIL and
// ADMIN_PASSWORD. Nothing happens once any admin exists.
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := s.cfg.Admin
	if admin.Email == "" || admin.Password == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are not set")
	}
	if len(admin.Password) < password.MinLength {
		return errors.New("ADMIN_PASSWORD is too short")
	}

	hashed, err := password.HashWithCost(admin.Password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:     admin.Name,
		Email:    strings.ToLower(strings.TrimSpace(admin.Email)),
		Password: hashed,
		Role:     domain.RoleAdmin,
		Status:   domain.UserActive,
	}
	if err := s.db.Create(user).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", user.Email)
	return nil
}

// seedDemoCatalog publishes a couple of courses on an empty development database
func (s *Seeder) seedDemoCatalog() error {
	var count int64
	if err := s.db.Model(&models.Course{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := password.HashWithCost("instructor123", s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		instructor := &models.User{
			Name:     "Demo Instructor",
			Email:    "instructor@coursemart.local",
			Password: hashed,
			Role:     domain.RoleInstructor,
			Status:   domain.UserActive,
		}
		if err := tx.Where(models.User{Email: instructor.Email}).FirstOrCreate(instructor).Error; err != nil {
			return err
		}

		now := time.Now()
		courses := []*models.Course{
			{
				Title:        "Go for Backend Developers",
				Description:  "Build HTTP services with Fiber and GORM.",
				Price:        decimal.NewFromInt(500),
				Duration:     "6 weeks",
				Category:     "Programming",
				Tags:         datatypes.JSONSlice[string]{"go", "backend"},
				InstructorID: instructor.ID,
				Status:       domain.CoursePublished,
				PublishedAt:  &now,
			},
			{
				Title:        "SQL Fundamentals",
				Description:  "Queries, joins and indexes from scratch.",
				Price:        decimal.NewFromInt(300),
				Duration:     "4 weeks",
				Category:     "Databases",
				Tags:         datatypes.JSONSlice[string]{"sql"},
				InstructorID: instructor.ID,
				Status:       domain.CoursePublished,
				PublishedAt:  &now,
			},
		}
		if err := tx.Create(&courses).Error; err != nil {
			return err
		}

		log.Printf("✅ Demo catalog created (%d courses)", len(courses))
		return nil
	})
}
