package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/pagination"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrCannotModifySelf = errors.New("cannot change your own role or status")
	ErrInvalidStatus    = errors.New("status must be active or blocked")
	ErrUnknownRole      = errors.New("role must be student, instructor or admin")
)

// UserService handles profile and admin user management
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// ListUsers lists users, optionally filtered by role
func (s *UserService) ListUsers(ctx context.Context, role string, params *pagination.Params) (*pagination.Page[*models.UserResponse], error) {
	users, total, err := s.userRepo.List(ctx, role, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, u.ToResponse())
	}

	return pagination.NewPage(items, params, total), nil
}

// UpdateProfile updates the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// SetStatus blocks or unblocks a user. Blocking revokes every session.
func (s *UserService) SetStatus(ctx context.Context, adminID, userID uint, status domain.UserStatus) (*models.UserResponse, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if adminID == userID {
		return nil, ErrCannotModifySelf
	}

	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Status = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if status == domain.UserBlocked {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
			return nil, err
		}
	}

	log.Printf("✅ User %d status set to %s by admin %d", userID, status, adminID)
	return user.ToResponse(), nil
}

// SetRole changes a user's role
func (s *UserService) SetRole(ctx context.Context, adminID, userID uint, role domain.Role) (*models.UserResponse, error) {
	if !role.Valid() {
		return nil, ErrUnknownRole
	}
	if adminID == userID {
		return nil, ErrCannotModifySelf
	}

	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User %d role set to %s by admin %d", userID, role, adminID)
	return user.ToResponse(), nil
}

func (s *UserService) get(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
