// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type UserService struct {
	store   repository.Store
	timeout time.Duration
}

type CreateUserRequest struct {
	Email       string                 `json:"email" validate:"required,email"`
	Name        string                 `json:"name" validate:"required,min=2,max=255"`
	Phone       string                 `json:"phone,omitempty" validate:"omitempty,max=32"`
	Role        string                 `json:"role,omitempty" validate:"omitempty,oneof=customer staff admin"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

func NewUserService(store repository.Store, timeout time.Duration) *UserService {
	return &UserService{
		store:   store,
		timeout: timeout,
	}
}

// Resolve returns the user behind a token subject. Suspended users are refused.
func (s *UserService) Resolve(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user", userID.String())
	}
	if user.Status != models.UserStatusActive {
		return nil, &ForbiddenError{Resource: "account"}
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user", userID.String())
	}
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	role := models.UserRoleCustomer
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}

	user := &models.User{
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Name:        strings.TrimSpace(req.Name),
		Phone:       req.Phone,
		Role:        role,
		Status:      models.UserStatusActive,
		ProfileData: models.JSONB(req.ProfileData),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, translate(err, "user", user.Email)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User created")

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	users, total, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) UpdateUserStatus(ctx context.Context, actor Actor, userID uuid.UUID, status string) (*models.User, error) {
	newStatus := models.UserStatus(status)
	if newStatus != models.UserStatusActive && newStatus != models.UserStatusSuspended {
		return nil, &InvalidStatusError{Status: status}
	}
	if userID == actor.UserID && newStatus == models.UserStatusSuspended {
		return nil, &ValidationError{Field: "status", Reason: "cannot suspend your own account"}
	}

	return s.update(ctx, userID, func(user *models.User) {
		user.Status = newStatus
	})
}

func (s *UserService) UpdateUserRole(ctx context.Context, actor Actor, userID uuid.UUID, role string) (*models.User, error) {
	newRole := models.UserRole(role)
	switch newRole {
	case models.UserRoleCustomer, models.UserRoleStaff, models.UserRoleAdmin:
	default:
		return nil, &ValidationError{Field: "role", Reason: "must be customer, staff or admin"}
	}
	if userID == actor.UserID && newRole != models.UserRoleAdmin {
		return nil, &ValidationError{Field: "role", Reason: "cannot demote your own account"}
	}

	return s.update(ctx, userID, func(user *models.User) {
		user.Role = newRole
	})
}

func (s *UserService) update(ctx context.Context, userID uuid.UUID, mutate func(*models.User)) (*models.User, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user", userID.String())
	}

	mutate(user)
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, translate(err, "user", userID.String())
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
		"status":  user.Status,
	}).Info("User updated")

	return user, nil
}

// SeedAdmin creates the initial administrator unless a user with that email exists.
func (s *UserService) SeedAdmin(ctx context.Context, email, name string) (*models.User, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	admin := &models.User{
		Email:  email,
		Name:   name,
		Role:   models.UserRoleAdmin,
		Status: models.UserStatusActive,
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return nil, translate(err, "user", email)
	}

	logrus.WithField("email", email).Info("Default admin user created")
	return admin, nil
}
