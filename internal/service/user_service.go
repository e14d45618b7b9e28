package service

import (
	"context"
	"net/mail"
	"strings"

	"pulse/internal/models"
	"pulse/internal/repository"
)

const minUsernameLen = 3

// UserService manages profiles. Deletion lives in CascadeService.
type UserService struct {
	userRepo repository.UserRepository
}

type CreateUserInput struct {
	Username  string
	Email     string
	AvatarURL string
	Interests []string
	Role      models.Role
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < minUsernameLen {
		return nil, models.NewInvalidInputError("Username must be at least 3 characters")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, models.NewInvalidInputError("A valid email is required")
	}
	switch in.Role {
	case "", models.RoleUser, models.RoleAdmin, models.RoleModerator:
	default:
		return nil, models.NewInvalidInputError("Unknown role")
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		AvatarURL: strings.TrimSpace(in.AvatarURL),
		Interests: in.Interests,
		Role:      in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

// GetUser returns the profile with follower and following counts.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.NewInvalidInputError("user id is required")
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateInterests replaces the user's interests with their normalized form.
func (s *UserService) UpdateInterests(ctx context.Context, userID string, interests []string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.NewInvalidInputError("user id is required")
	}
	if interests == nil {
		return nil, models.NewInvalidInputError("interests must be an array")
	}
	return s.userRepo.UpdateInterests(ctx, userID, interests)
}
