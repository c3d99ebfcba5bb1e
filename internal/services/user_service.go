package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"worship_management/internal/apperr"
	"worship_management/internal/models"
	"worship_management/internal/repository"
)

var ErrInvalidCredentials = apperr.ErrUnauthorized.New("invalid credentials")

const minPasswordLen = 6

type UserService struct {
	users          repository.UserRepository
	superuserEmail string
	log            *zap.Logger
}

func NewUserService(users repository.UserRepository, superuserEmail string, log *zap.Logger) *UserService {
	return &UserService{users: users, superuserEmail: superuserEmail, log: log}
}

// Authenticate returns the user whose email and password match. Unknown
// emails and wrong passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.users.VerifyPassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindUserByID(ctx, id)
}

// ListSingers is every account except the superuser, by name.
func (s *UserService) ListSingers(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx, s.superuserEmail)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx, "")
}

func (s *UserService) CreateUser(ctx context.Context, in models.UserCreate) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, apperr.ErrValidation.New("name and email are required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperr.ErrValidation.New("password must be at least %d characters", minPasswordLen)
	}
	role, err := parseRole(in.Role)
	if err != nil {
		return nil, err
	}
	defaultKey, err := parseDefaultKey(in.DefaultKey)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, repository.ErrEmailTaken
	}

	hashed, err := s.users.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:       name,
		Email:      email,
		Password:   hashed,
		Role:       role,
		DefaultKey: defaultKey,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, in models.UserUpdate) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.ErrValidation.New("name is required")
		}
		user.Name = name
	}
	if in.Role != nil {
		role, err := parseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if in.DefaultKey != nil {
		key, err := parseDefaultKey(*in.DefaultKey)
		if err != nil {
			return nil, err
		}
		user.DefaultKey = key
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			return nil, apperr.ErrValidation.New("password must be at least %d characters", minPasswordLen)
		}
		hashed, err := s.users.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

// parseRole defaults an empty role to SINGER.
func parseRole(raw string) (models.Role, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return models.RoleSinger, nil
	}
	role := models.Role(raw)
	if !role.Valid() {
		return "", apperr.ErrValidation.New("invalid role %q", raw)
	}
	return role, nil
}

// parseDefaultKey maps "" to no default key.
func parseDefaultKey(raw string) (*models.Key, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	key, ok := models.ParseKey(raw)
	if !ok {
		return nil, apperr.ErrValidation.New("invalid key %q", raw)
	}
	return &key, nil
}
