package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/hortifruti-api/internal/auth"
	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

// bcrypt refuses longer input. Binding counts runes, so bytes are checked here.
const maxPasswordBytes = 72

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	log      *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, log *slog.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, validationError("password must be at most %d bytes", maxPasswordBytes)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name: name, Email: email, Password: string(hashed),
		Phone: strings.TrimSpace(req.Phone), Role: model.RoleCustomer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, _, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.Info("user registered", "user_id", user.ID)
	return &dto.RegisterResponse{
		ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role, Token: token,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// AdminLogin only admits admin accounts; everyone else gets ErrInvalidCredentials.
func (s *AuthService) AdminLogin(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) authenticate(ctx context.Context, req dto.LoginRequest) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, ExpiresAt: expiresAt, User: toUserResponse(user)}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if other != nil {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Password != nil {
		if len(*req.Password) > maxPasswordBytes {
			return nil, validationError("password must be at most %d bytes", maxPasswordBytes)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID: user.ID, Name: user.Name, Email: user.Email,
		Phone: user.Phone, Role: user.Role, CreatedAt: user.CreatedAt,
	}
}
