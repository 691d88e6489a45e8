package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/repositories"
	"purchase_manager_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrEmailExists        = errors.New("email already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

const minPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// AuthResponse carries the issued tokens. The refresh token travels in a cookie.
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"-"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error
	// EnsureAdmin creates the bootstrap admin account when no user owns email.
	EnsureAdmin(ctx context.Context, email, password, fullname string) error
}

type authService struct {
	authRepo repositories.AuthRepository
}

func NewAuthService(authRepo repositories.AuthRepository) AuthService {
	return &authService{authRepo: authRepo}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	access, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	refresh, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return &AuthResponse{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authRepo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	utils.LogInfo("User logged in", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.authRepo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("refresh failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issueTokens(user)
}

func (s *authService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.authRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	utils.LogInfo("Password changed", map[string]interface{}{"user_id": userID})
	return nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password, fullname string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	_, err := s.authRepo.FindUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	if fullname == "" {
		fullname = "Administrator"
	}
	admin := &models.User{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.authRepo.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	utils.LogInfo("Bootstrap admin created", map[string]interface{}{"user_id": admin.ID, "email": email})
	return nil
}
