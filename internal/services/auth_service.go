package services

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/axellelanca/shortly/internal/auth"
	apperrors "github.com/axellelanca/shortly/internal/errors"
	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/repository"
)

// AuthService handles user registration and login. The link lifecycle core
// never talks to it directly; it only consumes the authenticated user id the
// middleware extracts from the tokens minted here.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthService creates and returns a new instance of AuthService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new user account and returns a signed access token.
func (s *AuthService) Register(email, password string) (string, error) {
	_, err := s.userRepo.GetUserByEmail(email)
	if err == nil {
		return "", apperrors.ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("database error checking email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:          email,
		HashedPassword: string(hashed),
		IsActive:       true,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return "", apperrors.ErrEmailTaken
		}
		return "", err
	}

	return auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenTTL)
}

// Login verifies the credentials and returns a signed access token.
func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", fmt.Errorf("database error looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	return auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenTTL)
}
