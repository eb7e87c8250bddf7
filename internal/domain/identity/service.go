package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mchtrack/mchtrack/internal/platform/auth"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const bcryptCost = 10

// Session is the result of a successful register or login.
type Session struct {
	User  Profile `json:"user"`
	Token string  `json:"token"`
}

type Service struct {
	repo   Repository
	tokens *auth.TokenManager
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "identity").Logger(),
	}
}

func (s *Service) Register(ctx context.Context, email, password, name string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("invalid email")
	}
	if len(password) < 6 {
		return Session{}, fmt.Errorf("password must be at least 6 characters")
	}
	if len(strings.TrimSpace(name)) < 2 {
		return Session{}, fmt.Errorf("name must be at least 2 characters")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return Session{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.repo.Create(ctx, User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         "user",
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return Session{}, err
	}

	return s.session(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

// Verify resolves a bearer token back to its user profile.
func (s *Service) Verify(tokenStr string) (Profile, error) {
	claims, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}

const (
	defaultUserEmail    = "demo@healthai.com"
	defaultUserPassword = "password123"
	defaultUserName     = "Dr. Sarah Chen"
)

// EnsureDefaultUser creates the demo admin account when it does not exist,
// so a fresh deployment can always be logged into.
func (s *Service) EnsureDefaultUser(ctx context.Context) error {
	if _, err := s.repo.FindByEmail(ctx, defaultUserEmail); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultUserPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing default password: %w", err)
	}

	_, err = s.repo.Create(ctx, User{
		Email:        defaultUserEmail,
		PasswordHash: string(hash),
		Name:         defaultUserName,
		Role:         "admin",
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("email", defaultUserEmail).Msg("demo user created")
	return nil
}

func (s *Service) session(user User) (Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user.Profile(), Token: token}, nil
}
