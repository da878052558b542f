package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadscout/api/internal/auth"
	"github.com/leadscout/api/internal/entity"
	"github.com/leadscout/api/internal/repository"
	"github.com/leadscout/api/internal/session"
)

// ErrInvalidCredentials covers both unknown accounts and wrong passwords so
// responses do not reveal which one happened.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService coordinates credential validation, token issuance and session
// lifecycle announcements.
type AuthService struct {
	users repository.UsersRepository
	jwt   *auth.JWTManager
	bus   *session.Bus
}

// NewAuthService constructs a new AuthService. The bus may be nil when no one
// listens for session events.
func NewAuthService(users repository.UsersRepository, jwtManager *auth.JWTManager, bus *session.Bus) *AuthService {
	return &AuthService{users: users, jwt: jwtManager, bus: bus}
}

// Register creates an account with the "user" role and signs it in.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (string, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return "", errors.New("email and password must not be empty")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, name, string(hashed), "user", nil)
	if err != nil {
		return "", err
	}

	return s.issueToken(user)
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password must not be empty")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// Logout announces the end of a session. Token revocation is the client's
// responsibility, the server only drops the cached working set.
func (s *AuthService) Logout(userID uuid.UUID) {
	if s.bus != nil {
		s.bus.Publish(session.Event{Kind: session.SignedOut, UserID: userID})
	}
}

func (s *AuthService) issueToken(user *entity.User) (string, error) {
	token, err := s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return "", err
	}
	if s.bus != nil {
		s.bus.Publish(session.Event{Kind: session.SignedIn, UserID: user.ID})
	}
	return token, nil
}
