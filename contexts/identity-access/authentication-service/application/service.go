package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"crewdeck/contexts/identity-access/authentication-service/domain/entities"
	domainerrors "crewdeck/contexts/identity-access/authentication-service/domain/errors"
	"crewdeck/contexts/identity-access/authentication-service/ports"
)

// Service implements registration, login, and session validation.
type Service struct {
	Repo        ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	SecretKey   string
	TokenTTL    time.Duration
	Logger      *slog.Logger
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      entities.User
}

func (s Service) Register(ctx context.Context, input RegisterInput) (entities.User, error) {
	logger := ResolveLogger(s.Logger)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" {
		return entities.User{}, domainerrors.ErrInvalidRequest
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return entities.User{}, domainerrors.ErrInvalidEmail
	}
	if len(input.Password) < 8 {
		return entities.User{}, domainerrors.ErrPasswordTooShort
	}
	if len(input.Password) > 72 {
		return entities.User{}, domainerrors.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return entities.User{}, err
	}

	userID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}

	now := s.now()
	user := entities.User{
		UserID:       userID,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       entities.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		logger.Warn("user registration failed",
			"event", "authn_register_failed",
			"module", "identity-access/authentication-service",
			"layer", "application",
			"email", email,
			"error", err.Error(),
		)
		return entities.User{}, err
	}

	logger.Info("user registered",
		"event", "authn_register_completed",
		"module", "identity-access/authentication-service",
		"layer", "application",
		"user_id", user.UserID,
	)
	return user, nil
}

func (s Service) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	logger := ResolveLogger(s.Logger)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, domainerrors.ErrInvalidCredentials
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			// Same error as a bad password so callers cannot enumerate accounts.
			return LoginResult{}, domainerrors.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if user.Status != entities.UserStatusActive {
		return LoginResult{}, domainerrors.ErrUserDeactivated
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		logger.Warn("login rejected",
			"event", "authn_login_rejected",
			"module", "identity-access/authentication-service",
			"layer", "application",
			"user_id", user.UserID,
		)
		return LoginResult{}, domainerrors.ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL())
	claims := jwt.MapClaims{
		"user_id": user.UserID,
		"email":   user.Email,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.SecretKey))
	if err != nil {
		return LoginResult{}, err
	}

	logger.Info("login completed",
		"event", "authn_login_completed",
		"module", "identity-access/authentication-service",
		"layer", "application",
		"user_id", user.UserID,
	)
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate validates a session token and returns the identity it carries.
func (s Service) Authenticate(ctx context.Context, tokenString string) (entities.Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return entities.Claims{}, domainerrors.ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Exact signing method check prevents algorithm confusion.
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return entities.Claims{}, domainerrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entities.Claims{}, domainerrors.ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return entities.Claims{}, domainerrors.ErrInvalidToken
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return entities.Claims{}, domainerrors.ErrInvalidToken
	}
	if user.Status != entities.UserStatusActive {
		return entities.Claims{}, domainerrors.ErrUserDeactivated
	}
	return entities.Claims{UserID: userID, Email: email}, nil
}

func (s Service) GetProfile(ctx context.Context, userID string) (entities.User, error) {
	if strings.TrimSpace(userID) == "" {
		return entities.User{}, domainerrors.ErrInvalidRequest
	}
	return s.Repo.GetUserByID(ctx, userID)
}

func (s Service) ChangePassword(ctx context.Context, userID string, current string, next string) error {
	if strings.TrimSpace(userID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if len(next) < 8 {
		return domainerrors.ErrPasswordTooShort
	}
	if len(next) > 72 {
		return domainerrors.ErrPasswordTooLong
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domainerrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePasswordHash(ctx, userID, string(hash), s.now())
}

func (s Service) tokenTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return s.TokenTTL
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
