package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pollbox/config"
	"pollbox/internal/domain/user"
	"pollbox/internal/repository"
	pollerrors "pollbox/pkg/errors"
)

type AuthService struct {
	users      repository.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	sessionTTL time.Duration
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  time.Duration(cfg.JWTExpiryMin) * time.Minute,
		sessionTTL: time.Duration(cfg.SessionDays) * 24 * time.Hour,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	SessionID   string   `json:"session_id"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

type AccessClaims struct {
	UserID    string `json:"sub"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Register creates the account together with its profile, so every user has a
// profile row from the moment the account exists. Profiles start non-admin.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	if err := validateRegister(in); err != nil {
		return AuthResponse{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return AuthResponse{}, pollerrors.ErrAlreadyExists
	} else if !errors.Is(err, pollerrors.ErrNotFound) {
		return AuthResponse{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}

	newUser := &user.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Profile:      user.Profile{IsAdmin: false},
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.openSession(ctx, *newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	if in.Email == "" || in.Password == "" {
		return AuthResponse{}, fmt.Errorf("%w: email and password are required", pollerrors.ErrInvalidInput)
	}

	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, pollerrors.ErrNotFound) {
		return AuthResponse{}, pollerrors.ErrUnauthorized
	}
	if err != nil {
		return AuthResponse{}, err
	}

	if err := comparePassword(u.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, pollerrors.ErrUnauthorized
	}

	return s.openSession(ctx, u)
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return pollerrors.ErrInvalidInput
	}
	return s.users.RevokeSession(ctx, sessionID)
}

func (s *AuthService) openSession(ctx context.Context, u user.User) (AuthResponse, error) {
	session := &user.Session{
		ID:        uuid.New(),
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return AuthResponse{}, err
	}

	accessToken, expiresIn, err := s.newAccessToken(u.ID, session.ID)
	if err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		SessionID:   session.ID.String(),
		User:        ToUserInfo(u),
	}, nil
}

// Me loads the calling user from the identity carried in ctx.
func (s *AuthService) Me(ctx context.Context) (user.User, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok || userID == uuid.Nil {
		return user.User{}, pollerrors.ErrUnauthorized
	}
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, pollerrors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pollerrors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, pollerrors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, pollerrors.ErrUnauthorized
	}

	return *claims, nil
}

func (s *AuthService) ValidateSession(ctx context.Context, sessionID, userID uuid.UUID) (user.Session, error) {
	session, err := s.users.GetSessionByID(ctx, sessionID)
	if err != nil {
		return user.Session{}, err
	}
	if session.UserID != userID || session.IsRevoked || time.Now().After(session.ExpiresAt) {
		return user.Session{}, pollerrors.ErrUnauthorized
	}
	return session, nil
}

func (s *AuthService) newAccessToken(userID, sessionID uuid.UUID) (string, int64, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(s.accessTTL.Seconds()), nil
}

func validateRegister(in RegisterInput) error {
	var problems []string
	if !strings.Contains(in.Email, "@") {
		problems = append(problems, "email must be a valid address")
	}
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name must not be empty")
	}
	if len(in.Password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", pollerrors.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func ToUserInfo(u user.User) UserInfo {
	return UserInfo{
		ID:      u.ID.String(),
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.Profile.IsAdmin,
	}
}
