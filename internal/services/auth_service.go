package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pulse-chat/config"
	"pulse-chat/internal/domain/user"
	"pulse-chat/internal/repository"
	pulse_errors "pulse-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
	}
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

type AccessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResponse, error) {
	if input.Username == "" || len(input.Password) < 8 {
		return AuthResponse{}, pulse_errors.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	u := user.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: string(hash),
		DisplayName:  input.DisplayName,
	}
	if input.Email != "" {
		u.Email = sql.NullString{String: input.Email, Valid: true}
	}
	if err := s.userRepo.Create(ctx, &u); err != nil {
		return AuthResponse{}, err
	}
	return s.issueToken(u.ID)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResponse, error) {
	u, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, pulse_errors.ErrNotFound) {
			return AuthResponse{}, pulse_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)) != nil {
		return AuthResponse{}, pulse_errors.ErrUnauthorized
	}
	return s.issueToken(u.ID)
}

func (s *AuthService) issueToken(userID uuid.UUID) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		UserID:      userID.String(),
	}, nil
}

func (s *AuthService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, pulse_errors.ErrUnauthorized
	}
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pulse_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, pulse_errors.ErrUnauthorized
	}
	return claims, nil
}
