package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/config"
	"github.com/stemsi/exstem-learn/internal/model"
	"github.com/stemsi/exstem-learn/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// TokenType distinguishes token audiences.
type TokenType string

const (
	TokenTypeLearner TokenType = "learner"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id"`
}

// AuthService handles authentication, JWT, and the per-learner session.
// A learner has at most one live token: a new login replaces the session
// and earlier tokens stop validating.
type AuthService struct {
	cfg         *config.Config
	learnerRepo *repository.LearnerRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, learnerRepo *repository.LearnerRepository, rdb *redis.Client, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:         cfg,
		learnerRepo: learnerRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the given bcrypt cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and issues a learner token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	learner, err := s.learnerRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get learner: %w", err)
	}
	if err := CheckPassword(learner.PasswordHash, password); err != nil {
		return nil, err
	}

	token, err := s.GenerateLearnerToken(ctx, learner.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("learner_id", learner.ID).Msg("Learner logged in")
	return &model.LoginResponse{Token: token, Learner: learner}, nil
}

// GenerateLearnerToken creates a JWT and records its JTI as the learner's
// active session in Redis.
func (s *AuthService) GenerateLearnerToken(ctx context.Context, learnerID int) (string, error) {
	jti := uuid.NewString()
	signed, err := SignToken(s.cfg.JWTSecret, learnerID, jti, time.Now(), s.cfg.JWTExpiry)
	if err != nil {
		return "", err
	}

	sessionKey := config.CacheKey.LearnerSessionKey(learnerID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// SignToken builds and signs a learner token.
func SignToken(secret string, learnerID int, jti string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(learnerID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: TokenTypeLearner,
		UserID:    learnerID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	return ParseToken(s.cfg.JWTSecret, tokenStr)
}

// ParseToken verifies tokenStr against secret.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateLearnerSession checks that the token's JTI is the active session.
func (s *AuthService) ValidateLearnerSession(ctx context.Context, learnerID int, jti string) error {
	sessionKey := config.CacheKey.LearnerSessionKey(learnerID)
	stored, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}
