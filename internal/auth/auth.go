// Package auth gates the parental dashboard behind a PIN and short-lived JWTs.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrInvalidPIN   = errors.New("invalid pin")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const (
	RoleParent = "parent"
	DefaultTTL = 12 * time.Hour
	issuer     = "safebrowse"
)

// Claims is the JWT payload issued to the parent.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies dashboard tokens.
type Service struct {
	pinHash string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewService accepts the PIN either in clear or already argon2id-encoded.
// An empty secret is replaced by a random one, which invalidates tokens on restart.
func NewService(pin, secret string, ttl time.Duration, logger *zap.Logger) (*Service, error) {
	if pin == "" {
		return nil, fmt.Errorf("parental pin is required")
	}

	pinHash := pin
	if !IsHashed(pin) {
		var err error
		if pinHash, err = HashPIN(pin); err != nil {
			return nil, fmt.Errorf("failed to hash pin: %w", err)
		}
	}

	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		logger.Warn("No JWT secret configured, using an ephemeral one")
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Service{
		pinHash: pinHash,
		secret:  key,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Login checks pin and returns a signed token with its expiry.
func (s *Service) Login(pin string) (string, time.Time, error) {
	ok, err := VerifyPIN(s.pinHash, pin)
	if err != nil {
		s.logger.Error("Stored pin hash is unusable", zap.Error(err))
		return "", time.Time{}, err
	}
	if !ok {
		s.logger.Warn("Rejected dashboard login")
		return "", time.Time{}, ErrInvalidPIN
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		Role: RoleParent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   RoleParent,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("Parent logged in", zap.Time("expires_at", expiresAt))
	return token, expiresAt, nil
}

// Verify parses token and returns its claims.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Role != RoleParent {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
