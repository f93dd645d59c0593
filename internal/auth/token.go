// Package auth issues and verifies the signed session tokens handed out at
// login, and gates routes on them.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-directory/pkg/utilities"
)

type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	// Ephemeral is true when no JWT_SECRET was configured and a random one was
	// generated; tokens then do not survive a restart.
	Ephemeral bool
}

// ConfigFromEnv reads JWT_SECRET, JWT_ISSUER and JWT_TTL.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Secret: []byte(utilities.EnvString("JWT_SECRET", "")),
		Issuer: utilities.EnvString("JWT_ISSUER", "service-directory"),
		TTL:    utilities.EnvDuration("JWT_TTL", time.Hour),
	}
	if len(cfg.Secret) == 0 {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return Config{}, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Secret = b
		cfg.Ephemeral = true
	}
	return cfg, nil
}

// Identity is the sanitized user record a token is issued from.
type Identity struct {
	UserID     int64
	Email      string
	FirstName  string
	LastName   string
	UserTypeID int
}

// Claims is the token payload.
type Claims struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	UserTypeID int    `json:"user_type_id"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// TokenService signs HS256 session tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg Config) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: cfg.Secret, issuer: cfg.Issuer, ttl: ttl, now: time.Now}
}

// Issue creates a signed token for id.
func (s *TokenService) Issue(id Identity) (string, error) {
	now := s.now()
	claims := Claims{
		Email:      id.Email,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		UserTypeID: id.UserTypeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, issuer and expiry.
func (s *TokenService) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
