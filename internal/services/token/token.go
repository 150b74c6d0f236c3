package token

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/sproutplan/sproutplan-api/internal/models"
)

const (
	// DefaultTTL is the default session token lifetime (30 days)
	DefaultTTL = 30 * 24 * time.Hour
	// Issuer is the iss claim stamped on every session token
	Issuer = "sproutplan-api"
)

// Service issues and verifies HS256 session tokens. The task and
// stats core never sees raw tokens; the auth middleware resolves them
// to a user before any core operation runs.
type Service struct {
	key []byte
	ttl time.Duration
}

// NewService creates a token service with the given signing secret
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{key: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed session token for the user
func (s *Service) Issue(user *models.User) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(user.ID.String()).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Claim("username", user.Username).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify parses and validates a session token and extracts its claims
func (s *Service) Verify(tokenString string) (*models.SessionClaims, error) {
	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	claims := &models.SessionClaims{
		Sub: tok.Subject(),
		Iss: tok.Issuer(),
	}
	if !tok.Expiration().IsZero() {
		claims.Exp = tok.Expiration().Unix()
	}
	if !tok.IssuedAt().IsZero() {
		claims.Iat = tok.IssuedAt().Unix()
	}
	if username, ok := tok.Get("username"); ok {
		if usernameStr, ok := username.(string); ok {
			claims.Username = usernameStr
		}
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("token missing subject claim")
	}

	return claims, nil
}
