// auth/jwt.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const DefaultJWTTTL = 5 * time.Minute

// JWTConfig describes the HS256 service tokens some JSONAPI backends expect as
// bearer credentials.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	Subject    string
	Audience   []string
	TTL        time.Duration // defaults to DefaultJWTTTL

	now func() time.Time
}

type jwtSource struct {
	cfg JWTConfig
}

// NewJWTTokenSource returns a TokenSource minting signed tokens from cfg. Tokens are
// reused until shortly before they expire.
func NewJWTTokenSource(cfg JWTConfig) (oauth2.TokenSource, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("jwt signing key is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultJWTTTL
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return oauth2.ReuseTokenSource(nil, &jwtSource{cfg: cfg}), nil
}

func (s *jwtSource) Token() (*oauth2.Token, error) {
	now := s.cfg.now()
	exp := now.Add(s.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   s.cfg.Subject,
		Audience:  jwt.ClaimStrings(s.cfg.Audience),
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}
	return &oauth2.Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		Expiry:      exp,
	}, nil
}
