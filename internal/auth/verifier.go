package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carries the identity extracted from a verified access token.
type Claims struct {
	Subject string
	Role    string
}

// Verifier checks bearer tokens issued by the identity provider. Tokens are
// HS256-signed; issuance happens outside this service.
type Verifier struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

// Parse verifies the raw token and returns its claims.
func (v Verifier) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(v.Secret) == 0 {
		return Claims{}, ErrInvalidToken
	}
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, v.Secret),
		jwt.WithValidate(false),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	validator := TokenValidator{
		Issuer:    v.Issuer,
		Audience:  v.Audience,
		ClockSkew: v.ClockSkew,
		Algorithm: jwa.HS256,
	}
	if err := validator.Validate(tok, jwa.HS256, v.now()); err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims := Claims{Subject: tok.Subject()}
	if role, ok := tok.Get("role"); ok {
		if s, ok := role.(string); ok {
			claims.Role = s
		}
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (v Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
