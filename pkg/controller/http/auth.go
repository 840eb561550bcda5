package http

import (
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrMissingToken = goerr.New("missing bearer token")
	ErrInvalidToken = goerr.New("invalid bearer token")
)

// JWTAuth verifies HS256 signed bearer tokens
type JWTAuth struct {
	secret   []byte
	audience string
}

// NewJWTAuth returns a verifier for tokens signed with secret. When audience is not
// empty, tokens must carry it in their aud claim.
func NewJWTAuth(secret []byte, audience string) (*JWTAuth, error) {
	if len(secret) < 32 {
		return nil, goerr.New("JWT secret must be at least 32 bytes", goerr.V("length", len(secret)))
	}
	return &JWTAuth{secret: secret, audience: audience}, nil
}

// Verify parses and validates the token in the Authorization header of r
func (a *JWTAuth) Verify(r *http.Request) (jwt.Token, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, a.secret),
		jwt.WithValidate(true),
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	token, err := jwt.Parse([]byte(strings.TrimSpace(raw)), opts...)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, err.Error())
	}
	return token, nil
}
