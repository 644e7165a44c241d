package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenSource supplies the bearer token for an outgoing request. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

const (
	jwtLifetime    = 5 * time.Minute
	jwtRenewBefore = 30 * time.Second
	jwtIssuer      = "orca"
	anonymousSub   = "anonymous"
)

type cachedToken struct {
	value   string
	expires time.Time
}

// JWTSource mints HS256 tokens whose subject is the browser session id, and
// reuses each one until shortly before it expires.
type JWTSource struct {
	secret []byte
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedToken
}

func NewJWTSource(secret string) (*JWTSource, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTSource{
		secret: []byte(secret),
		now:    time.Now,
		cache:  make(map[string]cachedToken),
	}, nil
}

func (s *JWTSource) Token(ctx context.Context) (string, error) {
	subject := SessionFromContext(ctx)
	if subject == "" {
		subject = anonymousSub
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok, ok := s.cache[subject]; ok && now.Before(tok.expires.Add(-jwtRenewBefore)) {
		return tok.value, nil
	}

	expires := now.Add(jwtLifetime)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    jwtIssuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign api token: %w", err)
	}

	for k, tok := range s.cache {
		if !now.Before(tok.expires) {
			delete(s.cache, k)
		}
	}
	s.cache[subject] = cachedToken{value: signed, expires: expires}
	return signed, nil
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionKey
)

// WithRequestID makes the client forward id as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSession records the browser session the call is made for.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}
