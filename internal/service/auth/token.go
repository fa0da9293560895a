// Package auth issues and verifies access and refresh tokens. Tokens are
// HS256 JWTs signed with the server secret concatenated with the user's
// current password hash, so changing a password invalidates every token
// issued before.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"knowledgebase/internal/domain/entity"
)

// ErrInvalidToken covers every parse, signature, expiry and type failure.
var ErrInvalidToken = errors.New("invalid token")

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// ClaimsUser is the public user snapshot embedded in a token.
type ClaimsUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Claims is the token payload.
type Claims struct {
	UserID string     `json:"uid"`
	User   ClaimsUser `json:"user"`
	Type   TokenType  `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is the result of a successful login or refresh.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	// RefreshID is the jti of the refresh token, stored as a session.
	RefreshID string
}

// TokenService signs and verifies tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService. The secret is validated by config.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL is the lifetime of refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) key(passwordHash string) []byte {
	k := make([]byte, 0, len(s.secret)+len(passwordHash))
	k = append(k, s.secret...)
	return append(k, passwordHash...)
}

// Issue signs a token of type typ for user.
func (s *TokenService) Issue(user *entity.User, passwordHash string, typ TokenType) (string, *Claims, error) {
	ttl := s.accessTTL
	if typ == TokenRefresh {
		ttl = s.refreshTTL
	}
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		User:   ClaimsUser{ID: user.ID, Email: user.Email, Name: user.Name()},
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key(passwordHash))
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, claims, nil
}

// IssuePair signs an access and a refresh token.
func (s *TokenService) IssuePair(user *entity.User, passwordHash string) (*Pair, error) {
	access, ac, err := s.Issue(user, passwordHash, TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, rc, err := s.Issue(user, passwordHash, TokenRefresh)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  ac.ExpiresAt.Time,
		RefreshExpiresAt: rc.ExpiresAt.Time,
		RefreshID:        rc.ID,
	}, nil
}

// ParseUnverified decodes the payload without checking the signature. It is
// only used to learn which user's key to verify with, so the user id must be
// a well-formed UUID before it reaches a query.
func (s *TokenService) ParseUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil || len(claims.UserID) != 36 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify checks signature, expiry and type against the user's current
// password hash.
func (s *TokenService) Verify(token, passwordHash string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.key(passwordHash), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
