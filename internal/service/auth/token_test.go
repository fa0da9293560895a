package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgebase/internal/domain/entity"
)

/* ───────── ヘルパ ───────── */

const testSecret = "0123456789abcdef0123456789abcdef-test"

func testUser() *entity.User {
	return &entity.User{ID: "11111111-1111-1111-1111-111111111111", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
}

func newService(now time.Time) *TokenService {
	s := NewTokenService(testSecret, time.Hour, 24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

/* ───────── Issue / Verify ───────── */

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newService(now)

	tok, claims, err := s.Issue(testUser(), "hash-1", TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.User.Name)
	assert.Equal(t, now.Add(time.Hour), claims.ExpiresAt.Time)
	assert.NotEmpty(t, claims.ID)

	got, err := s.Verify(tok, "hash-1", TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.User.Email)
	assert.Equal(t, TokenAccess, got.Type)
}

func TestVerify_PasswordChangeInvalidates(t *testing.T) {
	s := newService(time.Now())
	tok, _, err := s.Issue(testUser(), "old-hash", TokenAccess)
	require.NoError(t, err)

	_, err = s.Verify(tok, "new-hash", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongType(t *testing.T) {
	s := newService(time.Now())
	tok, _, err := s.Issue(testUser(), "h", TokenRefresh)
	require.NoError(t, err)

	_, err = s.Verify(tok, "h", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.Verify(tok, "h", TokenRefresh)
	assert.NoError(t, err)
}

func TestVerify_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	s := newService(issued)
	tok, _, err := s.Issue(testUser(), "h", TokenAccess)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(tok, "h", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	s := newService(time.Now())
	claims := &Claims{
		UserID: "u", Type: TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(tok, "h", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	s := newService(time.Now())
	_, err := s.Verify("not.a.jwt", "h", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

/* ───────── ParseUnverified ───────── */

func TestParseUnverified(t *testing.T) {
	s := newService(time.Now())
	tok, _, err := s.Issue(testUser(), "h", TokenAccess)
	require.NoError(t, err)

	// tamper with the signature: payload is still readable
	tampered := tok[:strings.LastIndex(tok, ".")+1] + "AAAA"
	claims, err := s.ParseUnverified(tampered)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, claims.UserID)

	_, err = s.Verify(tampered, "h", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ParseUnverified("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseUnverified_RejectsMalformedUserID(t *testing.T) {
	for _, uid := range []string{"", "not-a-uuid", "1 OR 1=1", "urn:uuid:11111111-1111-1111-1111-111111111111"} {
		t.Run(uid, func(t *testing.T) {
			claims := Claims{UserID: uid, Type: TokenAccess}
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("anything"))
			require.NoError(t, err)

			_, err = newService(time.Now()).ParseUnverified(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

/* ───────── IssuePair ───────── */

func TestIssuePair(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := newService(now)

	pair, err := s.IssuePair(testUser(), "h")
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), pair.AccessExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour), pair.RefreshExpiresAt)

	rc, err := s.Verify(pair.RefreshToken, "h", TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshID, rc.ID)
	assert.Equal(t, 24*time.Hour, s.RefreshTTL())
}

/* ───────── パスワード ───────── */

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$2a$10$"))
	assert.True(t, VerifyPassword(h, "correct horse"))
	assert.False(t, VerifyPassword(h, "wrong horse"))
	assert.NotPanics(t, func() { BurnPasswordCheck("x") })
}
