package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

func TestTokenManagerIssueAndParse(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	raw, issued, err := tm.Issue("u-1", domain.RoleAdmin)
	require.NoError(t, err)

	session, err := tm.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.Equal(t, domain.RoleAdmin, session.Role)
	assert.Equal(t, issued.TokenID, session.TokenID)
	assert.WithinDuration(t, issued.ExpiresAt, session.ExpiresAt, time.Second)
}

func TestTokenManagerUniqueTokenIDs(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, a, err := tm.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)
	_, b, err := tm.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestTokenManagerRejectsTamperedToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	raw, _, err := tm.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	require.Contains(t, string(payload), `"role":"USER"`)

	elevated := strings.Replace(string(payload), `"role":"USER"`, `"role":"ADMIN"`, 1)
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(elevated)) + "." + parts[2]

	_, err = tm.Parse(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManagerRejectsForeignSecret(t *testing.T) {
	raw, _, err := NewTokenManager("other-secret", time.Hour).Issue("u-1", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManagerExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	past := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return past }
	raw, _, err := tm.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManagerRejectsOtherAlgorithms(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	claims := &Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManagerRejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	raw, _, err := tm.Issue("u-1", domain.Role("ROOT"))
	require.NoError(t, err)

	_, err = tm.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManagerGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	_, err := tm.Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
