package api

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	h := New(newTestDB(t), nil, nil, zerolog.New(io.Discard), Options{Secret: "s3cret"})

	tok, err := h.issueToken(staff{ID: 42, Role: domain.RoleOwner})
	require.NoError(t, err)
	got, err := h.parseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, staff{ID: 42, Role: domain.RoleOwner}, got)

	other := New(newTestDB(t), nil, nil, zerolog.New(io.Discard), Options{Secret: "different"})
	_, err = other.parseToken(tok)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, staffClaims{
		Role: domain.RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	raw, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = h.parseToken(raw)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, ok := bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "bearer abc")
	tok, ok := bearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	r.Header.Set("Authorization", "Basic abc")
	_, ok = bearerToken(r)
	assert.False(t, ok)
}
