package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/onestop/core/user"
)

var (
	testSecret = []byte("test-secret")
	aliceID    = user.Identity{ID: 7, Name: "Alice", Email: "alice@x.com", Role: user.RoleStudent}
)

func newTestCodec(now time.Time) *TokenCodec {
	codec := NewTokenCodec(testSecret, "Academic OneStop", 24*time.Hour)
	codec.nowFunc = func() time.Time { return now }
	return codec
}

func tamperSignature(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[10] == 'A' {
		sig[10] = 'B'
	} else {
		sig[10] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	codec := newTestCodec(issuedAt)

	token, err := codec.Issue(NewClaims(aliceID), 0)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, aliceID.ID, id)
	assert.Equal(t, aliceID.Name, claims.Name)
	assert.Equal(t, aliceID.Email, claims.Email)
	assert.Equal(t, aliceID.Role, claims.Role)
	assert.Equal(t, issuedAt, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issuedAt.Add(24*time.Hour), claims.ExpiresAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestTokenCodec_Expiry(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour
	codec := newTestCodec(issuedAt)

	token, err := codec.Issue(NewClaims(aliceID), ttl)
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{name: "at issue time", now: issuedAt},
		{name: "half way", now: issuedAt.Add(ttl / 2)},
		{name: "just before expiry", now: issuedAt.Add(ttl - time.Millisecond)},
		{name: "at expiry", now: issuedAt.Add(ttl), wantErr: ErrTokenExpired},
		{name: "after expiry", now: issuedAt.Add(ttl + time.Hour), wantErr: ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec.nowFunc = func() time.Time { return tt.now }
			_, err := codec.Verify(token)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestTokenCodec_Invalid(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	codec := newTestCodec(issuedAt)

	token, err := codec.Issue(NewClaims(aliceID), 0)
	require.NoError(t, err)

	otherCodec := NewTokenCodec([]byte("other-secret"), "Academic OneStop", time.Hour)
	otherCodec.nowFunc = codec.nowFunc
	foreign, err := otherCodec.Issue(NewClaims(aliceID), 0)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, NewClaims(aliceID)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, NewClaims(aliceID)).SignedString(testSecret)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "tampered signature", token: tamperSignature(token)},
		{name: "tampered payload", token: parts[0] + "." + parts[1] + "x." + parts[2]},
		{name: "other secret", token: foreign},
		{name: "alg none", token: unsigned},
		{name: "no expiry", token: noExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			assert.Equal(t, ErrTokenInvalid, err)
		})
	}

	t.Run("signature is checked before expiry", func(t *testing.T) {
		codec.nowFunc = func() time.Time { return issuedAt.Add(48 * time.Hour) }
		_, err := codec.Verify(tamperSignature(token))
		assert.Equal(t, ErrTokenInvalid, err)

		_, err = codec.Verify(token)
		assert.Equal(t, ErrTokenExpired, err)
	})
}

func TestClaims_UserID(t *testing.T) {
	for _, sub := range []string{"", "abc", "0", "-3"} {
		_, err := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}.UserID()
		assert.Equal(t, ErrTokenInvalid, err, "subject %q", sub)
	}
}
