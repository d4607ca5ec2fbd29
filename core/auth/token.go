package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
)

var signingMethod = jwt.SigningMethodHS256

// Claims represents the authorization claims transmitted via a JWT.
// Only the subject is trusted on the way back in: the identity is always reloaded from the store.
type Claims struct {
	jwt.RegisteredClaims
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
	Role  user.Role `json:"role,omitempty"`
}

// UserID returns the subject as a user ID.
func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// NewClaims builds the claims describing id.
func NewClaims(id user.Identity) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(id.ID, 10)},
		Name:             id.Name,
		Email:            id.Email,
		Role:             id.Role,
	}
}

// TokenCodec issues and verifies HS256 signed tokens with a process-wide secret.
type TokenCodec struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	nowFunc func() time.Time // mockable
}

func NewTokenCodec(secret []byte, issuer string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret:  secret,
		issuer:  issuer,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

func NewTokenCodecFromConfig(conf *core.Config) *TokenCodec {
	return NewTokenCodec([]byte(conf.SecretKey), conf.AppName, conf.Auth.TokenTTL)
}

// TTL is the default token lifetime.
func (tc *TokenCodec) TTL() time.Duration { return tc.ttl }

// Issue signs claims, valid from now for ttl (the codec's default when ttl <= 0).
// Times are truncated to the second, like the token encoding itself.
func (tc *TokenCodec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = tc.ttl
	}
	now := tc.nowFunc().Truncate(time.Second)
	claims.Issuer = tc.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()

	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString(tc.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Verify checks the token signature, then its expiry.
// It returns ErrTokenExpired for a genuine but expired token and ErrTokenInvalid for anything else.
func (tc *TokenCodec) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (interface{}, error) { return tc.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tc.nowFunc),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	default:
		return Claims{}, ErrTokenInvalid
	}
}
