package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/trezcool/onestop/core"
)

const (
	bearerPrefix        = "Bearer "
	headerAuthorization = "Authorization"
)

// SessionCarrier moves tokens between requests and responses:
// the Authorization header first, then the session cookie.
type SessionCarrier struct {
	cookieName string
	maxAge     time.Duration
	secure     bool
}

func NewSessionCarrier(cookieName string, maxAge time.Duration, secure bool) *SessionCarrier {
	if cookieName == "" {
		cookieName = "token"
	}
	return &SessionCarrier{cookieName: cookieName, maxAge: maxAge, secure: secure}
}

// NewSessionCarrierFromConfig marks the cookie Secure in production only.
func NewSessionCarrierFromConfig(conf *core.Config) *SessionCarrier {
	return NewSessionCarrier(conf.Auth.CookieName, conf.Auth.TokenTTL, conf.IsProduction())
}

func (sc *SessionCarrier) CookieName() string { return sc.cookieName }

// Extract returns the request's token: a well-formed "Authorization: Bearer <token>" header wins,
// otherwise the session cookie is used.
func (sc *SessionCarrier) Extract(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get(headerAuthorization)); ok {
		return token, true
	}
	if cookie, err := r.Cookie(sc.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Attach sets the session cookie.
func (sc *SessionCarrier) Attach(w http.ResponseWriter, token string, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sc.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(sc.maxAge).UTC(),
		MaxAge:   int(sc.maxAge / time.Second),
		HttpOnly: true,
		Secure:   sc.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie, whether or not one was set.
func (sc *SessionCarrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sc.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sc.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
