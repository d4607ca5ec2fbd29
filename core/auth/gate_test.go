package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
)

type identityStoreStub struct {
	users map[int64]user.User
	err   error
}

func (s *identityStoreStub) GetUserByID(_ context.Context, id int64) (user.User, error) {
	if s.err != nil {
		return user.User{}, s.err
	}
	if usr, ok := s.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func newTestGate(now time.Time, store IdentityStore) (*Gate, *TokenCodec) {
	conf := &core.Config{Server: core.ServerConfig{APIPrefix: "/api/"}}
	codec := newTestCodec(now)
	return NewGate(NewSessionCarrier("token", 24*time.Hour, false), codec, store, conf), codec
}

func TestClientKindOf(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		header string
		want   ClientKind
	}{
		{name: "page", path: "/student/dashboard", want: Browser},
		{name: "api path", path: "/api/me", want: Api},
		{name: "api-like path", path: "/apis/me", want: Browser},
		{name: "xhr", path: "/student/dashboard", header: "XMLHttpRequest", want: Api},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-Requested-With", tt.header)
			}
			assert.Equal(t, tt.want, ClientKindOf(req, "/api/"))
		})
	}
}

func TestAuthorize(t *testing.T) {
	student := user.Identity{ID: 1, Role: user.RoleStudent}
	admin := user.Identity{ID: 2, Role: user.RoleAdmin}

	tests := []struct {
		name     string
		identity user.Identity
		allowed  []user.Role
		want     Outcome
	}{
		{name: "role allowed", identity: student, allowed: []user.Role{user.RoleStudent}, want: Allowed},
		{name: "one of many", identity: admin, allowed: []user.Role{user.RoleTeacher, user.RoleAdmin}, want: Allowed},
		{name: "role not allowed", identity: student, allowed: []user.Role{user.RoleAdmin}, want: Forbidden},
		{name: "empty allow-list", identity: admin, want: Forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, client := range []ClientKind{Browser, Api} {
				d := Authorize(client, tt.identity, tt.allowed)
				assert.Equal(t, tt.want, d.Outcome)
				assert.Equal(t, client, d.Client)
				assert.Equal(t, tt.identity, d.Identity)
				if tt.want == Forbidden {
					assert.Equal(t, ErrInsufficientRole, d.Reason)
					assert.Equal(t, "Access forbidden: insufficient permissions", d.Message())
					assert.IsType(t, &RejectionError{}, d.Err())
				} else {
					assert.NoError(t, d.Err())
				}

				// same inputs, same answer
				assert.Equal(t, d, Authorize(client, tt.identity, tt.allowed))
			}
		})
	}
}

func TestGate_Authenticate(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	alice := user.User{ID: 7, Name: "Alice", Email: "alice@x.com", Role: user.RoleStudent, CreatedAt: now}
	store := &identityStoreStub{users: map[int64]user.User{alice.ID: alice}}
	gate, codec := newTestGate(now, store)

	valid, err := codec.Issue(NewClaims(alice.Identity()), 0)
	require.NoError(t, err)
	ghost, err := codec.Issue(NewClaims(user.Identity{ID: 99, Role: user.RoleAdmin}), 0)
	require.NoError(t, err)
	expired, err := codec.Issue(NewClaims(alice.Identity()), time.Second)
	require.NoError(t, err)
	codec.nowFunc = func() time.Time { return now.Add(time.Minute) }

	tests := []struct {
		name       string
		path       string
		token      string
		cookie     string
		want       Outcome
		wantReason error
		wantMsg    string
	}{
		{name: "no token", path: "/student/dashboard", want: Unauthenticated, wantReason: ErrNoToken, wantMsg: "Authorization token missing or malformed"},
		{name: "garbage", path: "/api/me", token: "garbage", want: Unauthenticated, wantReason: ErrTokenInvalid, wantMsg: "Invalid or expired token"},
		{name: "expired", path: "/api/me", token: expired, want: Unauthenticated, wantReason: ErrTokenExpired, wantMsg: "Invalid or expired token"},
		{name: "tampered", path: "/api/me", token: tamperSignature(valid), want: Unauthenticated, wantReason: ErrTokenInvalid},
		{name: "deleted user", path: "/api/me", token: ghost, want: Unauthenticated, wantReason: ErrIdentityNotFound, wantMsg: "User not found"},
		{name: "header", path: "/api/me", token: valid, want: Authenticated},
		{name: "cookie", path: "/student/dashboard", cookie: valid, want: Authenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}

			d, err := gate.Authenticate(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Outcome)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, gate.ClientKind(req), d.Client)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, d.Message())
			}
			if tt.want == Authenticated {
				assert.Equal(t, alice.Identity(), d.Identity)
			} else {
				assert.True(t, d.Identity.IsZero())
			}
		})
	}

	t.Run("identity is reloaded on every request", func(t *testing.T) {
		promoted := alice
		promoted.Role = user.RoleTeacher
		store.users[alice.ID] = promoted
		defer func() { store.users[alice.ID] = alice }()

		req := httptest.NewRequest(http.MethodGet, "/teacher/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: valid})
		d, err := gate.Authenticate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, user.RoleTeacher, d.Identity.Role, "token role must not override the stored role")
	})

	t.Run("store unavailable", func(t *testing.T) {
		store.err = errors.New("connection refused")
		defer func() { store.err = nil }()

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		d, err := gate.Authenticate(context.Background(), req)
		assert.Error(t, err)
		assert.False(t, d.OK())
	})
}
