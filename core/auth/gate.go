package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
)

// ClientKind decides how a rejection is presented: redirects and pages for browsers, JSON for API clients.
type ClientKind uint8

const (
	Browser ClientKind = iota
	Api
)

func (k ClientKind) String() string {
	if k == Api {
		return "api"
	}
	return "browser"
}

// ClientKindOf classifies r: paths under apiPrefix and XHR requests are Api, everything else is Browser.
func ClientKindOf(r *http.Request, apiPrefix string) ClientKind {
	if apiPrefix != "" && strings.HasPrefix(r.URL.Path, apiPrefix) {
		return Api
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return Api
	}
	return Browser
}

type Outcome uint8

const (
	Unauthenticated Outcome = iota
	Authenticated
	Allowed
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Authenticated:
		return "authenticated"
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	}
	return "unauthenticated"
}

// Decision is the gate's verdict on one request.
// Identity is set for Authenticated, Allowed and Forbidden; Reason for Unauthenticated and Forbidden.
type Decision struct {
	Outcome  Outcome
	Client   ClientKind
	Identity user.Identity
	Reason   error
}

// OK reports whether the request may proceed.
func (d Decision) OK() bool {
	return d.Outcome == Authenticated || d.Outcome == Allowed
}

// Err returns nil for a passing Decision and a *RejectionError otherwise.
func (d Decision) Err() error {
	if d.OK() {
		return nil
	}
	return &RejectionError{Decision: d}
}

// Message is the client-facing text of a rejection.
func (d Decision) Message() string {
	if msg, ok := reasonMessages[d.Reason]; ok {
		return msg
	}
	if d.Outcome == Forbidden {
		return reasonMessages[ErrInsufficientRole]
	}
	return reasonMessages[ErrNoToken]
}

// Authorize checks identity against the roles a route allows. It has no side effects.
func Authorize(client ClientKind, identity user.Identity, allowed []user.Role) Decision {
	for _, role := range allowed {
		if identity.Role == role {
			return Decision{Outcome: Allowed, Client: client, Identity: identity}
		}
	}
	return Decision{Outcome: Forbidden, Client: client, Identity: identity, Reason: ErrInsufficientRole}
}

// IdentityStore is the slice of the credential store the gate reads.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id int64) (user.User, error)
}

// Gate authenticates requests: token extraction, verification, then a fresh identity lookup.
type Gate struct {
	carrier   *SessionCarrier
	codec     *TokenCodec
	store     IdentityStore
	apiPrefix string
}

func NewGate(carrier *SessionCarrier, codec *TokenCodec, store IdentityStore, conf *core.Config) *Gate {
	return &Gate{
		carrier:   carrier,
		codec:     codec,
		store:     store,
		apiPrefix: conf.Server.APIPrefix,
	}
}

// ClientKind classifies r using the configured API prefix.
func (g *Gate) ClientKind(r *http.Request) ClientKind {
	return ClientKindOf(r, g.apiPrefix)
}

// Authenticate resolves the identity behind r. Rejections are Decisions, not errors:
// the returned error is only set when the store cannot be reached.
func (g *Gate) Authenticate(ctx context.Context, r *http.Request) (Decision, error) {
	client := g.ClientKind(r)
	reject := func(reason error) (Decision, error) {
		return Decision{Outcome: Unauthenticated, Client: client, Reason: reason}, nil
	}

	token, ok := g.carrier.Extract(r)
	if !ok {
		return reject(ErrNoToken)
	}
	claims, err := g.codec.Verify(token)
	if err != nil {
		return reject(err)
	}
	id, err := claims.UserID()
	if err != nil {
		return reject(err)
	}

	usr, err := g.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return reject(ErrIdentityNotFound)
		}
		return Decision{Outcome: Unauthenticated, Client: client}, errors.Wrap(err, "loading identity")
	}
	return Decision{Outcome: Authenticated, Client: client, Identity: usr.Identity()}, nil
}
