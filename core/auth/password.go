package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
)

var errEmptyPassword = errors.New("password is empty")

// bcrypt only reads the first 72 bytes of its input.
const maxBcryptInput = 72

// PasswordHasher hashes passwords with bcrypt. The salt is embedded in the hash.
type PasswordHasher struct {
	cost int
}

var _ user.PasswordHasher = (*PasswordHasher)(nil)

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// NewPasswordHasherFromConfig uses the configured work factor.
func NewPasswordHasherFromConfig(conf *core.Config) *PasswordHasher {
	return NewPasswordHasher(conf.Auth.PasswordCost)
}

func (h *PasswordHasher) Hash(pwd string) ([]byte, error) {
	if pwd == "" {
		return nil, errEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(pwd), h.cost)
	return hash, errors.Wrap(err, "generating bcrypt hash")
}

// Verify reports whether pwd matches hash. A malformed hash never matches.
func (h *PasswordHasher) Verify(pwd string, hash []byte) bool {
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, bcryptInput(pwd)) == nil
}

// bcryptInput passes short passwords through unchanged. Longer ones are digested with SHA-256 first so
// every byte counts and bcrypt never rejects them.
func bcryptInput(pwd string) []byte {
	if len(pwd) <= maxBcryptInput {
		return []byte(pwd)
	}
	sum := sha256.Sum256([]byte(pwd))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
