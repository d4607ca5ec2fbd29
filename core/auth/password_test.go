package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("s3cret!"), hash, "hash must not be the plaintext")

	other, err := hasher.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "each hash is salted")

	tests := []struct {
		name string
		pwd  string
		hash []byte
		want bool
	}{
		{name: "match", pwd: "s3cret!", hash: hash, want: true},
		{name: "match (other salt)", pwd: "s3cret!", hash: other, want: true},
		{name: "mismatch", pwd: "S3cret!", hash: hash},
		{name: "empty password", pwd: "", hash: hash},
		{name: "malformed hash", pwd: "s3cret!", hash: []byte("not-a-bcrypt-hash")},
		{name: "empty hash", pwd: "s3cret!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasher.Verify(tt.pwd, tt.hash))
		})
	}
}

func TestPasswordHasher_Hash(t *testing.T) {
	t.Run("empty password", func(t *testing.T) {
		_, err := NewPasswordHasher(bcrypt.MinCost).Hash("")
		assert.Equal(t, errEmptyPassword, err)
	})

	t.Run("configured cost", func(t *testing.T) {
		hash, err := NewPasswordHasher(bcrypt.MinCost + 1).Hash("pwd")
		require.NoError(t, err)
		cost, err := bcrypt.Cost(hash)
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost+1, cost)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(100).cost)
	})
}

func TestPasswordHasher_longPassword(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	long := strings.Repeat("p", 80)

	hash, err := hasher.Hash(long)
	require.NoError(t, err, "passwords over 72 bytes are accepted")

	assert.True(t, hasher.Verify(long, hash))
	assert.False(t, hasher.Verify(long[:72], hash), "the 72 byte prefix is not enough")
	assert.False(t, hasher.Verify(long[:79]+"q", hash), "bytes past 72 count")

	short, err := hasher.Hash(long[:72])
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(short, []byte(long[:72])), "72 bytes and under are plain bcrypt")
}
