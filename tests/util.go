package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
	"github.com/trezcool/onestop/storage/database"
)

const (
	TestSecret = "test-secret-do-not-use"

	// TestDatabaseURLEnv names the postgres database the sqlx repositories are tested against.
	TestDatabaseURLEnv = "TEST_DATABASE_URL"
)

// NewConfig returns a development config with cheap bcrypt, for tests.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:   "Academic OneStop",
		Env:       "test",
		Build:     "test",
		Debug:     false,
		SecretKey: TestSecret,
		Server: core.ServerConfig{
			Address:         ":0",
			DebugHost:       ":0",
			APIPrefix:       "/api/",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Auth: core.AuthConfig{
			TokenTTL:     24 * time.Hour,
			PasswordCost: bcrypt.MinCost,
			CookieName:   "token",
		},
		Database: core.DatabaseConfig{Engine: "memory"},
	}
}

// NewValidator returns a validator with the app's custom rules and translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// CreateUser stores a user straight through repo, hashing pwd with the minimum bcrypt cost.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
		require.NoError(t, err, "hashing password")
		usr.PasswordHash = hash
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err, "createUser() failed")
	return usr
}

// PrepareDB connects to the database named by TEST_DATABASE_URL and migrates it from scratch.
// The test is skipped when the variable is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s is not set", TestDatabaseURLEnv)
	}
	db, err := sqlx.Open("postgres", url)
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Ping(), "pinging test database")
	require.NoError(t, database.GooseRun("reset", db.DB), "resetting test database")
	require.NoError(t, database.Migrate(db.DB), "migrating test database")
	return db
}
