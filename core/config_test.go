package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// clearEnv keeps the host environment out of the loaded config.
func clearEnv(t *testing.T) {
	for _, env := range []string{"PORT", "HTTP_ADDR", "DEBUG", "JWT_SECRET", "API_PREFIX", "TOKEN_TTL", "PASSWORD_COST", "DB_ENGINE"} {
		t.Setenv(env, "")
	}
}

func Test_loadConfig_defaults(t *testing.T) {
	clearEnv(t)

	conf, err := loadConfig(newViper(), "development")
	require.NoError(t, err)

	assert.Equal(t, "Academic OneStop", conf.AppName)
	assert.False(t, conf.Debug, "debug is opt-in")
	assert.False(t, conf.IsProduction())
	assert.Equal(t, ":3000", conf.Server.Address)
	assert.Equal(t, "/api/", conf.Server.APIPrefix)
	assert.Equal(t, 24*time.Hour, conf.Auth.TokenTTL)
	assert.Equal(t, bcrypt.DefaultCost, conf.Auth.PasswordCost)
	assert.Equal(t, "token", conf.Auth.CookieName)
	assert.Equal(t, "postgres", conf.Database.Engine)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
}

func Test_loadConfig_overrides(t *testing.T) {
	clearEnv(t)

	v := newViper()
	v.Set("server.address", ":8080")
	v.Set("server.port", "9000")
	v.Set("server.apiPrefix", "/v1")
	v.Set("auth.tokenTTL", "2h")
	v.Set("debug", false)

	conf, err := loadConfig(v, "staging")
	require.NoError(t, err)
	assert.Equal(t, ":9000", conf.Server.Address, "PORT wins over HTTP_ADDR")
	assert.Equal(t, "/v1/", conf.Server.APIPrefix)
	assert.Equal(t, 2*time.Hour, conf.Auth.TokenTTL)
	assert.False(t, conf.Debug)
}

func Test_loadConfig_debug(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name  string
		env   string
		debug string // DEBUG env var
		want  bool
	}{
		{name: "staging, unset", env: "staging"},
		{name: "development, unset", env: "development"},
		{name: "staging, DEBUG=true", env: "staging", debug: "true", want: true},
		{name: "development, DEBUG=false", env: "development", debug: "false"},
		{name: "production, DEBUG=true", env: "production", debug: "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEBUG", tt.debug)
			t.Setenv("JWT_SECRET", "s3cret")

			conf, err := loadConfig(newViper(), tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.env, conf.Env)
			assert.Equal(t, tt.want, conf.Debug)
		})
	}
}

func Test_loadConfig_production(t *testing.T) {
	clearEnv(t)

	t.Run("dev secret is refused", func(t *testing.T) {
		_, err := loadConfig(newViper(), "production")
		assert.Equal(t, errMissingSecret, err)
	})

	t.Run("empty secret is refused", func(t *testing.T) {
		v := newViper()
		v.Set("secretKey", "")
		_, err := loadConfig(v, "prod")
		assert.Equal(t, errMissingSecret, err)
	})

	t.Run("debug is forced off", func(t *testing.T) {
		v := newViper()
		v.Set("secretKey", "a-real-secret")
		v.Set("debug", true)
		conf, err := loadConfig(v, "production")
		require.NoError(t, err)
		assert.True(t, conf.IsProduction())
		assert.False(t, conf.Debug)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{Env: "test", SecretKey: "s", Auth: AuthConfig{TokenTTL: time.Hour, PasswordCost: bcrypt.MinCost}}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: "TOKEN_TTL must be positive"},
		{name: "cost too low", mutate: func(c *Config) { c.Auth.PasswordCost = 1 }, wantErr: "PASSWORD_COST must be between 4 and 31"},
		{name: "production without secret", mutate: func(c *Config) { c.Env = "production"; c.SecretKey = "" }, wantErr: errMissingSecret.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := valid()
			tt.mutate(conf)
			err := conf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Alice", CleanString("  Alice\t"))
	assert.Equal(t, "alice@x.com", CleanString(" ALICE@x.com ", true))
}

func TestParseWeekday(t *testing.T) {
	day, ok := ParseWeekday(" monday ")
	assert.True(t, ok)
	assert.Equal(t, time.Monday, day)

	_, ok = ParseWeekday("someday")
	assert.False(t, ok)
}
