package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const devSecretKey = "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy"

var errMissingSecret = errors.New("JWT_SECRET must be set in production")

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		APIPrefix       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	AuthConfig struct {
		TokenTTL     time.Duration
		PasswordCost int
		CookieName   string
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	// Config is built once at startup and handed to every component that needs it.
	// Nothing reads the environment after NewConfig returns.
	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		SecretKey    string
		RollbarToken string

		Server   ServerConfig
		Auth     AuthConfig
		Database DatabaseConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return dbc.Host + ":" + dbc.Port
}

// IsProduction reports whether the app runs in production mode (APP_ENV=production|prod).
func (conf *Config) IsProduction() bool {
	switch strings.ToLower(conf.Env) {
	case "production", "prod":
		return true
	}
	return false
}

// Validate rejects configurations that must not reach a running server.
func (conf *Config) Validate() error {
	if conf.IsProduction() && (conf.SecretKey == "" || conf.SecretKey == devSecretKey) {
		return errMissingSecret
	}
	if conf.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if conf.Auth.PasswordCost < bcrypt.MinCost || conf.Auth.PasswordCost > bcrypt.MaxCost {
		return errors.Errorf("PASSWORD_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// NewConfig loads the configuration from the environment, after loading `config/.env.<env>` if it exists.
func NewConfig() *Config {
	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	conf, err := loadConfig(newViper(), env)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Academic OneStop")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", false)
	v.SetDefault("secretKey", devSecretKey)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.apiPrefix", "/api/")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("auth.tokenTTL", 24*time.Hour)
	v.SetDefault("auth.passwordCost", bcrypt.DefaultCost)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "onestop")
	v.SetDefault("database.disableTLS", true)

	bind := func(key string, envs ...string) {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	bind("appName", "APP_NAME")
	bind("build", "BUILD")
	bind("debug", "DEBUG")
	bind("secretKey", "JWT_SECRET")
	bind("rollbarToken", "ROLLBAR_TOKEN")
	bind("server.address", "HTTP_ADDR")
	bind("server.port", "PORT")
	bind("server.debugHost", "DEBUG_HOST")
	bind("server.apiPrefix", "API_PREFIX")
	bind("server.readTimeout", "READ_TIMEOUT")
	bind("server.writeTimeout", "WRITE_TIMEOUT")
	bind("server.shutdownTimeout", "SHUTDOWN_TIMEOUT")
	bind("auth.tokenTTL", "TOKEN_TTL")
	bind("auth.passwordCost", "PASSWORD_COST")
	bind("database.engine", "DB_ENGINE")
	bind("database.host", "DB_HOST")
	bind("database.port", "DB_PORT")
	bind("database.user", "DB_USER")
	bind("database.password", "DB_PASSWORD")
	bind("database.name", "DB_NAME")
	bind("database.disableTLS", "DB_DISABLE_TLS")
	return v
}

func loadConfig(v *viper.Viper, env string) (*Config, error) {
	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			APIPrefix:       v.GetString("server.apiPrefix"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Auth: AuthConfig{
			TokenTTL:     v.GetDuration("auth.tokenTTL"),
			PasswordCost: v.GetInt("auth.passwordCost"),
			CookieName:   "token",
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Name:       v.GetString("database.name"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
	}

	// PORT wins over HTTP_ADDR, the way most PaaS hosts expect it
	if port := v.GetString("server.port"); port != "" {
		conf.Server.Address = ":" + port
	}
	if !strings.HasSuffix(conf.Server.APIPrefix, "/") {
		conf.Server.APIPrefix += "/"
	}

	// debug is opt-in (DEBUG=true) and never on in production
	conf.Debug = v.GetBool("debug") && !conf.IsProduction()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
