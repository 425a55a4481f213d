package config

import (
	"log"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	SessionStoreCookie   = "cookie"
	SessionStoreDatabase = "database"
)

// AllowedExtensions is fixed; it is not read from the environment.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"doc":  {},
}

type Config struct {
	AppEnv      string `mapstructure:"APP_ENV"`
	Port        string `mapstructure:"PORT"`
	SecretKey   string `mapstructure:"SECRET_KEY"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	MigrationsPath   string `mapstructure:"MIGRATIONS_PATH"`

	CORSOrigin string `mapstructure:"BACKEND_CORS_ORIGIN"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectURL   string `mapstructure:"OAUTH_REDIRECT_URL"`
	OAuthDiscoveryURL  string `mapstructure:"OAUTH_DISCOVERY_URL"`
	FrontendURL        string `mapstructure:"FRONTEND_URL"`

	UploadFolder     string `mapstructure:"UPLOAD_FOLDER"`
	MaxContentLength int64  `mapstructure:"MAX_CONTENT_LENGTH"`

	SessionStore string `mapstructure:"SESSION_STORE"`
	RequireAuth  bool   `mapstructure:"REQUIRE_AUTH"`
}

func LoadConfig() (config Config, err error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PORT", "5000")
	v.SetDefault("SECRET_KEY", "dev-secret-key-change-in-production")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("POSTGRES_USER", "tracker_user")
	v.SetDefault("POSTGRES_PASSWORD", "password")
	v.SetDefault("POSTGRES_HOST", "postgres")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_DB", "job_tracker")
	v.SetDefault("MIGRATIONS_PATH", "file://migration")
	v.SetDefault("BACKEND_CORS_ORIGIN", "http://localhost:8080")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_REDIRECT_URL", "http://localhost:5000/api/auth/callback")
	v.SetDefault("OAUTH_DISCOVERY_URL", "https://accounts.google.com/.well-known/openid-configuration")
	v.SetDefault("FRONTEND_URL", "/")
	v.SetDefault("UPLOAD_FOLDER", "uploads")
	v.SetDefault("MAX_CONTENT_LENGTH", 16*1024*1024)
	v.SetDefault("SESSION_STORE", SessionStoreCookie)
	v.SetDefault("REQUIRE_AUTH", false)

	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	if err != nil {
		log.Printf("unable to decode into struct, %v", err)
		return
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = config.postgresURL()
	}

	return
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}

// postgresURL assembles a DSN from the discrete POSTGRES_* settings.
func (c Config) postgresURL() string {
	u := &url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
