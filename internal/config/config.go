package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env        string
	ServerPort string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string
	DBLogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	OrgTimezone    string
	SuperuserEmail string
	CORSOrigin     string

	StorageDriver    string
	StorageDir       string
	StorageBaseURL   string
	CloudinaryURL    string
	CloudinaryFolder string
	MaxUploadMB      int64
}

// Load reads an optional env file and then the process environment.
// envFile may be empty, in which case ".env" is tried.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// Missing env files are fine; the environment alone is enough.
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:        v.GetString("ENV"),
		ServerPort: v.GetString("SERVER_PORT"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		DBPath:     v.GetString("DB_PATH"),
		DBLogLevel: v.GetString("DB_LOG_LEVEL"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		OrgTimezone:    v.GetString("ORG_TIMEZONE"),
		SuperuserEmail: strings.ToLower(strings.TrimSpace(v.GetString("SUPERUSER_EMAIL"))),
		CORSOrigin:     v.GetString("CORS_ORIGIN"),

		StorageDriver:    strings.ToLower(v.GetString("STORAGE_DRIVER")),
		StorageDir:       v.GetString("STORAGE_DIR"),
		StorageBaseURL:   v.GetString("STORAGE_BASE_URL"),
		CloudinaryURL:    v.GetString("CLOUDINARY_URL"),
		CloudinaryFolder: v.GetString("CLOUDINARY_FOLDER"),
		MaxUploadMB:      v.GetInt64("MAX_UPLOAD_MB"),
	}

	// PORT wins over SERVER_PORT on hosted platforms.
	if port := v.GetString("PORT"); port != "" {
		cfg.ServerPort = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "worship")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "worship.db")
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("JWT_SECRET", "default-jwt-secret-change-in-production")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)

	v.SetDefault("ORG_TIMEZONE", "America/Sao_Paulo")

	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_DIR", "uploads")
	v.SetDefault("STORAGE_BASE_URL", "/files")
	v.SetDefault("CLOUDINARY_FOLDER", "worship/songs")
	v.SetDefault("MAX_UPLOAD_MB", 25)
}

// Validate rejects combinations that cannot start a server.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "cloudinary":
		if c.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when STORAGE_DRIVER=cloudinary")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.IsProduction() && c.JWTSecret == "default-jwt-secret-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.IsProduction() && c.CORSOrigin == "" {
		return fmt.Errorf("CORS_ORIGIN must be set in production")
	}
	if _, err := time.LoadLocation(c.OrgTimezone); err != nil {
		return fmt.Errorf("invalid ORG_TIMEZONE %q: %w", c.OrgTimezone, err)
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 25
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the organization timezone. Validate has already
// checked that it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.OrgTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PostgresDSN builds the libpq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
