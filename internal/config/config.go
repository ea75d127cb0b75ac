package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Config holds every setting the server reads from the environment
type Config struct {
	DB DBConfig

	JWTSecret          string
	JWTExpirationHours int64
	BcryptCost         int
	InitialAdminEmail  string

	ServerPort        string
	GinMode           string
	CORSAllowedOrigin string

	UploadsDir    string
	StorageDriver string
	Minio         MinioConfig

	LogLevel  string
	LogFormat string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (if present) and the process environment
func Load() (*Config, []string, error) {
	var warnings []string
	if err := godotenv.Load(); err != nil {
		warnings = append(warnings, "No .env file found or error loading, relying on environment variables")
	}

	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, warnings, err
	}

	cfg := &Config{
		DB:                *dbCfg,
		JWTSecret:         os.Getenv("JWT_SECRET_KEY"),
		InitialAdminEmail: strings.ToLower(strings.TrimSpace(os.Getenv("INITIAL_ADMIN_EMAIL"))),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		GinMode:           os.Getenv("GIN_MODE"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "apartment-images"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if cfg.JWTSecret == "" {
		return nil, warnings, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	cfg.JWTExpirationHours, err = strconv.ParseInt(getEnv("JWT_EXPIRATION_HOURS", "168"), 10, 64)
	if err != nil || cfg.JWTExpirationHours <= 0 {
		warnings = append(warnings, "Invalid JWT_EXPIRATION_HOURS, defaulting to 168")
		cfg.JWTExpirationHours = 168
	}

	cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "12"))
	if err != nil || cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		warnings = append(warnings, "Invalid BCRYPT_COST, defaulting to 12")
		cfg.BcryptCost = 12
	}

	switch cfg.StorageDriver {
	case StorageLocal:
	case StorageMinio:
		if cfg.Minio.Endpoint == "" || cfg.Minio.AccessKey == "" || cfg.Minio.SecretKey == "" {
			return nil, warnings, fmt.Errorf("STORAGE_DRIVER=minio requires MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	default:
		return nil, warnings, fmt.Errorf("unknown STORAGE_DRIVER %q (use local or minio)", cfg.StorageDriver)
	}

	return cfg, warnings, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
