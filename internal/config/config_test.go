package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDBEnv(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "apartments")
}

func TestLoad_Defaults(t *testing.T) {
	setDBEnv(t)
	t.Setenv("JWT_SECRET_KEY", "s3cr3t")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(168), cfg.JWTExpirationHours)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorageLocal, cfg.StorageDriver)
	assert.Contains(t, cfg.DB.DSN, "dbname=apartments")
}

func TestLoad_RequiresSecret(t *testing.T) {
	setDBEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")

	_, _, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestLoad_RequiresDB(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET_KEY", "s3cr3t")

	_, _, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidExpiryFallsBack(t *testing.T) {
	setDBEnv(t)
	t.Setenv("JWT_SECRET_KEY", "s3cr3t")
	t.Setenv("JWT_EXPIRATION_HOURS", "soon")

	cfg, warnings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(168), cfg.JWTExpirationHours)
	assert.Contains(t, warnings, "Invalid JWT_EXPIRATION_HOURS, defaulting to 168")
}

func TestLoad_MinioNeedsCredentials(t *testing.T) {
	setDBEnv(t)
	t.Setenv("JWT_SECRET_KEY", "s3cr3t")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("MINIO_ENDPOINT", "")

	_, _, err := Load()
	assert.ErrorContains(t, err, "MINIO_ENDPOINT")
}
