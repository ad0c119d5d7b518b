package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) GetSecretOrEnv(_ context.Context, secretName, _ string) (string, error) {
	v, ok := m[secretName]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "memory", cfg.Lock.Mode)
	assert.Equal(t, "local", cfg.Storage.Mode)
	assert.Equal(t, int64(50), cfg.Storage.MaxUploadSizeMB)
	assert.Equal(t, "procurement.ledger", cfg.Events.Topic)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, "0 */15 * * * *", cfg.Jobs.TransferReconcileCron)
	assert.Equal(t, "tr", cfg.I18n.DefaultLanguage)

	assert.Equal(t, 5*time.Minute, cfg.Jobs.TransferReconcileGraceDuration())
	assert.Equal(t, 100*time.Millisecond, cfg.Lock.RetryIntervalDuration())
	assert.Equal(t, time.Minute, cfg.Storage.UploadTimeoutDuration())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LOCK_MODE", "redis")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Lock.Mode)
	assert.Equal(t, 9090, cfg.App.Port)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "procurement", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=procurement sslmode=require", d.ConnectionString())
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "localhost", User: "local", Password: "local"},
		Auth:     AuthConfig{JWTSecret: "dev-secret", APIKey: "dev-key"},
	}
	src := mapSource{
		"POSTGRES-MAIN-HOST":        "prod-db",
		"POSTGRES-MAIN-PASSWORD":    "s3cret",
		"jwt-secret":                "prod-jwt",
		"storage-connection-string": "DefaultEndpointsProtocol=https",
	}

	require.NoError(t, applySecrets(context.Background(), cfg, src))

	assert.Equal(t, "prod-db", cfg.Database.Host)
	assert.Equal(t, "local", cfg.Database.User, "missing secrets keep the current value")
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "prod-jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, "dev-key", cfg.Auth.APIKey)
	assert.Equal(t, "DefaultEndpointsProtocol=https", cfg.Storage.CloudConnectionString)
}

func TestApplySecrets_RequiresDatabasePassword(t *testing.T) {
	err := applySecrets(context.Background(), &Config{}, mapSource{})
	assert.Error(t, err)
}
