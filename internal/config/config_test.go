package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "educore")
	t.Setenv("DB_NAME", "educore")
	t.Setenv("JWT_SECRET", "secret")
}

// isolate moves into an empty directory so a local .env does not leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	setRequired(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "simulated", cfg.Payment.Provider)
	assert.Equal(t, "USD", cfg.Payment.Currency)
	assert.True(t, cfg.Payment.Tax().IsZero())
	assert.Equal(t, "@every 5m", cfg.Reconcile.Schedule)
	assert.Equal(t, 30*time.Minute, cfg.Reconcile.StaleAfter)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, 30*time.Second, cfg.Payment.ChargeTimeout)
	assert.Greater(t, cfg.App.WriteTimeout, cfg.Payment.ChargeTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Redis.IdempotencyPendingTTL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
}

func TestLoad_Midtrans(t *testing.T) {
	isolate(t)
	setRequired(t)
	t.Setenv("PAYMENT_PROVIDER", "midtrans")
	t.Setenv("MIDTRANS_SERVER_KEY", "SB-Mid-server-key")
	t.Setenv("PAYMENT_CURRENCY", "IDR")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "midtrans", cfg.Payment.Provider)
	assert.Equal(t, "IDR", cfg.Payment.Currency)
}

func TestLoad_MissingRequired(t *testing.T) {
	isolate(t)
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "educore")
	t.Setenv("DB_NAME", "educore")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	setRequired(t)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: "9090"
payment:
  tax_rate: "0.1"
  currency: IDR
kafka:
  brokers: ["k1:9092"]
reconcile:
  stale_after: 10m
`), 0o600))

	t.Setenv("APP_PORT", "7070")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("IDEMPOTENCY_TTL", "1h")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port, "env wins over file")
	assert.Equal(t, "IDR", cfg.Payment.Currency)
	assert.Equal(t, "0.1", cfg.Payment.Tax().String())
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Minute, cfg.Reconcile.StaleAfter)
	assert.Equal(t, time.Hour, cfg.Redis.IdempotencyTTL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	setRequired(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAIL_PROVIDER=smtp\nSMTP_HOST=mail.local\n"), 0o600))
	// godotenv не перезаписывает уже заданные переменные
	for _, key := range []string{"MAIL_PROVIDER", "SMTP_HOST"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "smtp", cfg.Mail.Provider)
	assert.Equal(t, "mail.local", cfg.Mail.SMTPHost)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "tax_rate", env: map[string]string{"PAYMENT_TAX_RATE": "ten"}},
		{name: "provider", env: map[string]string{"PAYMENT_PROVIDER": "paypal"}},
		{name: "midtrans_without_key", env: map[string]string{"PAYMENT_PROVIDER": "midtrans", "PAYMENT_CURRENCY": "IDR", "MIDTRANS_SERVER_KEY": ""}},
		{name: "midtrans_in_usd", env: map[string]string{"PAYMENT_PROVIDER": "midtrans", "PAYMENT_CURRENCY": "USD", "MIDTRANS_SERVER_KEY": "SB-key"}},
		{name: "write_timeout_equals_charge_timeout", env: map[string]string{"APP_WRITE_TIMEOUT": "30s", "PAYMENT_CHARGE_TIMEOUT": "30s"}},
		{name: "write_timeout_below_charge_timeout", env: map[string]string{"PAYMENT_CHARGE_TIMEOUT": "90s", "IDEMPOTENCY_PENDING_TTL": "5m"}},
		{name: "pending_ttl_shorter_than_charge", env: map[string]string{"IDEMPOTENCY_PENDING_TTL": "10s"}},
		{name: "pending_ttl_longer_than_result", env: map[string]string{"IDEMPOTENCY_PENDING_TTL": "2h", "IDEMPOTENCY_TTL": "1h"}},
		{name: "sendgrid_without_key", env: map[string]string{"MAIL_PROVIDER": "sendgrid", "SENDGRID_API_KEY": ""}},
		{name: "duration", env: map[string]string{"JWT_TTL": "forever"}},
		{name: "redis_db", env: map[string]string{"REDIS_DB": "one"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}
