package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_URL", "JWT_SECRET", "JWT_EXPIRY_HOURS", "CORS_ORIGINS", "TIMEZONE",
		"LOG_LEVEL", "HOUSEKEEPING_CRON", "HOUSEKEEPING_REIMBURSE", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "REMINDER_TEMPLATE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Location.String())
	assert.Equal(t, "0 6 * * *", cfg.HousekeepingCron)
	assert.False(t, cfg.HousekeepingReimburse)
	assert.False(t, cfg.Twilio.Enabled())
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Contains(t, cfg.ReminderTemplate, "[ClientName]")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("HOUSEKEEPING_REIMBURSE", "true")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.HousekeepingReimburse)
	assert.True(t, cfg.Twilio.Enabled())
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(t.TempDir()+"/missing.env"))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
