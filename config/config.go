package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"polizas-backend/utils"

	"github.com/joho/godotenv"
)

const (
	defaultPort             = "8080"
	defaultTimezone         = "America/Argentina/Buenos_Aires"
	defaultHousekeepingCron = "0 6 * * *"
	defaultJWTExpiryHours   = 24
	defaultReminderTemplate = "Hola [ClientName], te recordamos que la cuota de tu póliza de [Branch] con [Company] vence el [DueDate]."
)

var defaultCORSOrigins = []string{"http://localhost:3000"}

type Config struct {
	Port   string
	DBURL  string
	Logger LoggerConfig

	JWTSecret    string
	JWTExpiry    time.Duration
	CORSOrigins  []string
	Location     *time.Location
	TimezoneName string

	HousekeepingCron      string
	HousekeepingReimburse bool

	Twilio           TwilioConfig
	ReminderTemplate string
}

type LoggerConfig struct {
	Level string
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

// Enabled reports whether enough credentials are present to send messages.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != ""
}

// LoadEnvFile loads a .env file when present. A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", defaultPort),
		DBURL:                 os.Getenv("DB_URL"),
		Logger:                LoggerConfig{Level: getEnv("LOG_LEVEL", "info")},
		JWTSecret:             os.Getenv("JWT_SECRET"),
		JWTExpiry:             time.Duration(getEnvInt("JWT_EXPIRY_HOURS", defaultJWTExpiryHours)) * time.Hour,
		CORSOrigins:           getEnvList("CORS_ORIGINS", defaultCORSOrigins),
		TimezoneName:          getEnv("TIMEZONE", defaultTimezone),
		HousekeepingCron:      getEnv("HOUSEKEEPING_CRON", defaultHousekeepingCron),
		HousekeepingReimburse: getEnvBool("HOUSEKEEPING_REIMBURSE", false),
		Twilio: TwilioConfig{
			AccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
			PhoneNumber:    os.Getenv("TWILIO_PHONE_NUMBER"),
			WhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		},
		ReminderTemplate: getEnv("REMINDER_TEMPLATE", defaultReminderTemplate),
	}

	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if cfg.JWTSecret == "" {
		// tokens will not survive a restart
		cfg.JWTSecret = utils.GenerateJWTSecret()
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
