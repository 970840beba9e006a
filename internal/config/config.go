package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	UseRedisLocks      bool
	LockTTL            time.Duration
	StoreRetryAttempts int
	StoreRetryBaseDelay time.Duration

	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWebhookSecret string
	TwilioFromNumber    string
	WebhookRatePerSecond float64
	WebhookRateBurst     int
	CORSAllowedOrigins   []string

	OperatorPhone  string
	OperatorEmail  string
	AdminNumbers   []string
	AdminJWTSecret string

	ProviderName          string
	WebsiteURL            string
	BookingFormURL        string
	PayID                 string
	DepositMandatoryAmount int
	DepositSuggestedRange string

	GoogleCalendarID      string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	PolishEnabled bool
	PolishTimeout time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModelID       string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string

	ReminderPollInterval time.Duration

	// Operator email. EMAIL_PROVIDER is sendgrid, ses, stub, or empty for none.
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		UseRedisLocks:       getEnvAsBool("USE_REDIS_LOCKS", false),
		LockTTL:             getEnvAsDuration("LOCK_TTL", 30*time.Second),
		StoreRetryAttempts:  getEnvAsInt("STORE_RETRY_ATTEMPTS", 4),
		StoreRetryBaseDelay: getEnvAsDuration("STORE_RETRY_BASE_DELAY", 50*time.Millisecond),

		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWebhookSecret:  getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioFromNumber:     getEnv("TWILIO_FROM_NUMBER", ""),
		WebhookRatePerSecond: getEnvAsFloat("WEBHOOK_RATE_PER_SECOND", 5),
		WebhookRateBurst:     getEnvAsInt("WEBHOOK_RATE_BURST", 20),
		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS"),

		OperatorPhone:  getEnv("OPERATOR_PHONE", ""),
		OperatorEmail:  getEnv("OPERATOR_EMAIL", ""),
		AdminNumbers:   getEnvAsList("ADMIN_NUMBERS"),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		ProviderName:           getEnv("PROVIDER_NAME", "Mia"),
		WebsiteURL:             getEnv("WEBSITE_URL", ""),
		BookingFormURL:         getEnv("BOOKING_FORM_URL", ""),
		PayID:                  getEnv("PAYID", ""),
		DepositMandatoryAmount: getEnvAsInt("DEPOSIT_MANDATORY_AMOUNT", 100),
		DepositSuggestedRange:  getEnv("DEPOSIT_SUGGESTED_RANGE", "$20-$50"),

		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		PolishEnabled: getEnvAsBool("POLISH_ENABLED", true),
		PolishTimeout: getEnvAsDuration("POLISH_TIMEOUT", 5*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "ap-southeast-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),

		ReminderPollInterval: getEnvAsDuration("REMINDER_POLL_INTERVAL", 0),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", ""),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
	}
	if cfg.BookingFormURL == "" && cfg.PublicBaseURL != "" {
		cfg.BookingFormURL = strings.TrimRight(cfg.PublicBaseURL, "/") + "/booking"
	}
	return cfg
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// WebhookAuthToken is the token Twilio signs webhooks with.
func (c *Config) WebhookAuthToken() string {
	if c.TwilioWebhookSecret != "" {
		return c.TwilioWebhookSecret
	}
	return c.TwilioAuthToken
}

// Validate rejects combinations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in production"))
		}
		if c.WebhookAuthToken() == "" {
			errs = append(errs, errors.New("TWILIO_AUTH_TOKEN or TWILIO_WEBHOOK_SECRET is required in production"))
		}
	}
	if c.UseRedisLocks && c.RedisAddr == "" {
		errs = append(errs, errors.New("USE_REDIS_LOCKS requires REDIS_ADDR"))
	}
	switch c.EmailProvider {
	case "", "sendgrid", "ses", "stub":
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER %q is not one of sendgrid, ses, stub", c.EmailProvider))
	}
	if c.DepositMandatoryAmount <= 0 {
		errs = append(errs, errors.New("DEPOSIT_MANDATORY_AMOUNT must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
