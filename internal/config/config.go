package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Email    EmailConfig    `yaml:"email"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings for the webhook/unsubscribe surface.
type ServerConfig struct {
	Host              string        `yaml:"host"                 env:"SERVER_HOST"                 env-default:"0.0.0.0"`
	Port              int           `yaml:"port"                 env:"SERVER_PORT"                 env-default:"8080"`
	ReadTimeout       time.Duration `yaml:"read_timeout"         env:"SERVER_READ_TIMEOUT"         env-default:"10s"`
	WriteTimeout      time.Duration `yaml:"write_timeout"        env:"SERVER_WRITE_TIMEOUT"        env-default:"30s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"         env:"SERVER_IDLE_TIMEOUT"         env-default:"60s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"     env:"SERVER_SHUTDOWN_TIMEOUT"     env-default:"10s"`
	WebhookRatePerMin int           `yaml:"webhook_rate_per_min" env:"SERVER_WEBHOOK_RATE_PER_MIN" env-default:"300"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// EmailConfig holds outbound email and unsubscribe-token settings.
type EmailConfig struct {
	SenderAddress      string `yaml:"sender_address"       env:"EMAIL_SENDER_ADDRESS"       env-default:"Storyloom <no-reply@storyloom.dev>"`
	SubjectPrefix      string `yaml:"subject_prefix"       env:"EMAIL_SUBJECT_PREFIX"       env-default:"[Storyloom] "`
	ProviderBaseURL    string `yaml:"provider_base_url"    env:"EMAIL_PROVIDER_BASE_URL"    env-default:"https://api.resend.com"`
	ProviderAPIKey     string `yaml:"provider_api_key"     env:"EMAIL_PROVIDER_API_KEY"     env-required:"true"`
	WebhookSecret      string `yaml:"webhook_secret"       env:"EMAIL_WEBHOOK_SECRET"       env-required:"true"`
	UnsubscribeSecret  string `yaml:"unsubscribe_secret"   env:"EMAIL_UNSUBSCRIBE_SECRET"   env-required:"true"`
	UnsubscribeBaseURL string `yaml:"unsubscribe_base_url" env:"EMAIL_UNSUBSCRIBE_BASE_URL" env-default:"https://storyloom.dev/unsubscribe"`
	// Timezone is the single canonical timezone used for calendar-day
	// quota and dedup boundaries across all deployment regions.
	Timezone string `yaml:"timezone" env:"EMAIL_TIMEZONE" env-default:"UTC"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
