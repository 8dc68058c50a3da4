package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name         string        `yaml:"name"`
	Port         string        `yaml:"port"`
	Env          string        `yaml:"env"`
	LogLevel     string        `yaml:"log_level"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
	ApplyMigrations bool          `yaml:"apply_migrations"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type PaymentConfig struct {
	Provider           string        `yaml:"provider"` // simulated | midtrans
	Currency           string        `yaml:"currency"`
	TaxRate            string        `yaml:"tax_rate"`
	SimulatedDelay     time.Duration `yaml:"simulated_delay"`
	DeclineCardSuffix  string        `yaml:"decline_card_suffix"`
	MidtransServerKey  string        `yaml:"midtrans_server_key"`
	MidtransProduction bool          `yaml:"midtrans_production"`
	// ChargeTimeout bounds one gateway call; App.WriteTimeout must outlast it.
	ChargeTimeout time.Duration `yaml:"charge_timeout"`
}

// Tax returns the configured tax rate; an unparsable value is rejected by Load.
func (p PaymentConfig) Tax() decimal.Decimal {
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	// IdempotencyPendingTTL caps how long an in-flight claim blocks retries if the process dies.
	IdempotencyPendingTTL time.Duration `yaml:"idempotency_pending_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type MailConfig struct {
	Provider       string `yaml:"provider"` // log | smtp | sendgrid
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       string `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPassword   string `yaml:"smtp_password"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
}

type ReconcileConfig struct {
	Schedule   string        `yaml:"schedule"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type RateLimitConfig struct {
	CheckoutRPS   float64 `yaml:"checkout_rps"`
	CheckoutBurst int     `yaml:"checkout_burst"`
}

type Config struct {
	App       AppConfig       `yaml:"app"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Auth      AuthConfig      `yaml:"auth"`
	Payment   PaymentConfig   `yaml:"payment"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Mail      MailConfig      `yaml:"mail"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Name = "educore"
	cfg.App.Port = "8080"
	cfg.App.Env = "dev"
	cfg.App.LogLevel = "info"
	cfg.App.ReadTimeout = 10 * time.Second
	cfg.App.WriteTimeout = 60 * time.Second

	cfg.Postgres.Port = "5432"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrationsPath = "migrations"
	cfg.Postgres.ApplyMigrations = true

	cfg.Auth.TokenTTL = 24 * time.Hour

	cfg.Payment.Provider = "simulated"
	cfg.Payment.Currency = "USD"
	cfg.Payment.TaxRate = "0"
	cfg.Payment.SimulatedDelay = time.Second
	cfg.Payment.DeclineCardSuffix = "0002"
	cfg.Payment.ChargeTimeout = 30 * time.Second

	cfg.Redis.IdempotencyTTL = 24 * time.Hour
	cfg.Redis.IdempotencyPendingTTL = 2 * time.Minute

	cfg.Kafka.Topic = "educore.orders"

	cfg.Mail.Provider = "log"
	cfg.Mail.FromName = "EduCore"
	cfg.Mail.SMTPPort = "587"

	cfg.Reconcile.Schedule = "@every 5m"
	cfg.Reconcile.StaleAfter = 30 * time.Minute

	cfg.RateLimit.CheckoutRPS = 2
	cfg.RateLimit.CheckoutBurst = 5
	return cfg
}

// Load builds the configuration from defaults, an optional YAML file, an optional .env file and
// the process environment, in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		file, err := os.Open(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err == nil {
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("invalid config file: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")

	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	setString(&cfg.Postgres.MigrationsPath, "DB_MIGRATIONS_PATH")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	setString(&cfg.Payment.Provider, "PAYMENT_PROVIDER")
	setString(&cfg.Payment.Currency, "PAYMENT_CURRENCY")
	setString(&cfg.Payment.TaxRate, "PAYMENT_TAX_RATE")
	setString(&cfg.Payment.DeclineCardSuffix, "PAYMENT_DECLINE_CARD_SUFFIX")
	setString(&cfg.Payment.MidtransServerKey, "MIDTRANS_SERVER_KEY")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	setString(&cfg.Mail.Provider, "MAIL_PROVIDER")
	setString(&cfg.Mail.FromAddress, "MAIL_FROM_ADDRESS")
	setString(&cfg.Mail.FromName, "MAIL_FROM_NAME")
	setString(&cfg.Mail.SMTPHost, "SMTP_HOST")
	setString(&cfg.Mail.SMTPPort, "SMTP_PORT")
	setString(&cfg.Mail.SMTPUser, "SMTP_USER")
	setString(&cfg.Mail.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Mail.SendGridAPIKey, "SENDGRID_API_KEY")

	setString(&cfg.Reconcile.Schedule, "RECONCILE_SCHEDULE")

	var err error
	if cfg.Postgres.ApplyMigrations, err = boolEnv("APPLY_MIGRATIONS", cfg.Postgres.ApplyMigrations); err != nil {
		return err
	}
	if cfg.Payment.MidtransProduction, err = boolEnv("MIDTRANS_PRODUCTION", cfg.Payment.MidtransProduction); err != nil {
		return err
	}
	if cfg.Auth.TokenTTL, err = durationEnv("JWT_TTL", cfg.Auth.TokenTTL); err != nil {
		return err
	}
	if cfg.Payment.SimulatedDelay, err = durationEnv("PAYMENT_SIMULATED_DELAY", cfg.Payment.SimulatedDelay); err != nil {
		return err
	}
	if cfg.Payment.ChargeTimeout, err = durationEnv("PAYMENT_CHARGE_TIMEOUT", cfg.Payment.ChargeTimeout); err != nil {
		return err
	}
	if cfg.App.ReadTimeout, err = durationEnv("APP_READ_TIMEOUT", cfg.App.ReadTimeout); err != nil {
		return err
	}
	if cfg.App.WriteTimeout, err = durationEnv("APP_WRITE_TIMEOUT", cfg.App.WriteTimeout); err != nil {
		return err
	}
	if cfg.Redis.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.Redis.IdempotencyTTL); err != nil {
		return err
	}
	if cfg.Redis.IdempotencyPendingTTL, err = durationEnv("IDEMPOTENCY_PENDING_TTL", cfg.Redis.IdempotencyPendingTTL); err != nil {
		return err
	}
	if cfg.Reconcile.StaleAfter, err = durationEnv("RECONCILE_STALE_AFTER", cfg.Reconcile.StaleAfter); err != nil {
		return err
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, convErr)
		}
		cfg.Redis.DB = n
	}
	return nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"DB_HOST":    c.Postgres.Host,
		"DB_USER":    c.Postgres.User,
		"DB_NAME":    c.Postgres.DBName,
		"JWT_SECRET": c.Auth.JWTSecret,
	}
	for _, key := range []string{"DB_HOST", "DB_USER", "DB_NAME", "JWT_SECRET"} {
		if required[key] == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	if _, err := decimal.NewFromString(c.Payment.TaxRate); err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", c.Payment.TaxRate, err)
	}

	switch c.Payment.Provider {
	case "simulated":
	case "midtrans":
		if c.Payment.MidtransServerKey == "" {
			return errors.New("MIDTRANS_SERVER_KEY is required for the midtrans provider")
		}
		if !strings.EqualFold(c.Payment.Currency, "IDR") {
			return fmt.Errorf("the midtrans provider charges IDR only, PAYMENT_CURRENCY is %q", c.Payment.Currency)
		}
	default:
		return fmt.Errorf("unknown payment provider %q", c.Payment.Provider)
	}

	if c.Payment.ChargeTimeout <= 0 {
		return errors.New("PAYMENT_CHARGE_TIMEOUT must be positive")
	}
	// Ответ checkout уходит после списания: сервер не должен оборвать его раньше
	if c.App.WriteTimeout <= c.Payment.ChargeTimeout {
		return fmt.Errorf("APP_WRITE_TIMEOUT (%s) must exceed PAYMENT_CHARGE_TIMEOUT (%s)", c.App.WriteTimeout, c.Payment.ChargeTimeout)
	}
	if c.Redis.IdempotencyPendingTTL <= c.Payment.ChargeTimeout || c.Redis.IdempotencyPendingTTL > c.Redis.IdempotencyTTL {
		return fmt.Errorf("IDEMPOTENCY_PENDING_TTL (%s) must exceed PAYMENT_CHARGE_TIMEOUT and not exceed IDEMPOTENCY_TTL",
			c.Redis.IdempotencyPendingTTL)
	}

	switch c.Mail.Provider {
	case "log":
	case "smtp":
		if c.Mail.SMTPHost == "" {
			return errors.New("SMTP_HOST is required for the smtp mail provider")
		}
	case "sendgrid":
		if c.Mail.SendGridAPIKey == "" {
			return errors.New("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
