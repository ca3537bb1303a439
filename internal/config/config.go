package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	TransportLog   = "log"
	TransportSMTP  = "smtp"
	TransportRedis = "redis"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DBURL       string `env:"DB_URL"`
	DB          DB
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"collabzone.db"`

	Redis Redis

	Notify Notify

	JWTSecret string `env:"JWT_SECRET"`

	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimit          int           `env:"RATE_LIMIT" envDefault:"20"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	CacheTTL           time.Duration `env:"CACHE_TTL" envDefault:"30s"`

	RepairInterval   time.Duration `env:"REPAIR_INTERVAL" envDefault:"1m"`
	RepairBatchSize  int           `env:"REPAIR_BATCH_SIZE" envDefault:"100"`
	WorkerHealthPort int           `env:"WORKER_HEALTH_PORT" envDefault:"8081"`
}

type DB struct {
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"collabzone"`
	Password string `env:"DB_PASSWORD" envDefault:"collabzone"`
	Name     string `env:"DB_NAME" envDefault:"collabzone"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Notify struct {
	Transport    string        `env:"NOTIFY_TRANSPORT" envDefault:"log"`
	Timeout      time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	AsyncBuffer  int           `env:"NOTIFY_ASYNC_BUFFER" envDefault:"64"`
	SMTPHost     string        `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	From         string        `env:"MAIL_FROM" envDefault:"no-reply@mockskills.com"`
	RedisStream  string        `env:"NOTIFY_REDIS_STREAM" envDefault:"collabzone:notifications"`
	SupportEmail string        `env:"SUPPORT_EMAIL" envDefault:"support@mockskills.com"`

	// log transport only: simulate a slow or failing provider
	SimulatedDelayMS int  `env:"NOTIFIER_SLEEP_MS" envDefault:"0"`
	SimulateFailure  bool `env:"NOTIFIER_FAIL" envDefault:"false"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", withEnvKeys(err))
	}

	if cfg.DBURL == "" {
		cfg.DBURL = buildDBURL(cfg.DB)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// withEnvKeys rewrites env parse errors, which name the Go field, so they
// name the variable the operator actually set.
func withEnvKeys(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return err
	}

	keys := make(map[string][]string)
	collectEnvKeys(reflect.TypeOf(Config{}), keys)

	errs := make([]error, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var pe env.ParseError
		if errors.As(e, &pe) && len(keys[pe.Name]) > 0 {
			errs = append(errs, fmt.Errorf("%s: %w", strings.Join(keys[pe.Name], " or "), pe.Err))
			continue
		}
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

func collectEnvKeys(t reflect.Type, keys map[string][]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			collectEnvKeys(f.Type, keys)
			continue
		}
		// string fields never fail to parse
		if f.Type.Kind() == reflect.String {
			continue
		}
		if key, _, _ := strings.Cut(f.Tag.Get("env"), ","); key != "" {
			keys[f.Name] = append(keys[f.Name], key)
		}
	}
}

func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver))
	}

	switch c.Notify.Transport {
	case TransportLog, TransportSMTP, TransportRedis:
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_TRANSPORT: unknown transport %q", c.Notify.Transport))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: out of range %d", c.Port))
	}

	if !c.IsDev() && strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET: required outside dev"))
	}

	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT: must be positive"))
	}

	if c.RepairBatchSize <= 0 {
		errs = append(errs, errors.New("REPAIR_BATCH_SIZE: must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// NeedsRedis reports whether any configured component talks to redis.
func (c Config) NeedsRedis() bool {
	return c.Notify.Transport == TransportRedis
}

func buildDBURL(db DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     db.Host + ":" + db.Port,
		Path:     "/" + db.Name,
		RawQuery: "sslmode=" + url.QueryEscape(db.SSLMode),
	}

	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
