package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret aborts startup; there is no insecure fallback secret.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET must be set")

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	Dev          DevConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// TrustedProxies lists peer IPs or CIDRs whose X-Forwarded-For is
	// honored. Empty means the socket address always identifies the client.
	TrustedProxies []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session and hashing parameters.
type AuthConfig struct {
	JWTSecret                 string
	AdminSessionTTLMinutes    int
	EmployeeSessionTTLMinutes int
	BcryptCost                int
}

// RateRule is a fixed-window budget for one route.
type RateRule struct {
	Limit         int
	WindowSeconds int
}

// Window returns the rule's window as a duration.
func (r RateRule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// RateLimitConfig selects the limiter backend and per-route budgets.
type RateLimitConfig struct {
	Backend             string
	MaxKeys             int
	SweepIntervalSecond int

	AdminLogin          RateRule
	EmployeeLogin       RateRule
	EmployeeLookup      RateRule
	PasswordResetCreate RateRule
	ChangePassword      RateRule
	FixPassword         RateRule
}

// NotificationConfig holds outbound email values.
type NotificationConfig struct {
	EmailFrom string
	PortalURL string
	// QueueSize bounds deliveries waiting on the mailer.
	QueueSize int
}

// DevConfig holds local development conveniences.
type DevConfig struct {
	// SeedEmployeesFile names a JSON array of employees created at startup.
	// Ignored in production.
	SeedEmployeesFile string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "attendance-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			TrustedProxies:        getEnvAsList("APP_TRUSTED_PROXIES"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                 strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
			AdminSessionTTLMinutes:    getEnvAsInt("AUTH_ADMIN_SESSION_TTL_MINUTES", 120),
			EmployeeSessionTTLMinutes: getEnvAsInt("AUTH_EMPLOYEE_SESSION_TTL_MINUTES", 480),
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		RateLimit: RateLimitConfig{
			Backend:             strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			MaxKeys:             getEnvAsInt("RATE_LIMIT_MAX_KEYS", 10000),
			SweepIntervalSecond: getEnvAsInt("RATE_LIMIT_SWEEP_SECONDS", 60),
			AdminLogin:          getEnvAsRule("RATE_LIMIT_ADMIN_LOGIN", RateRule{Limit: 5, WindowSeconds: 60}),
			EmployeeLogin:       getEnvAsRule("RATE_LIMIT_EMPLOYEE_LOGIN", RateRule{Limit: 5, WindowSeconds: 60}),
			EmployeeLookup:      getEnvAsRule("RATE_LIMIT_EMPLOYEE_LOOKUP", RateRule{Limit: 5, WindowSeconds: 60}),
			PasswordResetCreate: getEnvAsRule("RATE_LIMIT_PASSWORD_RESET", RateRule{Limit: 3, WindowSeconds: 60}),
			ChangePassword:      getEnvAsRule("RATE_LIMIT_CHANGE_PASSWORD", RateRule{Limit: 5, WindowSeconds: 60}),
			FixPassword:         getEnvAsRule("RATE_LIMIT_FIX_PASSWORD", RateRule{Limit: 3, WindowSeconds: 10}),
		},
		Notification: NotificationConfig{
			EmailFrom: getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			PortalURL: getEnv("NOTIFY_PORTAL_URL", "http://localhost:3000"),
			QueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 64),
		},
		Dev: DevConfig{
			SeedEmployeesFile: os.Getenv("DEV_SEED_EMPLOYEES_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid RATE_LIMIT_BACKEND %q", c.RateLimit.Backend)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether cookies must carry the Secure flag.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AdminSessionTTL returns the admin token and cookie lifetime.
func (a AuthConfig) AdminSessionTTL() time.Duration {
	return minutesOr(a.AdminSessionTTLMinutes, 2*time.Hour)
}

// EmployeeSessionTTL returns the employee token and cookie lifetime.
func (a AuthConfig) EmployeeSessionTTL() time.Duration {
	return minutesOr(a.EmployeeSessionTTLMinutes, 8*time.Hour)
}

// SweepInterval returns how often the memory limiter drops expired windows.
func (r RateLimitConfig) SweepInterval() time.Duration {
	if r.SweepIntervalSecond <= 0 {
		return time.Minute
	}
	return time.Duration(r.SweepIntervalSecond) * time.Second
}

func minutesOr(minutes int, fallback time.Duration) time.Duration {
	if minutes <= 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// getEnvAsRule reads "<limit>/<windowSeconds>", e.g. RATE_LIMIT_ADMIN_LOGIN=5/60.
func getEnvAsRule(key string, fallback RateRule) RateRule {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	limitStr, windowStr, ok := strings.Cut(val, "/")
	if !ok {
		return fallback
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
	if err != nil || limit <= 0 {
		return fallback
	}
	window, err := strconv.Atoi(strings.TrimSpace(windowStr))
	if err != nil || window <= 0 {
		return fallback
	}
	return RateRule{Limit: limit, WindowSeconds: window}
}
