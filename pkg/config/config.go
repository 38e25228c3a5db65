package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Menu          MenuConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAFE_APP_ENV" required:"true"`
	Port         string `envconfig:"CAFE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAFE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAFE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAFE_DB_DSN"`
	Driver string `envconfig:"CAFE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAFE_DB_HOST"`
	LegacyPort     int    `envconfig:"CAFE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAFE_DB_USER"`
	LegacyPassword string `envconfig:"CAFE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAFE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAFE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAFE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAFE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAFE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAFE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAFE_REDIS_URL"`
	Address      string        `envconfig:"CAFE_REDIS_ADDR"`
	Password     string        `envconfig:"CAFE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAFE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAFE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAFE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAFE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAFE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAFE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAFE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAFE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAFE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAFE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAFE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAFE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAFE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAFE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CAFE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"CAFE_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CAFE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAFE_AUTO_MIGRATE" default:"false"`
}

// MenuConfig points the inventory side at the menu service, which owns
// recipes and receives ingredient events.
type MenuConfig struct {
	ServiceURL    string        `envconfig:"CAFE_MENU_SERVICE_URL" default:"http://menu_service:8003"`
	RecipeTimeout time.Duration `envconfig:"CAFE_MENU_RECIPE_TIMEOUT" default:"6s"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CAFE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"CAFE_OUTBOX_PUBLISH_POLL_INTERVAL" default:"5s"`
	MaxAttempts    int           `envconfig:"CAFE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishTimeout time.Duration `envconfig:"CAFE_OUTBOX_PUBLISH_TIMEOUT" default:"5s"`
	RetentionTTL   time.Duration `envconfig:"CAFE_OUTBOX_RETENTION_TTL" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CAFE_CRON_INTERVAL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
