package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "bitescout"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Permissions PermissionsConfig
	Realtime    RealtimeConfig
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
	Env          string `envconfig:"BITESCOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"BITESCOUT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BITESCOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BITESCOUT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"BITESCOUT_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BITESCOUT_DB_DSN"`
	Driver string `envconfig:"BITESCOUT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BITESCOUT_DB_HOST"`
	Port     int    `envconfig:"BITESCOUT_DB_PORT" default:"5432"`
	User     string `envconfig:"BITESCOUT_DB_USER"`
	Password string `envconfig:"BITESCOUT_DB_PASSWORD"`
	Name     string `envconfig:"BITESCOUT_DB_NAME"`
	SSLMode  string `envconfig:"BITESCOUT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BITESCOUT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BITESCOUT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BITESCOUT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BITESCOUT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BITESCOUT_REDIS_URL"`
	Address      string        `envconfig:"BITESCOUT_REDIS_ADDR"`
	Password     string        `envconfig:"BITESCOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"BITESCOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BITESCOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BITESCOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BITESCOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BITESCOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BITESCOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BITESCOUT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BITESCOUT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BITESCOUT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PermissionsConfig controls how the request gate treats routes without a
// matching permission entry. The source platform defaults to allow.
type PermissionsConfig struct {
	DefaultAllow bool `envconfig:"BITESCOUT_PERMISSIONS_DEFAULT_ALLOW" default:"true"`
}

type RealtimeConfig struct {
	AuthAttemptLimit  int           `envconfig:"BITESCOUT_REALTIME_AUTH_ATTEMPT_LIMIT" default:"5"`
	AuthAttemptWindow time.Duration `envconfig:"BITESCOUT_REALTIME_AUTH_ATTEMPT_WINDOW" default:"60s"`
	SendBuffer        int           `envconfig:"BITESCOUT_REALTIME_SEND_BUFFER" default:"64"`
	NotifyTimeout     time.Duration `envconfig:"BITESCOUT_REALTIME_NOTIFY_TIMEOUT" default:"5s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"BITESCOUT_DB_HOST": db.Host,
		"BITESCOUT_DB_USER": db.User,
		"BITESCOUT_DB_NAME": db.Name,
	}
	for _, key := range []string{"BITESCOUT_DB_HOST", "BITESCOUT_DB_USER", "BITESCOUT_DB_NAME"} {
		if parts[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either BITESCOUT_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
