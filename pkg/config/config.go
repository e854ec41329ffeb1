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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GoogleOAuth   GoogleOAuthConfig
	CORS          CORSConfig
	Catalog       CatalogConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NETSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"NETSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NETSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NETSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NETSTORE_SERVICE_KIND" default:"api"`
	// MetricsAddr exposes /metrics from background workers when set, e.g. ":9102".
	MetricsAddr string `envconfig:"NETSTORE_WORKER_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"NETSTORE_DB_DSN"`
	Driver string `envconfig:"NETSTORE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"NETSTORE_DB_HOST"`
	Port     int    `envconfig:"NETSTORE_DB_PORT" default:"5432"`
	User     string `envconfig:"NETSTORE_DB_USER"`
	Password string `envconfig:"NETSTORE_DB_PASSWORD"`
	Name     string `envconfig:"NETSTORE_DB_NAME"`
	SSLMode  string `envconfig:"NETSTORE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"NETSTORE_SQLITE_PATH" default:"file:netstore.db?cache=shared&_fk=1"`

	MaxOpenConns    int           `envconfig:"NETSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NETSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NETSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NETSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NETSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NETSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"NETSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"NETSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NETSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NETSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NETSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NETSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NETSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NETSTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NETSTORE_JWT_ISSUER" default:"netstore"`
	ExpirationMinutes      int    `envconfig:"NETSTORE_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"NETSTORE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NETSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NETSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NETSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NETSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NETSTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NETSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NETSTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NETSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NETSTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NETSTORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NETSTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	GoogleWindow       time.Duration `envconfig:"NETSTORE_AUTH_RATE_LIMIT_GOOGLE_WINDOW" default:"1m"`
	GoogleIPLimit      int           `envconfig:"NETSTORE_AUTH_RATE_LIMIT_GOOGLE_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NETSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NETSTORE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"NETSTORE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	OrderIdempotencyTTL  time.Duration `envconfig:"NETSTORE_ORDER_IDEMPOTENCY_TTL" default:"24h"`
}

type GoogleOAuthConfig struct {
	ClientID string `envconfig:"NETSTORE_GOOGLE_CLIENT_ID"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"NETSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"NETSTORE_CATALOG_CACHE_TTL" default:"5m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"NETSTORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"NETSTORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"NETSTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"NETSTORE_PUBSUB_ORDERS_TOPIC" default:"netstore-order-events"`
	AnalyticsSubscription string `envconfig:"NETSTORE_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"netstore-order-analytics"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"NETSTORE_BIGQUERY_DATASET" default:"netstore"`
	OrderEventsTable string `envconfig:"NETSTORE_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
}

type OutboxConfig struct {
	BatchSize        int `envconfig:"NETSTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS   int `envconfig:"NETSTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts      int `envconfig:"NETSTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays    int `envconfig:"NETSTORE_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays int `envconfig:"NETSTORE_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"NETSTORE_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"NETSTORE_CRON_LOCK_TTL" default:"55m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
