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
	Checkout      CheckoutConfig
	SlipVerify    SlipVerifyConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
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
	Env          string `envconfig:"TALAD_APP_ENV" required:"true"`
	Port         string `envconfig:"TALAD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TALAD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TALAD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TALAD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TALAD_DB_DSN"`
	Driver string `envconfig:"TALAD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TALAD_DB_HOST"`
	LegacyPort     int    `envconfig:"TALAD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TALAD_DB_USER"`
	LegacyPassword string `envconfig:"TALAD_DB_PASSWORD"`
	LegacyName     string `envconfig:"TALAD_DB_NAME"`
	LegacySSLMode  string `envconfig:"TALAD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TALAD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TALAD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TALAD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TALAD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TALAD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TALAD_REDIS_ADDR"`
	Password     string        `envconfig:"TALAD_REDIS_PASSWORD"`
	DB           int           `envconfig:"TALAD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TALAD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TALAD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TALAD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TALAD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TALAD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TALAD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TALAD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TALAD_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TALAD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TALAD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TALAD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TALAD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TALAD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TALAD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TALAD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TALAD_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TALAD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TALAD_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TALAD_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TALAD_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TALAD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TALAD_AUTO_MIGRATE" default:"false"`
	AutoVerify  bool `envconfig:"TALAD_FEATURE_AUTO_VERIFY_SLIPS" default:"true"`
}

type CheckoutConfig struct {
	PendingOrderTTL time.Duration `envconfig:"TALAD_CHECKOUT_PENDING_ORDER_TTL" default:"24h"`
	MaxItemsPerCart int           `envconfig:"TALAD_CHECKOUT_MAX_ITEMS_PER_CART" default:"50"`
	MaxQtyPerItem   int           `envconfig:"TALAD_CHECKOUT_MAX_QTY_PER_ITEM" default:"99"`
}

type SlipVerifyConfig struct {
	BaseURL        string        `envconfig:"TALAD_SLIP_VERIFY_BASE_URL"`
	APIKey         string        `envconfig:"TALAD_SLIP_VERIFY_API_KEY"`
	RequestTimeout time.Duration `envconfig:"TALAD_SLIP_VERIFY_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TALAD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TALAD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TALAD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"TALAD_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"TALAD_GCS_UPLOAD_URL_EXPIRY" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"TALAD_GCS_DOWNLOAD_URL_EXPIRY" required:"true"`
	MaxSlipUploadMB   int           `envconfig:"TALAD_GCS_MAX_SLIP_UPLOAD_MB" default:"10"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"TALAD_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"TALAD_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	PaymentsTopic      string `envconfig:"TALAD_PUBSUB_PAYMENTS_TOPIC" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TALAD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TALAD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TALAD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"TALAD_CRON_INTERVAL" default:"1m"`
	ActivityRetentionDays int           `envconfig:"TALAD_CRON_ACTIVITY_RETENTION_DAYS" default:"90"`
	MetricsPort           string        `envconfig:"TALAD_CRON_METRICS_PORT" default:"9091"`
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
