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
	Midtrans      MidtransConfig
	Shipping      ShippingConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Company       CompanyConfig
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
	Env          string `envconfig:"TANISUBUR_APP_ENV" required:"true"`
	Port         string `envconfig:"TANISUBUR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TANISUBUR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TANISUBUR_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"TANISUBUR_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TANISUBUR_DB_DSN"`
	Driver string `envconfig:"TANISUBUR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TANISUBUR_DB_HOST"`
	LegacyPort     int    `envconfig:"TANISUBUR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TANISUBUR_DB_USER"`
	LegacyPassword string `envconfig:"TANISUBUR_DB_PASSWORD"`
	LegacyName     string `envconfig:"TANISUBUR_DB_NAME"`
	LegacySSLMode  string `envconfig:"TANISUBUR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TANISUBUR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TANISUBUR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TANISUBUR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TANISUBUR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TANISUBUR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TANISUBUR_REDIS_ADDR"`
	Password     string        `envconfig:"TANISUBUR_REDIS_PASSWORD"`
	DB           int           `envconfig:"TANISUBUR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TANISUBUR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TANISUBUR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TANISUBUR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TANISUBUR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TANISUBUR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TANISUBUR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TANISUBUR_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TANISUBUR_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TANISUBUR_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TANISUBUR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TANISUBUR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TANISUBUR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TANISUBUR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TANISUBUR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TANISUBUR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TANISUBUR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TANISUBUR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TANISUBUR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TANISUBUR_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TANISUBUR_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type MidtransConfig struct {
	ServerKey      string        `envconfig:"TANISUBUR_MIDTRANS_SERVER_KEY" required:"true"`
	Env            string        `envconfig:"TANISUBUR_MIDTRANS_ENV" default:"sandbox"`
	RequestTimeout time.Duration `envconfig:"TANISUBUR_MIDTRANS_REQUEST_TIMEOUT" default:"10s"`
}

// IsProduction reports whether the gateway should hit the live environment.
func (m MidtransConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(m.Env), "production")
}

type ShippingConfig struct {
	APIURL         string        `envconfig:"TANISUBUR_RAJAONGKIR_API_URL"`
	APIKey         string        `envconfig:"TANISUBUR_RAJAONGKIR_API_KEY"`
	RequestTimeout time.Duration `envconfig:"TANISUBUR_RAJAONGKIR_REQUEST_TIMEOUT" default:"10s"`
}

type PubSubConfig struct {
	ProjectID         string `envconfig:"TANISUBUR_PUBSUB_PROJECT_ID"`
	TransactionsTopic string `envconfig:"TANISUBUR_PUBSUB_TRANSACTIONS_TOPIC" default:"ts-transaction-events"`
	ChatTopic         string `envconfig:"TANISUBUR_PUBSUB_CHAT_TOPIC" default:"ts-chat-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TANISUBUR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TANISUBUR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TANISUBUR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CompanyConfig struct {
	ClientURL        string `envconfig:"TANISUBUR_CLIENT_URL" default:"http://localhost:3000"`
	FlatShippingFee  int64  `envconfig:"TANISUBUR_FLAT_SHIPPING_FEE" default:"20000"`
	WebhookReplayTTL int    `envconfig:"TANISUBUR_WEBHOOK_REPLAY_TTL_HOURS" default:"72"`
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
