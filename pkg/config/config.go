package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	ShopAPI      ShopAPIConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == StorageDriverDB {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Driver == StorageDriverRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

// ClientConfig is what a command-line client reads: no server, session or
// database settings are required.
type ClientConfig struct {
	LogLevel string `envconfig:"CAKESHOP_CLI_LOG_LEVEL" default:"warn"`
	Storage  StorageConfig
	ShopAPI  ShopAPIConfig
	Checkout CheckoutConfig
}

func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing client config: %w", err)
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAKESHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"CAKESHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CAKESHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAKESHOP_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"CAKESHOP_CORS_ORIGINS" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// StorageConfig selects where baskets are persisted.
type StorageConfig struct {
	Driver  string `envconfig:"CAKESHOP_STORAGE_DRIVER" default:"memory"`
	FileDir string `envconfig:"CAKESHOP_STORAGE_FILE_DIR" default:".cakeshop"`
}

func (s *StorageConfig) validate() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case StorageDriverMemory, StorageDriverFile, StorageDriverRedis, StorageDriverDB:
		return nil
	default:
		return fmt.Errorf("%s: unsupported storage driver %q", EnvStorageDriver, s.Driver)
	}
}

type DBConfig struct {
	DSN    string `envconfig:"CAKESHOP_DB_DSN"`
	Driver string `envconfig:"CAKESHOP_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CAKESHOP_DB_HOST"`
	Port     int    `envconfig:"CAKESHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"CAKESHOP_DB_USER"`
	Password string `envconfig:"CAKESHOP_DB_PASSWORD"`
	Name     string `envconfig:"CAKESHOP_DB_NAME"`
	SSLMode  string `envconfig:"CAKESHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAKESHOP_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CAKESHOP_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CAKESHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAKESHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was requested.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CAKESHOP_REDIS_URL"`
	Address      string        `envconfig:"CAKESHOP_REDIS_ADDR"`
	Password     string        `envconfig:"CAKESHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAKESHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAKESHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAKESHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAKESHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAKESHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAKESHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
	// BasketTTL bounds how long an idle basket survives; zero keeps it forever.
	BasketTTL time.Duration `envconfig:"CAKESHOP_REDIS_BASKET_TTL" default:"720h"`
}

// IsConfigured reports whether any redis endpoint is set.
func (r RedisConfig) IsConfigured() bool {
	return r.URL != "" || r.Address != ""
}

// SessionConfig drives the signed session cookie that scopes a basket.
type SessionConfig struct {
	Secret       string        `envconfig:"CAKESHOP_SESSION_SECRET" required:"true"`
	Issuer       string        `envconfig:"CAKESHOP_SESSION_ISSUER" default:"cakeshop-storefront"`
	TTL          time.Duration `envconfig:"CAKESHOP_SESSION_TTL" default:"720h"`
	CookieName   string        `envconfig:"CAKESHOP_SESSION_COOKIE" default:"cake_session"`
	CookieSecure bool          `envconfig:"CAKESHOP_SESSION_COOKIE_SECURE" default:"false"`
}

type ShopAPIConfig struct {
	BaseURL string        `envconfig:"CAKESHOP_API_BASE_URL" default:"http://localhost:8000/api"`
	Timeout time.Duration `envconfig:"CAKESHOP_API_TIMEOUT" default:"10s"`
}

// CheckoutConfig holds the order summary constants.
type CheckoutConfig struct {
	DeliveryFee      decimal.Decimal `envconfig:"CAKESHOP_CHECKOUT_DELIVERY_FEE" default:"500"`
	TaxRate          decimal.Decimal `envconfig:"CAKESHOP_CHECKOUT_TAX_RATE" default:"0.16"`
	Currency         string          `envconfig:"CAKESHOP_CHECKOUT_CURRENCY" default:"KES"`
	MinLeadDays      int             `envconfig:"CAKESHOP_CHECKOUT_MIN_LEAD_DAYS" default:"1"`
	MaxHorizonMonths int             `envconfig:"CAKESHOP_CHECKOUT_MAX_HORIZON_MONTHS" default:"3"`
	IdempotencyTTL   time.Duration   `envconfig:"CAKESHOP_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

func (c CheckoutConfig) validate() error {
	if c.MinLeadDays < 0 {
		return fmt.Errorf("%s must not be negative", EnvMinLeadDays)
	}
	if c.MaxHorizonMonths < 1 {
		return fmt.Errorf("%s must be at least 1", EnvMaxHorizonMonths)
	}
	if c.DeliveryFee.IsNegative() || c.TaxRate.IsNegative() {
		return fmt.Errorf("%s and %s must not be negative", EnvDeliveryFee, EnvTaxRate)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAKESHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dsnPartEnvVars {
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
