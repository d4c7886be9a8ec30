package config

const (
	EnvPrefix = "CAKESHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
	StorageDriverDB     = "db"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv        = "CAKESHOP_APP_ENV"
	EnvPort          = "CAKESHOP_APP_PORT"
	EnvLogLevel      = "CAKESHOP_LOG_LEVEL"
	EnvStorageDriver = "CAKESHOP_STORAGE_DRIVER"
	EnvStorageDir    = "CAKESHOP_STORAGE_FILE_DIR"

	EnvDBDSN    = "CAKESHOP_DB_DSN"
	EnvDBDriver = "CAKESHOP_DB_DRIVER"
	EnvDBHost   = "CAKESHOP_DB_HOST"
	EnvDBUser   = "CAKESHOP_DB_USER"
	EnvDBName   = "CAKESHOP_DB_NAME"

	EnvRedisURL  = "CAKESHOP_REDIS_URL"
	EnvRedisAddr = "CAKESHOP_REDIS_ADDR"

	EnvSessionSecret = "CAKESHOP_SESSION_SECRET"
	EnvAPIBaseURL    = "CAKESHOP_API_BASE_URL"
	EnvAPITimeout    = "CAKESHOP_API_TIMEOUT"
	EnvCLILogLevel   = "CAKESHOP_CLI_LOG_LEVEL"

	EnvDeliveryFee      = "CAKESHOP_CHECKOUT_DELIVERY_FEE"
	EnvTaxRate          = "CAKESHOP_CHECKOUT_TAX_RATE"
	EnvCurrency         = "CAKESHOP_CHECKOUT_CURRENCY"
	EnvMinLeadDays      = "CAKESHOP_CHECKOUT_MIN_LEAD_DAYS"
	EnvMaxHorizonMonths = "CAKESHOP_CHECKOUT_MAX_HORIZON_MONTHS"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
