package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "TANISUBUR"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "TANISUBUR_APP_ENV"
	EnvPort   = "TANISUBUR_APP_PORT"

	EnvDBDSN  = "TANISUBUR_DB_DSN"
	EnvDBHost = "TANISUBUR_DB_HOST"
	EnvDBUser = "TANISUBUR_DB_USER"
	EnvDBName = "TANISUBUR_DB_NAME"

	EnvRedisURL = "TANISUBUR_REDIS_URL"

	EnvJWTSecret         = "TANISUBUR_JWT_SECRET"
	EnvJWTIssuer         = "TANISUBUR_JWT_ISSUER"
	EnvJWTExpirationMins = "TANISUBUR_JWT_EXPIRATION_MINUTES"

	EnvMidtransServerKey = "TANISUBUR_MIDTRANS_SERVER_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
