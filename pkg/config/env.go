package config

const (
	EnvPrefix = "NETSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv                 = "NETSTORE_APP_ENV"
	EnvPort                   = "NETSTORE_APP_PORT"
	EnvLogLevel               = "NETSTORE_LOG_LEVEL"
	EnvDBDSN                  = "NETSTORE_DB_DSN"
	EnvDBHost                 = "NETSTORE_DB_HOST"
	EnvDBUser                 = "NETSTORE_DB_USER"
	EnvDBName                 = "NETSTORE_DB_NAME"
	EnvRedisURL               = "NETSTORE_REDIS_URL"
	EnvJWTSecret              = "NETSTORE_JWT_SECRET"
	EnvJWTIssuer              = "NETSTORE_JWT_ISSUER"
	EnvJWTExpMins             = "NETSTORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "NETSTORE_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "NETSTORE_USE_SQLITE"
	EnvGCPProjectID           = "NETSTORE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic      = "NETSTORE_PUBSUB_ORDERS_TOPIC"
	EnvCORSAllowedOrigins     = "NETSTORE_CORS_ALLOWED_ORIGINS"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
