package config

const (
	EnvPrefix = "freshfold"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "FRESHFOLD_APP_ENV"
	EnvPort     = "FRESHFOLD_APP_PORT"
	EnvRedisURL = "FRESHFOLD_REDIS_URL"

	EnvDBDSN  = "FRESHFOLD_DB_DSN"
	EnvDBHost = "FRESHFOLD_DB_HOST"
	EnvDBUser = "FRESHFOLD_DB_USER"
	EnvDBName = "FRESHFOLD_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
