package config

const (
	EnvPrefix = "CAFE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CAFE_DB_DSN"
	EnvDBHost = "CAFE_DB_HOST"
	EnvDBUser = "CAFE_DB_USER"
	EnvDBName = "CAFE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
