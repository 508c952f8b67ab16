package config

const (
	EnvPrefix = "MEDIMITRA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "MEDIMITRA_APP_ENV"
	EnvPort     = "MEDIMITRA_APP_PORT"
	EnvLogLevel = "MEDIMITRA_LOG_LEVEL"

	EnvDBDSN  = "MEDIMITRA_DB_DSN"
	EnvDBHost = "MEDIMITRA_DB_HOST"
	EnvDBUser = "MEDIMITRA_DB_USER"
	EnvDBName = "MEDIMITRA_DB_NAME"

	EnvUseSQLite = "MEDIMITRA_USE_SQLITE"

	EnvRedisURL = "MEDIMITRA_REDIS_URL"

	EnvJWTSecret  = "MEDIMITRA_JWT_SECRET"
	EnvJWTIssuer  = "MEDIMITRA_JWT_ISSUER"
	EnvJWTExpMins = "MEDIMITRA_JWT_EXPIRATION_MINUTES"

	EnvOrdersTaxRate               = "MEDIMITRA_ORDERS_TAX_RATE"
	EnvOrdersShippingFee           = "MEDIMITRA_ORDERS_SHIPPING_FEE"
	EnvOrdersFreeShippingThreshold = "MEDIMITRA_ORDERS_FREE_SHIPPING_THRESHOLD"
	EnvOrdersAutoApprovalThreshold = "MEDIMITRA_ORDERS_AUTO_APPROVAL_THRESHOLD"

	EnvCronInterval = "MEDIMITRA_CRON_INTERVAL"

	EnvGCPProjectID            = "MEDIMITRA_GCP_PROJECT_ID"
	EnvPubSubNotificationTopic = "MEDIMITRA_PUBSUB_NOTIFICATION_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
