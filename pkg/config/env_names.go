package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names.
const EnvPrefix = "TALAD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv                 = "TALAD_APP_ENV"
	EnvPort                   = "TALAD_APP_PORT"
	EnvDBDSN                  = "TALAD_DB_DSN"
	EnvDBHost                 = "TALAD_DB_HOST"
	EnvDBUser                 = "TALAD_DB_USER"
	EnvDBName                 = "TALAD_DB_NAME"
	EnvRedisURL               = "TALAD_REDIS_URL"
	EnvJWTSecret              = "TALAD_JWT_SECRET"
	EnvJWTIssuer              = "TALAD_JWT_ISSUER"
	EnvJWTExpMins             = "TALAD_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "TALAD_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "TALAD_GCP_PROJECT_ID"
	EnvGCSBucket              = "TALAD_GCS_BUCKET_NAME"
	EnvGCSUploadExpiry        = "TALAD_GCS_UPLOAD_URL_EXPIRY"
	EnvGCSDownloadExpiry      = "TALAD_GCS_DOWNLOAD_URL_EXPIRY"
	EnvPubSubOrdersTopic      = "TALAD_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub        = "TALAD_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubPaymentsTopic    = "TALAD_PUBSUB_PAYMENTS_TOPIC"
	EnvSlipVerifyBaseURL      = "TALAD_SLIP_VERIFY_BASE_URL"
	EnvSlipVerifyAPIKey       = "TALAD_SLIP_VERIFY_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
