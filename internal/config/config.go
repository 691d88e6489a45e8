package config

import (
	"github.com/joho/godotenv"

	"purchase_manager_backend/pkg/utils"
)

// Config is everything the server reads from the environment at boot.
type Config struct {
	Port            string
	ShutdownTimeout int // seconds
	LogLevel        string
	LogPretty       bool

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBApplySchema bool

	RedisAddress  string
	RedisPassword string

	JWTAccessSecret  string
	JWTRefreshSecret string
	CookieSecure     bool

	ClientOrigin       string
	CORSAllowedOrigins []string

	ExpirationCron     string
	ExpirationTimezone string

	StorageProvider    string
	UploadDir          string
	GCSBucket          string
	GCSCredentialsJSON string
	GCSPublicBaseURL   string

	PhoneDefaultRegion string

	// Bootstrap admin, created at boot when no user owns AdminEmail.
	AdminEmail    string
	AdminPassword string
	AdminFullname string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	return &Config{
		Port:            utils.Getenv("PORT", "8080"),
		ShutdownTimeout: utils.GetenvInt("SHUTDOWN_TIMEOUT_SECONDS", 15),
		LogLevel:        utils.Getenv("LOG_LEVEL", "info"),
		LogPretty:       utils.GetenvBool("LOG_PRETTY", true),

		DBHost:        utils.Getenv("DB_HOST", "localhost"),
		DBPort:        utils.Getenv("DB_PORT", "5432"),
		DBUser:        utils.Getenv("DB_USER", "purchase_user"),
		DBPassword:    utils.Getenv("DB_PASSWORD", "purchase_password"),
		DBName:        utils.Getenv("DB_NAME", "purchase_manager_db"),
		DBSSLMode:     utils.Getenv("DB_SSLMODE", "disable"),
		DBApplySchema: utils.GetenvBool("DB_APPLY_SCHEMA", false),

		RedisAddress:  utils.Getenv("REDIS_ADDRESS", ""),
		RedisPassword: utils.Getenv("REDIS_PASSWORD", ""),

		JWTAccessSecret:  utils.Getenv("ACCESS_TOKEN_SECRET", ""),
		JWTRefreshSecret: utils.Getenv("REFRESH_TOKEN_SECRET", ""),
		CookieSecure:     utils.GetenvBool("COOKIE_SECURE", false),

		ClientOrigin:       utils.Getenv("CLIENT_ORIGIN", "http://localhost:3000"),
		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),

		ExpirationCron:     utils.Getenv("EXPIRATION_CRON", "0 0 * * *"),
		ExpirationTimezone: utils.Getenv("EXPIRATION_TIMEZONE", "UTC"),

		StorageProvider:    utils.Getenv("STORAGE_PROVIDER", "local"),
		UploadDir:          utils.Getenv("UPLOAD_DIR", "uploads"),
		GCSBucket:          utils.Getenv("GCS_BUCKET", ""),
		GCSCredentialsJSON: utils.Getenv("GCS_CREDENTIALS_JSON", ""),
		GCSPublicBaseURL:   utils.Getenv("GCS_PUBLIC_BASE_URL", "https://storage.googleapis.com"),

		PhoneDefaultRegion: utils.Getenv("PHONE_DEFAULT_REGION", "DZ"),

		AdminEmail:    utils.Getenv("ADMIN_EMAIL", ""),
		AdminPassword: utils.Getenv("ADMIN_PASSWORD", ""),
		AdminFullname: utils.Getenv("ADMIN_FULLNAME", "Administrator"),
	}
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.DBSSLMode
}
