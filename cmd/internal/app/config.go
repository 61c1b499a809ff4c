package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// MongoURI selects persistence. Empty means the in-memory dev store.
	MongoURI      string
	MongoDatabase string
	MongoMaxPool  uint64

	// If true, /readyz returns 503 unless Mongo is configured and reachable.
	ReadinessRequireDB bool

	// Browser origins allowed to call the API with credentials. Entries may
	// end in ":*" to allow any port on that host.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// Security policy:
	// If true, GATEHOUSE_AUTH_TOKEN_SECRET MUST be set; the ephemeral dev
	// secret fallback is refused.
	RequireTokenSecret bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("GATEHOUSE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("GATEHOUSE_LOG_LEVEL", "info"),
		LogFormat: EnvString("GATEHOUSE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("GATEHOUSE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("GATEHOUSE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("GATEHOUSE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("GATEHOUSE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("GATEHOUSE_HTTP_MAX_HEADER_BYTES", 1<<20),

		MongoURI:      EnvString("GATEHOUSE_MONGO_URI", ""),
		MongoDatabase: EnvString("GATEHOUSE_MONGO_DATABASE", "gatehouse"),
		MongoMaxPool:  EnvUint64("GATEHOUSE_MONGO_MAX_POOL_SIZE", 100),

		ReadinessRequireDB: EnvBool("GATEHOUSE_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   EnvStringSlice("GATEHOUSE_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("GATEHOUSE_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("GATEHOUSE_CORS_MAX_AGE_SECONDS", 600),

		RequireTokenSecret: EnvBool("GATEHOUSE_REQUIRE_TOKEN_SECRET", false),
	}
}
