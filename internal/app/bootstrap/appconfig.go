// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (TENANTHUB_*), configuration
// files, or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// covers the framework-level settings (ports, TLS, log level, env).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI          string        // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase     string        // master database holding organizations and admins
	MongoMaxPoolSize  uint64        // max connection pool size
	MongoMinPoolSize  uint64        // min connection pool size
	MongoConnectRetry time.Duration // how long to keep retrying the initial connect

	// Access tokens
	JWTSecret     string        // HMAC signing secret (must be strong in production)
	JWTExpiration time.Duration // token lifetime

	// HTTP
	CORSOrigins []string // allowed origins; "*" allows any

	// Storage deadlines (see system/timeouts)
	TimeoutShort time.Duration
	TimeoutLong  time.Duration
	TimeoutBatch time.Duration

	// Credential-check throttling; zero disables a limit
	LoginRateIP    int // attempts per client IP per minute
	LoginRateEmail int // attempts per email per five minutes

	// Background orphan scan; zero disables it
	OrphanScanInterval time.Duration
}
