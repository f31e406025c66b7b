// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/ratelimit"
	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devSecret is the default signing secret. ValidateConfig refuses it in prod.
const devSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minProdSecretLen is the shortest jwt_secret accepted in production.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for tenanthub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: TENANTHUB_MONGO_URI, TENANTHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "organization_master", Desc: "Master database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "mongo_connect_retry", Default: "30s", Desc: "How long to retry the initial MongoDB connection (e.g., 30s, 2m)"},

	// Access tokens
	{Name: "jwt_secret", Default: devSecret, Desc: "HMAC secret for access tokens (must be strong in production)"},
	{Name: "jwt_expiration", Default: "30m", Desc: "Access token lifetime (e.g., 30m, 1h)"},

	// HTTP
	{Name: "cors_origins", Default: "*", Desc: "Comma-separated allowed CORS origins ('*' allows any)"},

	// Storage deadlines
	{Name: "timeout_short", Default: timeouts.DefaultShort.String(), Desc: "Deadline for single-record lookups"},
	{Name: "timeout_long", Default: timeouts.DefaultLong.String(), Desc: "Deadline for lifecycle writes"},
	{Name: "timeout_batch", Default: timeouts.DefaultBatch.String(), Desc: "Deadline for collection migrations"},

	// Throttling
	{Name: "login_rate_ip", Default: ratelimit.DefaultConfig.IPPerMinute, Desc: "Credential checks per client IP per minute (0 disables)"},
	{Name: "login_rate_email", Default: ratelimit.DefaultConfig.EmailPer5Minute, Desc: "Credential checks per email per 5 minutes (0 disables)"},

	// Background jobs
	{Name: "orphan_scan_interval", Default: "1h", Desc: "How often to report unreferenced tenant collections (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// TENANTHUB_* environment variables, and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TENANTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:          appValues.String("mongo_uri"),
		MongoDatabase:     appValues.String("mongo_database"),
		MongoMaxPoolSize:  uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:  uint64(appValues.Int("mongo_min_pool_size")),
		MongoConnectRetry: appValues.Duration("mongo_connect_retry", 30*time.Second),

		JWTSecret:     appValues.String("jwt_secret"),
		JWTExpiration: appValues.Duration("jwt_expiration", 30*time.Minute),

		CORSOrigins: splitOrigins(appValues.String("cors_origins")),

		TimeoutShort: appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutLong:  appValues.Duration("timeout_long", timeouts.DefaultLong),
		TimeoutBatch: appValues.Duration("timeout_batch", timeouts.DefaultBatch),

		LoginRateIP:    appValues.Int("login_rate_ip"),
		LoginRateEmail: appValues.Int("login_rate_email"),

		OrphanScanInterval: appValues.Duration("orphan_scan_interval", time.Hour),
	}

	return coreCfg, appCfg, nil
}

// splitOrigins parses a comma-separated origin list, dropping blanks.
func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// It checks the MongoDB URI format before any connection is attempted and
// refuses weak token secrets outside development.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return errors.New("mongo_database must be set")
	}
	if appCfg.JWTExpiration <= 0 {
		return fmt.Errorf("jwt_expiration must be positive, got %s", appCfg.JWTExpiration)
	}
	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret must be set")
	}
	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devSecret {
			return errors.New("jwt_secret is the development default; set TENANTHUB_JWT_SECRET")
		}
		if len(appCfg.JWTSecret) < minProdSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d bytes in prod", minProdSecretLen)
		}
	}
	if appCfg.LoginRateIP < 0 || appCfg.LoginRateEmail < 0 {
		return errors.New("login_rate_ip and login_rate_email must not be negative")
	}
	return nil
}
