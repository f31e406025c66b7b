// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/tenanthub/internal/app/features/health"
	loginfeature "github.com/dalemusser/tenanthub/internal/app/features/login"
	organizationsfeature "github.com/dalemusser/tenanthub/internal/app/features/organizations"
	"github.com/dalemusser/tenanthub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The router serves:
//   - GET  /               service status
//   - GET  /health         database connectivity
//   - /org/*               organization lifecycle
//   - POST /admin/login    bearer token issue
//   - GET  /metrics        Prometheus exposition
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(appCfg.CORSOrigins)))

	// One limiter shared by login and rename so both count against the
	// same per-email budget.
	limiter := ratelimit.NewLoginLimiter(ratelimit.Config{
		IPPerMinute:     appCfg.LoginRateIP,
		EmailPer5Minute: appCfg.LoginRateEmail,
	}, logger)

	// Status and health endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Get("/", healthHandler.ServeRoot)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Organization lifecycle
	orgHandler := organizationsfeature.NewHandler(deps.Lifecycle, limiter, logger)
	r.Mount("/org", organizationsfeature.Routes(orgHandler, deps.Tokens, logger))

	// Admin authentication
	loginHandler := loginfeature.NewHandler(deps.Lifecycle, limiter, logger)
	r.Mount("/admin", loginfeature.Routes(loginHandler))

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r, nil
}

func corsOptions(origins []string) cors.Options {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"WWW-Authenticate"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}
