// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dalemusser/tenanthub/internal/app/system/indexes"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/metrics"
	"github.com/dalemusser/tenanthub/internal/app/system/tasks"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"github.com/dalemusser/tenanthub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// MongoOptions configures OpenMongo.
type MongoOptions struct {
	URI         string
	MaxPoolSize uint64
	MinPoolSize uint64
	RetryFor    time.Duration // zero means a single attempt
}

// OpenMongo connects and pings the primary, retrying with exponential
// backoff for up to opts.RetryFor. A server that is still starting when the
// service boots is the common case this covers.
func OpenMongo(ctx context.Context, opts MongoOptions, logger *zap.Logger) (*mongo.Client, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}

	attempt := func() (*mongo.Client, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(pingCtx, clientOpts)
		if err != nil {
			// Connect only fails on bad options; retrying will not help.
			return nil, backoff.Permanent(err)
		}
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return client, nil
	}

	if opts.RetryFor <= 0 {
		return attempt()
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(opts.RetryFor),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("MongoDB not reachable yet; retrying",
				zap.Error(err), zap.Duration("next_attempt_in", next))
		}))
}

// ConnectDB connects to MongoDB and builds the services that depend on it.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := OpenMongo(ctx, MongoOptions{
		URI:         appCfg.MongoURI,
		MaxPoolSize: appCfg.MongoMaxPoolSize,
		MinPoolSize: appCfg.MongoMinPoolSize,
		RetryFor:    appCfg.MongoConnectRetry,
	}, logger)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps, err := buildDeps(client, appCfg, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}
	return deps, nil
}

// buildDeps wires the token codec, metrics registry, lifecycle service, and
// background jobs around an open client. Jobs are started by Startup.
func buildDeps(client *mongo.Client, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	codec, err := tokens.NewCodec([]byte(appCfg.JWTSecret), appCfg.JWTExpiration)
	if err != nil {
		return DBDeps{}, fmt.Errorf("token codec: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db := client.Database(appCfg.MongoDatabase)
	svc := lifecycle.New(lifecycle.Config{
		Client:  client,
		DB:      db,
		Codec:   codec,
		Metrics: metrics.New(reg),
		Logger:  logger,
	})

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Tokens:        codec,
		Registry:      reg,
		Lifecycle:     svc,
		Jobs:          tasks.NewScheduler(logger, tasks.OrphanScanJob(svc, logger, appCfg.OrphanScanInterval)),
	}, nil
}

// EnsureSchema attaches collection validators and creates the unique
// indexes the directory relies on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
