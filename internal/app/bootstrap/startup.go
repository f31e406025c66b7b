// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema
// setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short: appCfg.TimeoutShort,
		Long:  appCfg.TimeoutLong,
		Batch: appCfg.TimeoutBatch,
	})
	cur := timeouts.Current()
	logger.Info("storage timeouts configured",
		zap.Duration("short", cur.Short),
		zap.Duration("long", cur.Long),
		zap.Duration("batch", cur.Batch))

	if deps.Jobs != nil {
		deps.Jobs.Start()
	}
	return nil
}
