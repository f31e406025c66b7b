// Package timeouts holds the bounded request lifetimes used for storage calls.
//
//   - Ping: health checks
//   - Short: single-document directory lookups
//   - Long: lifecycle writes touching several collections
//   - Batch: tenant data migration during rename
//
// Values are set once at startup from config (Configure) and read through
// the getters.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing  = 2 * time.Second
	DefaultShort = 5 * time.Second
	DefaultLong  = 30 * time.Second
	DefaultBatch = 2 * time.Minute
)

var (
	mu    sync.RWMutex
	ping  = DefaultPing
	short = DefaultShort
	long  = DefaultLong
	batch = DefaultBatch
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping  time.Duration
	Short time.Duration
	Long  time.Duration
	Batch time.Duration
}

func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// Configure overrides the non-zero values in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
	if cfg.Batch > 0 {
		batch = cfg.Batch
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, long, batch = DefaultPing, DefaultShort, DefaultLong, DefaultBatch
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Long: long, Batch: batch}
}

// WithTimeout derives a context with timeout whose cancel func logs a warning
// when the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), log, "rename migrate")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
