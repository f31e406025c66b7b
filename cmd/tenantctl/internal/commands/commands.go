package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/bootstrap"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Globals carries the connection and token settings shared by every
// command. They read the same TENANTHUB_* variables as the server.
type Globals struct {
	MongoURI      string        `help:"MongoDB connection URI" env:"TENANTHUB_MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string        `help:"Master database name" env:"TENANTHUB_MONGO_DATABASE" default:"organization_master"`
	ConnectRetry  time.Duration `help:"How long to retry the initial connection" env:"TENANTHUB_MONGO_CONNECT_RETRY" default:"10s"`
	JWTSecret     string        `help:"HMAC secret for access tokens" env:"TENANTHUB_JWT_SECRET"`
	JWTExpiration time.Duration `help:"Default token lifetime" env:"TENANTHUB_JWT_EXPIRATION" default:"30m"`
	Debug         bool          `help:"Enable debug logging."`

	Out io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

func (g *Globals) logger() *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if g.Debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	zap.ReplaceGlobals(l)
	return l
}

// connect opens the master database. Callers must disconnect the client.
func (g *Globals) connect(ctx context.Context, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	client, err := bootstrap.OpenMongo(ctx, bootstrap.MongoOptions{
		URI:      g.MongoURI,
		RetryFor: g.ConnectRetry,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", g.MongoURI, err)
	}
	return client, client.Database(g.MongoDatabase), nil
}
