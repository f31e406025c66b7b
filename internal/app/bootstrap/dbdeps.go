// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/tasks"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the back-end dependencies built once in ConnectDB and shared
// by every later hook.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Tokens    *tokens.Codec
	Registry  *prometheus.Registry
	Lifecycle *lifecycle.Service
	Jobs      *tasks.Scheduler
}
