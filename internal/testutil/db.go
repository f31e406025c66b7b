package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoURIEnv points tests at an existing server instead of a container.
const MongoURIEnv = "TENANTHUB_TEST_MONGO_URI"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// TestContext returns a context bounded for a single test.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// SetupTestDB returns a fresh database on a shared MongoDB server and drops it
// when the test ends. The server comes from TENANTHUB_TEST_MONGO_URI or, if
// unset, a mongo:7 container. Tests skip when neither is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	clientOnce.Do(func() {
		client, clientErr = connect()
	})
	if clientErr != nil {
		t.Skipf("mongodb unavailable: %v", clientErr)
	}

	name := "tenanthub_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

func connect() (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		var err error
		uri, err = startContainer(ctx)
		if err != nil {
			return nil, err
		}
	}

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(ctx)
		return nil, err
	}
	return c, nil
}

// startContainer runs a standalone mongod. The container is reaped by
// testcontainers when the test binary exits.
func startContainer(ctx context.Context) (uri string, err error) {
	defer func() {
		// testcontainers panics when no docker daemon is configured.
		if r := recover(); r != nil {
			err = fmt.Errorf("start mongo container: %v", r)
		}
	}()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}
