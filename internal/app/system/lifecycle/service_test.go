package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/provisioner"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"github.com/dalemusser/tenanthub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testPassword = "longpw123"

type env struct {
	svc   *lifecycle.Service
	codec *tokens.Codec
	db    *mongo.Database
	fx    *testutil.Fixtures
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, nil)
}

// newEnvWith builds an env whose tenant collections go through cols, which
// wraps the real provisioner. A nil cols uses the provisioner directly.
func newEnvWith(t *testing.T, cols *hookedCollections) *env {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	codec, err := tokens.NewCodec([]byte("lifecycle-test-secret-32-bytes-long!"), time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	cfg := lifecycle.Config{
		Client: db.Client(),
		DB:     db,
		Codec:  codec,
		Logger: zap.NewNop(),
	}
	if cols != nil {
		cols.Provisioner = provisioner.New(db, zap.NewNop())
		cfg.Collections = cols
	}
	svc := lifecycle.New(cfg)
	return &env{svc: svc, codec: codec, db: db, fx: testutil.NewFixtures(t, db)}
}

func (e *env) create(t *testing.T, ctx context.Context, name, email string) lifecycle.CreateResult {
	t.Helper()
	res, err := e.svc.Create(ctx, lifecycle.CreateInput{Name: name, Email: email, Password: testPassword})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	return res
}

func (e *env) identity(t *testing.T, ctx context.Context, email string) tokens.Identity {
	t.Helper()
	res, err := e.svc.Login(ctx, lifecycle.LoginInput{Email: email, Password: testPassword})
	if err != nil {
		t.Fatalf("Login(%q) failed: %v", email, err)
	}
	id, ok := e.codec.Validate(res.AccessToken)
	if !ok {
		t.Fatal("issued token did not validate")
	}
	return id
}

func assertKind(t *testing.T, err error, want apierr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apierr.KindOf(err); got != want {
		t.Fatalf("kind = %q, want %q (err: %v)", got, want, err)
	}
}

func detail(err error) string {
	if e, ok := err.(*apierr.Error); ok {
		return e.Msg
	}
	return ""
}

// hookedCollections runs the real provisioner with optional interruptions,
// so tests can fail a saga step or interleave another operation with it.
type hookedCollections struct {
	*provisioner.Provisioner

	beforeProvision func(ctx context.Context, name string)
	beforeMigrate   func(ctx context.Context, src, dst string)
	migrateErr      error
	failDrop        string
}

func (c *hookedCollections) Provision(ctx context.Context, name string) (bool, error) {
	if hook := c.beforeProvision; hook != nil {
		c.beforeProvision = nil
		hook(ctx, name)
	}
	return c.Provisioner.Provision(ctx, name)
}

func (c *hookedCollections) Migrate(ctx context.Context, src, dst string) (int64, error) {
	if hook := c.beforeMigrate; hook != nil {
		c.beforeMigrate = nil
		hook(ctx, src, dst)
	}
	if c.migrateErr != nil {
		return 0, c.migrateErr
	}
	return c.Provisioner.Migrate(ctx, src, dst)
}

func (c *hookedCollections) Drop(ctx context.Context, name string) bool {
	if name == c.failDrop {
		return false
	}
	return c.Provisioner.Drop(ctx, name)
}
