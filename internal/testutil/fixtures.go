package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/authutil"
	"github.com/dalemusser/tenanthub/internal/app/system/indexes"
	"github.com/dalemusser/tenanthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// SetupIndexedDB is SetupTestDB plus the unique indexes the stores rely on.
func SetupIndexedDB(t *testing.T) *mongo.Database {
	t.Helper()
	db := SetupTestDB(t)
	ctx, cancel := TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

// CreateTenant inserts an admin and its organization directly, bypassing the
// lifecycle service, and creates the tenant collection. collection is used
// verbatim so tests can set up states the service would refuse.
func (f *Fixtures) CreateTenant(ctx context.Context, name, collection, email, password string) (models.Organization, models.Admin) {
	f.t.Helper()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	admin := models.Admin{
		ID:             primitive.NewObjectID(),
		Email:          email,
		PasswordHash:   hash,
		OrganizationID: primitive.NewObjectID(),
		CreatedAt:      now,
	}
	org := models.Organization{
		ID:             admin.OrganizationID,
		Name:           name,
		CollectionName: collection,
		AdminEmail:     email,
		AdminID:        admin.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("admins").InsertOne(ctx, admin); err != nil {
		f.t.Fatalf("failed to create test admin: %v", err)
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	f.CreateCollection(ctx, collection)
	return org, admin
}

// CreateCollection creates an empty collection, ignoring "already exists".
func (f *Fixtures) CreateCollection(ctx context.Context, name string) {
	f.t.Helper()
	if err := f.db.CreateCollection(ctx, name); err != nil {
		var ce mongo.CommandError
		if !(errors.As(err, &ce) && ce.Code == 48) {
			f.t.Fatalf("create collection %s: %v", name, err)
		}
	}
}

// SeedDocs inserts n small documents into collection.
func (f *Fixtures) SeedDocs(ctx context.Context, collection string, n int) {
	f.t.Helper()
	if n == 0 {
		return
	}
	now := time.Now().UTC()
	docs := make([]interface{}, n)
	for i := range docs {
		docs[i] = bson.M{"seq": i, "created_at": now, "updated_at": now}
	}
	if _, err := f.db.Collection(collection).InsertMany(ctx, docs); err != nil {
		f.t.Fatalf("seed %s: %v", collection, err)
	}
}

// CollectionExists reports whether name is present in the database.
func (f *Fixtures) CollectionExists(ctx context.Context, name string) bool {
	f.t.Helper()
	names, err := f.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		f.t.Fatalf("list collections: %v", err)
	}
	return len(names) > 0
}

// Count returns the number of documents in collection.
func (f *Fixtures) Count(ctx context.Context, collection string) int64 {
	f.t.Helper()
	n, err := f.db.Collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		f.t.Fatalf("count %s: %v", collection, err)
	}
	return n
}
