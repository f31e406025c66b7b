// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TenantPrefix is the name prefix every tenant collection carries. The
// organizations validator pins collection_name to it.
const TenantPrefix = "org_"

// EnsureAll creates the master collections (if missing) and tries to attach
// JSON-Schema validators. On servers that don't support collMod/validators
// (e.g. some DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := EnsureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if err := Apply(ctx, db, coll, schema); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("organizations", orgsSchema())
	ensure("admins", adminsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// CollectionExists returns true when <name> already exists.
func CollectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// EnsureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func EnsureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := CollectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if IsNamespaceExists(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

// Apply attaches schema to an existing collection. Servers without
// collMod/validator support are logged and treated as success.
func Apply(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		if isNoSuchCommand(err) || isNotImplemented(err) {
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", name))
			return nil
		}
		return err
	}
	zap.L().Debug("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// IsNamespaceExists reports whether err is MongoDB's "collection already
// exists" (code 48).
func IsNamespaceExists(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func orgsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_name", "collection_name", "admin_email", "admin_id", "created_at", "updated_at"},
			"properties": bson.M{
				"organization_name": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 100, "pattern": ".*\\S.*"},
				"collection_name":   bson.M{"bsonType": "string", "pattern": "^" + TenantPrefix},
				"admin_email":       bson.M{"bsonType": "string"},
				"admin_id":          bson.M{"bsonType": "objectId"},
				"created_at":        bson.M{"bsonType": "date"},
				"updated_at":        bson.M{"bsonType": "date"},
			},
		},
	}
}

func adminsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "hashed_password", "organization_id", "created_at"},
			"properties": bson.M{
				"email":           bson.M{"bsonType": "string", "minLength": 3},
				"hashed_password": bson.M{"bsonType": "string", "minLength": 1},
				"organization_id": bson.M{"bsonType": "objectId"},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

// TenantSchema only pins the timestamp types; tenant documents are otherwise free-form.
func TenantSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"properties": bson.M{
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
