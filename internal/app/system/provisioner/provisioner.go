// internal/app/system/provisioner/provisioner.go
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/tenanthub/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Prefix is prepended to every tenant collection name.
const Prefix = validators.TenantPrefix

const migrateBatchSize = 500

// ErrIncompleteMigration means the destination did not end up with every
// document that was read from the source.
var ErrIncompleteMigration = errors.New("migration incomplete: destination count does not match source")

// Provisioner creates, copies and drops per-tenant collections inside the
// master database.
type Provisioner struct {
	db  *mongo.Database
	log *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Provisioner {
	return &Provisioner{db: db, log: logger}
}

// DeriveCollectionName lowercases name, joins whitespace-separated words
// with "_" and adds Prefix. Names that differ only in case or whitespace
// map to the same collection; callers treat that as a name conflict.
func DeriveCollectionName(name string) string {
	return Prefix + strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// Exists reports whether the collection is present.
func (p *Provisioner) Exists(ctx context.Context, name string) (bool, error) {
	names, err := p.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// Provision creates the collection if it is missing. An existing collection
// is left as is. created is true only when this call made it.
func (p *Provisioner) Provision(ctx context.Context, name string) (created bool, err error) {
	created, err = validators.EnsureCollection(ctx, p.db, name)
	if err != nil || !created {
		return false, err
	}
	if err := validators.Apply(ctx, p.db, name, validators.TenantSchema()); err != nil {
		return true, err
	}
	p.log.Info("provisioned tenant collection", zap.String("collection", name))
	return true, nil
}

// Reset drops name (if present) and provisions it empty. Use it only after
// the directory confirmed no organization references the collection.
func (p *Provisioner) Reset(ctx context.Context, name string) error {
	exists, err := p.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		p.log.Warn("dropping orphaned tenant collection before reuse", zap.String("collection", name))
		if err := p.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop orphan %s: %w", name, err)
		}
	}
	_, err = p.Provision(ctx, name)
	return err
}

// Migrate copies every document from src into dst, keeping _id and all
// fields, and returns how many were copied. dst must be empty; the copy is
// verified by counting dst afterwards. src is not modified.
func (p *Provisioner) Migrate(ctx context.Context, src, dst string) (int64, error) {
	from := p.db.Collection(src)
	to := p.db.Collection(dst)

	cur, err := from.Find(ctx, bson.D{}, options.Find().SetBatchSize(migrateBatchSize))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", src, err)
	}
	defer cur.Close(ctx)

	var copied int64
	batch := make([]any, 0, migrateBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := to.InsertMany(ctx, batch)
		if err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		copied += int64(len(res.InsertedIDs))
		batch = batch[:0]
		return nil
	}

	for cur.Next(ctx) {
		doc := make(bson.Raw, len(cur.Current))
		copy(doc, cur.Current)
		batch = append(batch, doc)
		if len(batch) == migrateBatchSize {
			if err := flush(); err != nil {
				return copied, err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return copied, fmt.Errorf("read %s: %w", src, err)
	}
	if err := flush(); err != nil {
		return copied, err
	}

	n, err := to.CountDocuments(ctx, bson.D{})
	if err != nil {
		return copied, fmt.Errorf("verify %s: %w", dst, err)
	}
	if n != copied {
		p.log.Error("migration count mismatch",
			zap.String("from", src),
			zap.String("to", dst),
			zap.Int64("copied", copied),
			zap.Int64("found", n))
		return copied, ErrIncompleteMigration
	}

	p.log.Info("migrated tenant collection",
		zap.String("from", src),
		zap.String("to", dst),
		zap.Int64("documents", copied))
	return copied, nil
}

// Drop removes the collection. Dropping a missing collection succeeds.
// Failures are logged and reported as false rather than returned.
func (p *Provisioner) Drop(ctx context.Context, name string) bool {
	if err := p.db.Collection(name).Drop(ctx); err != nil {
		p.log.Warn("drop tenant collection failed", zap.String("collection", name), zap.Error(err))
		return false
	}
	p.log.Info("dropped tenant collection", zap.String("collection", name))
	return true
}

// Count returns the number of documents in the collection.
func (p *Provisioner) Count(ctx context.Context, name string) (int64, error) {
	return p.db.Collection(name).CountDocuments(ctx, bson.D{})
}

// ListTenantCollections returns every collection carrying Prefix.
func (p *Provisioner) ListTenantCollections(ctx context.Context) ([]string, error) {
	return p.db.ListCollectionNames(ctx, bson.M{"name": bson.M{"$regex": "^" + Prefix}})
}
