// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tenanthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the master-database collection holding organization records.
const CollectionName = "organizations"

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateOrganization is returned when a unique index (name, collection, admin) rejects a write.
	ErrDuplicateOrganization = errors.New("an organization with this name already exists")
	// ErrConcurrentUpdate is returned when the record changed between read and conditional write.
	ErrConcurrentUpdate = errors.New("organization was modified concurrently")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts org. The caller may pre-assign ID so the admin record can
// reference it; a zero ID is filled in.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = org.CreatedAt
	if _, err := s.c.InsertOne(ctx, org); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByName looks up an organization by its exact name. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByName(ctx context.Context, name string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"organization_name": name})
}

// GetByCollectionName finds the organization that owns a tenant collection.
func (s *Store) GetByCollectionName(ctx context.Context, coll string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"collection_name": coll})
}

// GetByAdminID finds the organization owned by an admin.
func (s *Store) GetByAdminID(ctx context.Context, adminID primitive.ObjectID) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"admin_id": adminID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, filter).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// Rename repoints the organization to newName/newColl, but only while it
// still references fromColl. A concurrent rename that got there first makes
// this return ErrConcurrentUpdate.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, fromColl, newName, newColl string) (time.Time, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "collection_name": fromColl},
		bson.M{"$set": bson.M{
			"organization_name": newName,
			"collection_name":   newColl,
			"updated_at":        now,
		}},
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return time.Time{}, ErrDuplicateOrganization
		}
		return time.Time{}, err
	}
	if res.MatchedCount == 0 {
		return time.Time{}, ErrConcurrentUpdate
	}
	return now, nil
}

// Delete removes an organization by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ReferencedCollections returns the set of tenant collections named by any organization.
func (s *Store) ReferencedCollections(ctx context.Context) (map[string]struct{}, error) {
	vals, err := s.c.Distinct(ctx, "collection_name", bson.D{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if name, ok := v.(string); ok {
			out[name] = struct{}{}
		}
	}
	return out, nil
}
