// internal/app/store/claims/claimstore.go
package claimstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tenanthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the master-database collection holding claims.
const CollectionName = "collection_claims"

// StaleAfter is how long a claim survives its owner. A claim older than
// this is taken over by the next Acquire and expired by the TTL index.
const StaleAfter = 15 * time.Minute

// ErrClaimed is returned when another operation holds the collection.
var ErrClaimed = errors.New("tenant collection is claimed by another operation")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Acquire reserves coll for owner. The _id uniqueness decides between
// concurrent callers; a stale claim is removed and the insert retried once.
func (s *Store) Acquire(ctx context.Context, coll, owner string) error {
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		_, err := s.c.InsertOne(ctx, models.CollectionClaim{Collection: coll, Owner: owner, ClaimedAt: now})
		if err == nil {
			return nil
		}
		if !wafflemongo.IsDup(err) {
			return err
		}
		if attempt > 0 {
			break
		}
		res, err := s.c.DeleteOne(ctx, bson.M{
			"_id":        coll,
			"claimed_at": bson.M{"$lt": now.Add(-StaleAfter)},
		})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			break
		}
	}
	return ErrClaimed
}

// Release drops the claim on coll if owner still holds it. Returns whether
// a claim was removed.
func (s *Store) Release(ctx context.Context, coll, owner string) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": coll, "owner": owner})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Get returns the claim on coll. Returns mongo.ErrNoDocuments if unclaimed.
func (s *Store) Get(ctx context.Context, coll string) (models.CollectionClaim, error) {
	var c models.CollectionClaim
	if err := s.c.FindOne(ctx, bson.M{"_id": coll}).Decode(&c); err != nil {
		return models.CollectionClaim{}, err
	}
	return c, nil
}

// Claimed returns the set of collections currently claimed.
func (s *Store) Claimed(ctx context.Context) (map[string]struct{}, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]struct{}{}
	for cur.Next(ctx) {
		var c models.CollectionClaim
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.Collection] = struct{}{}
	}
	return out, cur.Err()
}
