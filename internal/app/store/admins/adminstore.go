// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/normalize"
	"github.com/dalemusser/tenanthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the master-database collection holding admin credentials.
const CollectionName = "admins"

type Store struct {
	c *mongo.Collection
}

// ErrDuplicateEmail is returned when an admin with the same email already exists.
var ErrDuplicateEmail = errors.New("an admin with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts an admin. Email is normalized before storage; the unique
// index on email is authoritative.
func (s *Store) Create(ctx context.Context, a models.Admin) (models.Admin, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.Email = normalize.Email(a.Email)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Admin{}, ErrDuplicateEmail
		}
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Admin{}, err
	}
	return a, nil
}

// GetByEmail finds an admin by email (normalized before lookup).
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&a); err != nil {
		return models.Admin{}, err
	}
	return a, nil
}

// EmailExists reports whether an admin already uses email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": normalize.Email(email)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes an admin by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
