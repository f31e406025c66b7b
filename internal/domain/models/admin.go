// internal/domain/models/admin.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is the single owning account of an organization.
//
// NOTE:
//   - Email is stored normalized (trimmed, lowercased) and is the login identifier.
//   - OrganizationID never changes after creation; the admin is removed together
//     with its organization.
type Admin struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"hashed_password" json:"-"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
