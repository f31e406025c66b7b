// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is a tenant's directory record. CollectionName is the only
// authority for which physical collection holds the tenant's data; it is
// derived from Name at creation and rewritten only by a completed rename.
type Organization struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"organization_name" json:"organization_name"`
	CollectionName string             `bson:"collection_name" json:"collection_name"` // unique
	AdminEmail     string             `bson:"admin_email" json:"admin_email"`
	AdminID        primitive.ObjectID `bson:"admin_id" json:"admin_id"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
