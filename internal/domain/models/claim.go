// internal/domain/models/claim.go
package models

import "time"

// CollectionClaim reserves a tenant collection for one in-flight lifecycle
// operation. The collection name is the _id, so at most one claim per
// collection can exist.
type CollectionClaim struct {
	Collection string    `bson:"_id" json:"collection"`
	Owner      string    `bson:"owner" json:"owner"`
	ClaimedAt  time.Time `bson:"claimed_at" json:"claimed_at"`
}
