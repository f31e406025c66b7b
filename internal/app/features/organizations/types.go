// internal/app/features/organizations/types.go
package organizations

import (
	"time"

	"github.com/dalemusser/tenanthub/internal/domain/models"
)

type createResponse struct {
	Message          string `json:"message"`
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	CollectionName   string `json:"collection_name"`
	AdminEmail       string `json:"admin_email"`
	AdminID          string `json:"admin_id"`
}

// orgView is an organization record with ids rendered as hex strings.
type orgView struct {
	ID               string    `json:"_id"`
	OrganizationName string    `json:"organization_name"`
	CollectionName   string    `json:"collection_name"`
	AdminEmail       string    `json:"admin_email"`
	AdminID          string    `json:"admin_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newOrgView(o models.Organization) orgView {
	return orgView{
		ID:               o.ID.Hex(),
		OrganizationName: o.Name,
		CollectionName:   o.CollectionName,
		AdminEmail:       o.AdminEmail,
		AdminID:          o.AdminID.Hex(),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

type getResponse struct {
	Organization orgView `json:"organization"`
}

type updateResponse struct {
	Message           string   `json:"message"`
	OrganizationID    string   `json:"organization_id"`
	OldName           string   `json:"old_name"`
	NewName           string   `json:"new_name"`
	OldCollection     string   `json:"old_collection"`
	NewCollection     string   `json:"new_collection"`
	DocumentsMigrated int64    `json:"documents_migrated"`
	Warnings          []string `json:"warnings,omitempty"`
}

type unchangedResponse struct {
	Message          string `json:"message"`
	OrganizationName string `json:"organization_name"`
}

type deleteResponse struct {
	Message           string `json:"message"`
	OrganizationName  string `json:"organization_name"`
	CollectionDeleted string `json:"collection_deleted"`
}
