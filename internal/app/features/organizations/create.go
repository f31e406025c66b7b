// internal/app/features/organizations/create.go
package organizations

import (
	"net/http"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
)

// HandleCreate handles POST /org/create.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.CreateInput
	if err := decodeBody(w, r, &in, false); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	res, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	apierr.WriteJSON(w, http.StatusCreated, createResponse{
		Message:          "Organization created successfully",
		OrganizationID:   res.OrganizationID,
		OrganizationName: res.OrganizationName,
		CollectionName:   res.CollectionName,
		AdminEmail:       res.AdminEmail,
		AdminID:          res.AdminID,
	})
}
