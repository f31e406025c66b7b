// internal/app/features/organizations/delete.go
package organizations

import (
	"net/http"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/auth"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
)

// HandleDelete handles DELETE /org/delete. Requires RequireBearer upstream.
// The name comes from the JSON body, or from ?organization_name= for
// clients that cannot send a DELETE body.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentAdmin(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.New(apierr.Unauthorized, "organizations.HandleDelete", "Not authenticated"))
		return
	}

	var in lifecycle.DeleteInput
	if err := decodeBody(w, r, &in, true); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	if in.Name == "" {
		in.Name = r.URL.Query().Get("organization_name")
	}

	res, err := h.Svc.Delete(r.Context(), in, caller)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	apierr.WriteJSON(w, http.StatusOK, deleteResponse{
		Message:           "Organization deleted successfully",
		OrganizationName:  res.OrganizationName,
		CollectionDeleted: res.CollectionDeleted,
	})
}
