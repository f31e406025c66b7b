// internal/app/features/organizations/view.go
package organizations

import (
	"net/http"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
)

// ServeGet handles GET /org/get?organization_name=.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	org, err := h.Svc.Get(r.Context(), r.URL.Query().Get("organization_name"))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, getResponse{Organization: newOrgView(org)})
}
