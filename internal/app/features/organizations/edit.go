// internal/app/features/organizations/edit.go
package organizations

import (
	"net/http"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
)

// HandleUpdate handles PUT /org/update. The body carries the new name and
// the admin's credentials; no bearer token is used here.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.RenameInput
	if err := decodeBody(w, r, &in, false); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		apierr.Write(w, r, h.Log, apierr.New(apierr.TooMany, "organizations.HandleUpdate", reason))
		return
	}

	res, err := h.Svc.Rename(r.Context(), in)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	if res.Unchanged {
		apierr.WriteJSON(w, http.StatusOK, unchangedResponse{
			Message:          "No changes needed",
			OrganizationName: res.OldName,
		})
		return
	}

	apierr.WriteJSON(w, http.StatusOK, updateResponse{
		Message:           "Organization updated successfully",
		OrganizationID:    res.OrganizationID,
		OldName:           res.OldName,
		NewName:           res.NewName,
		OldCollection:     res.OldCollection,
		NewCollection:     res.NewCollection,
		DocumentsMigrated: res.DocumentsMigrated,
		Warnings:          res.Warnings,
	})
}
