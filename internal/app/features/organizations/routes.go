// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/tenanthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes mounts all Organization routes under the base path
// (typically "/org" from bootstrap).
func Routes(h *Handler, tokens auth.Verifier, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Post("/create", h.HandleCreate)
	r.Get("/get", h.ServeGet)

	// Rename authenticates with the credentials in its body.
	r.Put("/update", h.HandleUpdate)

	// Delete is the only route that takes a bearer token.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireBearer(tokens, logger))
		pr.Delete("/delete", h.HandleDelete)
	})

	return r
}
