// internal/app/features/organizations/handler.go
package organizations

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/limits"
	"github.com/dalemusser/tenanthub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	Svc     *lifecycle.Service
	Limiter *ratelimit.LoginLimiter // throttles password checks on update; nil disables
	Log     *zap.Logger
}

// NewHandler constructs a new Organizations handler bound to the lifecycle service and logger.
func NewHandler(svc *lifecycle.Service, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:     svc,
		Limiter: limiter,
		Log:     logger,
	}
}

// decodeBody reads a JSON body into v. An empty body decodes to the zero
// value when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxOrgRequestSize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return apierr.Wrap(apierr.Invalid, "organizations.decodeBody", err, "Request body must be a JSON object")
	}
	return nil
}
