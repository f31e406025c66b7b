// internal/app/features/login/handler.go
package login

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/limits"
	"github.com/dalemusser/tenanthub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

type Handler struct {
	Svc     *lifecycle.Service
	Limiter *ratelimit.LoginLimiter // nil disables throttling
	Log     *zap.Logger
}

func NewHandler(svc *lifecycle.Service, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:     svc,
		Limiter: limiter,
		Log:     logger,
	}
}

// HandleLogin handles POST /admin/login and returns a bearer token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "login.HandleLogin"

	var in lifecycle.LoginInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxLoginRequestSize)).Decode(&in); err != nil {
		apierr.Write(w, r, h.Log, apierr.Wrap(apierr.Invalid, op, err, "Request body must be a JSON object"))
		return
	}

	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		apierr.Write(w, r, h.Log, apierr.New(apierr.TooMany, op, reason))
		return
	}

	res, err := h.Svc.Login(r.Context(), in)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	h.Limiter.ResetEmail(in.Email)

	apierr.WriteJSON(w, http.StatusOK, res)
}
