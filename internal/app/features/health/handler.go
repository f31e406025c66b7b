package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ServiceName is reported by the status endpoints.
const ServiceName = "Organization Management Service"

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client  *mongo.Client
	Version string
	Log     *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, version string, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Version: version,
		Log:     logger,
	}
}

type rootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Service  string `json:"service"`
	Message  string `json:"message,omitempty"`
}

// ServeRoot handles GET /. It does not touch the database.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	apierr.WriteJSON(w, http.StatusOK, rootResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: h.Version,
	})
}

// Serve handles GET /health. It always answers 200; database connectivity
// is reported in the "database" field only.
//
//	{ "status":"healthy", "database":"connected", "service":"…" }
//	{ "status":"healthy", "database":"disconnected: <reason>", "service":"…", "message":"Database unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "healthy",
		Database: "connected",
		Service:  ServiceName,
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Database = "disconnected: " + err.Error()
		resp.Message = "Database unavailable"
	}

	apierr.WriteJSON(w, http.StatusOK, resp)
}
