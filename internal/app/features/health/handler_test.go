package health_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/features/health"
	"github.com/dalemusser/tenanthub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Service  string `json:"service"`
	Message  string `json:"message"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), "test", zap.NewNop())

	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "healthy" {
		t.Errorf("status: got %q, want healthy", body.Status)
	}
	if body.Database != "connected" {
		t.Errorf("database: got %q, want connected", body.Database)
	}
}

func TestServe_DatabaseDisconnected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Nothing listens on port 1; the client is lazy so Connect succeeds.
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	handler := health.NewHandler(client, "test", zap.NewNop())
	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusOK)
	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "healthy" {
		t.Errorf("status: got %q, want healthy", body.Status)
	}
	if !strings.HasPrefix(body.Database, "disconnected: ") || body.Message != "Database unavailable" {
		t.Errorf("body = %+v", body)
	}
}

func TestServeRoot(t *testing.T) {
	handler := health.NewHandler(nil, "1.2.3", zap.NewNop())

	rec := testutil.NewRecorder()
	handler.ServeRoot(rec, testutil.NewRequest("GET", "/"))

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
	}
	rec.DecodeJSON(t, &body)
	if body.Status != "healthy" || body.Service != health.ServiceName || body.Version != "1.2.3" {
		t.Errorf("body = %+v", body)
	}
}
