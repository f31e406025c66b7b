package organizations_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/features/organizations"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"github.com/dalemusser/tenanthub/internal/testutil"
	"go.uber.org/zap"
)

const testPassword = "longpw123"

type fixture struct {
	router http.Handler
	svc    *lifecycle.Service
	codec  *tokens.Codec
	fx     *testutil.Fixtures
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	codec, err := tokens.NewCodec([]byte("handler-test-secret-of-32-bytes!!"), time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	svc := lifecycle.New(lifecycle.Config{Client: db.Client(), DB: db, Codec: codec, Logger: zap.NewNop()})
	h := organizations.NewHandler(svc, nil, zap.NewNop())
	return &fixture{
		router: organizations.Routes(h, codec, zap.NewNop()),
		svc:    svc,
		codec:  codec,
		fx:     testutil.NewFixtures(t, db),
	}
}

func (f *fixture) do(r *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func (f *fixture) create(t *testing.T, name, email string) map[string]any {
	t.Helper()
	rec := f.do(testutil.NewJSONRequest(t, "POST", "/create", map[string]string{
		"organization_name": name,
		"email":             email,
		"password":          testPassword,
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var body map[string]any
	rec.DecodeJSON(t, &body)
	return body
}

func (f *fixture) token(t *testing.T, email string) string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	res, err := f.svc.Login(ctx, lifecycle.LoginInput{Email: email, Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res.AccessToken
}

func TestHandleCreate(t *testing.T) {
	f := newFixture(t)

	body := f.create(t, "Acme", "a@x.com")
	if body["message"] != "Organization created successfully" {
		t.Errorf("message = %v", body["message"])
	}
	if body["collection_name"] != "org_acme" {
		t.Errorf("collection_name = %v", body["collection_name"])
	}
	for _, k := range []string{"organization_id", "admin_id"} {
		if s, _ := body[k].(string); len(s) != 24 {
			t.Errorf("%s = %v, want 24-char hex", k, body[k])
		}
	}
}

func TestHandleCreate_Errors(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Acme", "a@x.com")

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"duplicate name", `{"organization_name":"Acme","email":"b@x.com","password":"longpw123"}`, "Organization 'Acme' already exists"},
		{"duplicate email", `{"organization_name":"Beta","email":"a@x.com","password":"longpw123"}`, "Admin with email 'a@x.com' already exists"},
		{"malformed json", `{"organization_name":`, "Request body must be a JSON object"},
		{"missing fields", `{}`, "Organization name is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest("POST", "/create", strings.NewReader(tt.body)))
			rec.AssertStatus(t, http.StatusBadRequest)
			if got := rec.Detail(t); got != tt.detail {
				t.Errorf("detail = %q, want %q", got, tt.detail)
			}
		})
	}
}

func TestServeGet(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "Acme Corp", "a@x.com")

	rec := f.do(testutil.NewRequest("GET", "/get?organization_name=Acme+Corp"))
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Organization map[string]any `json:"organization"`
	}
	rec.DecodeJSON(t, &body)
	if body.Organization["_id"] != created["organization_id"] {
		t.Errorf("_id = %v, want %v", body.Organization["_id"], created["organization_id"])
	}
	if body.Organization["admin_id"] != created["admin_id"] {
		t.Errorf("admin_id = %v, want %v", body.Organization["admin_id"], created["admin_id"])
	}
	if _, leaked := body.Organization["hashed_password"]; leaked {
		t.Error("password hash must not be exposed")
	}

	rec = f.do(testutil.NewRequest("GET", "/get?organization_name=Nope"))
	rec.AssertStatus(t, http.StatusNotFound)
	if got := rec.Detail(t); got != "Organization 'Nope' not found" {
		t.Errorf("detail = %q", got)
	}

	rec = f.do(testutil.NewRequest("GET", "/get"))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdate(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Acme", "a@x.com")
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.fx.SeedDocs(ctx, "org_acme", 4)

	rec := f.do(testutil.NewJSONRequest(t, "PUT", "/update", map[string]string{
		"organization_name": "Acme Corp",
		"email":             "a@x.com",
		"password":          testPassword,
	}))
	rec.AssertStatus(t, http.StatusOK)
	var body map[string]any
	rec.DecodeJSON(t, &body)
	if body["message"] != "Organization updated successfully" {
		t.Errorf("message = %v", body["message"])
	}
	if body["old_collection"] != "org_acme" || body["new_collection"] != "org_acme_corp" {
		t.Errorf("collections = %v -> %v", body["old_collection"], body["new_collection"])
	}
	if body["documents_migrated"] != float64(4) {
		t.Errorf("documents_migrated = %v, want 4", body["documents_migrated"])
	}
	if _, ok := body["warnings"]; ok {
		t.Errorf("unexpected warnings: %v", body["warnings"])
	}

	// Same name again: nothing to do.
	rec = f.do(testutil.NewJSONRequest(t, "PUT", "/update", map[string]string{
		"organization_name": "Acme Corp",
		"email":             "a@x.com",
		"password":          testPassword,
	}))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"message":"No changes needed"`)
}

func TestHandleUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Acme", "a@x.com")
	f.create(t, "Beta", "b@x.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"wrong password", map[string]string{"organization_name": "New", "email": "a@x.com", "password": "wrongpass"}, http.StatusUnauthorized},
		{"unknown admin", map[string]string{"organization_name": "New", "email": "z@x.com", "password": testPassword}, http.StatusNotFound},
		{"name conflict", map[string]string{"organization_name": "Beta", "email": "a@x.com", "password": testPassword}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(testutil.NewJSONRequest(t, "PUT", "/update", tt.body))
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestHandleDelete(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Beta", "b@x.com")
	f.create(t, "Other", "o@x.com")

	body := map[string]string{"organization_name": "Beta"}

	// No token.
	rec := f.do(testutil.NewJSONRequest(t, "DELETE", "/delete", body))
	rec.AssertStatus(t, http.StatusUnauthorized)
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q", got)
	}

	// Token for another organization.
	rec = f.do(testutil.WithBearer(testutil.NewJSONRequest(t, "DELETE", "/delete", body), f.token(t, "o@x.com")))
	rec.AssertStatus(t, http.StatusForbidden)

	// Own token.
	rec = f.do(testutil.WithBearer(testutil.NewJSONRequest(t, "DELETE", "/delete", body), f.token(t, "b@x.com")))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"collection_deleted":"org_beta"`)

	rec = f.do(testutil.NewRequest("GET", "/get?organization_name=Beta"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete_QueryParam(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Beta", "b@x.com")

	rec := f.do(testutil.WithBearer(testutil.NewRequest("DELETE", "/delete?organization_name=Beta"), f.token(t, "b@x.com")))
	rec.AssertStatus(t, http.StatusOK)
}
