package lifecycle_test

import (
	"testing"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"github.com/dalemusser/tenanthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDelete_Scenario(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	beta := e.create(t, ctx, "Beta", "b@x.com")
	e.create(t, ctx, "Other", "o@x.com")
	e.fx.SeedDocs(ctx, "org_beta", 3)

	// A token from a different organization is refused.
	_, err := e.svc.Delete(ctx, lifecycle.DeleteInput{Name: "Beta"}, e.identity(t, ctx, "o@x.com"))
	assertKind(t, err, apierr.Forbidden)
	if got := detail(err); got != "You don't have permission to delete this organization" {
		t.Errorf("detail = %q", got)
	}
	if !e.fx.CollectionExists(ctx, "org_beta") {
		t.Fatal("forbidden delete must not touch the collection")
	}

	res, err := e.svc.Delete(ctx, lifecycle.DeleteInput{Name: "Beta"}, e.identity(t, ctx, "b@x.com"))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if res.OrganizationName != "Beta" || res.CollectionDeleted != "org_beta" {
		t.Errorf("result = %+v", res)
	}

	_, err = e.svc.Get(ctx, "Beta")
	assertKind(t, err, apierr.NotFound)
	if e.fx.CollectionExists(ctx, "org_beta") {
		t.Error("expected tenant collection to be dropped")
	}
	if n := e.fx.Count(ctx, "admins"); n != 1 {
		t.Errorf("admins = %d, want 1 (only Other's)", n)
	}
	adminID, _ := primitive.ObjectIDFromHex(beta.AdminID)
	if n, _ := e.db.Collection("admins").CountDocuments(ctx, bson.M{"_id": adminID}); n != 0 {
		t.Error("expected Beta's admin to be deleted")
	}
}

func TestDelete_ForbiddenForAnyForeignOrganization(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	target := e.create(t, ctx, "Beta", "b@x.com")

	callers := []tokens.Identity{
		{AdminID: target.AdminID, OrganizationID: primitive.NewObjectID().Hex(), Email: "b@x.com"},
		{AdminID: primitive.NewObjectID().Hex(), OrganizationID: "", Email: "b@x.com"},
		{AdminID: target.AdminID, OrganizationID: "not-an-id", Email: "b@x.com"},
	}
	for _, c := range callers {
		_, err := e.svc.Delete(ctx, lifecycle.DeleteInput{Name: "Beta"}, c)
		assertKind(t, err, apierr.Forbidden)
	}
	if _, err := e.svc.Get(ctx, "Beta"); err != nil {
		t.Errorf("organization should survive forbidden deletes: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := e.svc.Delete(ctx, lifecycle.DeleteInput{Name: "Ghost"}, tokens.Identity{OrganizationID: primitive.NewObjectID().Hex()})
	assertKind(t, err, apierr.NotFound)
	if got := detail(err); got != "Organization 'Ghost' not found" {
		t.Errorf("detail = %q", got)
	}
}

func TestDelete_StaleTokenAfterDelete(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.create(t, ctx, "Beta", "b@x.com")
	res, err := e.svc.Login(ctx, lifecycle.LoginInput{Email: "b@x.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	id, _ := e.codec.Validate(res.AccessToken)
	if _, err := e.svc.Delete(ctx, lifecycle.DeleteInput{Name: "Beta"}, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// No revocation: the token stays valid until it expires, but there is
	// nothing left for it to act on.
	if _, ok := e.codec.Validate(res.AccessToken); !ok {
		t.Fatal("expected token to remain valid")
	}
	_, err = e.svc.Delete(ctx, lifecycle.DeleteInput{Name: "Beta"}, id)
	assertKind(t, err, apierr.NotFound)
}

func TestDelete_MarkupNormalizedLikeCreate(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.create(t, ctx, "<i>Beta</i>", "b@x.com")

	res, err := e.svc.Delete(ctx, lifecycle.DeleteInput{Name: "<i>Beta</i>"}, e.identity(t, ctx, "b@x.com"))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if res.OrganizationName != "Beta" || res.CollectionDeleted != "org_beta" {
		t.Errorf("result = %+v", res)
	}
}
