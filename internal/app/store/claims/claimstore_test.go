package claimstore_test

import (
	"errors"
	"testing"
	"time"

	claimstore "github.com/dalemusser/tenanthub/internal/app/store/claims"
	"github.com/dalemusser/tenanthub/internal/domain/models"
	"github.com/dalemusser/tenanthub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Acquire_Exclusive(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := claimstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Acquire(ctx, "org_acme", "first"); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := store.Acquire(ctx, "org_acme", "second"); !errors.Is(err, claimstore.ErrClaimed) {
		t.Fatalf("second Acquire: expected ErrClaimed, got %v", err)
	}
	if err := store.Acquire(ctx, "org_other", "second"); err != nil {
		t.Fatalf("Acquire of a different collection failed: %v", err)
	}

	got, err := store.Get(ctx, "org_acme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Owner != "first" {
		t.Errorf("Owner = %q, want first", got.Owner)
	}
}

func TestStore_Release(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := claimstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Acquire(ctx, "org_acme", "owner-a"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	released, err := store.Release(ctx, "org_acme", "owner-b")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if released {
		t.Error("Release by a non-owner should not remove the claim")
	}

	released, err = store.Release(ctx, "org_acme", "owner-a")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !released {
		t.Error("Release by the owner should remove the claim")
	}
	if _, err := store.Get(ctx, "org_acme"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments after release, got %v", err)
	}
	if err := store.Acquire(ctx, "org_acme", "owner-b"); err != nil {
		t.Errorf("Acquire after release failed: %v", err)
	}
}

func TestStore_Acquire_TakesOverStaleClaim(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := claimstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection(claimstore.CollectionName).InsertOne(ctx, models.CollectionClaim{
		Collection: "org_acme",
		Owner:      "crashed",
		ClaimedAt:  time.Now().UTC().Add(-2 * claimstore.StaleAfter),
	})
	if err != nil {
		t.Fatalf("seed stale claim: %v", err)
	}

	if err := store.Acquire(ctx, "org_acme", "fresh"); err != nil {
		t.Fatalf("Acquire over stale claim failed: %v", err)
	}
	got, err := store.Get(ctx, "org_acme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Owner != "fresh" {
		t.Errorf("Owner = %q, want fresh", got.Owner)
	}
}

func TestStore_Claimed(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := claimstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, coll := range []string{"org_a", "org_b"} {
		if err := store.Acquire(ctx, coll, "owner"); err != nil {
			t.Fatalf("Acquire(%s) failed: %v", coll, err)
		}
	}

	got, err := store.Claimed(ctx)
	if err != nil {
		t.Fatalf("Claimed failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Claimed = %v, want 2 entries", got)
	}
	if _, ok := got["org_a"]; !ok {
		t.Error("expected org_a to be claimed")
	}
}
