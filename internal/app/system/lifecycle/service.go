// Package lifecycle orchestrates the tenant lifecycle: create, read, rename,
// delete and login. It owns the step ordering across the directory stores,
// the credential store, the token codec and the collection provisioner, and
// translates their errors into apierr kinds.
//
// Every write that resets or drops a tenant collection first claims it in
// collection_claims, where the collection name is the _id. The claim holder
// re-reads the directory before touching the collection, so a stale
// availability check can never reset data another organization owns.
//
// Rename is a saga without a cross-collection transaction:
//
//	claim + reset target → migrate → conditional repoint → release → drop old
//
// A failure before the repoint leaves the organization untouched and the
// target collection orphaned; the orphan is reset on the next claim of that
// name (or removed by SweepOrphans). A failed drop after the repoint is
// reported as a warning, never as a failure.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	adminstore "github.com/dalemusser/tenanthub/internal/app/store/admins"
	claimstore "github.com/dalemusser/tenanthub/internal/app/store/claims"
	organizationstore "github.com/dalemusser/tenanthub/internal/app/store/organizations"
	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/metrics"
	"github.com/dalemusser/tenanthub/internal/app/system/provisioner"
	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections is the tenant-collection surface the service drives.
// *provisioner.Provisioner implements it.
type Collections interface {
	Exists(ctx context.Context, name string) (bool, error)
	Provision(ctx context.Context, name string) (bool, error)
	Reset(ctx context.Context, name string) error
	Migrate(ctx context.Context, src, dst string) (int64, error)
	Drop(ctx context.Context, name string) bool
	ListTenantCollections(ctx context.Context) ([]string, error)
}

var _ Collections = (*provisioner.Provisioner)(nil)

// Service runs lifecycle operations against one master database.
type Service struct {
	client  *mongo.Client
	orgs    *organizationstore.Store
	admins  *adminstore.Store
	claims  *claimstore.Store
	prov    Collections
	codec   *tokens.Codec
	metrics *metrics.Lifecycle
	log     *zap.Logger
}

// Config wires a Service. Client may be nil, in which case multi-record
// writes run without a transaction. Metrics may be nil. Collections
// defaults to a provisioner over DB.
type Config struct {
	Client      *mongo.Client
	DB          *mongo.Database
	Codec       *tokens.Codec
	Metrics     *metrics.Lifecycle
	Logger      *zap.Logger
	Collections Collections
}

func New(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prov := cfg.Collections
	if prov == nil {
		prov = provisioner.New(cfg.DB, log)
	}
	return &Service{
		client:  cfg.Client,
		orgs:    organizationstore.New(cfg.DB),
		admins:  adminstore.New(cfg.DB),
		claims:  claimstore.New(cfg.DB),
		prov:    prov,
		codec:   cfg.Codec,
		metrics: cfg.Metrics,
		log:     log,
	}
}

/* ------------------------------ helpers ------------------------------ */

func orgExistsMsg(name string) string {
	return fmt.Sprintf("Organization '%s' already exists", name)
}

func orgNotFoundMsg(name string) string {
	return fmt.Sprintf("Organization '%s' not found", name)
}

func isNoDocs(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// checkAvailable returns Conflict when an organization other than self
// holds name or the collection derived from it. Names that differ only in
// case or whitespace collide through the collection check.
func (s *Service) checkAvailable(ctx context.Context, op, name, coll string, self primitive.ObjectID) error {
	org, err := s.orgs.GetByName(ctx, name)
	switch {
	case err == nil && org.ID != self:
		return apierr.New(apierr.Conflict, op, orgExistsMsg(name))
	case err != nil && !isNoDocs(err):
		return apierr.Wrap(apierr.Internal, op, err, "")
	}

	org, err = s.orgs.GetByCollectionName(ctx, coll)
	switch {
	case err == nil && org.ID != self:
		return apierr.New(apierr.Conflict, op, orgExistsMsg(name))
	case err != nil && !isNoDocs(err):
		return apierr.Wrap(apierr.Internal, op, err, "")
	}
	return nil
}

// claim reserves coll and prepares it empty for a new owner. The directory
// is read again under the claim: an organization that took coll after
// checkAvailable ran is reported as a conflict and its data left alone.
// Anything else found in coll is a leftover from a failed attempt and is
// discarded. The caller must call release once its directory write is done.
func (s *Service) claim(ctx context.Context, op, name, coll string) (release func(), err error) {
	release, err = s.acquire(ctx, coll)
	if err != nil {
		if errors.Is(err, claimstore.ErrClaimed) {
			return nil, apierr.Wrap(apierr.Conflict, op, err, orgExistsMsg(name))
		}
		return nil, apierr.Wrap(apierr.Internal, op, err, "")
	}

	referenced, err := s.referenced(ctx, coll)
	if err != nil {
		release()
		return nil, apierr.Wrap(apierr.Internal, op, err, "")
	}
	if referenced {
		release()
		return nil, apierr.New(apierr.Conflict, op, orgExistsMsg(name))
	}

	exists, err := s.prov.Exists(ctx, coll)
	if err == nil {
		if exists {
			err = s.prov.Reset(ctx, coll)
		} else {
			_, err = s.prov.Provision(ctx, coll)
		}
	}
	if err != nil {
		release()
		return nil, apierr.Wrap(apierr.Internal, op, fmt.Errorf("provision %s: %w", coll, err), "")
	}
	return release, nil
}

// acquire takes the claim on coll and returns the func that gives it back.
// Release may be called more than once; it runs on its own short deadline
// so a cancelled request still frees the claim.
func (s *Service) acquire(ctx context.Context, coll string) (func(), error) {
	owner := primitive.NewObjectID().Hex()
	if err := s.claims.Acquire(ctx, coll, owner); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
			defer cancel()
			if _, err := s.claims.Release(rctx, coll, owner); err != nil {
				s.log.Warn("release collection claim failed", zap.String("collection", coll), zap.Error(err))
			}
		})
	}, nil
}

func (s *Service) referenced(ctx context.Context, coll string) (bool, error) {
	_, err := s.orgs.GetByCollectionName(ctx, coll)
	switch {
	case err == nil:
		return true, nil
	case isNoDocs(err):
		return false, nil
	default:
		return false, err
	}
}

var errDropFailed = errors.New("drop tenant collection failed")

// dropUnreferenced drops coll only if, under a claim, no organization
// references it. dropped is false with a nil error when the collection is
// claimed by another operation or has been taken by an organization.
func (s *Service) dropUnreferenced(ctx context.Context, coll string) (dropped bool, err error) {
	release, err := s.acquire(ctx, coll)
	if errors.Is(err, claimstore.ErrClaimed) {
		s.log.Info("skipping drop: collection claimed", zap.String("collection", coll))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer release()

	referenced, err := s.referenced(ctx, coll)
	if err != nil {
		return false, err
	}
	if referenced {
		s.log.Info("skipping drop: collection referenced", zap.String("collection", coll))
		return false, nil
	}
	if !s.prov.Drop(ctx, coll) {
		return false, errDropFailed
	}
	return true, nil
}

// storeConflict maps store sentinels from a directory write to apierr.
func storeConflict(op, name, email string, err error) error {
	switch {
	case errors.Is(err, organizationstore.ErrDuplicateOrganization):
		return apierr.Wrap(apierr.Conflict, op, err, orgExistsMsg(name))
	case errors.Is(err, adminstore.ErrDuplicateEmail):
		return apierr.Wrap(apierr.Conflict, op, err, fmt.Sprintf("Admin with email '%s' already exists", email))
	case errors.Is(err, organizationstore.ErrConcurrentUpdate):
		return apierr.Wrap(apierr.Conflict, op, err, "Organization was modified by another request; retry")
	default:
		return apierr.Wrap(apierr.Internal, op, err, "")
	}
}
