package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/authutil"
	"github.com/dalemusser/tenanthub/internal/app/system/inputval"
	"github.com/dalemusser/tenanthub/internal/app/system/normalize"
	"github.com/dalemusser/tenanthub/internal/app/system/provisioner"
	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"github.com/dalemusser/tenanthub/internal/app/system/txn"
	"github.com/dalemusser/tenanthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateInput is the payload of POST /org/create.
type CreateInput struct {
	Name     string `json:"organization_name" validate:"required,max=100,orgname" label:"Organization name"`
	Email    string `json:"email" validate:"required,emailaddr" label:"Email"`
	Password string `json:"password" validate:"required,min=8" label:"Password"`
}

// CreateResult describes a newly created organization.
type CreateResult struct {
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	CollectionName   string `json:"collection_name"`
	AdminEmail       string `json:"admin_email"`
	AdminID          string `json:"admin_id"`
}

// Create registers an organization with its admin and a fresh tenant
// collection. No token is issued.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	done := s.metrics.Record("create")
	res, err := s.create(ctx, in)
	return res, done(err)
}

func (s *Service) create(ctx context.Context, in CreateInput) (CreateResult, error) {
	const op = "lifecycle.Create"

	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	if v := inputval.Validate(in); v.HasErrors() {
		return CreateResult{}, apierr.New(apierr.Invalid, op, v.First())
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		return CreateResult{}, apierr.Wrap(apierr.Invalid, op, err, authutil.PasswordRules())
	}
	coll := provisioner.DeriveCollectionName(in.Name)

	// Fast-path checks for better messages; the unique indexes decide.
	lctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "create lookups")
	defer cancel()
	if err := s.checkAvailable(lctx, op, in.Name, coll, primitive.NilObjectID); err != nil {
		return CreateResult{}, err
	}
	taken, err := s.admins.EmailExists(lctx, in.Email)
	if err != nil {
		return CreateResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}
	if taken {
		return CreateResult{}, apierr.New(apierr.Conflict, op, fmt.Sprintf("Admin with email '%s' already exists", in.Email))
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		return CreateResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}

	wctx, wcancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "create organization")
	defer wcancel()

	release, err := s.claim(wctx, op, in.Name, coll)
	if err != nil {
		return CreateResult{}, err
	}
	defer release()

	now := time.Now().UTC()
	admin := models.Admin{
		ID:             primitive.NewObjectID(),
		Email:          in.Email,
		PasswordHash:   hash,
		OrganizationID: primitive.NewObjectID(),
		CreatedAt:      now,
	}
	org := models.Organization{
		ID:             admin.OrganizationID,
		Name:           in.Name,
		CollectionName: coll,
		AdminEmail:     in.Email,
		AdminID:        admin.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = txn.Run(wctx, s.client, s.log, func(ctx context.Context) error {
		if _, err := s.admins.Create(ctx, admin); err != nil {
			return err
		}
		_, err := s.orgs.Create(ctx, org)
		return err
	})
	if err != nil {
		// Without a transaction the admin may have landed alone.
		if _, derr := s.admins.Delete(wctx, admin.ID); derr != nil {
			s.log.Warn("compensating admin delete failed", zap.String("admin_id", admin.ID.Hex()), zap.Error(derr))
		}
		// The collection is left in place: on a conflict the winner may own it.
		return CreateResult{}, storeConflict(op, in.Name, in.Email, err)
	}

	s.log.Info("organization created",
		zap.String("organization_id", org.ID.Hex()),
		zap.String("organization", org.Name),
		zap.String("collection", coll))

	return CreateResult{
		OrganizationID:   org.ID.Hex(),
		OrganizationName: org.Name,
		CollectionName:   coll,
		AdminEmail:       admin.Email,
		AdminID:          admin.ID.Hex(),
	}, nil
}

// Get returns the organization registered under name. name is normalized
// the way Create stores it; otherwise names match exactly.
func (s *Service) Get(ctx context.Context, name string) (models.Organization, error) {
	const op = "lifecycle.Get"
	done := s.metrics.Record("get")

	name = normalize.Name(name)
	if name == "" {
		return models.Organization{}, done(apierr.New(apierr.Invalid, op, "organization_name is required"))
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "get organization")
	defer cancel()
	org, err := s.orgs.GetByName(ctx, name)
	if err != nil {
		if isNoDocs(err) {
			return models.Organization{}, done(apierr.New(apierr.NotFound, op, orgNotFoundMsg(name)))
		}
		return models.Organization{}, done(apierr.Wrap(apierr.Internal, op, err, ""))
	}
	return org, done(nil)
}
