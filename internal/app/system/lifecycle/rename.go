package lifecycle

import (
	"context"
	"fmt"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/authutil"
	"github.com/dalemusser/tenanthub/internal/app/system/inputval"
	"github.com/dalemusser/tenanthub/internal/app/system/normalize"
	"github.com/dalemusser/tenanthub/internal/app/system/provisioner"
	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// RenameInput is the payload of PUT /org/update. Name is the target name;
// the admin authenticates with email and password rather than a token.
type RenameInput struct {
	Name     string `json:"organization_name" validate:"required,max=100,orgname" label:"Organization name"`
	Email    string `json:"email" validate:"required,emailaddr" label:"Email"`
	Password string `json:"password" validate:"required,min=8" label:"Password"`
}

// RenameResult reports what a rename did. Unchanged is set when the name
// already matched and nothing was touched.
type RenameResult struct {
	Unchanged         bool
	OrganizationID    string
	OldName           string
	NewName           string
	OldCollection     string
	NewCollection     string
	DocumentsMigrated int64
	Warnings          []string
}

// Rename moves an organization to a new name. When the new name derives a
// different collection, the tenant data is copied there and the old
// collection dropped after the directory points at the new one.
func (s *Service) Rename(ctx context.Context, in RenameInput) (RenameResult, error) {
	done := s.metrics.Record("rename")
	res, err := s.rename(ctx, in)
	return res, done(err)
}

func (s *Service) rename(ctx context.Context, in RenameInput) (RenameResult, error) {
	const op = "lifecycle.Rename"

	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	if v := inputval.Validate(in); v.HasErrors() {
		return RenameResult{}, apierr.New(apierr.Invalid, op, v.First())
	}

	lctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "rename lookups")
	defer cancel()

	admin, err := s.admins.GetByEmail(lctx, in.Email)
	if err != nil {
		if isNoDocs(err) {
			return RenameResult{}, apierr.New(apierr.NotFound, op, "Admin user not found")
		}
		return RenameResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}
	if !authutil.CheckPassword(in.Password, admin.PasswordHash) {
		return RenameResult{}, apierr.New(apierr.Unauthorized, op, "Invalid credentials")
	}

	org, err := s.orgs.GetByAdminID(lctx, admin.ID)
	if err != nil {
		if isNoDocs(err) {
			return RenameResult{}, apierr.New(apierr.NotFound, op, "Organization not found")
		}
		return RenameResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}

	if in.Name == org.Name {
		return RenameResult{Unchanged: true, OrganizationID: org.ID.Hex(), OldName: org.Name, NewName: org.Name}, nil
	}

	newColl := provisioner.DeriveCollectionName(in.Name)
	if err := s.checkAvailable(lctx, op, in.Name, newColl, org.ID); err != nil {
		return RenameResult{}, err
	}

	res := RenameResult{
		OrganizationID: org.ID.Hex(),
		OldName:        org.Name,
		NewName:        in.Name,
		OldCollection:  org.CollectionName,
		NewCollection:  newColl,
	}

	wctx, wcancel := timeouts.WithTimeout(ctx, timeouts.Batch(), s.log, "rename organization")
	defer wcancel()

	// Case or whitespace change only: same collection, no data moves.
	if newColl == org.CollectionName {
		if _, err := s.orgs.Rename(wctx, org.ID, org.CollectionName, in.Name, newColl); err != nil {
			return RenameResult{}, storeConflict(op, in.Name, in.Email, err)
		}
		s.log.Info("organization renamed in place",
			zap.String("organization_id", res.OrganizationID),
			zap.String("from", res.OldName),
			zap.String("to", res.NewName))
		return res, nil
	}

	release, err := s.claim(wctx, op, in.Name, newColl)
	if err != nil {
		return RenameResult{}, err
	}
	defer release()

	n, err := s.prov.Migrate(wctx, org.CollectionName, newColl)
	if err != nil {
		s.metrics.Orphaned()
		s.log.Error("rename aborted: migration failed; organization unchanged",
			zap.String("organization_id", res.OrganizationID),
			zap.String("from", org.CollectionName),
			zap.String("to", newColl),
			zap.Error(err))
		return RenameResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}
	res.DocumentsMigrated = n
	s.metrics.Migrated(n)

	// Repoint only if nobody else renamed this organization meanwhile.
	if _, err := s.orgs.Rename(wctx, org.ID, org.CollectionName, in.Name, newColl); err != nil {
		s.metrics.Orphaned()
		s.log.Warn("rename aborted at repoint; target collection orphaned",
			zap.String("organization_id", res.OrganizationID),
			zap.String("collection", newColl),
			zap.Error(err))
		return RenameResult{}, storeConflict(op, in.Name, in.Email, err)
	}

	// The directory now points at newColl; the claim is no longer needed and
	// the old collection is claimed separately before it is dropped.
	release()

	if _, err := s.dropUnreferenced(wctx, org.CollectionName); err != nil {
		s.metrics.Orphaned()
		s.log.Warn("old collection left behind after rename",
			zap.String("organization_id", res.OrganizationID),
			zap.String("collection", org.CollectionName),
			zap.Error(err))
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("Old collection '%s' could not be dropped and is orphaned", org.CollectionName))
	}

	s.log.Info("organization renamed",
		zap.String("organization_id", res.OrganizationID),
		zap.String("from", res.OldName),
		zap.String("to", res.NewName),
		zap.Int64("documents_migrated", n))
	return res, nil
}
