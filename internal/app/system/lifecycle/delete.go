package lifecycle

import (
	"context"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/inputval"
	"github.com/dalemusser/tenanthub/internal/app/system/normalize"
	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"github.com/dalemusser/tenanthub/internal/app/system/txn"
	"go.uber.org/zap"
)

// DeleteInput is the payload of DELETE /org/delete.
type DeleteInput struct {
	Name string `json:"organization_name" validate:"required" label:"Organization name"`
}

// DeleteResult names what was removed.
type DeleteResult struct {
	OrganizationName  string `json:"organization_name"`
	CollectionDeleted string `json:"collection_deleted"`
}

// Delete removes an organization, its admin and its tenant collection. The
// caller's token must be bound to that organization.
func (s *Service) Delete(ctx context.Context, in DeleteInput, caller tokens.Identity) (DeleteResult, error) {
	done := s.metrics.Record("delete")
	res, err := s.delete(ctx, in, caller)
	return res, done(err)
}

func (s *Service) delete(ctx context.Context, in DeleteInput, caller tokens.Identity) (DeleteResult, error) {
	const op = "lifecycle.Delete"

	in.Name = normalize.Name(in.Name)
	if v := inputval.Validate(in); v.HasErrors() {
		return DeleteResult{}, apierr.New(apierr.Invalid, op, v.First())
	}

	lctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "delete lookup")
	defer cancel()
	org, err := s.orgs.GetByName(lctx, in.Name)
	if err != nil {
		if isNoDocs(err) {
			return DeleteResult{}, apierr.New(apierr.NotFound, op, orgNotFoundMsg(in.Name))
		}
		return DeleteResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}

	if caller.OrganizationID != org.ID.Hex() {
		s.log.Warn("delete refused: token bound to another organization",
			zap.String("organization_id", org.ID.Hex()),
			zap.String("token_organization_id", caller.OrganizationID))
		return DeleteResult{}, apierr.New(apierr.Forbidden, op, "You don't have permission to delete this organization")
	}

	wctx, wcancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "delete organization")
	defer wcancel()

	// Records stay until the data is gone so a failed drop can be retried.
	if !s.prov.Drop(wctx, org.CollectionName) {
		return DeleteResult{}, apierr.New(apierr.Internal, op, "failed to drop tenant collection "+org.CollectionName)
	}

	err = txn.Run(wctx, s.client, s.log, func(ctx context.Context) error {
		if _, err := s.admins.Delete(ctx, org.AdminID); err != nil {
			return err
		}
		_, err := s.orgs.Delete(ctx, org.ID)
		return err
	})
	if err != nil {
		return DeleteResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}

	s.log.Info("organization deleted",
		zap.String("organization_id", org.ID.Hex()),
		zap.String("organization", org.Name),
		zap.String("collection", org.CollectionName))

	return DeleteResult{OrganizationName: org.Name, CollectionDeleted: org.CollectionName}, nil
}
