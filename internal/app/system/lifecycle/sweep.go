package lifecycle

import (
	"context"
	"fmt"

	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SweepResult lists the unreferenced tenant collections found and the ones
// actually dropped.
type SweepResult struct {
	Orphans []string
	Dropped []string
}

// SweepOrphans finds org_* collections that no organization references and,
// unless dryRun, drops them. Collections claimed by a create or rename in
// flight are not orphans. Each drop claims the collection and re-checks the
// directory first, so the sweep is safe to run while the service is live.
func (s *Service) SweepOrphans(ctx context.Context, dryRun bool) (SweepResult, error) {
	done := s.metrics.Record("sweep")
	res, err := s.sweep(ctx, dryRun)
	return res, done(err)
}

func (s *Service) sweep(ctx context.Context, dryRun bool) (SweepResult, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), s.log, "sweep orphans")
	defer cancel()

	names, err := s.prov.ListTenantCollections(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list tenant collections: %w", err)
	}
	refs, err := s.orgs.ReferencedCollections(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list referenced collections: %w", err)
	}
	claimed, err := s.claims.Claimed(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list claimed collections: %w", err)
	}

	var res SweepResult
	for _, name := range names {
		if _, ok := refs[name]; ok {
			continue
		}
		if _, ok := claimed[name]; ok {
			continue
		}
		res.Orphans = append(res.Orphans, name)
		if dryRun {
			continue
		}
		dropped, err := s.dropUnreferenced(ctx, name)
		if err != nil {
			s.log.Warn("sweep could not drop orphan", zap.String("collection", name), zap.Error(err))
			continue
		}
		if dropped {
			res.Dropped = append(res.Dropped, name)
		}
	}

	s.metrics.Unreferenced(len(res.Orphans) - len(res.Dropped))
	s.log.Info("orphan sweep finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("orphans", len(res.Orphans)),
		zap.Int("dropped", len(res.Dropped)))
	return res, nil
}
