package commands

import (
	"context"
	"fmt"

	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
)

type SweepCmd struct {
	DryRun bool `help:"List orphaned collections without dropping them."`
}

func (s *SweepCmd) Run(ctx context.Context, g *Globals) error {
	logger := g.logger()
	defer func() { _ = logger.Sync() }()

	client, db, err := g.connect(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	svc := lifecycle.New(lifecycle.Config{Client: client, DB: db, Logger: logger})
	res, err := svc.SweepOrphans(ctx, s.DryRun)
	if err != nil {
		return err
	}
	return printSweep(g, res, s.DryRun)
}

func printSweep(g *Globals, res lifecycle.SweepResult, dryRun bool) error {
	w := g.out()
	if len(res.Orphans) == 0 {
		_, err := fmt.Fprintln(w, "no orphaned collections")
		return err
	}
	dropped := make(map[string]bool, len(res.Dropped))
	for _, name := range res.Dropped {
		dropped[name] = true
	}
	for _, name := range res.Orphans {
		status := "kept"
		switch {
		case dryRun:
			status = "would drop"
		case dropped[name]:
			status = "dropped"
		}
		if _, err := fmt.Fprintf(w, "%-40s %s\n", name, status); err != nil {
			return err
		}
	}
	if !dryRun && len(res.Dropped) < len(res.Orphans) {
		return fmt.Errorf("%d of %d orphaned collections could not be dropped",
			len(res.Orphans)-len(res.Dropped), len(res.Orphans))
	}
	return nil
}
