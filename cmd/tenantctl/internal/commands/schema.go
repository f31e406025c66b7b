package commands

import (
	"context"
	"fmt"

	"github.com/dalemusser/tenanthub/internal/app/system/indexes"
	"github.com/dalemusser/tenanthub/internal/app/system/validators"
)

type EnsureSchemaCmd struct{}

func (e *EnsureSchemaCmd) Run(ctx context.Context, g *Globals) error {
	logger := g.logger()
	defer func() { _ = logger.Sync() }()

	client, db, err := g.connect(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := validators.EnsureAll(ctx, db); err != nil {
		return err
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.out(), "validators and indexes ensured on %s\n", db.Name())
	return err
}
