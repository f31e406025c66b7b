package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/dalemusser/tenanthub/cmd/tenantctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		commands.Globals

		Sweep        commands.SweepCmd        `cmd:"" help:"Find and drop tenant collections no organization references"`
		EnsureSchema commands.EnsureSchemaCmd `cmd:"" name:"ensure-schema" help:"Create or reconcile directory indexes"`
		Token        commands.TokenCmd        `cmd:"" help:"Mint an access token for debugging"`
		Version      kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("tenantctl"),
		kong.Description("Operator commands for tenanthub."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&cli.Globals)
	cmd.FatalIfErrorf(err)
}
