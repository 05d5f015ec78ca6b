package main

import (
	"context"

	"github.com/alecthomas/kong"

	"orgauth-backend/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool                `help:"Enable debug mode."`
		Config  string              `help:"Path to a YAML config file." type:"path" env:"ORGAUTH_CONFIG"`
		Version kong.VersionFlag    `help:"Print version and exit."`
		Serve   commands.ServeCmd   `cmd:"" default:"1" help:"Start the HTTP API server."`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply PostgreSQL schema migrations and exit."`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orgauth"),
		kong.Description("User authentication and organization membership service."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Config: cli.Config, Version: version})
	cmd.FatalIfErrorf(err)
}
