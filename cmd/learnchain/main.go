package main

import (
	"context"

	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	cli     struct {
		Debug    bool             `help:"Enable debug mode." env:"LEARNCHAIN_DEBUG"`
		LogLevel string           `help:"Log level." default:"info" enum:"debug,info,warn,error" env:"LEARNCHAIN_LOG_LEVEL"`
		Version  kong.VersionFlag `help:"Print version and exit."`
		Serve    ServeCmd         `cmd:"" default:"1" help:"Run the session gateway."`
	}
)

// Globals are the flags shared by every command.
type Globals struct {
	Debug    bool
	LogLevel string
	Version  string
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("learnchain"),
		kong.Description("LearnChain course marketplace session gateway."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&Globals{Debug: cli.Debug, LogLevel: cli.LogLevel, Version: version})
	cmd.FatalIfErrorf(err)
}
