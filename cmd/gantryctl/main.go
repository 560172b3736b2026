package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/sre-norns/gantry/pkg/grace"
	"github.com/sre-norns/gantry/pkg/harness"
)

type commandContext struct {
	ApiServerAddress string

	OutputFormatter formatter
	Context         context.Context
}

func (cfg *commandContext) newClient() (*harness.Client, error) {
	return harness.NewClient(cfg.ApiServerAddress)
}

type outputFormat string

func (f outputFormat) AfterApply(cfg *commandContext) (err error) {
	cfg.OutputFormatter, err = getFormatter(f)
	return err
}

var appCli struct {
	ApiServerAddress string `help:"URL address of the API server" default:"http://localhost:8080/" env:"GANTRY_SERVER"`

	Format outputFormat `enum:"yaml,yml,json,table" help:"Data output format" default:"yml"`

	Get   GetCmd   `cmd:"" help:"Get and display a managed resource(s) from the server"`
	Apply ApplyCmd `cmd:"" help:"Apply a new configuration to a resource"`
	Eval  EvalCmd  `cmd:"" help:"Bridge a callback over to the server and print its result"`
	Run   RunCmd   `cmd:"" help:"Schedule a run of a suite"`
	Reset ResetCmd `cmd:"" help:"Reset the server's test session"`
}

func main() {
	mainContext := grace.SetupSignalHandler()
	cfg := &commandContext{
		Context:         mainContext,
		OutputFormatter: yamlFormatter,
	}
	appCtx := kong.Parse(&appCli,
		kong.Name("gantryctl"),
		kong.Description("Gantry command line tool"),
		kong.Bind(cfg),
	)

	cfg.ApiServerAddress = appCli.ApiServerAddress

	appCtx.FatalIfErrorf(appCtx.Run(cfg))
}
