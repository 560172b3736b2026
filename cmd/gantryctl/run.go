package main

import (
	"context"
	"time"

	"github.com/sre-norns/gantry/pkg/manifest"
)

type RunCmd struct {
	SuiteId manifest.ResourceID `help:"Id of the suite to run" arg:"" name:"suite"`
}

func (c *RunCmd) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	response, err := client.ScheduleRun(ctx, c.SuiteId)
	if err != nil {
		return err
	}

	return cfg.OutputFormatter(&response)
}

type ResetCmd struct{}

func (c *ResetCmd) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	if err := client.Reset(ctx); err != nil {
		return err
	}

	return cfg.OutputFormatter(client.Session())
}
