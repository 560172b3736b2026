package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sre-norns/gantry/pkg/manifest"
	"gopkg.in/yaml.v3"
)

type ApplyCmd struct {
	Filename string `help:"Manifest file to apply" arg:"" name:"file" type:"existingfile"`
}

func (c *ApplyCmd) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	data, err := os.ReadFile(c.Filename)
	if err != nil {
		return err
	}

	var m manifest.ResourceManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to parse manifest %q: %w", c.Filename, err)
	}

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	created, err := client.CreateSuite(ctx, m)
	if err != nil {
		return err
	}

	return cfg.OutputFormatter(&created)
}
