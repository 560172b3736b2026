package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sre-norns/gantry/pkg/bridge"
)

// EvalCmd bridges a callback over to the server and prints whatever it
// returned. Handy for poking at the live app context from a shell.
type EvalCmd struct {
	Filename string        `help:"File holding the callback source" arg:"" optional:"" name:"file" type:"existingfile"`
	Hook     string        `help:"Name of a pre-registered hook to invoke instead of a source file" optional:""`
	Timeout  time.Duration `help:"Override the server's callback timeout policy" optional:""`

	Arg map[string]string `help:"Arguments forwarded to the callback" optional:""`
}

func (c *EvalCmd) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 90*time.Second)
	defer cancel()

	if (c.Filename == "") == (c.Hook == "") {
		return fmt.Errorf("pass exactly one of a source file or --hook")
	}

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	args := make(map[string]any, len(c.Arg))
	for key, value := range c.Arg {
		args[key] = value
	}

	if c.Hook != "" {
		value, err := client.BridgeHook(ctx, c.Hook, args)
		if err != nil {
			return err
		}

		fmt.Println(string(value))
		return nil
	}

	source, err := os.ReadFile(c.Filename)
	if err != nil {
		return err
	}

	options := []bridge.CallOption{
		bridge.WithName(c.Filename),
		bridge.WithArgs(args),
	}
	if c.Timeout > 0 {
		options = append(options, bridge.WithTimeout(c.Timeout))
	}

	value, err := client.Bridge(ctx, string(source), options...)
	if err != nil {
		return err
	}

	fmt.Println(string(value))
	return nil
}
