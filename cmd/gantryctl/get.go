package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sre-norns/gantry/pkg/bark"
	"github.com/sre-norns/gantry/pkg/manifest"
	"gopkg.in/yaml.v3"
)

type (
	Suite struct {
		SuiteId manifest.ResourceID `help:"Id of the suite" arg:"" name:"suite"`
	}

	Suites struct {
		Name string `help:"Exact name to look for" optional:"" name:"name"`
	}

	Result struct {
		ResultId manifest.ResourceID `help:"Id of the run result" arg:"" name:"result"`
	}

	Results struct {
		Name string `help:"Exact name to look for" optional:"" name:"name"`
	}

	Artifact struct {
		Id       manifest.ResourceID `help:"Id of the artifact to get" arg:"" name:"artifact"`
		ShowMeta bool                `help:"Show artifact meta information instead of content" name:"meta"`
	}

	Session struct {
	}

	GetCmd struct {
		Suite    Suite    `cmd:"" help:"Get a suite object from the server"`
		Suites   Suites   `cmd:"" help:"List suites"`
		Result   Result   `cmd:"" help:"Get a run result"`
		Results  Results  `cmd:"" help:"List run results"`
		Artifact Artifact `cmd:"" help:"Get artifact produced during a suite run"`
		Session  Session  `cmd:"" help:"Show the server's current test session"`
	}
)

type formatter func(any) error

func yamlFormatter(resource any) error {
	data, err := yaml.Marshal(resource)
	if err != nil {
		return err
	}
	fmt.Print(string(data))

	return nil
}

func jsonFormatter(resource any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "\t")

	return encoder.Encode(resource)
}

// tableFormatter renders list responses as a table, anything else falls back
// to yaml
func tableFormatter(resource any) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	switch items := resource.(type) {
	case []suiteRow:
		t.AppendHeader(table.Row{"ID", "Name", "Active", "Schedule", "Steps"})
		for _, row := range items {
			t.AppendRow(table.Row{row.ID, row.Name, row.Active, row.Schedule, row.Steps})
		}
	case []resultRow:
		t.AppendHeader(table.Row{"ID", "Name", "Status", "Ended"})
		for _, row := range items {
			t.AppendRow(table.Row{row.ID, row.Name, row.Status, row.Ended})
		}
	default:
		return yamlFormatter(resource)
	}

	t.Render()
	return nil
}

func getFormatter(formatName outputFormat) (formatter, error) {
	switch formatName {
	case "yaml", "yml":
		return yamlFormatter, nil
	case "json":
		return jsonFormatter, nil
	case "table":
		return tableFormatter, nil
	}

	return nil, fmt.Errorf("unexpected output format %q", formatName)
}

type suiteRow struct {
	ID       manifest.ResourceID
	Name     string
	Active   bool
	Schedule string
	Steps    int
}

type resultRow struct {
	ID     manifest.ResourceID
	Name   string
	Status string
	Ended  string
}

func (c *Suite) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	resource, err := client.GetSuite(ctx, c.SuiteId)
	if err != nil {
		return err
	}

	return cfg.OutputFormatter(&resource)
}

func (c *Suites) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	resources, err := client.ListSuites(ctx, bark.SearchQuery{Name: c.Name})
	if err != nil {
		return err
	}

	rows := make([]suiteRow, 0, len(resources))
	for _, entry := range resources {
		rows = append(rows, suiteRow{
			ID:       entry.UID,
			Name:     entry.Name,
			Active:   entry.Spec.IsActive,
			Schedule: string(entry.Spec.RunSchedule),
			Steps:    len(entry.Spec.Steps),
		})
	}

	return cfg.OutputFormatter(rows)
}

func (c *Result) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	resource, err := client.GetResult(ctx, c.ResultId)
	if err != nil {
		return err
	}

	return cfg.OutputFormatter(&resource)
}

func (c *Results) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	resources, err := client.ListResults(ctx, bark.SearchQuery{Name: c.Name})
	if err != nil {
		return err
	}

	rows := make([]resultRow, 0, len(resources))
	for _, result := range resources {
		ended := ""
		if result.TimeEnded.Valid {
			ended = result.TimeEnded.Time.Format(time.RFC3339)
		}
		rows = append(rows, resultRow{
			ID:     result.UID,
			Name:   result.Name,
			Status: string(result.Status),
			Ended:  ended,
		})
	}

	return cfg.OutputFormatter(rows)
}

func (c *Artifact) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	artifact, err := client.GetArtifact(ctx, c.Id)
	if err != nil {
		return err
	}

	if c.ShowMeta {
		artifact.Content = nil
		return cfg.OutputFormatter(&artifact)
	}

	_, err = os.Stdout.Write(artifact.Content)
	return err
}

func (c *Session) Run(cfg *commandContext) error {
	ctx, cancel := context.WithTimeout(cfg.Context, 30*time.Second)
	defer cancel()

	client, err := cfg.newClient()
	if err != nil {
		return err
	}

	info, err := client.FetchSession(ctx)
	if err != nil {
		return err
	}

	return cfg.OutputFormatter(&info)
}
