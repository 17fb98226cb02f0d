package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gradepipe/internal/event"
	"gradepipe/internal/history"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect run
	// behavior, keep the CLI flags in internal/cli/run.go in sync.
	Input   Input
	Output  Output
	Runtime Runtime
}

type Input struct {
	// Workflow is the path to the workflow definition file (see --workflow).
	Workflow string

	// Event is the path to the trigger event payload file (see --event).
	// Empty means a synthetic local push event is used.
	Event string

	// EventKind names the kind of the trigger event (see --event-kind).
	// Allowed values: push, repository_dispatch.
	EventKind string

	// Actor overrides the acting username of the trigger event (see --actor).
	Actor string

	// Workdir is the directory holding the repository being graded (see --workdir).
	Workdir string

	// EnvFile is an optional dotenv file loaded before the run (see --env-file).
	EnvFile string

	// DryRun resolves the step plan and prints it without running (see --dry-run).
	DryRun bool
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Report writes a Markdown grading report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	// Use with --emit/--out/--report for machine-readable output.
	NoConsole bool
}

type Runtime struct {
	// Concurrency controls parallelism for graded-test execution (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the run (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// HistoryDB is the path of the local run-history database (see --db).
	HistoryDB string

	// NoHistory disables recording the run in the history database (see --no-history).
	NoHistory bool

	// Verbose enables more detailed diagnostics, including HTTP request logging.
	Verbose bool
}

func New() *Config {
	return &Config{
		Input: Input{
			EventKind: string(event.KindPush),
			Workdir:   ".",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 2,
			Timeout:     30 * time.Minute,
			HistoryDB:   history.DefaultPath,
		},
	}
}

func (c *Config) Validate() error {
	// Input validation
	if strings.TrimSpace(c.Input.Workflow) == "" {
		return errors.New("--workflow must be provided")
	}
	c.Input.EventKind = normalizeEnumValue(c.Input.EventKind)
	if c.Input.EventKind == "" {
		c.Input.EventKind = string(event.KindPush)
	}
	if !event.Known(event.Kind(c.Input.EventKind)) {
		return fmt.Errorf("unsupported --event-kind: %s (must be one of: push, repository_dispatch)", c.Input.EventKind)
	}
	if c.Input.Workdir == "" {
		c.Input.Workdir = "."
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	c.Output.Emit = splitCommaList(c.Output.Emit)
	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
				return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
			}
		}
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if c.Runtime.HistoryDB == "" {
		c.Runtime.HistoryDB = history.DefaultPath
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
