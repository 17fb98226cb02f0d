package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gradepipe/internal/config"
	"gradepipe/internal/event"
	"gradepipe/internal/flags"
	gh "gradepipe/internal/github"
	"gradepipe/internal/history"
	"gradepipe/internal/output"
	"gradepipe/internal/pipeline"
	"gradepipe/internal/steps"
	"gradepipe/internal/workflow"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg = config.New()

const runHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	Gradepipe publishes check runs to GitHub when the workflow grants
	"checks: write". Publishing needs an access token.

	Sources (in order):
	1) GITHUB_TOKEN environment variable
	2) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

	Without a token the run still grades and scores; only the check-run
	publication is skipped.

	When --event is omitted, GITHUB_EVENT_PATH is consulted, and failing
	that a local event is synthesized from GITHUB_ACTOR, GITHUB_REPOSITORY,
	GITHUB_REF, and GITHUB_SHA.

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an autograding workflow",
	Long: `Run an autograding workflow against a repository and report the score.

The workflow's trigger gate is applied first: runs for event kinds the
workflow does not listen to, or actors it excludes, are skipped cleanly.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown grading report to a file
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, run.skipped, step.started, step.result, run.finished).

Exit codes:
	0 = full marks, or the trigger gate skipped the run
	1 = grading completed with points lost
	2 = partial failure (some graded tests errored rather than failed)
	3 = fatal error (the pipeline did not run to completion)

Examples:
  # Grade the current repository
  gradepipe run --workflow .github/workflows/classroom.yml

  # Replay a recorded trigger event
  gradepipe run --workflow classroom.yml --event event.json --event-kind repository_dispatch

	# AI Agent: stream machine-readable events to stdout
	gradepipe run --workflow classroom.yml --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		if cfg.Input.EnvFile != "" {
			if err := godotenv.Load(cfg.Input.EnvFile); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to load env file %s: %v\n", cfg.Input.EnvFile, err)
				os.Exit(3)
			}
		}

		def, err := workflow.Load(cfg.Input.Workflow)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ev, err := loadEvent(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		plan, err := pipeline.NewPlan(def)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		if cfg.Input.DryRun {
			printPlan(cmd, plan, ev)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Runtime.Timeout)
		defer cancel()

		outMgr, err := setupOutputManager(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		runner := &pipeline.Runner{
			Out:         outMgr,
			Checks:      checkPublisher(ctx, def),
			Workdir:     cfg.Input.Workdir,
			Concurrency: cfg.Runtime.Concurrency,
			Log:         os.Stderr,
			Verbose:     cfg.Runtime.Verbose,
		}

		outcome, err := runner.Run(ctx, plan, ev)
		if err != nil {
			_ = outMgr.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := outMgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		if !cfg.Runtime.NoHistory && !outcome.Skipped {
			recordHistory(cfg, ev, outcome)
		}

		os.Exit(outcome.ExitCode)
	},
}

func loadEvent(cfg *config.Config) (event.Event, error) {
	kind := event.Kind(cfg.Input.EventKind)
	path := cfg.Input.Event
	if path == "" {
		path = os.Getenv("GITHUB_EVENT_PATH")
	}
	var ev event.Event
	if path != "" {
		loaded, err := event.Load(path, kind)
		if err != nil {
			return event.Event{}, err
		}
		ev = loaded
	} else {
		// Local run with no recorded payload: synthesize from ambient CI vars.
		ev = event.Event{
			Kind:    kind,
			Actor:   os.Getenv("GITHUB_ACTOR"),
			Repo:    os.Getenv("GITHUB_REPOSITORY"),
			Ref:     os.Getenv("GITHUB_REF"),
			HeadSHA: os.Getenv("GITHUB_SHA"),
		}
	}
	if cfg.Input.Actor != "" {
		ev.Actor = cfg.Input.Actor
	}
	return ev, nil
}

// checkPublisher resolves GitHub credentials only when the workflow can
// actually use them. A missing token downgrades to console-only reporting
// rather than failing the grade.
func checkPublisher(ctx context.Context, def *workflow.Definition) steps.CheckPublisher {
	if !def.Allows("checks", "write") {
		return nil
	}
	token, _, err := gh.ResolveAuthToken(ctx, "")
	if err != nil || strings.TrimSpace(token) == "" {
		fmt.Fprintln(os.Stderr, "Warning: no GitHub auth token available; check runs will not be published (set GITHUB_TOKEN or run 'gh auth login')")
		return nil
	}
	client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create GitHub client: %v\n", err)
		return nil
	}
	return client
}

func printPlan(cmd *cobra.Command, plan *pipeline.Plan, ev event.Event) {
	w := cmd.OutOrStdout()
	gate := plan.Workflow.Gate()
	if d := gate.Decide(ev); !d.Allowed {
		fmt.Fprintf(w, "Run would be skipped: %s\n", d.Reason)
		return
	}
	fmt.Fprintf(w, "Event: %s by %s\n", ev.Kind, ev.Actor)
	fmt.Fprintf(w, "Steps (%d):\n", len(plan.Steps))
	for i, ps := range plan.Steps {
		fmt.Fprintf(w, "  %d. %s (uses: %s)\n", i+1, ps.ID, ps.Uses)
		for k, v := range ps.With {
			fmt.Fprintf(w, "     %s: %s\n", k, v)
		}
	}
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat, nil)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func recordHistory(cfg *config.Config, ev event.Event, outcome pipeline.Outcome) {
	store, err := history.Open(cfg.Runtime.HistoryDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		return
	}
	defer store.Close()
	_, err = store.Record(history.Run{
		EventKind: string(ev.Kind),
		Actor:     ev.Actor,
		Repo:      ev.Repo,
		Total:     outcome.Total,
		MaxScore:  outcome.MaxScore,
		ExitCode:  outcome.ExitCode,
		Outcome:   outcomeLabel(outcome.ExitCode),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
	}
}

func outcomeLabel(code int) string {
	switch code {
	case 0:
		return "full marks"
	case 1:
		return "points lost"
	case 2:
		return "partial failure"
	default:
		return "fatal error"
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.SetHelpTemplate(runHelpTemplate)

	// MAINTAINER NOTE: If you add/change/remove any run-affecting flags here,
	// keep internal/config/config.go in sync.

	// Input
	runCmd.Flags().StringVar(&cfg.Input.Workflow, flags.FlagWorkflow, "", "Path to the workflow definition file (required)")
	runCmd.Flags().StringVar(&cfg.Input.Event, flags.FlagEvent, "", "Path to the trigger event payload (default: GITHUB_EVENT_PATH, else synthesized)")
	runCmd.Flags().StringVar(&cfg.Input.EventKind, flags.FlagEventKind, "push", "Trigger event kind: push|repository_dispatch (default: push)")
	runCmd.Flags().StringVar(&cfg.Input.Actor, flags.FlagActor, "", "Override the acting username of the trigger event")
	runCmd.Flags().StringVar(&cfg.Input.Workdir, flags.FlagWorkdir, ".", "Directory holding the repository being graded (default: .)")
	runCmd.Flags().StringVar(&cfg.Input.EnvFile, flags.FlagEnvFile, "", "Load environment variables from this dotenv file before running")
	runCmd.Flags().BoolVar(&cfg.Input.DryRun, flags.FlagDryRun, false, "Resolve the step plan and print it without running")

	// Output
	runCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	runCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown grading report to this path")
	runCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	runCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	runCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	runCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")

	// Runtime
	runCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Concurrent graded-test workers (default: 2)")
	runCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout for the run (default: 30m)")
	runCmd.Flags().StringVar(&cfg.Runtime.HistoryDB, flags.FlagHistoryDB, cfg.Runtime.HistoryDB, "Path of the local run-history database")
	runCmd.Flags().BoolVar(&cfg.Runtime.NoHistory, flags.FlagNoHistory, false, "Do not record this run in the history database")
}
