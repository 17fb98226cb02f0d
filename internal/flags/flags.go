package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// pipeline. Keeping these as constants helps avoid drift between Cobra flag
// wiring and other code paths that need to reference flags.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Input.Workflow, flags.FlagWorkflow, "", "...")
//	arg := "--" + flags.FlagWorkflow
const (
	// Input
	FlagWorkflow  = "workflow"
	FlagEvent     = "event"
	FlagEventKind = "event-kind"
	FlagActor     = "actor"
	FlagWorkdir   = "workdir"
	FlagEnvFile   = "env-file"
	FlagDryRun    = "dry-run"

	// Output
	FlagConsoleFormat = "console-format"
	FlagReport        = "report"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagEmit          = "emit"
	FlagNoConsole     = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagHistoryDB   = "history-db"
	FlagDB          = "db"
	FlagNoHistory   = "no-history"

	// aggregate
	FlagGitHubEnv = "github-env"
	FlagEnvVar    = "env-var"

	// history
	FlagLimit = "limit"
)
