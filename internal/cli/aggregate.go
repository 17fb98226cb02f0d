package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gradepipe/internal/flags"
	"gradepipe/internal/grade"

	"github.com/spf13/cobra"
)

var (
	aggregateFile      string
	aggregateGitHubEnv string
	aggregateEnvVar    string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [payload]",
	Short: "Compute the total score from an encoded grading payload",
	Long: `Compute the total score from a base64-encoded grading payload.

The payload is the JSON document published by the grading step, encoded
with standard base64. The total is the sum of all test scores, rounded
up to the nearest integer.

The payload is read from the first argument, from --file, or from stdin.
A malformed payload is an error; it never silently scores zero.

Examples:
  # From an argument
  gradepipe aggregate "$PAYLOAD"

  # From a file, exporting for later workflow steps
  gradepipe aggregate --file payload.txt --github-env "$GITHUB_ENV"
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := aggregatePayload(cmd, args)
		if err != nil {
			return err
		}

		report, err := grade.DecodeReport(payload)
		if err != nil {
			return fmt.Errorf("invalid grading payload: %w", err)
		}
		total := grade.TotalScore(report)

		if aggregateGitHubEnv != "" {
			f, err := os.OpenFile(aggregateGitHubEnv, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open env file: %w", err)
			}
			_, werr := fmt.Fprintf(f, "%s=%d\n", aggregateEnvVar, total)
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				return fmt.Errorf("write env file: %w", werr)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), total)
		return nil
	},
}

func aggregatePayload(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && aggregateFile != "" {
		return "", fmt.Errorf("provide the payload as an argument or via --file, not both")
	}
	if len(args) == 1 {
		return args[0], nil
	}
	if aggregateFile != "" {
		raw, err := os.ReadFile(aggregateFile)
		if err != nil {
			return "", fmt.Errorf("read payload file: %w", err)
		}
		return string(raw), nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read payload from stdin: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", fmt.Errorf("no payload provided (pass an argument, --file, or stdin)")
	}
	return string(raw), nil
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggregateFile, "file", "", "Read the encoded payload from this file")
	aggregateCmd.Flags().StringVar(&aggregateGitHubEnv, flags.FlagGitHubEnv, "", "Append NAME=total to this file (GITHUB_ENV style)")
	aggregateCmd.Flags().StringVar(&aggregateEnvVar, flags.FlagEnvVar, "TOTAL_SCORE", "Variable name used with --github-env")
}
