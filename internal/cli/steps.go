package cli

import (
	"fmt"
	"io"

	"gradepipe/internal/steps"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var stepsListQuiet bool
var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Manage and list pipeline steps",
	Long: `Manage gradepipe pipeline steps.

This command group helps you discover which steps exist and what each
step does. Steps are executed by workflow runs (see "gradepipe run --help").

Examples:
  # List all available steps
  gradepipe steps list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var stepsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available steps",
	Long: `List all pipeline steps currently registered in this build.

Steps are sorted by slug.

Examples:
  gradepipe steps list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range steps.List() {
			if stepsListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), s.Slug())
			} else {
				printStep(cmd.OutOrStdout(), s)
			}
		}
		return nil
	},
}

var stepsShowCmd = &cobra.Command{
	Use:   "show [slug]",
	Short: "Show details of a specific step",
	Long: `Show details of a specific pipeline step by its slug.

Examples:
  gradepipe steps show autograder
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := steps.Resolve(args[0])
		if err != nil {
			return err
		}
		printStep(cmd.OutOrStdout(), s)
		return nil
	},
}

func printStep(w io.Writer, s steps.Step) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "STEP: %s\n", s.Slug())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, s.Title())
	fmt.Fprintln(w, s.Description())

	settings := s.Settings()
	if len(settings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Settings:")
		for _, set := range settings {
			def := set.Default
			if def == "" {
				def = "\"\""
			}
			fmt.Fprintf(w, "  %s\n", set.Name)
			fmt.Fprintf(w, "    Description: %s\n", set.Description)
			fmt.Fprintf(w, "    Default:     %s\n", def)
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(stepsCmd)
	stepsCmd.AddCommand(stepsListCmd)
	stepsListCmd.Flags().BoolVarP(&stepsListQuiet, "quiet", "q", false, "Only print step slugs")
	stepsCmd.AddCommand(stepsShowCmd)
}
