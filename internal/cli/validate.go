package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/internal/builtin"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check file naming and layout rules",
	Long: `Validate the project tree (or path) against the structure rules in
.moai/config/sections/structure.yaml, or the built-in rules when none are
configured. Errors fail the run; with --strict warnings fail it too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as failures")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if deps == nil {
		return fmt.Errorf("dependencies not initialized")
	}
	target := ""
	if len(args) > 0 {
		target = args[0]
	}

	report, err := builtin.RunStructureValidation(builtin.Deps{Config: deps.Config, Root: deps.Root}, target)
	if err != nil {
		return fmt.Errorf("validate structure: %w", err)
	}

	text := builtin.FormatReport(report, validateStrict)
	if report.Valid(validateStrict) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), deps.Theme.SuccessCard("Structure valid", text))
		return nil
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), deps.Theme.ErrorCard("Structure violations", text))
	cmd.SilenceErrors = true
	return builtin.ErrStructureViolations
}
