package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modu-ai/moai-dispatch/pkg/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print build information",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipDepsAnnotation: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if versionJSON {
			data, err := json.MarshalIndent(version.Get(), "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		}
		info := version.Get()
		_, _ = fmt.Fprintf(out, "moai-dispatch %s\n", version.GetFullVersion())
		_, _ = fmt.Fprintf(out, "go: %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(versionCmd)
}
