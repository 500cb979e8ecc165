package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "Show kernel status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}

		status := a.Bridge.HealthCheck(cmd.Context())
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, map[string]any{
				"status":      status.Details["kernels"],
				"count":       status.Details["kernel_count"],
				"fingerprint": status.Details["fingerprint"],
			})
		}

		fmt.Fprintf(out, "status:      %v\n", status.Details["kernels"])
		fmt.Fprintf(out, "count:       %v\n", status.Details["kernel_count"])
		if fp, ok := status.Details["fingerprint"].(string); ok && fp != "" {
			fmt.Fprintf(out, "fingerprint: %s\n", fp)
		}
		if !status.Healthy {
			fmt.Fprintf(out, "note:        %s\n", status.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kernelsCmd)
}
