package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check bridge health",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}

		registry := a.Health
		if registry == nil {
			registry = observability.NewHealthRegistry()
			registry.Register("bridge", observability.ReportHealthChecker(bridgeReport(a)))
		}
		health := registry.GetOverallHealth(cmd.Context())

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := writeJSON(out, health); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, health.Status)
			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				check := health.Checks[name]
				fmt.Fprintf(out, "  %-8s %-9s %s\n", name, check.Status, check.Message)
			}
		}

		if health.Status == observability.HealthStatusUnhealthy {
			return errSilent
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func bridgeReport(a *App) func(ctx context.Context) (bool, string, map[string]any) {
	return func(ctx context.Context) (bool, string, map[string]any) {
		status := a.Bridge.HealthCheck(ctx)
		return status.Healthy, status.Message, status.Details
	}
}
