package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

var opsCmd = &cobra.Command{
	Use:     "ops [filter]",
	Short:   "List operations",
	Aliases: []string{"operations"},
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}

		infos := a.Bridge.Operations()
		if len(args) == 1 {
			infos = filterOperations(infos, args[0])
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, infos)
		}
		if len(infos) == 0 {
			fmt.Fprintln(out, "No operations found.")
			return nil
		}

		fmt.Fprintf(out, "%-26s %-9s %-5s %s\n", "OPERATION", "ROUTINE", "ARITY", "ARGUMENTS")
		fmt.Fprintln(out, strings.Repeat("-", 72))
		for _, info := range infos {
			fmt.Fprintf(out, "%-26s %-9s %-5d %s\n", info.Name, info.Routine, info.Arity, describeParams(info.Params))
			if verbose && info.Description != "" {
				fmt.Fprintf(out, "    %s -> %s\n", info.Description, info.Returns)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(opsCmd)
}

func filterOperations(infos []sdk.OperationInfo, filter string) []sdk.OperationInfo {
	filter = strings.ToLower(filter)
	var out []sdk.OperationInfo
	for _, info := range infos {
		if strings.Contains(info.Name, filter) || strings.Contains(info.Routine, filter) {
			out = append(out, info)
		}
	}
	return out
}

func describeParams(params []sdk.ParamInfo) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + ":" + p.Kind
	}
	return strings.Join(parts, " ")
}
