package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

var callCmd = &cobra.Command{
	Use:   "call <operation> [args...]",
	Short: "Call an operation",
	Long: `Call an operation with positional arguments.

Each argument is parsed as JSON: 399 is an integer, 0.0 a float,
[1,2,3] a list and "EARTH" a string. Anything that is not valid
JSON is passed as a string.

Examples:
  astro call state-vector-by-name EARTH 0.0 J2000 NONE SUN
  astro call spkgeo 399 0.0 J2000 10
  astro call code-to-name 399
  astro call calendar-to-epoch UTC 2000 1 1 12 0 0.0`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}

		res := a.Bridge.Call(cmd.Context(), args[0], ParseArgs(args[1:]))
		if err := writeResult(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.OK() {
			return errSilent
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
}

// ParseArgs converts command line words into terms.
func ParseArgs(words []string) []term.Term {
	terms := make([]term.Term, len(words))
	for i, w := range words {
		t, err := term.ParseJSON([]byte(w))
		if err != nil {
			t = term.Binary(w)
		}
		terms[i] = t
	}
	return terms
}

// resultView is the JSON form of a result.
type resultView struct {
	Status  sdk.Status  `json:"status"`
	Payload []term.Term `json:"payload,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

func viewOf(res sdk.Result) resultView {
	if res.OK() {
		return resultView{Status: res.Status(), Payload: res.Payload()}
	}
	return resultView{
		Status:  res.Status(),
		Kind:    string(res.Kind()),
		Code:    sdk.ErrorCode(res.Err()),
		Message: res.Message(),
	}
}

func writeResult(w io.Writer, res sdk.Result) error {
	if jsonOutput {
		return writeJSON(w, viewOf(res))
	}
	_, err := fmt.Fprintln(w, res.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
