package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool
	logger     *slog.Logger
)

// errSilent marks a failure that was already reported on stdout.
var errSilent = errors.New("command failed")

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// standalone commands run without a bridge.
const standalone = "standalone"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "astro",
	Short: "astro - astrodynamics native-call bridge",
	Long: `astro calls ephemeris, body and time-system routines of a CSPICE/ERFA
style native library through a serialized bridge.

Arguments are JSON values; bare words are passed as strings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			logger = slog.Default()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx := context.WithValue(cmd.Context(), commandContextKey{}, info)
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		cmd.SetContext(ctx)
		logger.DebugContext(ctx, "command start", "command", cmd.CommandPath())

		if cmd.Annotations[standalone] != "" || app != nil || bootstrap == nil {
			return nil
		}
		a, done, err := bootstrap(ctx, cfgFile)
		if err != nil {
			return err
		}
		app, release = a, done
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if release != nil {
		release()
	}
	if err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}

func requireApp() (*App, error) {
	if app == nil || app.Bridge == nil {
		return nil, errors.New("bridge not initialized")
	}
	return app, nil
}
