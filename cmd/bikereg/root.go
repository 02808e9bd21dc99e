package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bikereg/internal/adapters/filesystem"
	"github.com/felixgeelhaar/bikereg/internal/app"
	"github.com/felixgeelhaar/bikereg/internal/domain/config"
	"github.com/felixgeelhaar/bikereg/internal/ports"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	logJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "bikereg",
	Short: "Register a bike with its manufacturer",
	Long: `bikereg walks a bike owner through the manufacturer's registration:

  Serial number → Bike information → Personal information → Confirmation

The serial number is verified against the registration backend before the
bike details are shown; the completed record is submitted in one request.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: bikereg.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// loadSettings loads the configuration named by --config, or the first file
// found on the search path, and applies the global flags.
func loadSettings() (config.Settings, error) {
	loader := config.NewLoader(filesystem.NewRealFileSystem(), config.WithVersion(version))
	settings, _, err := loader.Load(cfgFile)
	if err != nil {
		return config.Settings{}, err
	}
	if verbose {
		settings.Log.Level = ports.LevelDebug
	}
	if logJSON {
		settings.Log.JSON = true
	}
	return settings, nil
}

// newRegistrar builds the registrar for a command, writing results to the
// command's output and logs to its error stream.
func newRegistrar(cmd *cobra.Command) (*app.Registrar, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return app.FromSettings(settings, cmd.OutOrStdout(), cmd.ErrOrStderr()), nil
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) && list.Len() > 1 {
		return list.Format()
	}

	if userErr := config.GetUserError(err); userErr != nil {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml", "ini"}, cobra.ShellCompDirectiveFilterFileExt
	})
}
