// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modkit.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"modkit-cli/internal/config"
	"modkit-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// loadedConfig holds the configuration resolved during initialization.
	loadedConfig *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "modkit",
		Short: "Layer content overlays and binary patches onto game packages",
		Long: TitleStyle.Render("modkit") + SubtitleStyle.Render(" - A mod layering and patching toolkit") + `

modkit discovers mods laid out under a mods root, merges loose-file and
container content overlays over read-only base packages, swaps whole
partitions and executable modules, and applies IPS and pchtxt binary
patches keyed by module build ids.

` + SubtitleStyle.Render("Layout:") + `
  {root}/content/{titleId}/romfs       loose content overlay
  {root}/content/{titleId}/exefs       loose module overlay and patch source
  {root}/exefs_patches/<name>/         installed-module patches
  {root}/nro_patches/<name>/           standalone-module patches

` + SubtitleStyle.Render("Examples:") + `
  modkit init                         Create the mods root layout
  modkit list 0100000000010000        List discovered mods for a title
  modkit build 0100000000010000 base.bin -o merged.bin
  modkit patch nro app.nro -o app-patched.nro
  modkit config show                  Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/modkit/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(newCompletionCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	cfg, _, err := config.NewProvider().Load(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		// Surface config loading problems but keep running on defaults.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		cfg = config.DefaultConfig()
	}

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}

	loadedConfig = cfg
}

// newLogger builds the CLI logger honoring the verbose flag.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// effectiveConfig returns the loaded configuration, falling back to
// defaults when initialization has not run (e.g. in tests).
func effectiveConfig() *config.Config {
	if loadedConfig == nil {
		return config.DefaultConfig()
	}
	return loadedConfig
}

// searchRoots returns the mods root followed by any configured extras.
func searchRoots(cfg *config.Config) ([]string, error) {
	root, err := config.ResolveModsRoot(cfg)
	if err != nil {
		return nil, err
	}
	roots := []string{root}
	for _, extra := range cfg.ExtraRoots {
		roots = append(roots, string(extra))
	}
	return roots, nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
