// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"modkit-cli/internal/config"
)

// configCmd is the `modkit config` command tree.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage modkit configuration",
	Long: `Manage modkit configuration.

Configuration is stored in:
  - Linux: ~/.config/modkit/config.cue
  - macOS: ~/Library/Application Support/modkit/config.cue
  - Windows: %APPDATA%\modkit\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.NewProvider().Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file.

Creates the config directory when missing and writes the built-in
defaults as config.cue. Refuses to overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initConfigFile()
			if err != nil {
				return err
			}
			fmt.Printf("%s Wrote %s\n", SuccessStyle.Render("✓"), IdStyle.Render(path))
			return nil
		},
	})
}

// initConfigFile writes the default config file and returns its path.
// An existing file is left untouched and reported as an error.
func initConfigFile() (string, error) {
	if err := config.EnsureConfigDir(); err != nil {
		return "", err
	}
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.Save(config.DefaultConfig()); err != nil {
		return "", err
	}
	return path, nil
}

func showConfig(ctx context.Context) error {
	cfg, source, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return err
	}

	root, err := config.ResolveModsRoot(cfg)
	if err != nil {
		return err
	}

	if source == "" {
		source = "(built-in defaults)"
	}
	fmt.Println(TitleStyle.Render("Current configuration"))
	fmt.Println(SubtitleStyle.Render("  source:       ") + source)
	fmt.Println(SubtitleStyle.Render("  mods_root:    ") + IdStyle.Render(root))
	for _, extra := range cfg.ExtraRoots {
		fmt.Println(SubtitleStyle.Render("  extra_root:   ") + IdStyle.Render(string(extra)))
	}
	fmt.Println(SubtitleStyle.Render("  color_scheme: ") + string(cfg.UI.ColorScheme))
	fmt.Printf("%s%v\n", SubtitleStyle.Render("  verbose:      "), cfg.UI.Verbose)
	return nil
}
