// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"modkit-cli/internal/config"
	"modkit-cli/internal/discovery"
	"modkit-cli/pkg/types"
)

// initCmd creates the mods root layout, optionally with a title directory.
var initCmd = &cobra.Command{
	Use:   "init [title-id]",
	Short: "Create the mods root directory layout",
	Long: `Create the mods root directory layout.

Creates the mods root with its content/, exefs_patches/, and nro_patches/
subdirectories. With a title id argument, also creates the title's
directory under content/ unless one already exists.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := config.ResolveModsRoot(effectiveConfig())
	if err != nil {
		return err
	}

	if err := discovery.EnsureLayout(root); err != nil {
		return err
	}
	fmt.Printf("%s Created mods root %s\n", SuccessStyle.Render("✓"), IdStyle.Render(root))

	if len(args) == 1 {
		id, err := types.ParseTitleID(args[0])
		if err != nil {
			return err
		}
		titleDir, err := discovery.TitleDir(root, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s Title directory %s\n", SuccessStyle.Render("✓"), IdStyle.Render(titleDir))
	}

	return nil
}
