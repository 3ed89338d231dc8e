// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"modkit-cli/internal/mods"
	"modkit-cli/pkg/container"
	"modkit-cli/pkg/types"
)

var (
	buildOutput   string
	buildCompress bool

	// buildCmd merges a title's content overlays over a base container file.
	buildCmd = &cobra.Command{
		Use:   "build <title-id> <base-container>",
		Short: "Merge discovered content overlays over a base container",
		Long: `Merge discovered content overlays over a base container.

Discovers the title's mods under the configured roots, layers loose
directories and content containers over the base container with
first-wins precedence, and writes the merged result. Without any
discovered overlay the base passes through unchanged.`,
		Args: cobra.ExactArgs(2),
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "merged.bin", "output container path")
	buildCmd.Flags().BoolVar(&buildCompress, "compress", false, "gzip-compress the output container")
}

func runBuild(cmd *cobra.Command, args []string) error {
	id, err := types.ParseTitleID(args[0])
	if err != nil {
		return err
	}
	roots, err := searchRoots(effectiveConfig())
	if err != nil {
		return err
	}

	base, err := container.Open(args[1])
	if err != nil {
		return err
	}

	session := mods.NewSession(newLogger())
	if err := session.Discover(&id, roots...); err != nil {
		return err
	}

	merged, warnings, err := session.BuildOverlay(id, base)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Println(WarningStyle.Render("Warning: ") +
			fmt.Sprintf("duplicate path %s skipped from %s", IdStyle.Render(w.Path), w.Source))
	}

	if err := container.Save(buildOutput, merged, buildCompress); err != nil {
		return err
	}

	entries, err := merged.Entries()
	if err != nil {
		return err
	}
	fmt.Printf("%s Wrote %s (%d entries)\n", SuccessStyle.Render("✓"), IdStyle.Render(buildOutput), len(entries))
	return nil
}
