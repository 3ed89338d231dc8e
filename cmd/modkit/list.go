// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"modkit-cli/internal/discovery"
	"modkit-cli/internal/mods"
	"modkit-cli/pkg/types"
)

// listCmd shows what discovery finds under the configured roots.
var listCmd = &cobra.Command{
	Use:   "list [title-id]",
	Short: "List discovered mods and patch sources",
	Long: `List discovered mods and patch sources.

Scans the configured mods root (plus any extra roots) and prints what was
found. With a title id, title-scoped content overlays are listed as well;
without one, only the global patch buckets are scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	roots, err := searchRoots(effectiveConfig())
	if err != nil {
		return err
	}

	session := mods.NewSession(newLogger())

	var title *types.TitleID
	if len(args) == 1 {
		id, err := types.ParseTitleID(args[0])
		if err != nil {
			return err
		}
		title = &id
	}

	if err := session.Discover(title, roots...); err != nil {
		return err
	}

	if title != nil {
		printTitle(session, *title)
	}
	printPatchBuckets(session)
	return nil
}

func printTitle(session *mods.Session, id types.TitleID) {
	fmt.Println(TitleStyle.Render("Title ") + IdStyle.Render(id.Hex()))

	cache, ok := session.Registry().Lookup(id)
	if !ok || (!cache.HasContent() && len(cache.ModuleDirs) == 0) {
		fmt.Println(SubtitleStyle.Render("  no mods discovered"))
		return
	}

	fmt.Println(SubtitleStyle.Render("  " + discovery.Describe(cache)))
	printRefs("  Content overlays", cache.ContentDirs)
	printRefs("  Content containers", cache.ContentContainers)
	printRefs("  Partition containers", cache.PartitionContainers)
	printRefs("  Module overlays", cache.ModuleDirs)
}

func printPatchBuckets(session *mods.Session) {
	patches := session.Registry().Patches()
	fmt.Println(TitleStyle.Render("Patch sources"))
	printRefs("  Installed", patches.Installed)
	printRefs("  Standalone", patches.Standalone)
}

func printRefs(label string, refs []discovery.OverlayRef) {
	if len(refs) == 0 {
		return
	}
	fmt.Println(SubtitleStyle.Render(label + ":"))
	for _, ref := range refs {
		fmt.Printf("    %s  %s\n", ref.Name, VerboseStyle.Render(ref.Path))
	}
}
