// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"modkit-cli/internal/mods"
	"modkit-cli/internal/override"
	"modkit-cli/pkg/container"
	"modkit-cli/pkg/executable"
	"modkit-cli/pkg/types"
)

var (
	patchNroOutput string
	patchNsoOutput string

	// patchCmd groups the two patch application surfaces.
	patchCmd = &cobra.Command{
		Use:   "patch",
		Short: "Apply discovered binary patches to module files",
		Long: `Apply discovered binary patches to module files.

Two surfaces exist: 'nro' patches a single standalone module file from
the standalone patch bucket, and 'nso' patches every installed module
inside a partition container from the installed patch bucket plus the
title's loose module overlays.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	patchNroCmd = &cobra.Command{
		Use:   "nro <module-file>",
		Short: "Apply standalone patches to a module file",
		Long: `Apply standalone patches to a module file.

Loads the module, scans the standalone patch bucket under the configured
roots, and applies every patch whose build key matches the module's.
The patched image is written next to the input unless --output is set.
When no patch matches, no output is written.`,
		Args: cobra.ExactArgs(1),
		RunE: runPatchNro,
	}

	patchNsoCmd = &cobra.Command{
		Use:   "nso <title-id> <partition-file>",
		Short: "Apply installed patches to a partition's modules",
		Long: `Apply installed patches to a partition's modules.

Opens the partition container, parses every module entry, applies the
title's module overrides and stub markers, then patches the surviving
modules from the installed patch bucket and the title's loose module
overlays. The resulting partition is written to --output. Entries that
are not module images pass through unchanged.`,
		Args: cobra.ExactArgs(2),
		RunE: runPatchNso,
	}
)

func init() {
	patchNroCmd.Flags().StringVarP(&patchNroOutput, "output", "o", "", "output path (default <input>.patched)")
	patchNsoCmd.Flags().StringVarP(&patchNsoOutput, "output", "o", "patched.nsp", "output partition path")
	patchCmd.AddCommand(patchNroCmd)
	patchCmd.AddCommand(patchNsoCmd)
}

func runPatchNro(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	mod, err := executable.NewStandalone(filepath.Base(args[0]), raw)
	if err != nil {
		return err
	}

	session, err := discoverSession(nil)
	if err != nil {
		return err
	}

	key := executable.BuildKey(mod.BuildID())
	fmt.Println(SubtitleStyle.Render("Build key: ") + IdStyle.Render(key))

	applied, err := session.ApplyStandalonePatches(mod)
	if err != nil {
		return err
	}
	if !applied {
		fmt.Println(SubtitleStyle.Render("No matching patch found, nothing written"))
		return nil
	}

	out := nroOutputPath(patchNroOutput, args[0])
	// The standalone image spans the whole raw file, header included.
	if err := os.WriteFile(out, mod.Image(), 0o644); err != nil {
		return err
	}
	fmt.Printf("%s Wrote %s\n", SuccessStyle.Render("✓"), IdStyle.Render(out))
	return nil
}

// nroOutputPath resolves the standalone output path, defaulting to the
// input path with a .patched suffix.
func nroOutputPath(flag, input string) string {
	if flag != "" {
		return flag
	}
	return input + ".patched"
}

func runPatchNso(cmd *cobra.Command, args []string) error {
	id, err := types.ParseTitleID(args[0])
	if err != nil {
		return err
	}
	part, err := container.OpenPartition(args[1])
	if err != nil {
		return err
	}

	session, err := discoverSession(&id)
	if err != nil {
		return err
	}

	// Follow the title's partition overlay first: it replaces the input
	// wholesale before any per-module work.
	if replacement, ok, warnings, err := session.OverridePartition(id); err != nil {
		return err
	} else if ok {
		printOverrideWarnings(warnings)
		fmt.Println(SubtitleStyle.Render("Partition replaced by overlay"))
		part = replacement
	}

	// Split entries into parseable modules and passthrough payloads.
	names := part.Names()
	payloads := map[string][]byte{}
	var modules []executable.Executable
	for _, name := range names {
		raw, err := part.ReadFile(name)
		if err != nil {
			return err
		}
		mod, err := executable.NewInstalled(name, raw)
		if errors.Is(err, executable.ErrBadExecutable) {
			payloads[name] = raw
			continue
		}
		if err != nil {
			return err
		}
		modules = append(modules, mod)
	}

	modules, _, warnings, err := session.OverrideModules(id, modules)
	if err != nil {
		return err
	}
	printOverrideWarnings(warnings)

	if _, err := session.ApplyInstalledPatches(id, modules); err != nil {
		return err
	}

	// Reassemble: surviving modules serialize from their own header, so a
	// replaced module is written with the replacement's header and build
	// id; stubbed modules simply never make it into the output.
	outNames := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := payloads[name]; ok {
			outNames = append(outNames, name)
			continue
		}
		for _, mod := range modules {
			if mod.Name() != name {
				continue
			}
			payloads[name] = mod.(*executable.Installed).Raw()
			outNames = append(outNames, name)
			break
		}
	}

	out, err := os.Create(patchNsoOutput)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := container.WritePartition(out, outNames, payloads); err != nil {
		return err
	}
	fmt.Printf("%s Wrote %s (%d entries)\n", SuccessStyle.Render("✓"), IdStyle.Render(patchNsoOutput), len(outNames))
	return nil
}

func printOverrideWarnings(warnings []override.Warning) {
	for _, w := range warnings {
		msg := "duplicate candidate from " + w.Source
		if w.Module != "" {
			msg = "module " + w.Module + " already replaced, skipping " + w.Source
		}
		fmt.Println(WarningStyle.Render("Warning: ") + msg)
	}
}

// discoverSession builds a session and discovers the configured roots.
func discoverSession(title *types.TitleID) (*mods.Session, error) {
	roots, err := searchRoots(effectiveConfig())
	if err != nil {
		return nil, err
	}
	session := mods.NewSession(newLogger())
	if err := session.Discover(title, roots...); err != nil {
		return nil, err
	}
	return session, nil
}
