// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies one documented issue class.
type Id int

const (
	ModsRootNotFoundId Id = iota + 1
	TitleDirNotFoundId
	BaseContainerUnreadableId
	OverlayUnreadableId
	DuplicateOverlayFileId
	DuplicateModuleReplacementId
	PartitionAmbiguityId
	TooManyModulesId
	PatchParseFailedId
	ConfigLoadFailedId
)

// MarkdownMsg is the markdown body rendered for an issue.
type MarkdownMsg string

// HttpLink is a documentation or external reference URL.
type HttpLink string

// Issue pairs an issue id with its user-facing explanation.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
}

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns the documentation links for this issue.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue body (plus links) as styled terminal output.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	catalog = map[Id]*Issue{
		ModsRootNotFoundId: {
			id: ModsRootNotFoundId,
			mdMsg: "# Mods root not found\n\n" +
				"The configured mods root directory does not exist yet. " +
				"Run `modkit init` to create the standard layout " +
				"(`content/`, `exefs_patches/`, `nro_patches/`).",
			docLinks: []HttpLink{"https://github.com/modkit-cli/modkit/wiki/layout"},
		},
		TitleDirNotFoundId: {
			id: TitleDirNotFoundId,
			mdMsg: "# Title directory not found\n\n" +
				"No directory under the content root starts with the title's " +
				"16-digit hex id. Discovery treats this as an empty mod set.",
			docLinks: []HttpLink{"https://github.com/modkit-cli/modkit/wiki/titles"},
		},
		DuplicateOverlayFileId: {
			id: DuplicateOverlayFileId,
			mdMsg: "# Duplicate overlay file\n\n" +
				"Two overlays supply the same container path. The first " +
				"discovered source wins; later copies are skipped with a warning.",
			docLinks: []HttpLink{"https://github.com/modkit-cli/modkit/wiki/precedence"},
		},
		TooManyModulesId: {
			id: TooManyModulesId,
			mdMsg: "# Too many modules\n\n" +
				"A partition supplied more than 32 executable modules. This is " +
				"a configuration error; the module list is never truncated.",
			docLinks: []HttpLink{"https://github.com/modkit-cli/modkit/wiki/modules"},
		},
	}
)

// Lookup returns the catalog entry for id, or nil when the id has no
// documented explanation.
func Lookup(id Id) *Issue {
	return catalog[id]
}

// Ids returns all documented issue ids in ascending order.
func Ids() []Id {
	ids := maps.Keys(catalog)
	slices.Sort(ids)
	return ids
}
