package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pindown/pindown/pkg/manifest"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <requirements-file>",
		Short: "Show the parsed dependency records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseFile(args[0])
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(m.Path))
			if m.IndexURL != "" {
				printKeyValue("index", styleLink.Render(m.IndexURL))
			}
			for _, url := range m.ExtraIndexURLs {
				printKeyValue("extra index", styleLink.Render(url))
			}
			if len(m.Constraints) > 0 {
				printKeyValue("constraints", strings.Join(m.Constraints, ", "))
			}
			printNewline()

			nameWidth := 0
			for _, req := range m.Requirements {
				if w := len(displayName(req)); w > nameWidth {
					nameWidth = w
				}
			}
			for _, req := range m.Requirements {
				fmt.Println("  " + StyleValue.Render(pad(displayName(req), nameWidth)) + "  " + describeRequirement(req))
			}

			printNewline()
			printDetail("%d requirements, %d invalid lines", len(m.Requirements), len(m.Invalid))
			for _, inv := range m.Invalid {
				printWarning("line %d does not parse: %s", inv.Line, inv.Raw)
			}
			return nil
		},
	}
}

func displayName(req *manifest.Requirement) string {
	name := req.Name
	if name == "" {
		name = "(unnamed)"
	}
	if len(req.Extras) > 0 {
		name += "[" + strings.Join(req.Extras, ",") + "]"
	}
	return name
}

// describeRequirement renders the interesting parts of one record.
func describeRequirement(req *manifest.Requirement) string {
	var parts []string
	switch {
	case req.VCS != "":
		parts = append(parts, StyleDim.Render(req.VCS+" ")+styleLink.Render(req.URL))
	case req.URL != "":
		parts = append(parts, styleLink.Render(req.URL))
	case len(req.Specifiers) > 0:
		style := StyleHighlight
		if _, pinned := req.Pinned(); !pinned {
			style = StyleWarning
		}
		parts = append(parts, style.Render(req.Specifiers.String()))
	default:
		parts = append(parts, StyleWarning.Render("any version"))
	}
	if req.Editable {
		parts = append(parts, StyleDim.Render("editable"))
	}
	if req.Marker != "" {
		parts = append(parts, StyleDim.Render("; "+req.Marker))
	}
	if n := len(req.Hashes); n > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d hashes", n)))
	}
	return strings.Join(parts, "  ")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
