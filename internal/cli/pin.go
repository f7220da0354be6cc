package cli

import (
	"github.com/spf13/cobra"

	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/resolve"
)

// pinCommand creates the pin command.
func (c *CLI) pinCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pin <requirements-file>",
		Short: "Pin unpinned requirements to their latest release",
		Long: `Pin looks up each requirement without an exact pin and rewrites it to
==<latest release>. Existing pins, VCS references and URL requirements are
left untouched. The file is rewritten in place unless --output is given.

Comments are not preserved; the output is the canonical rendering of the
manifest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := checkOpts{noHistory: true}
			report, err := c.runCheck(cmd, args[0], &opts)
			if err != nil {
				return err
			}

			// Re-parse so configured index defaults don't leak into the
			// rewritten file.
			m, err := manifest.ParseFile(args[0])
			if err != nil {
				return err
			}
			changed := resolve.Pin(m, report)
			if changed == 0 {
				printInfo("Nothing to pin in %s", args[0])
				return nil
			}

			dest := output
			if dest == "" {
				dest = args[0]
			}
			if err := m.WriteFile(dest); err != nil {
				return err
			}

			printSuccess("Pinned %d requirements", changed)
			printFile(dest)
			for _, res := range report.Results {
				if res.Status == resolve.StatusUnpinned && res.Latest != "" {
					printDetail("%s %s ==%s", res.Name, iconArrow, res.Latest)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the pinned manifest here instead of in place")

	return cmd
}
