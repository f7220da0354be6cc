package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pindown/pindown/pkg/lint"
	"github.com/pindown/pindown/pkg/manifest"
)

// lintCommand creates the lint command.
func (c *CLI) lintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <requirements-file>",
		Short: "Run sanity checks on a requirements manifest",
		Long: `Lint parses the manifest and reports problems: unparsable lines,
invalid package names and URLs, duplicate requirements, self-conflicting
version pins, and requirements left unpinned.

Errors exit with status 1; warnings alone exit cleanly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			p := newProgress(logger)

			m, err := manifest.ParseFile(args[0])
			if err != nil {
				return err
			}

			result := lint.Check(m)
			p.done(fmt.Sprintf("Linted %d requirements", len(m.Requirements)))

			for _, f := range result.Findings {
				line := ""
				if f.Line > 0 {
					line = fmt.Sprintf("line %d: ", f.Line)
				}
				msg := fmt.Sprintf("%s%s: %s", line, f.Rule, f.Message)
				if f.Severity == lint.SeverityError {
					printError("%s", msg)
				} else {
					printWarning("%s", msg)
				}
			}

			errs, warns := result.Errors(), result.Warnings()
			switch {
			case errs > 0:
				printNewline()
				return fmt.Errorf("%d errors, %d warnings in %s", errs, warns, args[0])
			case warns > 0:
				printNewline()
				printInfo("%d warnings in %s", warns, args[0])
			default:
				printSuccess("%s is clean", args[0])
			}
			return nil
		},
	}
}
