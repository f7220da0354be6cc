package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pindown/pindown/pkg/history"
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/resolve"
)

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	workers   int
	jsonOut   bool
	noHistory bool
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	opts := checkOpts{}

	cmd := &cobra.Command{
		Use:   "check <requirements-file>",
		Short: "Compare pinned versions against the package indexes",
		Long: `Check looks up every requirement on the configured indexes and reports
its status: current, stale (newer release available), missing (pin not on
any index), unpinned, or unknown (index unreachable). VCS and URL
requirements are skipped.

The primary index is consulted first; --extra-index-url targets follow in
file order. Exits with status 1 when any requirement has a problem.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.runCheck(cmd, args[0], &opts)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(report)
			}

			if report.HasProblems() {
				return fmt.Errorf("requirements in %s need attention", args[0])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent index lookups (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "emit the report as JSON")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record this run in the history store")

	return cmd
}

// runCheck parses the manifest and checks it against the index chain.
func (c *CLI) runCheck(cmd *cobra.Command, path string, opts *checkOpts) (*resolve.Report, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	m, err := manifest.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if m.IndexURL == "" {
		m.IndexURL = c.cfg.Index.URL
	}
	if len(m.ExtraIndexURLs) == 0 {
		m.ExtraIndexURLs = c.cfg.Index.ExtraURLs
	}

	backend := c.newBackend(ctx)
	defer backend.Close()

	chain := resolve.NewChainForManifest(m, backend, c.cfg.CacheTTL())
	checker := resolve.NewChecker(chain)

	workers := opts.workers
	if workers <= 0 {
		workers = c.cfg.Check.Workers
	}

	var sp *spinner
	if !opts.jsonOut {
		sp = newSpinner(fmt.Sprintf("Checking %d requirements", len(m.Requirements)))
	}
	p := newProgress(logger)
	report, err := checker.Check(ctx, m, resolve.Options{
		Workers: workers,
		Refresh: c.refresh,
		Logger:  logger.Debugf,
	})
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return nil, err
	}
	p.done(fmt.Sprintf("Checked %d requirements", len(report.Results)))

	if !opts.noHistory {
		c.saveHistory(ctx, report)
	}
	return report, nil
}

// saveHistory records the run; failures are logged, never fatal.
func (c *CLI) saveHistory(ctx context.Context, report *resolve.Report) {
	store, err := c.newHistoryStore(ctx)
	if err != nil {
		c.Logger.Debug("history store unavailable", "err", err)
		return
	}
	defer store.Close(ctx)
	if err := store.Save(ctx, history.NewEntry(report)); err != nil {
		c.Logger.Debug("saving history entry failed", "err", err)
	}
}

// printReport renders the per-requirement lines and a summary.
func printReport(report *resolve.Report) {
	nameWidth := 0
	for _, res := range report.Results {
		if len(res.Name) > nameWidth {
			nameWidth = len(res.Name)
		}
	}

	for _, res := range report.Results {
		style := statusStyle(res.Status)
		line := "  " + StyleValue.Render(pad(res.Name, nameWidth)) + "  " + style.Render(string(res.Status))
		switch res.Status {
		case resolve.StatusStale:
			line += StyleDim.Render(fmt.Sprintf("  %s %s %s", res.Pinned, iconArrow, res.Latest))
		case resolve.StatusUnpinned:
			line += StyleDim.Render(fmt.Sprintf("  latest %s", res.Latest))
		case resolve.StatusMissing:
			if res.Pinned != "" {
				line += StyleDim.Render(fmt.Sprintf("  %s not on any index", res.Pinned))
			}
		case resolve.StatusUnknown:
			if res.Err != nil {
				line += StyleDim.Render(fmt.Sprintf("  %v", res.Err))
			}
		}
		fmt.Println(line)
	}

	printNewline()
	counts := report.Counts()
	if !report.HasProblems() {
		printSuccess("All %d requirements are pinned and current", len(report.Results))
		return
	}
	printInfo("%d current, %d stale, %d missing, %d unpinned, %d unknown, %d skipped",
		counts[resolve.StatusCurrent], counts[resolve.StatusStale],
		counts[resolve.StatusMissing], counts[resolve.StatusUnpinned],
		counts[resolve.StatusUnknown], counts[resolve.StatusSkipped])
}
