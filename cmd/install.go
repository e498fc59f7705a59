package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/gfr/internal/install"
)

var installCmd = &cobra.Command{
	Use:   "install [index-url]",
	Short: "Install or update patterns from a remote index",
	Long: `Fetch a pattern index and install every pattern that is missing locally
or older than the index version. Versions are compared as semver.

An index-url argument overrides everything else. Otherwise GFR_INDEX_URL
(from the environment or .env) wins over index_url in config.yaml, and the
public gfr-patterns index is used when neither is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}

	url := a.cfg.IndexURL
	if len(args) == 1 {
		url = args[0]
	}
	if url == "" {
		url = install.DefaultIndexURL
	}

	r := install.NewReconciler(a.repo,
		install.WithFetcher(install.NewHTTPFetcher(a.cfg.Timeout(), userAgent())),
		install.WithLogger(a.log),
		install.WithLockTimeout(lockTimeout),
		install.WithObserver(installObserver(a.con)),
	)
	res, err := r.Reconcile(cmd.Context(), url)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.con.out)
	a.con.ok("", fmt.Sprintf("Installation complete. Added %d new, updated %d existing patterns.", res.Added, res.Updated))
	return nil
}

// installObserver renders reconciler progress. The per-pattern line is
// opened on EventInstalling and closed on EventInstalled.
func installObserver(c *console) install.Observer {
	return func(e install.Event) {
		switch e.Kind {
		case install.EventFetchingIndex:
			c.info("", fmt.Sprintf("Fetching pattern index from %s...", e.URL))
		case install.EventIndexFetched:
			c.ok("", fmt.Sprintf("Found %d patterns in index.", e.Count))
		case install.EventInstalling:
			verb := "Installing"
			if e.Update {
				verb = "Updating"
			}
			fmt.Fprintf(c.out, "  -> %s '%s' (v%s) from %s... ",
				verb, c.styles.Name.Render(e.Entry.Name), e.Entry.Version, c.styles.Dim.Render(e.Entry.URL))
		case install.EventInstalled:
			fmt.Fprintln(c.out, c.styles.OK.Render("Done"))
		}
	}
}
