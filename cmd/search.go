package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/gfr/internal/pattern"
	"github.com/kamusis/gfr/internal/search"
	"github.com/kamusis/gfr/internal/ui"
)

var (
	flagSearchDump       bool
	flagSearchTags       []string
	flagSearchAuthor     string
	flagSearchIncludeBin bool
)

var searchCmd = &cobra.Command{
	Use:   "search [pattern-name] [path]",
	Short: "Search files or piped input with saved patterns",
	Long: `Search a directory tree (default ".") with a named pattern, or with every
pattern matching --tags and --author.

When stdin is not a terminal the piped input is searched instead of path.`,
	Example: `  gfr search aws-keys
  gfr search aws-keys ./src
  gfr search --tags secrets,cloud ./src
  cat app.log | gfr search --author alice`,
	Args: cobra.MaximumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVarP(&flagSearchDump, "dump", "d", false, "Print the selected pattern configuration instead of searching")
	searchCmd.Flags().StringSliceVar(&flagSearchTags, "tags", nil, "Select patterns carrying all of these tags (comma-separated)")
	searchCmd.Flags().StringVar(&flagSearchAuthor, "author", "", "Select patterns by this author")
	searchCmd.Flags().BoolVar(&flagSearchIncludeBin, "include-bin", false, "Search binary files and ignore the file type filter")
	rootCmd.AddCommand(searchCmd)
}

// searchArgs splits positionals into a pattern name and a path. With tag or
// author filters set, a single positional is taken as the path.
func searchArgs(args []string, filtered bool) (name, path string) {
	path = "."
	switch {
	case len(args) == 2:
		name, path = args[0], args[1]
	case len(args) == 1 && filtered:
		path = args[0]
	case len(args) == 1:
		name = args[0]
	}
	return name, path
}

// resolveSearch builds the selector and target path. A lone positional
// given with filters is the path, unless it names a stored pattern, in which
// case the name and the filters conflict.
func resolveSearch(repo *pattern.Repository, args, tags []string, author string) (pattern.Selector, string, error) {
	sel := pattern.Selector{
		Tags:   cleanTags(tags),
		Author: strings.TrimSpace(author),
	}
	filtered := len(sel.Tags) > 0 || sel.Author != ""
	if filtered && len(args) == 1 && pattern.ValidateName(args[0]) == nil {
		exists, err := repo.Exists(args[0])
		if err != nil {
			return sel, "", err
		}
		if exists {
			return sel, "", pattern.ErrConflictingFilters
		}
	}
	var path string
	sel.Name, path = searchArgs(args, filtered)
	return sel, path, nil
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}

	sel, path, err := resolveSearch(a.repo, args, flagSearchTags, flagSearchAuthor)
	if err != nil {
		return err
	}

	records, err := pattern.Select(a.repo, sel)
	if err != nil {
		return err
	}
	comp, err := search.Combine(records)
	if err != nil {
		return err
	}
	if flagSearchDump {
		return dumpRecords(a.con, a.repo, records, comp)
	}

	eng := search.New(
		search.WithWorkers(a.cfg.Workers),
		search.WithOutput(a.con.out),
		search.WithDiagnostics(a.con.err),
		search.WithStyles(a.con.styles),
		search.WithLogger(a.log),
	)
	m, err := eng.Compile(comp)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if !ui.IsTTY(in) {
		_, err = eng.SearchStream(cmd.Context(), m, in)
		return err
	}

	a.con.note(fmt.Sprintf("Searching with %d patterns on path '%s'...", len(records), path))
	_, err = eng.SearchTree(cmd.Context(), m, path, search.TreeOptions{
		FileTypes:     comp.FileTypes,
		IncludeBinary: flagSearchIncludeBin,
	})
	return err
}

// dumpRecords prints each selected record as stored, followed by the
// expression a search would run.
func dumpRecords(c *console, repo *pattern.Repository, records []*pattern.Record, comp *search.Composite) error {
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(c.out)
		}
		if err := dumpRecord(c.out, c.styles, repo, rec); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "%s %s\n", c.styles.Dim.Render("Expression:"), comp.Expression())
	if len(comp.FileTypes) > 0 {
		fmt.Fprintf(c.out, "%s %s\n", c.styles.Dim.Render("File types:"), strings.Join(comp.FileTypes, ", "))
	}
	return nil
}

func dumpRecord(w io.Writer, s ui.Styles, repo *pattern.Repository, rec *pattern.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode pattern '%s': %w", rec.Name, err)
	}
	fmt.Fprintf(w, "Configuration for '%s'\n", s.Name.Render(rec.Name))
	fmt.Fprintf(w, "Loaded from: %s\n", s.Path.Render(repo.Path(rec.Name)))
	fmt.Fprintln(w, "---")
	fmt.Fprintln(w, string(data))
	return nil
}
