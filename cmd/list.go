package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/gfr/internal/pattern"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List locally available patterns",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	return listPatterns(a.con, a.repo)
}

func listPatterns(c *console, repo *pattern.Repository) error {
	fmt.Fprintln(c.out, c.styles.Info.Render("Available local patterns:"))

	if _, err := os.Stat(repo.Dir()); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(c.out, "  No pattern directory found. Use `gfr install` to get started.")
		return nil
	}

	seq, err := repo.Enumerate()
	if err != nil {
		return err
	}
	var entries []pattern.Entry
	for e := range seq {
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "  No patterns found. Use 'gfr save' or 'gfr install' to add some.")
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for _, e := range entries {
		name := c.styles.Name.Render(e.Name)
		if e.Err != nil {
			fmt.Fprintf(c.out, "  %s - %s\n", name, c.styles.Error.Render("Invalid pattern file"))
			continue
		}
		rec := e.Record
		tags := ""
		if len(rec.Tags) > 0 {
			tags = " " + c.styles.Tag.Render("["+strings.Join(rec.Tags, ", ")+"]")
		}
		desc := rec.Description
		if desc == "" {
			desc = "No description"
		}
		author := rec.Author
		if author == "" {
			author = "Unknown"
		}
		fmt.Fprintf(c.out, "  %s%s - %s\n", name, tags, desc)
		fmt.Fprintln(c.out, c.styles.Dim.Render(fmt.Sprintf("    v%s by %s", rec.Version, author)))
	}
	return nil
}
