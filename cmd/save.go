package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kamusis/gfr/internal/fsutil"
	"github.com/kamusis/gfr/internal/pattern"
)

var (
	flagSaveDescription string
	flagSaveFileTypes   []string
	flagSaveIgnoreCase  bool
	flagSaveMultiline   bool
	flagSaveAuthor      string
	flagSaveTags        []string
)

var saveCmd = &cobra.Command{
	Use:   "save <name> <pattern>",
	Short: "Save a new regex pattern to the local library",
	Example: `  gfr save aws-keys 'AKIA[0-9A-Z]{16}' -d "AWS access key IDs" -t secrets,aws
  gfr save todo 'TODO|FIXME' -i -f go,rs`,
	Args: cobra.ExactArgs(2),
	RunE: runSave,
}

func init() {
	saveCmd.Flags().StringVarP(&flagSaveDescription, "description", "d", "", "Description of the pattern")
	saveCmd.Flags().StringSliceVarP(&flagSaveFileTypes, "file-types", "f", nil, "File extensions to search (comma-separated, e.g. js,ts)")
	saveCmd.Flags().BoolVarP(&flagSaveIgnoreCase, "ignore-case", "i", false, "Match case-insensitively")
	saveCmd.Flags().BoolVarP(&flagSaveMultiline, "multiline", "m", false, "Let matches span lines")
	saveCmd.Flags().StringVarP(&flagSaveAuthor, "author", "a", "", "Author of the pattern")
	saveCmd.Flags().StringSliceVarP(&flagSaveTags, "tags", "t", nil, "Tags for the pattern (comma-separated)")
	rootCmd.AddCommand(saveCmd)
}

type saveOptions struct {
	Description string
	FileTypes   []string
	IgnoreCase  bool
	Multiline   bool
	Author      string
	Tags        []string
}

func runSave(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	opts := saveOptions{
		Description: flagSaveDescription,
		FileTypes:   flagSaveFileTypes,
		IgnoreCase:  flagSaveIgnoreCase,
		Multiline:   flagSaveMultiline,
		Author:      flagSaveAuthor,
		Tags:        flagSaveTags,
	}
	if err := savePattern(a.repo, args[0], args[1], opts); err != nil {
		return err
	}
	a.con.ok("", fmt.Sprintf("Pattern '%s' saved to %s", args[0], a.con.styles.Path.Render(a.repo.Path(args[0]))))
	return nil
}

// newRecord builds the record written by save. Empty optional fields are
// left unset so they are omitted from the file.
func newRecord(name, expr string, opts saveOptions) *pattern.Record {
	lower := cases.Lower(language.Und)
	var fileTypes []string
	for _, ft := range cleanTags(opts.FileTypes) {
		fileTypes = append(fileTypes, lower.String(strings.TrimPrefix(ft, ".")))
	}
	return &pattern.Record{
		Name:        name,
		Schema:      pattern.DefaultSchemaURL,
		Version:     pattern.DefaultVersion,
		Author:      strings.TrimSpace(opts.Author),
		Description: opts.Description,
		Tags:        cleanTags(opts.Tags),
		Pattern:     &expr,
		FileTypes:   fileTypes,
		IgnoreCase:  opts.IgnoreCase,
		Multiline:   opts.Multiline,
	}
}

// savePattern compiles expr to catch syntax errors early, then stores a new
// record under the repository lock.
func savePattern(repo *pattern.Repository, name, expr string, opts saveOptions) error {
	if err := pattern.ValidateName(name); err != nil {
		return err
	}
	rec := newRecord(name, expr, opts)
	if err := compileRecord(rec); err != nil {
		return err
	}

	unlock, err := fsutil.Lock(repo.Dir(), lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()
	return repo.Save(name, rec)
}
