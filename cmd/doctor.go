package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/kamusis/gfr/internal/install"
	"github.com/kamusis/gfr/internal/pattern"
	"github.com/kamusis/gfr/internal/search"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the pattern library for problems",
	Long: `Check that gfr's pattern directory, pattern files and install manifest
are usable. Run this when a search or install behaves unexpectedly.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the pattern library.

Currently fixes:
  - Manifest entries whose pattern file was deleted: the entry is dropped
    so the next 'gfr install' fetches the pattern again

Run 'gfr doctor' first to see what will be fixed.`,
	Args: cobra.NoArgs,
	RunE: runDoctorFix,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	if !diagnose(a.con, a.repo) {
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

func runDoctorFix(cmd *cobra.Command, _ []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	a.con.section("Manifest")
	removed, err := install.Prune(a.repo, lockTimeout)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		a.con.ok("", "no stale manifest entries, nothing to fix")
		return nil
	}
	for _, name := range removed {
		a.con.ok(name, "dropped from manifest")
	}
	fmt.Fprintf(a.con.out, "\n%d entr(ies) removed. Run 'gfr install' to fetch them again.\n", len(removed))
	return nil
}

// diagnose prints every check and reports whether all passed. Warnings do
// not fail the run.
func diagnose(c *console, repo *pattern.Repository) bool {
	allOK := true
	failD := func(name, format string, args ...any) {
		c.bad(name, fmt.Sprintf(format, args...))
		allOK = false
	}

	// ── Pattern directory ────────────────────────────────────────────────────
	c.section("Pattern directory")
	info, err := os.Stat(repo.Dir())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.warn("", fmt.Sprintf("%s does not exist yet; run 'gfr install' or 'gfr save'", repo.Dir()))
		return summarize(c, allOK)
	case err != nil:
		failD("", "cannot stat %s: %v", repo.Dir(), err)
		return summarize(c, allOK)
	case !info.IsDir():
		failD("", "%s is not a directory", repo.Dir())
		return summarize(c, allOK)
	default:
		c.ok("", repo.Dir())
	}
	fmt.Fprintln(c.out)

	// ── Pattern files ────────────────────────────────────────────────────────
	c.section("Patterns")
	seq, err := repo.Enumerate()
	if err != nil {
		failD("", "%v", err)
		return summarize(c, allOK)
	}
	valid, broken := 0, 0
	for e := range seq {
		if e.Err != nil {
			failD(e.Name, "%v", e.Err)
			broken++
			continue
		}
		if err := compileRecord(e.Record); err != nil {
			failD(e.Name, "%v", err)
			broken++
			continue
		}
		valid++
	}
	if broken == 0 {
		c.ok("", fmt.Sprintf("%d pattern(s) valid", valid))
	}
	fmt.Fprintln(c.out)

	// ── Manifest ─────────────────────────────────────────────────────────────
	c.section("Manifest")
	m, err := install.LoadManifest(install.ManifestPath(repo.Dir()))
	if err != nil {
		failD("", "%v", err)
		return summarize(c, allOK)
	}
	stale, err := install.Stale(repo, m)
	if err != nil {
		failD("", "%v", err)
		return summarize(c, allOK)
	}
	for _, name := range stale {
		c.warn(name, fmt.Sprintf("installed as v%s but the file is missing (run 'gfr doctor fix')", m[name]))
	}
	unparsed := 0
	for _, name := range slices.Sorted(maps.Keys(m)) {
		v := m[name]
		if _, err := semver.StrictNewVersion(v); err != nil {
			c.warn(name, fmt.Sprintf("version %q is not semver; the next install replaces it", v))
			unparsed++
		}
	}
	if len(stale) == 0 && unparsed == 0 {
		c.ok("", fmt.Sprintf("%d installed pattern(s) tracked", len(m)))
	}
	fmt.Fprintln(c.out)

	return summarize(c, allOK)
}

func compileRecord(rec *pattern.Record) error {
	comp, err := search.Combine([]*pattern.Record{rec})
	if err != nil {
		return err
	}
	_, err = search.NewMatcher(comp.Expression(), comp.Multiline)
	return err
}

func summarize(c *console, allOK bool) bool {
	fmt.Fprintln(c.out, "===================")
	if allOK {
		c.ok("", "All checks passed. gfr is ready to use.")
	} else {
		fmt.Fprintln(c.err, c.styles.Error.Render("✗")+" One or more checks failed. See details above.")
	}
	return allOK
}
