package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/gfr/internal/config"
	"github.com/kamusis/gfr/internal/install"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the gfr directory and starter config files",
	Long: `Create the pattern directory, a config.yaml with the default settings
and a .env template. Existing files are left alone.

Run 'gfr install' afterwards to fetch the public pattern library.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	return initDir(a.con, a.cfg)
}

func initDir(c *console, cfg *config.Config) error {
	// ── 1. Pattern directory ─────────────────────────────────────────────────
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", cfg.Dir, err)
	}
	c.ok("", fmt.Sprintf("Pattern directory ready: %s", cfg.Dir))

	// ── 2. config.yaml ───────────────────────────────────────────────────────
	_, err := os.Stat(cfg.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		starter := &config.Config{
			Dir:         cfg.Dir,
			IndexURL:    install.DefaultIndexURL,
			HTTPTimeout: config.DefaultHTTPTimeout.String(),
		}
		if err := config.Save(starter); err != nil {
			return err
		}
		c.ok("", fmt.Sprintf("Config written: %s", cfg.Path()))
	case err != nil:
		return fmt.Errorf("cannot stat %s: %w", cfg.Path(), err)
	default:
		c.skip("", fmt.Sprintf("Config already exists: %s", cfg.Path()))
	}

	// ── 3. .env template ─────────────────────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	created, err := config.EnsureDotEnvTemplate()
	if err != nil {
		return err
	}
	if created {
		c.ok("", fmt.Sprintf("Dotenv template written: %s", envPath))
	} else {
		c.skip("", fmt.Sprintf("Dotenv file already exists: %s", envPath))
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Next: run 'gfr install' to fetch the public patterns.")
	return nil
}
