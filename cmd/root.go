package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kamusis/gfr/internal/config"
	"github.com/kamusis/gfr/internal/install"
	"github.com/kamusis/gfr/internal/logging"
	"github.com/kamusis/gfr/internal/pattern"
	"github.com/kamusis/gfr/internal/ui"
)

var (
	flagDebug bool
	flagColor string
)

// lockTimeout bounds how long commands that write the pattern directory wait
// for another gfr process to finish.
var lockTimeout = install.DefaultLockTimeout

var rootCmd = &cobra.Command{
	Use:           "gfr",
	Short:         "gfr — search files with a local library of named regex patterns",
	SilenceUsage:  true, // don't print usage on operational errors
	SilenceErrors: true, // Execute prints errors itself
	Long: `gfr keeps named, reusable regex patterns as JSON files in your config
directory and runs them over a directory tree or piped input.

Patterns are added with 'gfr save' or installed from a remote index with
'gfr install'.`,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "", "Color output: auto, always or never (default from config, else auto)")
}

// app is the per-invocation state built once in setup and handed to
// commands through the context.
type app struct {
	cfg  *config.Config
	log  zerolog.Logger
	con  *console
	repo *pattern.Repository
}

type appKey struct{}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	modeStr := cfg.Color
	if flagColor != "" {
		modeStr = flagColor
	}
	mode, err := ui.ParseColorMode(modeStr)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	a := &app{
		cfg: cfg,
		log: logging.New(logging.Config{
			Level:   cfg.LogLevel,
			Debug:   flagDebug,
			Out:     errOut,
			NoColor: !ui.UseColor(errOut, mode),
		}),
		con:  newConsole(out, errOut, ui.Detect(out, mode)),
		repo: pattern.NewRepository(cfg.Dir),
	}
	a.log.Debug().Str("dir", cfg.Dir).Msg("config loaded")
	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
	return nil
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, fmt.Errorf("internal error: command state missing")
	}
	return a, nil
}

// Execute is called by main.go. Ctrl-C cancels the command context so
// searches and installs stop early.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		mode, perr := ui.ParseColorMode(flagColor)
		if perr != nil {
			mode = ui.ColorAuto
		}
		con := newConsole(os.Stdout, os.Stderr, ui.Detect(os.Stderr, mode))
		con.fail(err)
		os.Exit(1)
	}
}
