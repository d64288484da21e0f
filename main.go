package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/metcalfc/lector/internal/config"
	"github.com/metcalfc/lector/internal/logger"
	"github.com/metcalfc/lector/internal/lookup"
	"github.com/metcalfc/lector/internal/speech"
	"github.com/metcalfc/lector/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli carries what every command shares.
type cli struct {
	cfg     config.Config
	log     zerolog.Logger
	logFile io.Closer
	dbPath  string
	level   string
	out     io.Writer
	in      io.Reader
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{out: os.Stdout, in: os.Stdin}
	if err := c.root().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (c *cli) root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "lector",
		Short:        "Read documents word by word, aloud or on screen",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logFile != nil {
				c.logFile.Close()
			}
		},
	}
	rootCmd.SetOut(c.out)
	rootCmd.SetIn(c.in)

	rootCmd.PersistentFlags().StringVar(&c.dbPath, "db", "", "library database path (default $XDG_STATE_HOME/lector/library.db)")
	rootCmd.PersistentFlags().StringVar(&c.level, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(c.readCmd())
	rootCmd.AddCommand(c.importCmd())
	rootCmd.AddCommand(c.lsCmd())
	rootCmd.AddCommand(c.findCmd())
	rootCmd.AddCommand(c.mkdirCmd())
	rootCmd.AddCommand(c.mvCmd())
	rootCmd.AddCommand(c.rmCmd())
	rootCmd.AddCommand(c.exportCmd())
	rootCmd.AddCommand(c.restoreCmd())
	rootCmd.AddCommand(c.glossaryCmd())
	rootCmd.AddCommand(c.defineCmd())
	rootCmd.AddCommand(c.voicesCmd())
	rootCmd.AddCommand(c.serveCmd())
	rootCmd.AddCommand(c.versionCmd())
	return rootCmd
}

// setup loads configuration and the logger. Interactive commands log to a
// file because the terminal belongs to the reader.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if c.level != "" {
		cfg.LogLevel = c.level
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = cfg

	lc := logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty}
	if cmd.Name() == "read" {
		log, f, err := logger.OpenFile(cfg.LogFile, lc)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		c.log, c.logFile = log, f
		return nil
	}
	if cmd.Name() != "serve" {
		lc.Level = "warn"
		if c.level != "" {
			lc.Level = c.level
		}
	}
	c.log = logger.New(lc)
	return nil
}

func (c *cli) openStore() (*state.Store, error) {
	return state.Open(c.cfg.DBPath)
}

// engine picks the configured synthesizer, falling back to the silent
// paced engine when it is not installed. The paced engine speaks at the
// nominal synthesizer rate so the voiced lead time maps to the same tokens.
func (c *cli) engine() speech.Engine {
	path := c.cfg.SpeechCommand
	if path == "" {
		path = "espeak-ng"
	}
	log := logger.Component(c.log, "speech")
	if cmd := speech.NewCommand(path, log); cmd.Available() {
		return cmd
	}
	log.Info().Str("command", path).Msg("synthesizer not found, using paced engine")
	return speech.NewPaced(speech.NominalWPM)
}

// lookupClient returns the definition client, or nil when no API key is
// configured.
func (c *cli) lookupClient() *lookup.Client {
	if c.cfg.AnthropicAPIKey == "" {
		return nil
	}
	return lookup.NewClient(c.cfg.AnthropicAPIKey, c.cfg.AnthropicModel, c.cfg.AnthropicBaseURL,
		logger.Component(c.log, "lookup"))
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "lector %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
