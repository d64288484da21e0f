package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/logger"
	"github.com/metcalfc/lector/internal/session"
	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/speech"
	"github.com/metcalfc/lector/internal/state"
)

// readerSetup is everything a front end needs to open the reader.
type readerSetup struct {
	store    *state.Store
	openID   string
	app      settings.App
	voice    settings.Voice
	engine   speech.Engine
	lookup   session.Lookup
	saver    *settings.Saver
	glossary *glossary.Index
}

func (c *cli) readCmd() *cobra.Command {
	var (
		wpm  int
		mode string
	)
	cmd := &cobra.Command{
		Use:   "read [file|id]",
		Short: "Open the reader on a file, a library document, piped text or the library",
		Long: `Open the reader.

With a file argument the file is imported first (or found again by content
hash). An argument that is not a file is looked up as a document id prefix.
Text piped on stdin is imported as a plain text document. With neither, the
library is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if mode != "" && !slices.Contains(settings.Modes, settings.Mode(mode)) {
				return fmt.Errorf("unknown mode %q", mode)
			}

			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			openID, err := c.documentToOpen(ctx, store, args)
			if err != nil {
				return err
			}

			app, voice, err := store.LoadSettings(ctx)
			if err != nil {
				return err
			}
			if mode != "" {
				app = app.WithMode(settings.Mode(mode))
			}
			if wpm > 0 {
				cur := app.Current()
				cur.WPM = wpm
				app = app.WithCurrent(cur).Normalize()
			}

			entries, err := store.ListGlossary(ctx)
			if err != nil {
				return err
			}

			saver := settings.NewSaver(c.cfg.SettingsDebounce, func(a settings.App, v settings.Voice) error {
				return store.SaveSettings(context.Background(), a, v)
			}, logger.Component(c.log, "settings"))
			defer func() {
				if err := saver.Flush(); err != nil {
					c.log.Error().Err(err).Msg("save settings on exit")
				}
			}()

			var lk session.Lookup
			if lc := c.lookupClient(); lc != nil {
				defer lc.Close()
				lk = lc
			}

			c.log.Info().Str("document", openID).Str("mode", string(app.Mode)).Msg("starting reader")
			return c.present(ctx, readerSetup{
				store:    store,
				openID:   openID,
				app:      app,
				voice:    voice,
				engine:   c.engine(),
				lookup:   lk,
				saver:    saver,
				glossary: glossary.NewIndex(entries),
			})
		},
	}
	cmd.Flags().IntVarP(&wpm, "wpm", "w", 0, "words per minute for this mode")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "presentation: scroll, paginated, spritz, wheel, viral")
	return cmd
}

// documentToOpen resolves the read argument, importing files and piped text.
// An empty result opens the library.
func (c *cli) documentToOpen(ctx context.Context, store *state.Store, args []string) (string, error) {
	if len(args) == 1 {
		ref := args[0]
		if _, err := os.Stat(ref); err == nil {
			return c.importForReading(ctx, store, ref, ref)
		}
		d, err := resolveDocument(ctx, store, ref)
		if errors.Is(err, state.ErrNotFound) {
			return "", fmt.Errorf("%s is neither a file nor a document in the library", ref)
		}
		if err != nil {
			return "", err
		}
		return d.ID, nil
	}

	f, ok := c.in.(*os.File)
	if !ok {
		return "", nil
	}
	stat, err := f.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	path, cleanup, err := spoolStdin(f)
	if err != nil {
		return "", err
	}
	defer cleanup()
	return c.importForReading(ctx, store, path, "stdin")
}

func (c *cli) importForReading(ctx context.Context, store *state.Store, path, source string) (string, error) {
	res, err := store.ImportFile(ctx, path, source, "")
	if err != nil {
		return "", err
	}
	for _, w := range res.Warnings {
		c.log.Warn().Str("file", path).Msg(w)
	}
	c.log.Info().
		Str("document", res.Document.ID).
		Bool("existing", res.Existing).
		Int("tokens", res.Document.TokenCount).
		Msg("imported for reading")
	return res.Document.ID, nil
}

// spoolStdin copies piped text to a temporary .txt file so it imports like
// any other document.
func spoolStdin(r io.Reader) (string, func(), error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", nil, errors.New("no text to read")
	}
	dir, err := os.MkdirTemp("", "lector-stdin-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }
	path := filepath.Join(dir, "stdin.txt")
	if err := os.WriteFile(path, data, 0644); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
