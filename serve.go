package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/metcalfc/lector/internal/api"
	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/logger"
	"github.com/metcalfc/lector/internal/lookup"
	"github.com/metcalfc/lector/internal/state"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.ListenAddr
			}
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			opts := api.Options{
				MaxUploadBytes: c.cfg.MaxUploadBytes,
				Language:       c.cfg.Language,
			}
			if lc := c.lookupClient(); lc != nil {
				defer lc.Close()
				opts.Definer = lc
			}
			srv := api.NewServer(store, logger.Component(c.log, "api"), opts)
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *cli) defineCmd() *cobra.Command {
	var passage string
	cmd := &cobra.Command{
		Use:   "define <word>",
		Short: "Define a word, from the glossary or the lookup service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			word := args[0]
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if e, err := store.GetGlossary(ctx, word); err == nil && e.Definition != "" {
				printEntry(out, e)
				return nil
			} else if err != nil && !errors.Is(err, state.ErrNotFound) {
				return err
			}

			lc := c.lookupClient()
			if lc == nil {
				return fmt.Errorf("%w: set ANTHROPIC_API_KEY", lookup.ErrNotConfigured)
			}
			defer lc.Close()

			ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
			defer cancel()
			if passage == "" {
				passage = word
			}
			def, err := lc.GetDefinition(ctx, word, passage, c.cfg.Language)
			if err != nil {
				return err
			}
			printEntry(out, glossary.Entry{
				Word:         word,
				Definition:   def.Definition,
				Translation:  def.Translation,
				PartOfSpeech: def.PartOfSpeech,
				Example:      def.Example,
				Phonetic:     def.Phonetic,
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&passage, "passage", "", "sentence the word appears in")
	return cmd
}

func printEntry(out io.Writer, e glossary.Entry) {
	head := e.Word
	if e.Phonetic != "" {
		head += " " + e.Phonetic
	}
	if e.PartOfSpeech != "" {
		head += " (" + e.PartOfSpeech + ")"
	}
	lines := []string{head, "  " + e.Definition}
	if e.Translation != "" {
		lines = append(lines, "  Translation: "+e.Translation)
	}
	if e.Example != "" {
		lines = append(lines, "  Example: "+e.Example)
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func (c *cli) voicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List installed synthesizer voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := c.engine().Voices(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(voices) == 0 {
				fmt.Fprintln(out, "No voices installed.")
				return nil
			}
			for _, v := range voices {
				mark := " "
				if v.Default {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %-24s %s\n", mark, v.Name, v.Language)
			}
			return nil
		},
	}
}
