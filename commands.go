package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/state"
	"github.com/metcalfc/lector/internal/tui"
)

var errAmbiguous = errors.New("ambiguous id prefix")

// resolveDocument finds a document by full ID or unique ID prefix.
func resolveDocument(ctx context.Context, store *state.Store, ref string) (state.Document, error) {
	if d, err := store.GetDocument(ctx, ref); err == nil {
		return d, nil
	} else if !errors.Is(err, state.ErrNotFound) {
		return d, err
	}
	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return state.Document{}, err
	}
	return matchPrefix(docs, ref, func(d state.Document) string { return d.ID }, "document")
}

// resolveFolder finds a folder by full ID, unique ID prefix or exact name.
func resolveFolder(ctx context.Context, store *state.Store, ref string) (state.Folder, error) {
	folders, err := store.ListFolders(ctx)
	if err != nil {
		return state.Folder{}, err
	}
	f, err := matchPrefix(folders, ref, func(f state.Folder) string { return f.ID }, "folder")
	if !errors.Is(err, state.ErrNotFound) {
		return f, err
	}
	return matchPrefix(folders, ref, func(f state.Folder) string { return f.Name + "\x00" }, "folder")
}

// matchPrefix returns the single item whose key starts with ref. Keys ending
// in NUL only match exactly.
func matchPrefix[T any](items []T, ref string, key func(T) string, kind string) (T, error) {
	var (
		zero  T
		found []T
	)
	for _, it := range items {
		k := key(it)
		if strings.HasSuffix(k, "\x00") {
			if strings.TrimSuffix(k, "\x00") == ref {
				found = append(found, it)
			}
			continue
		}
		if ref != "" && strings.HasPrefix(k, ref) {
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%s %q: %w", kind, ref, state.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("%s %q matches %d: %w", kind, ref, len(found), errAmbiguous)
	}
}

// resolveSelection splits refs into document and folder IDs.
func resolveSelection(ctx context.Context, store *state.Store, refs []string) (docs, folders []string, err error) {
	for _, ref := range refs {
		d, derr := resolveDocument(ctx, store, ref)
		if derr == nil {
			docs = append(docs, d.ID)
			continue
		}
		if !errors.Is(derr, state.ErrNotFound) {
			return nil, nil, derr
		}
		f, ferr := resolveFolder(ctx, store, ref)
		if ferr != nil {
			return nil, nil, ferr
		}
		folders = append(folders, f.ID)
	}
	return docs, folders, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printDocuments(w io.Writer, docs []state.Document) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tPROGRESS")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%3.0f%%\n", shortID(d.ID), d.Title, d.Author, d.Progress()*100)
	}
	tw.Flush()
}

func (c *cli) importCmd() *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Add documents to the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			folderID := ""
			if folder != "" {
				f, err := resolveFolder(ctx, store, folder)
				if err != nil {
					return err
				}
				folderID = f.ID
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				res, err := store.ImportFile(ctx, path, path, folderID)
				if err != nil {
					c.log.Warn().Err(err).Str("file", path).Msg("import failed")
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}
				verb := "Imported"
				if res.Existing {
					verb = "Already in library"
				}
				fmt.Fprintf(out, "%s: %s (%s, %d words)\n", verb, res.Document.Title, shortID(res.Document.ID), res.Document.TokenCount)
				for _, w := range res.Warnings {
					fmt.Fprintf(out, "  warning: %s\n", w)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d imports failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "folder to import into")
	return cmd
}

func (c *cli) lsCmd() *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List documents and folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			parentID := ""
			if folder != "" {
				f, err := resolveFolder(ctx, store, folder)
				if err != nil {
					return err
				}
				parentID = f.ID
			}

			folders, err := store.ListFolders(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range folders {
				if f.ParentID == parentID {
					fmt.Fprintf(out, "%s  %s/\n", shortID(f.ID), f.Name)
				}
			}

			var docs []state.Document
			if folder == "" && !cmd.Flags().Changed("folder") {
				docs, err = store.ListDocuments(ctx)
			} else {
				docs, err = store.ListDocumentsIn(ctx, parentID)
			}
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents.")
				return nil
			}
			printDocuments(out, docs)
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "only list this folder")
	return cmd
}

func (c *cli) findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy search document titles and authors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			docs, err := store.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			matches := tui.Search(docs, strings.Join(args, " "))
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}
			printDocuments(cmd.OutOrStdout(), matches)
			return nil
		},
	}
}

func (c *cli) mkdirCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("folder name is required")
			}
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			parentID := ""
			if parent != "" {
				p, err := resolveFolder(ctx, store, parent)
				if err != nil {
					return err
				}
				parentID = p.ID
			}
			f := state.NewFolder(name, parentID)
			if err := store.PutFolder(ctx, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s (%s)\n", f.Name, shortID(f.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "parent folder")
	return cmd
}

func (c *cli) mvCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "mv <id>...",
		Short: "Move documents and folders into a folder (--to \"\" for the root)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			target := ""
			if to != "" {
				f, err := resolveFolder(ctx, store, to)
				if err != nil {
					return err
				}
				target = f.ID
			}
			docs, folders, err := resolveSelection(ctx, store, args)
			if err != nil {
				return err
			}
			if err := store.Move(ctx, docs, folders, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d documents and %d folders\n", len(docs), len(folders))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination folder")
	return cmd
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete documents and folders (folders recursively)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			docs, folders, err := resolveSelection(ctx, store, args)
			if err != nil {
				return err
			}
			if err := store.Delete(ctx, docs, folders); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d documents and %d folders\n", len(docs), len(folders))
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file|->",
		Short: "Write a JSON backup of the whole library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if args[0] == "-" {
				return store.WriteBackup(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := store.WriteBackup(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file|->",
		Short: "Merge a JSON backup into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			b, err := store.ReadBackup(ctx, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d documents, %d folders, %d glossary entries\n",
				len(b.Books), len(b.Folders), len(b.Glossary))
			return nil
		},
	}
}

func (c *cli) glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage highlighted words",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List glossary entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.ListGlossary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Glossary is empty.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORD\tPART\tDEFINITION")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Word, e.PartOfSpeech, e.Definition)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <word> [definition]",
		Short: "Highlight a word, optionally with a definition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if glossary.NormalizeKey(args[0]) == "" {
				return fmt.Errorf("%q has no letters to highlight", args[0])
			}
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.GetGlossary(ctx, args[0])
			if errors.Is(err, state.ErrNotFound) {
				e = glossary.Entry{Word: args[0], Style: glossary.DefaultStyle}
			} else if err != nil {
				return err
			}
			if len(args) > 1 {
				e.Definition = strings.Join(args[1:], " ")
			}
			if err := store.PutGlossary(ctx, e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Highlighted %s\n", e.Word)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <word>",
		Short: "Remove a highlight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.GetGlossary(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := store.DeleteGlossary(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	})
	return cmd
}
