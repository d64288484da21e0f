package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/settings"
)

// BackupVersion is the only backup format version Import accepts.
const BackupVersion = 1

// Backup is the portable snapshot of the whole library.
type Backup struct {
	Version   int              `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Books     []Document       `json:"books"`
	Folders   []Folder         `json:"folders"`
	Glossary  []glossary.Entry `json:"glossary"`
	Settings  BackupSettings   `json:"settings"`
}

// BackupSettings holds optional settings records.
type BackupSettings struct {
	App   *settings.App   `json:"app,omitempty"`
	Voice *settings.Voice `json:"voice,omitempty"`
}

// Export snapshots every collection.
func (s *Store) Export(ctx context.Context) (*Backup, error) {
	b := &Backup{
		Version:   BackupVersion,
		Timestamp: time.Now().UTC(),
		Books:     []Document{},
		Folders:   []Folder{},
		Glossary:  []glossary.Entry{},
	}
	if docs, err := s.ListDocuments(ctx); err != nil {
		return nil, err
	} else if docs != nil {
		b.Books = docs
	}
	if folders, err := s.ListFolders(ctx); err != nil {
		return nil, err
	} else if folders != nil {
		b.Folders = folders
	}
	if entries, err := s.ListGlossary(ctx); err != nil {
		return nil, err
	} else if entries != nil {
		b.Glossary = entries
	}
	app, voice, err := s.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	b.Settings = BackupSettings{App: &app, Voice: &voice}
	return b, nil
}

// Import upserts every record of b in one transaction. Records absent from
// the backup are left alone.
func (s *Store) Import(ctx context.Context, b *Backup) error {
	if b.Version != BackupVersion {
		return fmt.Errorf("import backup version %d: %w", b.Version, ErrBackupVersion)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, f := range b.Folders {
			if err := putFolder(ctx, tx, f); err != nil {
				return err
			}
		}
		tree, err := parents(ctx, tx)
		if err != nil {
			return err
		}
		if id := findCycle(tree); id != "" {
			return fmt.Errorf("import folder %s: %w", id, ErrCycle)
		}
		for _, d := range b.Books {
			if err := putDocument(ctx, tx, d); err != nil {
				return err
			}
		}
		for _, e := range b.Glossary {
			if err := putGlossary(ctx, tx, e); err != nil {
				return err
			}
		}
		var app *settings.App
		if b.Settings.App != nil {
			a := b.Settings.App.Normalize()
			app = &a
		}
		var voice *settings.Voice
		if b.Settings.Voice != nil {
			v := b.Settings.Voice.Normalize()
			voice = &v
		}
		return saveSettings(ctx, tx, app, voice)
	})
}

// WriteBackup exports the library as indented JSON.
func (s *Store) WriteBackup(ctx context.Context, w io.Writer) error {
	b, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// ReadBackup decodes a backup from r and imports it.
func (s *Store) ReadBackup(ctx context.Context, r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	if err := s.Import(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
