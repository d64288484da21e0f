package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/state"
)

type settingsBody struct {
	App   *settings.App   `json:"app,omitempty"`
	Voice *settings.Voice `json:"voice,omitempty"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	app, voice, err := s.store.LoadSettings(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsBody{App: &app, Voice: &voice})
}

// handlePutSettings replaces whichever records the body carries. Values are
// normalized before they are stored and the stored result is returned.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsBody
	if !decode(w, r, &req) {
		return
	}
	app, voice, err := s.store.LoadSettings(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if req.App != nil {
		app = req.App.Normalize()
	}
	if req.Voice != nil {
		voice = req.Voice.Normalize()
	}
	if err := s.store.SaveSettings(r.Context(), app, voice); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsBody{App: &app, Voice: &voice})
}

// handleExport streams a full backup as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Export(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	name := fmt.Sprintf("lector-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeJSON(w, http.StatusOK, b)
}

// handleRestore merges a backup into the library. Records absent from the
// backup are kept.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	var b state.Backup
	if !decode(w, r, &b) {
		return
	}
	if err := s.store.Import(r.Context(), &b); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"books":    len(b.Books),
		"folders":  len(b.Folders),
		"glossary": len(b.Glossary),
	})
}
