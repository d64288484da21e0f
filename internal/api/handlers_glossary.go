package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metcalfc/lector/internal/glossary"
	"github.com/metcalfc/lector/internal/lookup"
	"github.com/metcalfc/lector/internal/state"
)

func (s *Server) handleListGlossary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListGlossary(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if entries == nil {
		entries = []glossary.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handlePutGlossary upserts the entry for the word in the path. Fields left
// out of the body keep their stored values; a new entry gets the default
// style.
func (s *Server) handlePutGlossary(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(chi.URLParam(r, "word"))
	if glossary.NormalizeKey(word) == "" {
		jsonError(w, "word has no letters", http.StatusBadRequest)
		return
	}

	e, err := s.store.GetGlossary(r.Context(), word)
	switch {
	case errors.Is(err, state.ErrNotFound):
		e = glossary.Entry{Style: glossary.DefaultStyle, CreatedAt: time.Now().UTC()}
	case err != nil:
		s.fail(w, err)
		return
	}
	if !decode(w, r, &e) {
		return
	}
	e.Word = word

	if err := s.store.PutGlossary(r.Context(), e); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteGlossary(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	if _, err := s.store.GetGlossary(r.Context(), word); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.DeleteGlossary(r.Context(), word); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDefine looks a word up, answering from the glossary when it has an
// entry. Lookups never write to the glossary.
func (s *Server) handleDefine(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	word := strings.TrimSpace(q.Get("word"))
	if glossary.NormalizeKey(word) == "" {
		jsonError(w, "word is required", http.StatusBadRequest)
		return
	}

	if e, err := s.store.GetGlossary(r.Context(), word); err == nil {
		s.metrics.LookupsTotal.WithLabelValues("glossary").Inc()
		writeJSON(w, http.StatusOK, lookup.Definition{
			Definition:   e.Definition,
			Translation:  e.Translation,
			PartOfSpeech: e.PartOfSpeech,
			Example:      e.Example,
			Phonetic:     e.Phonetic,
		})
		return
	}

	if s.opts.Definer == nil {
		s.fail(w, lookup.ErrNotConfigured)
		return
	}
	lang := q.Get("lang")
	if lang == "" {
		lang = s.opts.Language
	}
	def, err := s.opts.Definer.GetDefinition(r.Context(), word, q.Get("passage"), lang)
	if err != nil {
		s.metrics.LookupsTotal.WithLabelValues("failed").Inc()
		s.fail(w, err)
		return
	}
	s.metrics.LookupsTotal.WithLabelValues("remote").Inc()
	writeJSON(w, http.StatusOK, def)
}
