package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metcalfc/lector/internal/state"
)

// documentSummary is a library row: everything but the content.
type documentSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author,omitempty"`
	TokenCount int       `json:"tokenCount"`
	Position   int       `json:"position"`
	Progress   float64   `json:"progress"`
	CreatedAt  time.Time `json:"createdAt"`
	LastReadAt time.Time `json:"lastReadAt,omitzero"`
	FolderID   string    `json:"folderId,omitempty"`
	Source     string    `json:"source,omitempty"`
	HasCover   bool      `json:"hasCover"`
}

func summarize(d state.Document) documentSummary {
	return documentSummary{
		ID:         d.ID,
		Title:      d.Title,
		Author:     d.Author,
		TokenCount: d.TokenCount,
		Position:   d.Position,
		Progress:   d.Progress(),
		CreatedAt:  d.CreatedAt,
		LastReadAt: d.LastReadAt,
		FolderID:   d.FolderID,
		Source:     d.Source,
		HasCover:   len(d.Cover) > 0,
	}
}

// handleListDocuments lists the library, most recently read first. With a
// folder query parameter only that folder's direct children are listed;
// folder= (empty) lists the root.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	var (
		docs []state.Document
		err  error
	)
	if q := r.URL.Query(); q.Has("folder") {
		docs, err = s.store.ListDocumentsIn(r.Context(), q.Get("folder"))
	} else {
		docs, err = s.store.ListDocuments(r.Context())
	}
	if err != nil {
		s.fail(w, err)
		return
	}

	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, summarize(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	d.Cover = nil
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(d.Cover) == 0 {
		jsonError(w, "document has no cover", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", d.CoverType)
	w.Write(d.Cover)
}

func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position int `json:"position"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "docID")
	if err := s.store.SetPosition(r.Context(), id, req.Position); err != nil {
		s.fail(w, err)
		return
	}
	d, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(d))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "docID")
	if _, err := s.store.GetDocument(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.DeleteDocument(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload imports a multipart "file" into the library, optionally into
// the folder named by the "folder" field. Re-uploading a file already in the
// library returns the existing document with 200 instead of 201.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1<<20) // form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	folderID := r.FormValue("folder")
	if folderID != "" {
		if _, err := s.store.GetFolder(r.Context(), folderID); err != nil {
			s.fail(w, err)
			return
		}
	}

	// Importers read from disk and take the title from the file name, so
	// the upload is written under its own name.
	name := sanitizeFilename(header.Filename)
	dir, err := os.MkdirTemp("", "lector-upload-")
	if err != nil {
		s.fail(w, err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := writeLimited(path, file, s.opts.MaxUploadBytes); err != nil {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	res, err := s.store.ImportFile(r.Context(), path, name, folderID)
	if err != nil {
		s.metrics.DocumentsImported.WithLabelValues("failed").Inc()
		s.fail(w, err)
		return
	}
	for _, warn := range res.Warnings {
		s.log.Warn().Str("document", res.Document.ID).Msg(warn)
	}

	code := http.StatusCreated
	if res.Existing {
		code = http.StatusOK
		s.metrics.DocumentsImported.WithLabelValues("existing").Inc()
	} else {
		s.metrics.DocumentsImported.WithLabelValues("created").Inc()
		s.log.Info().Str("document", res.Document.ID).Str("title", res.Document.Title).Msg("imported")
	}
	writeJSON(w, code, summarize(res.Document))
}

func writeLimited(path string, r io.Reader, limit int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		return err
	}
	if n > limit {
		return fmt.Errorf("file exceeds max size (%d bytes)", limit)
	}
	return nil
}
