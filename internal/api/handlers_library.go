package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/metcalfc/lector/internal/state"
)

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.store.ListFolders(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if folders == nil {
		folders = []state.Folder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.ParentID != "" {
		if _, err := s.store.GetFolder(r.Context(), req.ParentID); err != nil {
			s.fail(w, err)
			return
		}
	}

	f := state.NewFolder(req.Name, req.ParentID)
	if err := s.store.PutFolder(r.Context(), f); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// handleDeleteFolder removes a folder with every folder and document
// beneath it.
func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "folderID")
	if _, err := s.store.GetFolder(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.DeleteFolder(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selection struct {
	Documents []string `json:"documents"`
	Folders   []string `json:"folders"`
	// Target is the destination folder for a move; empty is the root.
	Target string `json:"target"`
}

// handleMove moves documents and folders into the target folder. Moving a
// folder into its own subtree is rejected with 409 and nothing moves.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req selection
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.Move(r.Context(), req.Documents, req.Folders, req.Target); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDelete removes a mixed selection of documents and folders.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req selection
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.Delete(r.Context(), req.Documents, req.Folders); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
