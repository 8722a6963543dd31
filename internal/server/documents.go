package server

import (
	"encoding/json"
	"net/http"

	"github.com/scandock/scandock/internal/storage"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var newDoc storage.NewDocument
	if err := json.NewDecoder(r.Body).Decode(&newDoc); err != nil {
		s.respondError(w, r, validationErrorf("Invalid document data"))
		return
	}
	if err := newDoc.Validate(); err != nil {
		s.respondError(w, r, validationErrorf("Invalid document data"))
		return
	}

	doc, err := s.store.Create(r.Context(), newDoc)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var update storage.DocumentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.respondError(w, r, validationErrorf("Invalid document data"))
		return
	}
	if update.Empty() {
		s.respondError(w, r, validationErrorf("No valid fields to update"))
		return
	}

	doc, err := s.store.Update(r.Context(), r.PathValue("id"), update)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
