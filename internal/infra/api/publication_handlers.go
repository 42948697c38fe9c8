package api

import (
	"net/http"

	"press-subscription/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

func (s *Server) handleCreatePublication(w http.ResponseWriter, r *http.Request) {
	var req publicationCreateRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pub, err := s.pubs.Create(r.Context(), currentUser(r.Context()), req.fields())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPublicationResponse(pub))
}

func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	q, err := bindPage(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	typ := model.PublicationType(lo.FromPtr(q.Type))
	pubs, err := s.pubs.List(r.Context(), typ, q.offset(), q.limit())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicationList(pubs))
}

func (s *Server) handleListAllPublications(w http.ResponseWriter, r *http.Request) {
	q, err := bindPage(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pubs, err := s.pubs.ListAll(r.Context(), currentUser(r.Context()), q.offset(), q.limit())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicationList(pubs))
}

func (s *Server) handleGetPublication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pub, err := s.pubs.Get(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicationResponse(pub))
}

func (s *Server) handleUpdatePublication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	var req publicationUpdateRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pub, err := s.pubs.Update(r.Context(), currentUser(r.Context()), id, req.fields())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicationResponse(pub))
}

func (s *Server) handleDeletePublication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.pubs.Delete(r.Context(), currentUser(r.Context()), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
