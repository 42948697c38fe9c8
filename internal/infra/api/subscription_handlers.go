package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionCreateRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	sub, err := s.subs.Create(r.Context(), currentUser(r.Context()), req.PublicationID, req.DurationMonths, req.AutoRenew)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

func (s *Server) handleListMySubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subs.ListMine(r.Context(), currentUser(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionList(subs))
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.subs.Cancel(r.Context(), currentUser(r.Context()), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
