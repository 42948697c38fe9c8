package api

import (
	"fmt"
	"mime"
	"net/http"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/usecase"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	user, err := s.users.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// handleLogin accepts either a form post or a JSON body carrying the email
// or username under "login" (or "username" for OAuth2 password forms).
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		parse := r.ParseForm
		if ct == "multipart/form-data" {
			parse = func() error { return r.ParseMultipartForm(maxBodyBytes) }
		}
		if err := parse(); err != nil {
			writeError(w, r, s.log, fmt.Errorf("malformed form: %w", domain.ErrInvalidArgument))
			return
		}
		req.Login = r.PostFormValue("login")
		if req.Login == "" {
			req.Login = r.PostFormValue("username")
		}
		req.Password = r.PostFormValue("password")
		if err := s.validate.Struct(&req); err != nil {
			writeError(w, r, s.log, err)
			return
		}
	default:
		if err := s.decodeJSON(w, r, &req, false); err != nil {
			writeError(w, r, s.log, err)
			return
		}
	}

	token, err := s.users.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(currentUser(r.Context())))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	user, err := s.users.UpdateProfile(r.Context(), currentUser(r.Context()), usecase.ProfileUpdate{
		Username: req.Username,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.users.ChangePassword(r.Context(), currentUser(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	var req userStatusRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	upd := usecase.StatusUpdate{IsActive: req.IsActive}
	if req.Role != nil {
		role := model.UserRole(*req.Role)
		upd.Role = &role
	}
	user, err := s.users.SetStatus(r.Context(), currentUser(r.Context()), id, upd)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
