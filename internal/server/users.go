package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"shelfmark/internal/app"
	"shelfmark/pkg/domain"
)

type registerResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.registerLimiter, "too many registration attempts") {
		s.audit(r, "register", "rate_limited")
		return
	}
	var req app.RegisterInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Register(r.Context(), req)
	if err != nil {
		s.audit(r, "register", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.audit(r, "register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, registerResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.audit(r, "login", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, registerResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		s.handleUpdateMe(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

// handleUpdateMe accepts multipart form data so the profile picture can
// ride along with name changes, and plain JSON when no file is involved.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	update := app.ProfileUpdate{}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		if v, ok := formValue(r, "firstName"); ok {
			update.FirstName = &v
		}
		if v, ok := formValue(r, "lastName"); ok {
			update.LastName = &v
		}
		if v, ok := formValue(r, "removeProfilePic"); ok {
			update.RemoveProfilePic = v == "true"
		}
		file, header, err := r.FormFile("profilePic")
		if err == nil {
			defer file.Close()
			if !s.isExtensionAllowed(header.Filename) {
				writeError(w, http.StatusBadRequest, "unsupported image type")
				return
			}
			update.ProfilePic = &app.Upload{Filename: header.Filename, Reader: file, Size: header.Size}
		} else if !errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
	} else {
		var req struct {
			FirstName        *string `json:"firstName"`
			LastName         *string `json:"lastName"`
			RemoveProfilePic bool    `json:"removeProfilePic"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		update.FirstName = req.FirstName
		update.LastName = req.LastName
		update.RemoveProfilePic = req.RemoveProfilePic
	}
	updated, err := s.app.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	if err := s.app.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.audit(r, "password.change", "fail", "user_id", user.ID, "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "password.change", "success", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// admin handlers
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id := pathSuffix(r.URL.Path, "/users/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteUser(r.Context(), admin.ID, id); err != nil {
		s.audit(r, "user.delete", "fail", "admin_id", admin.ID, "target_id", id, "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "user.delete", "success", "admin_id", admin.ID, "target_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id := pathSuffix(r.URL.Path, "/users/ban/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		IsBanned *bool `json:"isBanned"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IsBanned == nil {
		writeError(w, http.StatusBadRequest, "isBanned is required")
		return
	}
	user, err := s.app.SetUserBanned(r.Context(), id, *req.IsBanned)
	if err != nil {
		writeAppError(w, err)
		return
	}
	s.audit(r, "user.ban", "success",
		"admin_id", admin.ID, "target_id", id, "banned", strconv.FormatBool(*req.IsBanned))
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleRoleUser(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id := pathSuffix(r.URL.Path, "/users/role/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.SetUserRole(r.Context(), id, req.Role)
	if err != nil {
		writeAppError(w, err)
		return
	}
	s.audit(r, "user.role", "success", "admin_id", admin.ID, "target_id", id, "role", req.Role)
	writeJSON(w, http.StatusOK, user)
}

// pathSuffix extracts the trailing path element after prefix, rejecting
// nested paths.
func pathSuffix(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

// formValue distinguishes an absent form field from an empty one.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
