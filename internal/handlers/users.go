package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"household/internal/services"
)

const maxAvatarBytes = 5 << 20

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Me(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.users.UpdateProfile(r.Context(), identity(r), req.Name, req.Email)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UploadAvatar takes a multipart form with the image in the "avatar" field.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	url, err := h.users.SetAvatar(r.Context(), identity(r), file, ext)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to store avatar")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

type smtpRequest struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
	Secure    bool   `json:"secure"`
}

func (h *Handler) UpdateSMTP(w http.ResponseWriter, r *http.Request) {
	var req smtpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.users.UpdateSMTP(r.Context(), identity(r), services.SMTPInput{
		Host:      req.Host,
		Port:      req.Port,
		User:      req.User,
		Password:  req.Password,
		FromEmail: req.FromEmail,
		Secure:    req.Secure,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to save smtp settings")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ScheduleDeletion(w http.ResponseWriter, r *http.Request) {
	at, err := h.users.ScheduleDeletion(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to schedule deletion")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"deletion_scheduled_at": at})
}

func (h *Handler) CancelDeletion(w http.ResponseWriter, r *http.Request) {
	if err := h.users.CancelDeletion(r.Context(), identity(r)); err != nil {
		h.respondServiceError(w, r, err, "unable to cancel deletion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeFile serves a stored blob when the signed token in the query matches
// the handle.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if err := h.files.Verify(handle, r.URL.Query().Get("token")); err != nil {
		respondError(w, http.StatusForbidden, "invalid or expired link")
		return
	}
	path, err := h.files.Path(handle)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid file handle")
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeFile(w, r, path)
}
