package handlers

import (
	"net/http"

	"household/internal/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.users.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "registration failed")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err, "login failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Logout always succeeds for the client; an unknown token has nothing to end.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), bearerToken(r)); err != nil {
		h.respondServiceError(w, r, err, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
