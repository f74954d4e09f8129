package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"household/internal/models"
)

type familyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	family, err := h.families.Create(r.Context(), identity(r), req.Name)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create family")
		return
	}
	respondJSON(w, http.StatusCreated, family)
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *Handler) JoinFamily(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	family, err := h.families.Join(r.Context(), identity(r), req.Code)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to join family")
		return
	}
	respondJSON(w, http.StatusOK, family)
}

func (h *Handler) LeaveFamily(w http.ResponseWriter, r *http.Request) {
	if err := h.families.Leave(r.Context(), identity(r)); err != nil {
		h.respondServiceError(w, r, err, "unable to leave family")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetFamily(w http.ResponseWriter, r *http.Request) {
	view, err := h.families.Get(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load family")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) ListFamilyMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.families.Members(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load members")
		return
	}
	respondJSON(w, http.StatusOK, members)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) SetFamilyRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.families.SetRole(r.Context(), identity(r), chi.URLParam(r, "userID"), models.Role(req.Role))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to change role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferAdminRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) TransferFamilyAdmin(w http.ResponseWriter, r *http.Request) {
	var req transferAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.families.TransferAdmin(r.Context(), identity(r), req.UserID); err != nil {
		h.respondServiceError(w, r, err, "unable to transfer admin role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
