package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	notifications, err := h.records.ListNotifications(r.Context(), identity(r), unreadOnly)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load notifications")
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.records.MarkNotificationRead(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to update notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.records.MarkAllNotificationsRead(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteNotification(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to delete notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaging(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	entries, err := h.records.ListActivity(r.Context(), identity(r), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load activity")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
