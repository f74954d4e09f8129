package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"household/internal/middleware"
	"household/internal/scope"
	"household/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps a service sentinel to the HTTP status it surfaces as. Unknown
// errors are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrFamilyBudgetLocked),
		errors.Is(err, services.ErrNotFamilyAdmin):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrFamilyNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyInFamily),
		errors.Is(err, services.ErrFamilyFull),
		errors.Is(err, services.ErrAccountLimitReached),
		errors.Is(err, services.ErrAdminMustTransfer):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrSameAccountTransfer),
		errors.Is(err, services.ErrNotInFamily),
		errors.Is(err, services.ErrAdminAccountMissing),
		errors.Is(err, services.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes the sentinel's message, or a generic one for
// infrastructure failures which are logged instead.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error(fallback)
		respondError(w, status, fallback)
		return
	}
	respondError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// identity returns the caller or an anonymous identity. Read routes serve
// anonymous callers empty results.
func identity(r *http.Request) scope.Identity {
	id, _ := middleware.IdentityFromContext(r.Context())
	return id
}

func bearerToken(r *http.Request) string {
	return strings.TrimSpace(middleware.TokenFromRequest(r))
}
