package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"household/internal/services"
)

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.records.ListAccounts(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load accounts")
		return
	}
	respondJSON(w, http.StatusOK, mapViews(accounts, newAccountView))
}

type accountRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Bank    string `json:"bank"`
	Balance string `json:"balance"`
}

func (req accountRequest) input() (services.AccountInput, error) {
	balance, err := parseOptionalMinor(req.Balance)
	if err != nil {
		return services.AccountInput{}, err
	}
	return services.AccountInput{Name: req.Name, Type: req.Type, Bank: req.Bank, Balance: balance}, nil
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := h.records.CreateAccount(r.Context(), identity(r), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create account")
		return
	}
	respondJSON(w, http.StatusCreated, newAccountView(account))
}

// UpdateAccount ignores any balance in the body; balances move only through
// the ledger.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.records.UpdateAccount(r.Context(), identity(r), chi.URLParam(r, "id"), services.AccountInput{
		Name: req.Name,
		Type: req.Type,
		Bank: req.Bank,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update account")
		return
	}
	respondJSON(w, http.StatusOK, newAccountView(account))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteAccount(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
