package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"household/internal/services"
)

type budgetRequest struct {
	Category     string `json:"category"`
	MonthlyLimit string `json:"monthly_limit"`
}

func (req budgetRequest) input() (services.BudgetInput, error) {
	limit, err := parseAmountMinor(req.MonthlyLimit)
	if err != nil {
		return services.BudgetInput{}, err
	}
	return services.BudgetInput{Category: req.Category, MonthlyLimit: limit}, nil
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.records.ListBudgets(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load budgets")
		return
	}
	respondJSON(w, http.StatusOK, mapViews(budgets, newBudgetView))
}

func (h *Handler) BudgetStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.records.BudgetStatuses(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load budget status")
		return
	}
	respondJSON(w, http.StatusOK, mapViews(statuses, newBudgetStatusView))
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	budget, err := h.records.CreateBudget(r.Context(), identity(r), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create budget")
		return
	}
	respondJSON(w, http.StatusCreated, newBudgetView(budget))
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	budget, err := h.records.UpdateBudget(r.Context(), identity(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update budget")
		return
	}
	respondJSON(w, http.StatusOK, newBudgetView(budget))
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteBudget(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
