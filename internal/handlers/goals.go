package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"household/internal/services"
)

type goalRequest struct {
	Name         string `json:"name"`
	TargetAmount string `json:"target_amount"`
	Deadline     string `json:"deadline"`
}

func (req goalRequest) input() (services.GoalInput, error) {
	target, err := parseAmountMinor(req.TargetAmount)
	if err != nil {
		return services.GoalInput{}, err
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		return services.GoalInput{}, err
	}
	return services.GoalInput{Name: req.Name, TargetAmount: target, Deadline: deadline}, nil
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.records.ListGoals(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load goals")
		return
	}
	respondJSON(w, http.StatusOK, mapViews(goals, newGoalView))
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := h.records.CreateGoal(r.Context(), identity(r), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create goal")
		return
	}
	respondJSON(w, http.StatusCreated, newGoalView(goal))
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := h.records.UpdateGoal(r.Context(), identity(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update goal")
		return
	}
	respondJSON(w, http.StatusOK, newGoalView(goal))
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteGoal(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type depositRequest struct {
	Amount    string `json:"amount"`
	AccountID string `json:"account_id"`
}

func (h *Handler) DepositGoal(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := h.ledger.AddGoalFunds(r.Context(), identity(r), services.GoalDepositInput{
		GoalID:    chi.URLParam(r, "id"),
		Amount:    amount,
		AccountID: req.AccountID,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to add funds")
		return
	}
	respondJSON(w, http.StatusOK, newGoalView(goal))
}
