package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"household/internal/services"
)

type debtRequest struct {
	Name               string `json:"name"`
	Creditor           string `json:"creditor"`
	TotalValue         string `json:"total_value"`
	PaidValue          string `json:"paid_value"`
	MonthlyInstallment string `json:"monthly_installment"`
	DueDay             int    `json:"due_day"`
}

func (req debtRequest) input() (services.DebtInput, error) {
	total, err := parseAmountMinor(req.TotalValue)
	if err != nil {
		return services.DebtInput{}, err
	}
	paid, err := parseOptionalMinor(req.PaidValue)
	if err != nil {
		return services.DebtInput{}, err
	}
	installment, err := parseOptionalMinor(req.MonthlyInstallment)
	if err != nil {
		return services.DebtInput{}, err
	}
	return services.DebtInput{
		Name:               req.Name,
		Creditor:           req.Creditor,
		TotalValue:         total,
		PaidValue:          paid,
		MonthlyInstallment: installment,
		DueDay:             req.DueDay,
	}, nil
}

func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.records.ListDebts(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load debts")
		return
	}
	respondJSON(w, http.StatusOK, mapViews(debts, newDebtView))
}

func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	debt, err := h.records.CreateDebt(r.Context(), identity(r), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create debt")
		return
	}
	respondJSON(w, http.StatusCreated, newDebtView(debt))
}

func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	debt, err := h.records.UpdateDebt(r.Context(), identity(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update debt")
		return
	}
	respondJSON(w, http.StatusOK, newDebtView(debt))
}

func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteDebt(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to delete debt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	Amount    string `json:"amount"`
	AccountID string `json:"account_id"`
	Date      string `json:"date"`
}

func (h *Handler) PayDebt(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.ledger.PayDebt(r.Context(), identity(r), services.DebtPaymentInput{
		DebtID:    chi.URLParam(r, "id"),
		AccountID: req.AccountID,
		Amount:    amount,
		Date:      date,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to record payment")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"debt":        newDebtView(result.Debt),
		"transaction": newTransactionView(result.Transaction),
	})
}
