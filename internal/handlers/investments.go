package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"household/internal/money"
	"household/internal/services"
)

type investmentRequest struct {
	Ticker    string `json:"ticker"`
	Kind      string `json:"kind"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	AccountID string `json:"account_id"`
}

func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.records.ListInvestments(r.Context(), identity(r))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load investments")
		return
	}
	respondJSON(w, http.StatusOK, mapViews(investments, newInvestmentView))
}

func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := parseAmountMinor(req.UnitPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	investment, err := h.ledger.CreateInvestment(r.Context(), identity(r), services.InvestmentInput{
		Ticker:    req.Ticker,
		Kind:      req.Kind,
		Quantity:  req.Quantity,
		UnitPrice: price,
		AccountID: req.AccountID,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create investment")
		return
	}
	respondJSON(w, http.StatusCreated, newInvestmentView(investment))
}

// UpdateInvestment edits the descriptive fields and price. Quantity changes
// go through a sale.
func (h *Handler) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := parseAmountMinor(req.UnitPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	investment, err := h.records.UpdateInvestment(r.Context(), identity(r), chi.URLParam(r, "id"), services.InvestmentDetails{
		Ticker:    req.Ticker,
		Kind:      req.Kind,
		UnitPrice: price,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update investment")
		return
	}
	respondJSON(w, http.StatusOK, newInvestmentView(investment))
}

func (h *Handler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteInvestment(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to delete investment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type saleRequest struct {
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	AccountID string `json:"account_id"`
}

func (h *Handler) SellInvestment(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := parseAmountMinor(req.UnitPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.ledger.SellInvestment(r.Context(), identity(r), services.InvestmentSaleInput{
		InvestmentID: chi.URLParam(r, "id"),
		Quantity:     req.Quantity,
		UnitPrice:    price,
		AccountID:    req.AccountID,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to sell investment")
		return
	}
	payload := map[string]any{"proceeds": money.FormatMinor(result.Proceeds)}
	if result.Investment != nil {
		payload["investment"] = newInvestmentView(*result.Investment)
	} else {
		payload["investment"] = nil
	}
	respondJSON(w, http.StatusOK, payload)
}
