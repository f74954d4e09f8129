package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"household/internal/models"
	"household/internal/money"
	"household/internal/services"
	"household/internal/store"
)

type transactionRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

func (req transactionRequest) input() (services.TransactionInput, error) {
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		return services.TransactionInput{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Description: req.Description,
		Type:        req.Type,
		Amount:      amount,
		Category:    req.Category,
		Date:        date,
		Status:      req.Status,
		Account:     services.AccountRef{ID: req.AccountID, Name: req.AccountName},
	}, nil
}

// transactionQuery reads the month, category and type filters.
func transactionQuery(r *http.Request) (store.TransactionQuery, error) {
	values := r.URL.Query()
	q := store.TransactionQuery{
		Category: values.Get("category"),
		Type:     values.Get("type"),
	}
	if month := values.Get("month"); month != "" {
		from, to, err := parseMonth(month)
		if err != nil {
			return store.TransactionQuery{}, err
		}
		q.From, q.To = from, to
	}
	return q, nil
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := transactionQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transactions, err := h.records.ListTransactions(r.Context(), identity(r), q)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, mapViews(transactions, newTransactionView))
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transaction, err := h.ledger.CreateTransaction(r.Context(), identity(r), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create transaction")
		return
	}
	respondJSON(w, http.StatusCreated, newTransactionView(transaction))
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transaction, err := h.ledger.UpdateTransaction(r.Context(), identity(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update transaction")
		return
	}
	respondJSON(w, http.StatusOK, newTransactionView(transaction))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteTransaction(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "unable to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Description   string `json:"description"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FromAccountID == "" || req.ToAccountID == "" {
		respondError(w, http.StatusBadRequest, "from_account_id and to_account_id are required")
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
	result, err := h.ledger.Transfer(r.Context(), identity(r), services.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Date:          date,
		Description:   req.Description,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "transfer failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"transfer_id": result.TransferID,
		"debit":       newTransactionView(result.Debit),
		"credit":      newTransactionView(result.Credit),
	})
}

var exportHeader = []any{"Date", "Description", "Category", "Type", "Amount", "Account", "Status"}

// ExportTransactions renders one month of visible transactions as a workbook.
// The month defaults to the current one.
func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	from, to, err := parseMonth(month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transactions, err := h.records.ListTransactions(r.Context(), identity(r), store.TransactionQuery{From: from, To: to})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load transactions")
		return
	}
	book, err := transactionWorkbook(transactions)
	if err != nil {
		h.log.WithError(err).Error("build transaction workbook")
		respondError(w, http.StatusInternalServerError, "unable to export transactions")
		return
	}
	defer book.Close()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions-%s.xlsx"`, month))
	if _, err := book.WriteTo(w); err != nil {
		h.log.WithError(err).Warn("write transaction workbook")
	}
}

func transactionWorkbook(transactions []models.Transaction) (*excelize.File, error) {
	book := excelize.NewFile()
	const sheet = "Transactions"
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		book.Close()
		return nil, err
	}
	if err := book.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		book.Close()
		return nil, err
	}
	var income, expense int64
	for i, t := range transactions {
		row := []any{
			t.Date.Format(dateLayout),
			t.Description,
			t.Category,
			t.Type,
			money.FormatMinor(t.SignedAmount()),
			t.AccountName,
			t.Status,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			book.Close()
			return nil, err
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			book.Close()
			return nil, err
		}
		if t.Type == models.TransactionIncome {
			income += t.Amount
		} else {
			expense += t.Amount
		}
	}
	totals := [][]any{
		{"Income", money.FormatMinor(income)},
		{"Expense", money.FormatMinor(expense)},
		{"Net", money.FormatMinor(income - expense)},
	}
	for i, total := range totals {
		cell, err := excelize.CoordinatesToCellName(4, len(transactions)+3+i)
		if err != nil {
			book.Close()
			return nil, err
		}
		if err := book.SetSheetRow(sheet, cell, &total); err != nil {
			book.Close()
			return nil, err
		}
	}
	return book, nil
}
