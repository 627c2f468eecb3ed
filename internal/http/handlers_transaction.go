package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SadLabib/Spendit/internal/core"
	"github.com/SadLabib/Spendit/internal/log"
	"github.com/SadLabib/Spendit/internal/storage"
)

// TransactionListView holds data for the transaction list page.
type TransactionListView struct {
	User         *storage.User
	Transactions []core.Transaction
}

// TransactionFormView holds data for the create/edit form.
type TransactionFormView struct {
	User        *storage.User
	Transaction core.Transaction
	Options     []core.CategoryOption
	AmountInput string
	Error       string
	Editing     bool
}

// TransactionDetailView holds data for the detail and delete pages.
type TransactionDetailView struct {
	User        *storage.User
	Transaction *core.Transaction
}

// pickerOptions returns the category picker for a user, cached per
// user with the placeholder option at the head.
func (s *Server) pickerOptions(ctx context.Context, userID int64) ([]core.CategoryOption, error) {
	if options, ok := s.options.Get(userID); ok {
		return options, nil
	}
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	options := core.PickerOptions(categories)
	s.options.Set(userID, options)
	return options, nil
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	transactions, err := s.store.ListTransactions(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list transactions",
			log.FieldError, err,
			log.FieldUserID, user.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "transactions.html", TransactionListView{User: user, Transactions: transactions})
}

func (s *Server) handleTransactionDetail(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	transaction, err := s.store.GetTransaction(r.Context(), user.ID, id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "transaction_detail.html", TransactionDetailView{User: user, Transaction: transaction})
}

func (s *Server) handleTransactionNew(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	options, err := s.pickerOptions(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "transaction_form.html", TransactionFormView{User: user, Options: options})
}

// parseTransactionForm builds a transaction from form values. The
// returned input string preserves what the user typed for re-display.
func parseTransactionForm(r *http.Request) (core.Transaction, string, error) {
	var t core.Transaction

	if err := r.ParseForm(); err != nil {
		return t, "", err
	}

	categoryID, _ := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	t.CategoryID = categoryID
	t.Note = sanitizeInput(r.FormValue("note"))

	amountInput := sanitizeInput(r.FormValue("amount"))
	cents, err := core.ParseDecimalToCents(amountInput)
	if err != nil {
		return t, amountInput, err
	}
	t.Amount = core.Money{Cents: cents}

	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		return t, amountInput, core.ErrZeroDate
	}
	t.Date = date

	return t, amountInput, nil
}

func (s *Server) renderTransactionForm(w http.ResponseWriter, r *http.Request, view TransactionFormView, status int) {
	user := currentUser(r)
	view.User = user
	options, err := s.pickerOptions(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	view.Options = options
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	s.render(w, r, "transaction_form.html", view)
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	t, amountInput, err := parseTransactionForm(r)
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		s.renderTransactionForm(w, r, TransactionFormView{
			Transaction: t,
			AmountInput: amountInput,
			Error:       formError(err),
		}, http.StatusUnprocessableEntity)
		return
	}

	if err := s.store.CreateTransaction(r.Context(), user.ID, &t); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.renderTransactionForm(w, r, TransactionFormView{
				Transaction: t,
				AmountInput: amountInput,
				Error:       "Please choose one of your categories",
			}, http.StatusUnprocessableEntity)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to create transaction",
			log.FieldError, err,
			log.FieldUserID, user.ID,
			log.FieldCategoryID, t.CategoryID,
			log.FieldAmountCents, t.Amount.Cents)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction created",
		log.FieldUserID, user.ID,
		log.FieldTransactionID, t.ID,
		log.FieldCategoryID, t.CategoryID,
		log.FieldAmountCents, t.Amount.Cents,
		log.FieldOperation, log.OpCreate)

	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleTransactionEditForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	transaction, err := s.store.GetTransaction(r.Context(), user.ID, id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.renderTransactionForm(w, r, TransactionFormView{
		Transaction: *transaction,
		AmountInput: fmt.Sprintf("%.2f", transaction.Amount.Dollars()),
		Editing:     true,
	}, http.StatusOK)
}

func (s *Server) handleTransactionEdit(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	t, amountInput, err := parseTransactionForm(r)
	if err == nil {
		// A payload id that contradicts the path is treated as a
		// request for a record that does not exist.
		if formID, convErr := strconv.ParseInt(r.FormValue("id"), 10, 64); convErr != nil || formID != id {
			err = core.ErrIDMismatch
		}
	}
	if errors.Is(err, core.ErrIDMismatch) {
		http.NotFound(w, r)
		return
	}
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		t.ID = id
		s.renderTransactionForm(w, r, TransactionFormView{
			Transaction: t,
			AmountInput: amountInput,
			Error:       formError(err),
			Editing:     true,
		}, http.StatusUnprocessableEntity)
		return
	}

	t.ID = id
	t.Version, _ = strconv.ParseInt(r.FormValue("version"), 10, 64)

	switch err := s.store.UpdateTransaction(r.Context(), user.ID, &t); {
	case errors.Is(err, core.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, core.ErrConcurrency):
		s.logger.ErrorContext(r.Context(), "Concurrent modification detected",
			log.FieldUserID, user.ID,
			log.FieldTransactionID, id)
		http.Error(w, "the record was modified by another request", http.StatusInternalServerError)
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Failed to update transaction",
			log.FieldError, err,
			log.FieldUserID, user.ID,
			log.FieldTransactionID, id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction updated",
		log.FieldUserID, user.ID,
		log.FieldTransactionID, id,
		log.FieldOperation, log.OpUpdate)

	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := parseID(r)
	if ok {
		// Deleting an already-removed record is fine.
		if err := s.store.DeleteTransaction(r.Context(), user.ID, id); err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to delete transaction",
				log.FieldError, err,
				log.FieldUserID, user.ID,
				log.FieldTransactionID, id)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.logger.InfoContext(r.Context(), "Transaction deleted",
			log.FieldUserID, user.ID,
			log.FieldTransactionID, id,
			log.FieldOperation, log.OpDelete)
	}
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

// formError maps validation errors to user-facing messages.
func formError(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Enter a non-zero amount"
	case errors.Is(err, core.ErrNoCategory):
		return "Choose a category"
	case errors.Is(err, core.ErrZeroDate):
		return "Enter a valid date"
	case errors.Is(err, core.ErrEmptyTitle):
		return "Enter a title"
	case errors.Is(err, core.ErrTitleTooLong):
		return "Title is too long (max 50 characters)"
	case errors.Is(err, core.ErrIconTooLong):
		return "Icon is too long (max 5 characters)"
	case errors.Is(err, core.ErrTypeTooLong):
		return "Type is too long (max 15 characters)"
	default:
		return "Invalid input"
	}
}
