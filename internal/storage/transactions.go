package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SadLabib/Spendit/internal/core"
)

const transactionColumns = `t.id, t.category_id, t.amount_cents, t.note, t.date, t.version,
	c.id, c.user_id, c.title, c.icon, c.type`

func scanTransaction(scan func(...any) error) (*core.Transaction, error) {
	var t core.Transaction
	var c core.Category
	var note sql.NullString
	err := scan(&t.ID, &t.CategoryID, &t.Amount.Cents, &note, &t.Date, &t.Version,
		&c.ID, &c.UserID, &c.Title, &c.Icon, &c.Type)
	if err != nil {
		return nil, err
	}
	t.Note = note.String
	t.Category = &c
	return &t, nil
}

// ListTransactions returns the user's transactions ordered by id, each
// with its category attached.
func (r *Repository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE c.user_id = ?
		ORDER BY t.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// GetTransaction fetches one transaction, scoped to the category
// owner.
func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.id = ? AND c.user_id = ?`, id, userID)

	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// CreateTransaction inserts a transaction after verifying the target
// category belongs to the user.
func (r *Repository) CreateTransaction(ctx context.Context, userID int64, t *core.Transaction) error {
	if _, err := r.GetCategory(ctx, userID, t.CategoryID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (category_id, amount_cents, note, date) VALUES (?, ?, ?, ?)`,
		t.CategoryID, t.Amount.Cents, t.Note, t.Date)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create transaction id: %w", err)
	}
	t.ID = id
	t.Version = 1
	return nil
}

// UpdateTransaction applies an edit guarded by the row version. A
// stale version on a row that still exists yields core.ErrConcurrency;
// a row that disappeared underneath the edit yields core.ErrNotFound.
func (r *Repository) UpdateTransaction(ctx context.Context, userID int64, t *core.Transaction) error {
	if _, err := r.GetCategory(ctx, userID, t.CategoryID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, amount_cents = ?, note = ?, date = ?,
		       version = version + 1
		WHERE id = ? AND version = ?
		  AND category_id IN (SELECT id FROM categories WHERE user_id = ?)`,
		t.CategoryID, t.Amount.Cents, t.Note, t.Date, t.ID, t.Version, userID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		if _, err := r.GetTransaction(ctx, userID, t.ID); err != nil {
			return err
		}
		return core.ErrConcurrency
	}
	t.Version++
	return nil
}

// DeleteTransaction removes a transaction. Deleting a transaction that
// no longer exists succeeds.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE id = ? AND category_id IN (SELECT id FROM categories WHERE user_id = ?)`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}
