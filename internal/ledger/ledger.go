package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

// Result reports what a credit attempt did
type Result string

const (
	// ResultApplied means the balance was incremented by this call
	ResultApplied Result = "applied"
	// ResultSkipped means an identical settlement already happened
	ResultSkipped Result = "skipped"
)

// Ledger owns the prepaid credit balance and its transaction history.
// Crediting is idempotent per (reference id, type): the transaction row
// is inserted before the balance moves, and a partial unique index on
// credit_transactions makes the insert the atomic guard. Whichever of
// two racing settlement paths loses the insert sees a unique violation
// and reports ResultSkipped without touching the balance.
type Ledger struct {
	db     *sql.DB
	logger logging.Logger
}

// New creates a ledger on the given database
func New(db *sql.DB, logger logging.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// GetBalance returns the user's current balance, zero if no row exists
func (l *Ledger) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := l.db.QueryRowContext(ctx,
		"SELECT balance FROM credit_balances WHERE user_id = $1", userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// Consume debits amount from the user's balance. Returns false with no
// mutation when the balance is insufficient. The decrement is a single
// conditional UPDATE so concurrent consumers cannot drive the balance
// negative.
func (l *Ledger) Consume(ctx context.Context, userID string, amount int64, description, referenceID string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("consume amount must be positive, got %d", amount)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE credit_balances
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1`,
		amount, userID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check decrement: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, amount, type, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), userID, -amount, models.TransactionConsumption, description, nullable(referenceID))
	if err != nil {
		return false, fmt.Errorf("failed to record consumption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit consumption: %w", err)
	}

	return true, nil
}

// Credit adds amount to the user's balance, creating the balance row if
// needed. A second call with the same referenceID and txType is a no-op
// returning ResultSkipped.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int64, txType models.TransactionType, description, referenceID string) (Result, error) {
	if amount <= 0 {
		return "", fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if referenceID == "" {
		return "", fmt.Errorf("credit requires a reference id")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, amount, type, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), userID, amount, txType, description, referenceID)
	if err != nil {
		if isUniqueViolation(err) {
			l.logger.WithFields(logging.Fields{
				"user_id":      userID,
				"reference_id": referenceID,
				"type":         txType,
			}).Info("Credit already applied, skipping")
			return ResultSkipped, nil
		}
		return "", fmt.Errorf("failed to record credit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_balances (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = credit_balances.balance + EXCLUDED.balance, updated_at = NOW()`,
		userID, amount)
	if err != nil {
		return "", fmt.Errorf("failed to increment balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit credit: %w", err)
	}

	return ResultApplied, nil
}

// ListTransactions returns the user's most recent ledger entries
func (l *Ledger) ListTransactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, amount, type, description, COALESCE(reference_id, ''), created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.CreditTransaction
	for rows.Next() {
		var t models.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
