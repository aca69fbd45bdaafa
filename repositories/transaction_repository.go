package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/lib/pq"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionStateConflict means the row was not in the expected status
	// when a guarded status transition ran, e.g. a second settlement attempt.
	ErrTransactionStateConflict = errors.New("transaction is not in the expected status")
)

type TransactionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, txn *models.Transaction) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Transaction, error)
	ListByStatus(ctx context.Context, status models.TransactionStatus, limit, offset int) ([]models.Transaction, error)
	// ListDueForSettlement returns pending transactions of the given types
	// created before the cutoff, oldest first.
	ListDueForSettlement(ctx context.Context, types []models.TransactionType, createdBefore time.Time, limit int) ([]models.Transaction, error)
	// TransitionStatus moves a transaction from one status to another as a
	// single guarded UPDATE. It returns ErrTransactionStateConflict when the
	// row is no longer in the from status, which makes settlement idempotent.
	TransitionStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TransactionStatus) error
}

type postgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) TransactionRepository {
	return &postgresTransactionRepository{db: db}
}

func (r *postgresTransactionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const transactionColumns = `
	id, user_id, amount, type, method, status, reference_id, details, created_at, updated_at`

func (r *postgresTransactionRepository) scanTransaction(row interface {
	Scan(dest ...interface{}) error
}, t *models.Transaction) error {
	return row.Scan(
		&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Method, &t.Status,
		&t.ReferenceID, &t.Details, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *postgresTransactionRepository) Create(ctx context.Context, exec SQLExecutor, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, type, method, status, reference_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		txn.UserID, txn.Amount, txn.Type, txn.Method, txn.Status, txn.ReferenceID, txn.Details,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *postgresTransactionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions WHERE id = $1`

	t := &models.Transaction{}
	err := r.scanTransaction(r.getExecutor(exec).QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (r *postgresTransactionRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Transaction, error) {
	query := `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, userID, normalizeLimit(limit), offset)
}

func (r *postgresTransactionRepository) ListByStatus(ctx context.Context, status models.TransactionStatus, limit, offset int) ([]models.Transaction, error) {
	query := `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, status, normalizeLimit(limit), offset)
}

func (r *postgresTransactionRepository) ListDueForSettlement(ctx context.Context, types []models.TransactionType, createdBefore time.Time, limit int) ([]models.Transaction, error) {
	query := `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE status = $1 AND type = ANY($2::transaction_type[]) AND created_at < $3
		ORDER BY created_at ASC
		LIMIT $4`

	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}

	return r.list(ctx, query, models.StatusPending, pq.Array(typeNames), createdBefore, normalizeLimit(limit))
}

func (r *postgresTransactionRepository) TransitionStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to transition transaction status: %w", err)
	}
	return checkAffectedRows(result, ErrTransactionStateConflict)
}

func (r *postgresTransactionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := r.scanTransaction(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
