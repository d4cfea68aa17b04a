package repository

import (
	"context"
	"time"

	"scamfeed/internal/domain"

	"github.com/jackc/pgx/v5"
)

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a ledger row. CreatedAt is taken from tx when set so the
// ledger and the daily markers agree on the clock.
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.WalletTransaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO wallet_transactions (id, wallet_id, amount, type, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tx.ID, tx.WalletID, tx.Amount, tx.Type, tx.Note, tx.CreatedAt,
	)
	return err
}

// GetByUserID returns recent transactions for a user, newest first
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.wallet_id, t.amount, t.type, COALESCE(t.note, ''), t.created_at
		 FROM wallet_transactions t
		 JOIN wallets w ON w.id = t.wallet_id
		 WHERE w.user_id = $1
		 ORDER BY t.created_at DESC, t.id
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// GetByUserIDSince returns transactions created after since, oldest first
func (r *TransactionRepository) GetByUserIDSince(ctx context.Context, userID string, since time.Time) ([]*domain.WalletTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.wallet_id, t.amount, t.type, COALESCE(t.note, ''), t.created_at
		 FROM wallet_transactions t
		 JOIN wallets w ON w.id = t.wallet_id
		 WHERE w.user_id = $1 AND t.created_at > $2
		 ORDER BY t.created_at, t.id`,
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRows(rows)
}

func (r *TransactionRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM wallet_transactions t
		 JOIN wallets w ON w.id = t.wallet_id
		 WHERE w.user_id = $1`,
		userID,
	).Scan(&n)
	return n, err
}

// Helper to scan rows into Transaction slice
func (r *TransactionRepository) scanRows(rows pgx.Rows) ([]*domain.WalletTransaction, error) {
	var result []*domain.WalletTransaction

	for rows.Next() {
		var tx domain.WalletTransaction
		if err := rows.Scan(&tx.ID, &tx.WalletID, &tx.Amount, &tx.Type, &tx.Note, &tx.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &tx)
	}

	return result, rows.Err()
}
