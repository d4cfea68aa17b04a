package repository

import (
	"context"
	"errors"

	"scamfeed/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, user_id, balance, total_reports, total_quizzes, created_at, updated_at`

type WalletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetByUserID retrieves wallet by user ID
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return w, err
}

// Credit creates the wallet on first use and adds amount and counters in one statement
func (r *WalletRepository) Credit(ctx context.Context, userID string, amount int64, reports, quizzes int) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO wallets (id, user_id, balance, total_reports, total_quizzes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET balance       = wallets.balance + EXCLUDED.balance,
		    total_reports = wallets.total_reports + EXCLUDED.total_reports,
		    total_quizzes = wallets.total_quizzes + EXCLUDED.total_quizzes,
		    updated_at    = NOW()
		RETURNING `+walletColumns,
		uuid.NewString(), userID, amount, reports, quizzes,
	)
	w, err := scanWallet(row)
	if isForeignKeyViolation(err) {
		return nil, ErrNotFound
	}
	return w, err
}

// Debit deducts amount only if the balance covers it
func (r *WalletRepository) Debit(ctx context.Context, userID string, amount int64) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING `+walletColumns,
		userID, amount,
	)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// no wallet yet means a zero balance
		return nil, ErrInsufficientFunds
	}
	return w, err
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalReports, &w.TotalQuizzes, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
