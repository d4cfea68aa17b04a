package repository

import (
	"context"
	"errors"
	"time"

	"scamfeed/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicate         = errors.New("duplicate")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostFilter selects a page of the feed
type PostFilter struct {
	ScamType string
	Limit    int
	Offset   int
}

// Tx is the write side of the store. Everything done through one Tx commits or
// rolls back together.
type Tx interface {
	// ClaimActivity inserts the daily marker. It returns false, and changes
	// nothing, when a marker for the same user, type and day already exists.
	ClaimActivity(ctx context.Context, a *domain.DailyActivity) (bool, error)
	// CreditWallet creates the wallet if needed, adds amount and bumps the
	// counter matching kind.
	CreditWallet(ctx context.Context, userID string, amount int64, kind domain.ActivityType) (*domain.Wallet, error)
	// DebitWallet fails with ErrInsufficientFunds rather than go negative.
	DebitWallet(ctx context.Context, userID string, amount int64) (*domain.Wallet, error)
	AppendTransaction(ctx context.Context, t *domain.WalletTransaction) error

	CreatePost(ctx context.Context, p *domain.Post) error
	CreateScanResult(ctx context.Context, r *domain.ScanResult) error
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, likeCount int, err error)
	CreateComment(ctx context.Context, c *domain.Comment) error

	CreateUser(ctx context.Context, u *domain.User) error
}

// Store is the persistence collaborator used by the services.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error

	HasActivity(ctx context.Context, userID string, kind domain.ActivityType, day time.Time) (bool, error)
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	// TransactionsSince returns the user's ledger rows created strictly after since, oldest first.
	TransactionsSince(ctx context.Context, userID string, since time.Time) ([]*domain.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, int, error)

	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]*domain.Post, error)
	CountPosts(ctx context.Context, scamType string) (int, error)
	CountPostsSince(ctx context.Context, since time.Time) (int, error)
	RecentScamTypes(ctx context.Context, limit int) ([]string, error)
	ListComments(ctx context.Context, postID string) ([]*domain.Comment, error)

	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CountUsers(ctx context.Context) (int, error)

	CreateAuditLog(ctx context.Context, l *domain.AuditLog) error
}

// PgStore implements Store on a pgx pool.
type PgStore struct {
	pool *pgxpool.Pool

	users        *UserRepository
	wallets      *WalletRepository
	transactions *TransactionRepository
	activities   *ActivityRepository
	posts        *PostRepository
	comments     *CommentRepository
	audit        *AuditRepository
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{
		pool:         pool,
		users:        NewUserRepository(pool),
		wallets:      NewWalletRepository(pool),
		transactions: NewTransactionRepository(pool),
		activities:   NewActivityRepository(pool),
		posts:        NewPostRepository(pool),
		comments:     NewCommentRepository(pool),
		audit:        NewAuditRepository(pool),
	}
}

// WithTx runs fn inside a single database transaction
func (s *PgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newPgTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) HasActivity(ctx context.Context, userID string, kind domain.ActivityType, day time.Time) (bool, error) {
	return s.activities.Exists(ctx, userID, kind, day)
}

func (s *PgStore) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.wallets.GetByUserID(ctx, userID)
}

func (s *PgStore) TransactionsSince(ctx context.Context, userID string, since time.Time) ([]*domain.WalletTransaction, error) {
	return s.transactions.GetByUserIDSince(ctx, userID, since)
}

func (s *PgStore) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, int, error) {
	total, err := s.transactions.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.transactions.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *PgStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *PgStore) ListPosts(ctx context.Context, f PostFilter) ([]*domain.Post, error) {
	return s.posts.List(ctx, f)
}

func (s *PgStore) CountPosts(ctx context.Context, scamType string) (int, error) {
	return s.posts.Count(ctx, scamType)
}

func (s *PgStore) CountPostsSince(ctx context.Context, since time.Time) (int, error) {
	return s.posts.CountSince(ctx, since)
}

func (s *PgStore) RecentScamTypes(ctx context.Context, limit int) ([]string, error) {
	return s.posts.RecentScamTypes(ctx, limit)
}

func (s *PgStore) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	return s.comments.GetByPostID(ctx, postID)
}

func (s *PgStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *PgStore) CountUsers(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func (s *PgStore) CreateAuditLog(ctx context.Context, l *domain.AuditLog) error {
	return s.audit.Create(ctx, l)
}

// pgTx binds the table repositories to one pgx.Tx
type pgTx struct {
	users        *UserRepository
	wallets      *WalletRepository
	transactions *TransactionRepository
	activities   *ActivityRepository
	posts        *PostRepository
	comments     *CommentRepository
}

func newPgTx(tx pgx.Tx) *pgTx {
	return &pgTx{
		users:        NewUserRepository(tx),
		wallets:      NewWalletRepository(tx),
		transactions: NewTransactionRepository(tx),
		activities:   NewActivityRepository(tx),
		posts:        NewPostRepository(tx),
		comments:     NewCommentRepository(tx),
	}
}

func (t *pgTx) ClaimActivity(ctx context.Context, a *domain.DailyActivity) (bool, error) {
	return t.activities.Claim(ctx, a)
}

func (t *pgTx) CreditWallet(ctx context.Context, userID string, amount int64, kind domain.ActivityType) (*domain.Wallet, error) {
	reports, quizzes := kind.Counters()
	return t.wallets.Credit(ctx, userID, amount, reports, quizzes)
}

func (t *pgTx) DebitWallet(ctx context.Context, userID string, amount int64) (*domain.Wallet, error) {
	return t.wallets.Debit(ctx, userID, amount)
}

func (t *pgTx) AppendTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	return t.transactions.Create(ctx, tx)
}

func (t *pgTx) CreatePost(ctx context.Context, p *domain.Post) error {
	return t.posts.Create(ctx, p)
}

func (t *pgTx) CreateScanResult(ctx context.Context, r *domain.ScanResult) error {
	return t.posts.CreateScanResult(ctx, r)
}

func (t *pgTx) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	return t.posts.ToggleLike(ctx, postID, userID)
}

func (t *pgTx) CreateComment(ctx context.Context, c *domain.Comment) error {
	if err := t.posts.IncrementCommentCount(ctx, c.PostID); err != nil {
		return err
	}
	return t.comments.Create(ctx, c)
}

func (t *pgTx) CreateUser(ctx context.Context, u *domain.User) error {
	return t.users.Create(ctx, u)
}

// isUniqueViolation reports whether err is a Postgres unique_violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a Postgres foreign_key_violation
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
