package domain

import "time"

// WalletTransaction is an append-only ledger entry. Amount is signed:
// grants are positive, redemptions negative.
type WalletTransaction struct {
	ID        string       `db:"id" json:"id"`
	WalletID  string       `db:"wallet_id" json:"wallet_id"`
	Amount    int64        `db:"amount" json:"amount"`
	Type      ActivityType `db:"type" json:"type"`
	Note      string       `db:"note" json:"description,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
