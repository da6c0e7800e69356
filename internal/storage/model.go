// Package storage persists ledger snapshots. It defines the serialized
// shapes and two backends (a JSON file and Postgres) behind one Store
// interface; it carries no business logic.
package storage

import (
	"context"
	"time"
)

// Store reads and writes whole-ledger snapshots.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// Meta describes a snapshot for debugging and future schema migration.
type Meta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// PersistCard is a credit card at rest.
type PersistCard struct {
	Issuer      string `json:"issuer"`
	CardNumber  int64  `json:"card_number"`
	ExpiryYear  int    `json:"expiry_year"`
	ExpiryMonth int    `json:"expiry_month"`
}

// PersistTransaction is a transaction at rest. A transaction shared by
// two accounts appears once under each; the restore path re-links them
// by id. Amounts are decimal strings to survive the round trip exactly.
type PersistTransaction struct {
	ID                string    `json:"id"`
	Date              time.Time `json:"date"`
	SenderUsername    string    `json:"sender_username"`
	RecipientUsername string    `json:"recipient_username"`
	Amount            string    `json:"amount"`
	Status            string    `json:"status"`
}

// PersistUser is a user and their referral program state at rest.
type PersistUser struct {
	Username        string   `json:"username"`
	Location        string   `json:"location"`
	Type            string   `json:"type"`
	FirstName       string   `json:"first_name,omitempty"`
	LastName        string   `json:"last_name,omitempty"`
	CompanyName     string   `json:"company_name,omitempty"`
	Category        string   `json:"category,omitempty"`
	PasswordHash    string   `json:"password_hash,omitempty"`
	ReferredEmails  []string `json:"referred_emails,omitempty"`
	RewardedThrough int      `json:"rewarded_through,omitempty"`
}

// PersistAccount is one account with its owner and full observable
// state: balance, cards, boosts, and the three transaction buckets.
type PersistAccount struct {
	ID        string               `json:"id"`
	User      PersistUser          `json:"user"`
	Balance   string               `json:"balance"`
	Cards     []PersistCard        `json:"cards,omitempty"`
	Boosts    []string             `json:"boosts,omitempty"`
	Pending   []PersistTransaction `json:"pending,omitempty"`
	Completed []PersistTransaction `json:"completed,omitempty"`
	Failed    []PersistTransaction `json:"failed,omitempty"`
}

// Snapshot is the complete persisted ledger state.
type Snapshot struct {
	Meta     Meta             `json:"_meta"`
	Accounts []PersistAccount `json:"accounts"`
}
