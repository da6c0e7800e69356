package models

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a money movement attempt.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusComplete TransactionStatus = "complete"
	StatusFailed   TransactionStatus = "failed"
)

// Transaction records one money movement attempt. It is shared by pointer
// between the two accounts it links, so a status transition is visible
// identically from either side. Fields are read-only after creation; the
// only mutation is the one-time pending -> complete/failed transition,
// which the status mutex guards so readers never race a resolution.
type Transaction struct {
	id                uuid.UUID
	date              time.Time
	senderUsername    string
	recipientUsername string
	amount            decimal.Decimal

	mu     sync.Mutex
	status TransactionStatus
}

func newTransaction(sender, recipient string, amount decimal.Decimal, status TransactionStatus) *Transaction {
	return &Transaction{
		id:                uuid.New(),
		date:              time.Now().UTC(),
		senderUsername:    sender,
		recipientUsername: recipient,
		amount:            amount,
		status:            status,
	}
}

// RestoreTransaction rebuilds a transaction from persisted state. Used by
// the snapshot restore path only; live transactions are created by the
// account operations.
func RestoreTransaction(id uuid.UUID, date time.Time, sender, recipient string, amount decimal.Decimal, status TransactionStatus) *Transaction {
	return &Transaction{
		id:                id,
		date:              date,
		senderUsername:    sender,
		recipientUsername: recipient,
		amount:            amount,
		status:            status,
	}
}

func (t *Transaction) ID() uuid.UUID             { return t.id }
func (t *Transaction) Date() time.Time           { return t.date }
func (t *Transaction) SenderUsername() string    { return t.senderUsername }
func (t *Transaction) RecipientUsername() string { return t.recipientUsername }
func (t *Transaction) Amount() decimal.Decimal   { return t.amount }

// Status returns the current lifecycle state.
func (t *Transaction) Status() TransactionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// complete finalizes a pending transaction as complete.
func (t *Transaction) complete() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return ErrNotPending
	}
	t.status = StatusComplete
	return nil
}

// fail finalizes a pending transaction as failed.
func (t *Transaction) fail() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return ErrNotPending
	}
	t.status = StatusFailed
	return nil
}

// MarshalJSON exposes the read-only view of the transaction.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID                uuid.UUID         `json:"id"`
		Date              time.Time         `json:"date"`
		SenderUsername    string            `json:"sender_username"`
		RecipientUsername string            `json:"recipient_username"`
		Amount            decimal.Decimal   `json:"amount"`
		Status            TransactionStatus `json:"status"`
	}{t.id, t.date, t.senderUsername, t.recipientUsername, t.amount, t.Status()})
}
