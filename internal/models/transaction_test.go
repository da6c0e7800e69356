package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestTransactionLifecycle(t *testing.T) {
	tx := newTransaction("ada", "bob", decimal.NewFromInt(10), StatusPending)
	if tx.ID() == uuid.Nil {
		t.Fatal("transaction should get an id")
	}
	if tx.Date().IsZero() {
		t.Fatal("transaction should get a timestamp")
	}

	if err := tx.complete(); err != nil {
		t.Fatal(err)
	}
	if tx.Status() != StatusComplete {
		t.Fatalf("status=%s want=complete", tx.Status())
	}
	if err := tx.complete(); !errors.Is(err, ErrNotPending) {
		t.Fatalf("a second transition should be rejected, got %v", err)
	}
	if err := tx.fail(); !errors.Is(err, ErrNotPending) {
		t.Fatalf("complete -> failed should be rejected, got %v", err)
	}
}

func TestTransactionFail(t *testing.T) {
	tx := newTransaction("ada", "bob", decimal.NewFromInt(10), StatusPending)
	if err := tx.fail(); err != nil {
		t.Fatal(err)
	}
	if tx.Status() != StatusFailed {
		t.Fatalf("status=%s want=failed", tx.Status())
	}
}

func TestTransactionJSON(t *testing.T) {
	tx := newTransaction("ada", "bob", decimal.RequireFromString("12.34"), StatusComplete)
	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["sender_username"] != "ada" || got["recipient_username"] != "bob" {
		t.Fatalf("endpoints=%v->%v", got["sender_username"], got["recipient_username"])
	}
	if got["status"] != "complete" {
		t.Fatalf("status=%v", got["status"])
	}
	if got["amount"] != "12.34" {
		t.Fatalf("amount=%v want=\"12.34\"", got["amount"])
	}
}
