// Package models holds the ledger and incentive engine: accounts and
// their transaction lifecycle, credit card validation, the boost cashback
// rules, and the referral program. It knows nothing about HTTP or storage.
package models

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the ledger for one user: a balance, the credit cards on
// file, up to two boosts, and three disjoint transaction buckets
// (pending, completed, failed).
//
// Every operation that reads-then-writes state runs under the account's
// mutex. Two-party operations (SendMoney, MakePurchase, RequestMoney,
// ResolveRequest) lock both accounts in ascending id order so that
// opposite-direction transfers between the same pair cannot deadlock,
// and both sides are updated inside one critical section.
type Account struct {
	mu        sync.Mutex
	id        uuid.UUID
	owner     *User
	balance   decimal.Decimal
	cards     []CreditCard
	boosts    []BoostType
	pending   []*Transaction
	completed []*Transaction
	failed    []*Transaction
}

// NewAccount creates an account for the given owner with an initial
// balance. The owner's back-reference is attached separately.
func NewAccount(owner *User, initialBalance decimal.Decimal) *Account {
	return &Account{
		id:      uuid.New(),
		owner:   owner,
		balance: initialBalance,
	}
}

// RestoreAccount rebuilds an account shell from persisted state. Buckets
// are repopulated afterwards through AddToTransactions so that shared
// transactions keep a single identity across both sides.
func RestoreAccount(id uuid.UUID, owner *User, balance decimal.Decimal, cards []CreditCard, boosts []BoostType) *Account {
	return &Account{
		id:      id,
		owner:   owner,
		balance: balance,
		cards:   append([]CreditCard(nil), cards...),
		boosts:  append([]BoostType(nil), boosts...),
	}
}

// ID returns the account's immutable identifier.
func (a *Account) ID() uuid.UUID { return a.id }

// Owner returns the owning user.
func (a *Account) Owner() *User { return a.owner }

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// CreditCards returns a copy of the cards on file, in insertion order.
func (a *Account) CreditCards() []CreditCard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]CreditCard(nil), a.cards...)
}

// Boosts returns a copy of the held boost variants.
func (a *Account) Boosts() []BoostType {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]BoostType(nil), a.boosts...)
}

// PendingTransactions returns a copy of the pending bucket.
func (a *Account) PendingTransactions() []*Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Transaction(nil), a.pending...)
}

// CompletedTransactions returns a copy of the completed bucket.
func (a *Account) CompletedTransactions() []*Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Transaction(nil), a.completed...)
}

// FailedTransactions returns a copy of the failed bucket.
func (a *Account) FailedTransactions() []*Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Transaction(nil), a.failed...)
}

// Deposit adds amount to the balance, funded by the given card. The card
// must pass the validity check at this moment; nothing is recorded for a
// rejected deposit. Returns the new balance.
func (a *Account) Deposit(card CreditCard, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if !card.IsValid() {
		return decimal.Zero, ErrInvalidCard
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	return a.balance, nil
}

// Withdraw removes amount from the balance via the given card. Card
// validity is checked before funds sufficiency.
func (a *Account) Withdraw(card CreditCard, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !card.IsValid() {
		return ErrInvalidCard
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount.GreaterThan(a.balance) {
		return ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amount)
	return nil
}

// ReceiveMoney unconditionally credits the balance. Used for incoming
// transfers and referral reward payouts.
func (a *Account) ReceiveMoney(amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
}

// SendMoney transfers amount to target. On sufficient funds both
// balances change and a complete transaction lands in both completed
// buckets; otherwise balances are untouched and a failed transaction
// lands in both failed buckets. Insufficient funds is an outcome, not an
// error: the caller gets the record either way.
func (a *Account) SendMoney(target *Account, amount decimal.Decimal) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if target == a {
		return nil, ErrSameAccount
	}
	a.lockPair(target)
	defer a.unlockPair(target)

	if a.balance.GreaterThanOrEqual(amount) {
		a.balance = a.balance.Sub(amount)
		target.balance = target.balance.Add(amount)
		tx := newTransaction(a.owner.Username, target.owner.Username, amount, StatusComplete)
		a.addLocked(tx)
		target.addLocked(tx)
		return tx, nil
	}

	tx := newTransaction(a.owner.Username, target.owner.Username, amount, StatusFailed)
	a.addLocked(tx)
	target.addLocked(tx)
	return tx, nil
}

// MakePurchase is SendMoney against a merchant, plus cashback: on
// success every held boost is evaluated against the merchant's business
// category and the summed cashback is credited with the debit, so the
// net balance change is cashback - amount.
func (a *Account) MakePurchase(merchant *Account, amount decimal.Decimal) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if merchant == a {
		return nil, ErrSameAccount
	}
	a.lockPair(merchant)
	defer a.unlockPair(merchant)

	if a.balance.GreaterThanOrEqual(amount) {
		cashback := a.cashbackLocked(amount, merchant.owner.Category)
		a.balance = a.balance.Sub(amount).Add(cashback)
		merchant.balance = merchant.balance.Add(amount)
		tx := newTransaction(a.owner.Username, merchant.owner.Username, amount, StatusComplete)
		a.addLocked(tx)
		merchant.addLocked(tx)
		return tx, nil
	}

	tx := newTransaction(a.owner.Username, merchant.owner.Username, amount, StatusFailed)
	a.addLocked(tx)
	merchant.addLocked(tx)
	return tx, nil
}

// RequestMoney records a pending request for amount from counterpart.
// No balance changes; the pending record appears on both sides. The
// request stays pending until ResolveRequest finalizes it.
func (a *Account) RequestMoney(counterpart *Account, amount decimal.Decimal) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if counterpart == a {
		return nil, ErrSameAccount
	}
	a.lockPair(counterpart)
	defer a.unlockPair(counterpart)

	tx := newTransaction(counterpart.owner.Username, a.owner.Username, amount, StatusPending)
	a.addLocked(tx)
	counterpart.addLocked(tx)
	return tx, nil
}

// ResolveRequest finalizes a pending request. It is called on the payer
// (the account the money was requested from). Approving with sufficient
// funds moves the amount to the requester and completes the transaction;
// declining, or approving without funds, fails it. Either way the shared
// record moves out of both pending buckets into the matching bucket on
// both sides within one critical section.
func (a *Account) ResolveRequest(requester *Account, tx *Transaction, approve bool) error {
	if requester == a {
		return ErrSameAccount
	}
	a.lockPair(requester)
	defer a.unlockPair(requester)

	if tx.Status() != StatusPending {
		return ErrNotPending
	}

	a.removeLocked(tx)
	requester.removeLocked(tx)

	if approve && a.balance.GreaterThanOrEqual(tx.amount) {
		a.balance = a.balance.Sub(tx.amount)
		requester.balance = requester.balance.Add(tx.amount)
		if err := tx.complete(); err != nil {
			return err
		}
	} else {
		if err := tx.fail(); err != nil {
			return err
		}
	}

	a.addLocked(tx)
	requester.addLocked(tx)
	return nil
}

// AddToTransactions files tx into the bucket matching its status. This
// only touches this account's own view; the shared record itself is not
// modified.
func (a *Account) AddToTransactions(tx *Transaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addLocked(tx)
}

// RemoveFromTransactions removes tx from the bucket matching its status.
func (a *Account) RemoveFromTransactions(tx *Transaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removeLocked(tx)
}

// AddBoost adds a boost variant. It fails when the account already holds
// MaxBoostsPerAccount boosts or already holds this variant.
func (a *Account) AddBoost(b BoostType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.boosts) >= MaxBoostsPerAccount {
		return false
	}
	for _, held := range a.boosts {
		if held == b {
			return false
		}
	}
	a.boosts = append(a.boosts, b)
	return true
}

// RemoveBoost removes a boost variant; false if it is not held.
func (a *Account) RemoveBoost(b BoostType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, held := range a.boosts {
		if held == b {
			a.boosts = append(a.boosts[:i], a.boosts[i+1:]...)
			return true
		}
	}
	return false
}

// AddCreditCard stores a card on the account. Validity is not a gate
// here: an invalid card may be stored and is rejected only when used.
func (a *Account) AddCreditCard(card CreditCard) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.cards {
		if c == card {
			return
		}
	}
	a.cards = append(a.cards, card)
}

// DeleteCreditCard removes a card from the account; false if absent.
func (a *Account) DeleteCreditCard(card CreditCard) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.cards {
		if c == card {
			a.cards = append(a.cards[:i], a.cards[i+1:]...)
			return true
		}
	}
	return false
}

// CardByNumber finds a stored card by its number.
func (a *Account) CardByNumber(number int64) (CreditCard, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.cards {
		if c.CardNumber == number {
			return c, true
		}
	}
	return CreditCard{}, false
}

// PendingByID finds a transaction in the pending bucket by id.
func (a *Account) PendingByID(id uuid.UUID) (*Transaction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, tx := range a.pending {
		if tx.id == id {
			return tx, true
		}
	}
	return nil, false
}

func (a *Account) cashbackLocked(amount decimal.Decimal, category BusinessType) decimal.Decimal {
	total := decimal.Zero
	for _, b := range a.boosts {
		total = total.Add(b.Cashback(amount, category))
	}
	return total
}

func (a *Account) addLocked(tx *Transaction) {
	switch tx.Status() {
	case StatusPending:
		a.pending = append(a.pending, tx)
	case StatusComplete:
		a.completed = append(a.completed, tx)
	case StatusFailed:
		a.failed = append(a.failed, tx)
	}
}

func (a *Account) removeLocked(tx *Transaction) {
	remove := func(bucket []*Transaction) []*Transaction {
		for i, t := range bucket {
			if t == tx {
				return append(bucket[:i], bucket[i+1:]...)
			}
		}
		return bucket
	}
	switch tx.Status() {
	case StatusPending:
		a.pending = remove(a.pending)
	case StatusComplete:
		a.completed = remove(a.completed)
	case StatusFailed:
		a.failed = remove(a.failed)
	}
}

// lockPair locks both accounts in ascending id order.
func (a *Account) lockPair(b *Account) {
	if bytes.Compare(a.id[:], b.id[:]) < 0 {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
}

func (a *Account) unlockPair(b *Account) {
	b.mu.Unlock()
	a.mu.Unlock()
}
