// Package ledger is the in-memory registry of users and accounts. It
// owns account creation (including the two-phase user/account wiring)
// and converts the live ledger to and from storage snapshots.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alicelovescake/cashapp/internal/models"
	"github.com/alicelovescake/cashapp/internal/storage"
)

var (
	// ErrNotFound means no account or user matches the identifier.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken means the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
)

// Ledger indexes accounts by id and users by username. Account state is
// owned by the accounts themselves; the ledger only guards its indexes.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*models.Account
	users    map[string]*models.User
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[uuid.UUID]*models.Account),
		users:    make(map[string]*models.User),
	}
}

// OpenAccount registers the user, creates their account with the given
// initial balance, and attaches the back-reference. Usernames are unique.
func (l *Ledger) OpenAccount(u *models.User, initialBalance decimal.Decimal) (*models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.users[u.Username]; exists {
		return nil, ErrUsernameTaken
	}
	a := models.NewAccount(u, initialBalance)
	u.AttachAccount(a)
	l.users[u.Username] = u
	l.accounts[a.ID()] = a
	return a, nil
}

// Account looks up an account by id.
func (l *Ledger) Account(id uuid.UUID) (*models.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// UserByUsername looks up a user by username.
func (l *Ledger) UserByUsername(username string) (*models.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// Accounts returns all accounts, ordered by id for deterministic output.
func (l *Ledger) Accounts() []*models.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID().String() < out[j].ID().String()
	})
	return out
}

// Snapshot exports the full ledger state for persistence.
func (l *Ledger) Snapshot() storage.Snapshot {
	snap := storage.Snapshot{
		Meta: storage.Meta{Version: 1, Timestamp: time.Now().UTC()},
	}
	for _, a := range l.Accounts() {
		snap.Accounts = append(snap.Accounts, persistAccount(a))
	}
	return snap
}

// Restore replaces the ledger's contents with the snapshot's. A
// transaction recorded on both sides of a transfer is re-linked to a
// single shared instance, so post-restore status transitions stay
// visible from both accounts.
func (l *Ledger) Restore(snap storage.Snapshot) error {
	accounts := make(map[uuid.UUID]*models.Account, len(snap.Accounts))
	users := make(map[string]*models.User, len(snap.Accounts))
	shared := make(map[uuid.UUID]*models.Transaction)

	for _, pa := range snap.Accounts {
		id, err := uuid.Parse(pa.ID)
		if err != nil {
			return fmt.Errorf("account id %q: %w", pa.ID, err)
		}
		balance, err := decimal.NewFromString(pa.Balance)
		if err != nil {
			return fmt.Errorf("account %s balance %q: %w", pa.ID, pa.Balance, err)
		}

		u, err := restoreUser(pa.User)
		if err != nil {
			return err
		}
		if _, dup := users[u.Username]; dup {
			return fmt.Errorf("duplicate username %q in snapshot", u.Username)
		}

		cards := make([]models.CreditCard, 0, len(pa.Cards))
		for _, c := range pa.Cards {
			cards = append(cards, models.NewCreditCard(c.Issuer, c.CardNumber, c.ExpiryYear, c.ExpiryMonth))
		}
		boosts := make([]models.BoostType, 0, len(pa.Boosts))
		for _, b := range pa.Boosts {
			boosts = append(boosts, models.BoostType(b))
		}

		a := models.RestoreAccount(id, u, balance, cards, boosts)
		u.AttachAccount(a)

		for _, bucket := range [][]storage.PersistTransaction{pa.Pending, pa.Completed, pa.Failed} {
			for _, pt := range bucket {
				tx, err := restoreTransaction(pt, shared)
				if err != nil {
					return err
				}
				a.AddToTransactions(tx)
			}
		}

		users[u.Username] = u
		accounts[id] = a
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = accounts
	l.users = users
	return nil
}

func persistAccount(a *models.Account) storage.PersistAccount {
	u := a.Owner()
	pa := storage.PersistAccount{
		ID:      a.ID().String(),
		Balance: a.Balance().String(),
		User: storage.PersistUser{
			Username:        u.Username,
			Location:        u.Location,
			Type:            string(u.Type),
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			CompanyName:     u.CompanyName,
			Category:        string(u.Category),
			PasswordHash:    u.PasswordHash(),
			ReferredEmails:  u.ReferredEmails(),
			RewardedThrough: u.RewardedThrough(),
		},
	}
	for _, c := range a.CreditCards() {
		pa.Cards = append(pa.Cards, storage.PersistCard{
			Issuer:      c.Issuer,
			CardNumber:  c.CardNumber,
			ExpiryYear:  c.ExpiryYear,
			ExpiryMonth: c.ExpiryMonth,
		})
	}
	for _, b := range a.Boosts() {
		pa.Boosts = append(pa.Boosts, string(b))
	}
	pa.Pending = persistBucket(a.PendingTransactions())
	pa.Completed = persistBucket(a.CompletedTransactions())
	pa.Failed = persistBucket(a.FailedTransactions())
	return pa
}

func persistBucket(bucket []*models.Transaction) []storage.PersistTransaction {
	out := make([]storage.PersistTransaction, 0, len(bucket))
	for _, tx := range bucket {
		out = append(out, storage.PersistTransaction{
			ID:                tx.ID().String(),
			Date:              tx.Date(),
			SenderUsername:    tx.SenderUsername(),
			RecipientUsername: tx.RecipientUsername(),
			Amount:            tx.Amount().String(),
			Status:            string(tx.Status()),
		})
	}
	return out
}

func restoreUser(pu storage.PersistUser) (*models.User, error) {
	var u *models.User
	switch models.UserType(pu.Type) {
	case models.UserPersonal:
		u = models.NewPersonalUser(pu.Username, pu.Location, pu.FirstName, pu.LastName)
	case models.UserBusiness:
		u = models.NewBusinessUser(pu.Username, pu.Location, pu.CompanyName, models.BusinessType(pu.Category))
	default:
		return nil, fmt.Errorf("user %q: unknown type %q", pu.Username, pu.Type)
	}
	u.SetPasswordHash(pu.PasswordHash)
	u.RestoreReferrals(pu.ReferredEmails, pu.RewardedThrough)
	return u, nil
}

func restoreTransaction(pt storage.PersistTransaction, shared map[uuid.UUID]*models.Transaction) (*models.Transaction, error) {
	id, err := uuid.Parse(pt.ID)
	if err != nil {
		return nil, fmt.Errorf("transaction id %q: %w", pt.ID, err)
	}
	if tx, ok := shared[id]; ok {
		return tx, nil
	}
	amount, err := decimal.NewFromString(pt.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s amount %q: %w", pt.ID, pt.Amount, err)
	}
	status := models.TransactionStatus(pt.Status)
	switch status {
	case models.StatusPending, models.StatusComplete, models.StatusFailed:
	default:
		return nil, fmt.Errorf("transaction %s: unknown status %q", pt.ID, pt.Status)
	}
	tx := models.RestoreTransaction(id, pt.Date, pt.SenderUsername, pt.RecipientUsername, amount, status)
	shared[id] = tx
	return tx, nil
}
