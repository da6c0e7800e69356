package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alicelovescake/cashapp/internal/models"
)

// AccountView is the read-only JSON shape of an account.
type AccountView struct {
	ID       uuid.UUID          `json:"id"`
	Username string             `json:"username"`
	Type     models.UserType    `json:"type"`
	Balance  decimal.Decimal    `json:"balance"`
	Boosts   []models.BoostType `json:"boosts"`
	Cards    int                `json:"cards"`
}

func accountResponse(a *models.Account) AccountView {
	return AccountView{
		ID:       a.ID(),
		Username: a.Owner().Username,
		Type:     a.Owner().Type,
		Balance:  a.Balance(),
		Boosts:   a.Boosts(),
		Cards:    len(a.CreditCards()),
	}
}

// GetAccount handles GET /api/v1/accounts/{id}.
func (s *Server) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, accountResponse(account))
}

// GetBalance handles GET /api/v1/accounts/{id}/balance.
func (s *Server) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id": account.ID(),
		"balance":    account.Balance(),
	})
}

// ListTransactions handles GET /api/v1/accounts/{id}/transactions,
// returning all three buckets.
func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending":   account.PendingTransactions(),
		"completed": account.CompletedTransactions(),
		"failed":    account.FailedTransactions(),
	})
}

type cardOperationRequest struct {
	CardNumber int64           `json:"card_number"`
	Amount     decimal.Decimal `json:"amount"`
}

// Deposit handles POST /api/v1/accounts/{id}/deposit. The card is
// selected from the account's stored cards by number and revalidated at
// this moment.
func (s *Server) Deposit(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req cardOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card, ok := account.CardByNumber(req.CardNumber)
	if !ok {
		writeError(w, http.StatusBadRequest, "no such card on this account")
		return
	}

	balance, err := account.Deposit(card, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id": account.ID(),
		"balance":    balance,
	})
}

// Withdraw handles POST /api/v1/accounts/{id}/withdraw.
func (s *Server) Withdraw(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req cardOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card, ok := account.CardByNumber(req.CardNumber)
	if !ok {
		writeError(w, http.StatusBadRequest, "no such card on this account")
		return
	}

	if err := account.Withdraw(card, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id": account.ID(),
		"balance":    account.Balance(),
	})
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCard):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrSameAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotPending):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
