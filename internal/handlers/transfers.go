package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alicelovescake/cashapp/internal/models"
)

type transferRequest struct {
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// counterpart resolves the target account of a transfer-style request.
// Unlike accountFromPath it does not require ownership: the other side
// of a transfer belongs to someone else.
func (s *Server) counterpart(w http.ResponseWriter, id uuid.UUID) (*models.Account, bool) {
	account, err := s.ledger.Account(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "target account not found")
		return nil, false
	}
	return account, true
}

// SendMoney handles POST /api/v1/accounts/{id}/send. Insufficient funds
// is not an HTTP error: the response carries a transaction with status
// failed, recorded on both sides.
func (s *Server) SendMoney(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, ok := s.counterpart(w, req.TargetAccountID)
	if !ok {
		return
	}

	tx, err := account.SendMoney(target, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.publish(tx, "send")
	writeJSON(w, http.StatusCreated, tx)
}

// MakePurchase handles POST /api/v1/accounts/{id}/purchase. Cashback
// from eligible boosts is credited atomically with the debit.
func (s *Server) MakePurchase(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	merchant, ok := s.counterpart(w, req.TargetAccountID)
	if !ok {
		return
	}

	tx, err := account.MakePurchase(merchant, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.publish(tx, "purchase")
	writeJSON(w, http.StatusCreated, tx)
}

// RequestMoney handles POST /api/v1/accounts/{id}/request: a pending
// record appears on both sides, no balances change.
func (s *Server) RequestMoney(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	counterpart, ok := s.counterpart(w, req.TargetAccountID)
	if !ok {
		return
	}

	tx, err := account.RequestMoney(counterpart, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.publish(tx, "request")
	writeJSON(w, http.StatusCreated, tx)
}

// ResolveRequest handles POST /api/v1/accounts/{id}/requests/{txID}/resolve.
// The path account is the payer: the one the money was requested from.
func (s *Server) ResolveRequest(w http.ResponseWriter, r *http.Request) {
	payer, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	txID, err := uuid.Parse(r.PathValue("txID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, found := payer.PendingByID(txID)
	if !found {
		writeError(w, http.StatusNotFound, "no such pending request")
		return
	}

	requesterUser, err := s.ledger.UserByUsername(tx.RecipientUsername())
	if err != nil || requesterUser.Account() == nil {
		writeError(w, http.StatusConflict, "requesting account no longer exists")
		return
	}

	if err := payer.ResolveRequest(requesterUser.Account(), tx, req.Approve); err != nil {
		writeDomainError(w, err)
		return
	}
	s.publish(tx, "resolve")
	writeJSON(w, http.StatusOK, tx)
}
