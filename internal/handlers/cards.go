package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alicelovescake/cashapp/internal/models"
)

type cardRequest struct {
	Issuer      string `json:"issuer"`
	CardNumber  int64  `json:"card_number"`
	ExpiryYear  int    `json:"expiry_year"`
	ExpiryMonth int    `json:"expiry_month"`
}

type cardView struct {
	Issuer      string `json:"issuer"`
	CardNumber  int64  `json:"card_number"`
	ExpiryYear  int    `json:"expiry_year"`
	ExpiryMonth int    `json:"expiry_month"`
	Valid       bool   `json:"valid"`
}

// ListCards handles GET /api/v1/accounts/{id}/cards. Validity is
// recomputed per card at read time.
func (s *Server) ListCards(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	cards := account.CreditCards()
	out := make([]cardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardView{
			Issuer:      c.Issuer,
			CardNumber:  c.CardNumber,
			ExpiryYear:  c.ExpiryYear,
			ExpiryMonth: c.ExpiryMonth,
			Valid:       c.IsValid(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": out})
}

// AddCard handles POST /api/v1/accounts/{id}/cards. An invalid card is
// accepted and stored; it is rejected only when used.
func (s *Server) AddCard(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CardNumber <= 0 {
		writeError(w, http.StatusBadRequest, "card_number is required")
		return
	}

	card := models.NewCreditCard(req.Issuer, req.CardNumber, req.ExpiryYear, req.ExpiryMonth)
	account.AddCreditCard(card)
	writeJSON(w, http.StatusCreated, cardView{
		Issuer:      card.Issuer,
		CardNumber:  card.CardNumber,
		ExpiryYear:  card.ExpiryYear,
		ExpiryMonth: card.ExpiryMonth,
		Valid:       card.IsValid(),
	})
}

// DeleteCard handles DELETE /api/v1/accounts/{id}/cards/{number}.
func (s *Server) DeleteCard(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	number, err := strconv.ParseInt(r.PathValue("number"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card number")
		return
	}
	card, found := account.CardByNumber(number)
	if !found || !account.DeleteCreditCard(card) {
		writeError(w, http.StatusNotFound, "no such card on this account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "card removed"})
}
