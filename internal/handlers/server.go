// Package handlers is the HTTP shell over the ledger. It parses input,
// checks ownership, calls the domain operations, and translates domain
// errors to status codes. Business failures on transfer-style operations
// come back as a transaction with status failed, not as an HTTP error.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alicelovescake/cashapp/internal/auth"
	"github.com/alicelovescake/cashapp/internal/events"
	"github.com/alicelovescake/cashapp/internal/ledger"
	"github.com/alicelovescake/cashapp/internal/middleware"
	"github.com/alicelovescake/cashapp/internal/models"
	"github.com/alicelovescake/cashapp/internal/storage"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	ledger    *ledger.Ledger
	store     storage.Store
	events    events.Publisher
	tokens    *auth.TokenManager
	blacklist auth.Blacklist
	logger    *logrus.Logger
}

// NewServer wires up a server.
func NewServer(
	l *ledger.Ledger,
	store storage.Store,
	publisher events.Publisher,
	tokens *auth.TokenManager,
	blacklist auth.Blacklist,
	logger *logrus.Logger,
) *Server {
	return &Server{
		ledger:    l,
		store:     store,
		events:    publisher,
		tokens:    tokens,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Router builds the full route table: public auth routes plus the
// protected API behind the auth middleware, all wrapped in request
// logging.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /api/v1/signup", s.Signup)
	mux.HandleFunc("POST /api/v1/login", s.Login)
	mux.HandleFunc("POST /api/v1/refresh", s.Refresh)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/v1/logout", s.Logout)

	protected.HandleFunc("GET /api/v1/accounts/{id}", s.GetAccount)
	protected.HandleFunc("GET /api/v1/accounts/{id}/balance", s.GetBalance)
	protected.HandleFunc("GET /api/v1/accounts/{id}/transactions", s.ListTransactions)
	protected.HandleFunc("POST /api/v1/accounts/{id}/deposit", s.Deposit)
	protected.HandleFunc("POST /api/v1/accounts/{id}/withdraw", s.Withdraw)
	protected.HandleFunc("POST /api/v1/accounts/{id}/send", s.SendMoney)
	protected.HandleFunc("POST /api/v1/accounts/{id}/purchase", s.MakePurchase)
	protected.HandleFunc("POST /api/v1/accounts/{id}/request", s.RequestMoney)
	protected.HandleFunc("POST /api/v1/accounts/{id}/requests/{txID}/resolve", s.ResolveRequest)

	protected.HandleFunc("GET /api/v1/accounts/{id}/cards", s.ListCards)
	protected.HandleFunc("POST /api/v1/accounts/{id}/cards", s.AddCard)
	protected.HandleFunc("DELETE /api/v1/accounts/{id}/cards/{number}", s.DeleteCard)

	protected.HandleFunc("GET /api/v1/accounts/{id}/boosts", s.ListBoosts)
	protected.HandleFunc("POST /api/v1/accounts/{id}/boosts", s.AddBoost)
	protected.HandleFunc("DELETE /api/v1/accounts/{id}/boosts/{type}", s.RemoveBoost)

	protected.HandleFunc("POST /api/v1/referrals", s.ReferFriend)
	protected.HandleFunc("GET /api/v1/referrals", s.ReferralProgress)

	protected.HandleFunc("POST /api/v1/snapshot", s.SaveSnapshot)

	authMW := middleware.Auth(s.tokens, s.blacklist)
	mux.Handle("/api/v1/", authMW(protected))

	return middleware.Logging(s.logger)(mux)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accountFromPath resolves the {id} path segment to an account owned by
// the authenticated user. It writes the error response itself.
func (s *Server) accountFromPath(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return nil, false
	}
	account, err := s.ledger.Account(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "account not found")
		return nil, false
	}
	if account.Owner().Username != middleware.Username(r.Context()) {
		writeError(w, http.StatusForbidden, "account does not belong to you")
		return nil, false
	}
	return account, true
}

// currentUser resolves the authenticated user.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := s.ledger.UserByUsername(middleware.Username(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return nil, false
	}
	return user, true
}

func (s *Server) publish(tx *models.Transaction, operation string) {
	if err := s.events.PublishTransaction(events.FromTransaction(tx, operation)); err != nil {
		s.logger.WithError(err).Warn("publish transaction event")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
