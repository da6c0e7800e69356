package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alicelovescake/cashapp/internal/auth"
	"github.com/alicelovescake/cashapp/internal/ledger"
	"github.com/alicelovescake/cashapp/internal/models"
)

// SignupRequest creates a user and their account in one step.
type SignupRequest struct {
	Username       string          `json:"username"`
	Password       string          `json:"password"`
	Location       string          `json:"location"`
	Type           string          `json:"type"` // personal or business
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	CompanyName    string          `json:"company_name,omitempty"`
	Category       string          `json:"category,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles POST /api/v1/signup.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.InitialBalance.IsNegative() {
		writeError(w, http.StatusBadRequest, "initial_balance cannot be negative")
		return
	}

	var user *models.User
	switch models.UserType(req.Type) {
	case models.UserPersonal:
		user = models.NewPersonalUser(req.Username, req.Location, req.FirstName, req.LastName)
	case models.UserBusiness:
		category := models.BusinessType(req.Category)
		if !models.ValidBusinessType(category) {
			writeError(w, http.StatusBadRequest, "category must be cafe, grocery, retailer, restaurant, or other")
			return
		}
		user = models.NewBusinessUser(req.Username, req.Location, req.CompanyName, category)
	default:
		writeError(w, http.StatusBadRequest, "type must be personal or business")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.WithError(err).Error("hash password")
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}
	user.SetPasswordHash(hash)

	account, err := s.ledger.OpenAccount(user, req.InitialBalance)
	if err == ledger.ErrUsernameTaken {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("open account")
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	s.logger.WithField("username", req.Username).Info("account created")
	writeJSON(w, http.StatusCreated, accountResponse(account))
}

// Login handles POST /api/v1/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	user, err := s.ledger.UserByUsername(req.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash(), req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := s.tokens.IssueTokens(req.Username)
	if err != nil {
		s.logger.WithError(err).Error("issue tokens")
		writeError(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Logout handles POST /api/v1/logout: the presented access token is
// blacklisted until it would have expired anyway, and the refresh token
// (sent in the body) with it, so the session cannot mint fresh pairs.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.blacklist.Revoke(r.Context(), token, s.tokens.AccessTTL()); err != nil {
		s.logger.WithError(err).Warn("blacklist access token")
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if err := s.blacklist.Revoke(r.Context(), req.RefreshToken, s.tokens.RefreshTTL()); err != nil {
			s.logger.WithError(err).Warn("blacklist refresh token")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Refresh handles POST /api/v1/refresh.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	if revoked, err := s.blacklist.Revoked(r.Context(), req.RefreshToken); err == nil && revoked {
		writeError(w, http.StatusUnauthorized, "token has been revoked")
		return
	}

	username, err := s.tokens.ValidateRefresh(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	pair, err := s.tokens.IssueTokens(username)
	if err != nil {
		s.logger.WithError(err).Error("issue tokens")
		writeError(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
