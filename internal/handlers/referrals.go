package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alicelovescake/cashapp/internal/models"
)

type referralProgress struct {
	ReferralCount       int    `json:"referral_count"`
	CountForReward      int    `json:"count_for_reward"`
	ReferralsUntilNext  int    `json:"referrals_until_next_reward"`
	CashBackForReferral string `json:"cash_back_for_referral"`
}

func progressFor(u *models.User) referralProgress {
	count := u.ReferralCount()
	remaining := models.ReferralCountForReward - count%models.ReferralCountForReward
	return referralProgress{
		ReferralCount:       count,
		CountForReward:      models.ReferralCountForReward,
		ReferralsUntilNext:  remaining,
		CashBackForReferral: models.CashBackForReferral.String(),
	}
}

// ReferFriend handles POST /api/v1/referrals. Referring the same email
// twice counts once; crossing the reward threshold credits the account
// in the same call.
func (s *Server) ReferFriend(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if user.Type == models.UserBusiness {
		writeError(w, http.StatusForbidden, "business users cannot refer friends")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	referred := user.ReferFriend(req.Email)
	rewarded := user.ReferralReward()
	if rewarded {
		s.logger.WithField("username", user.Username).Info("referral reward credited")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"referred": referred,
		"rewarded": rewarded,
		"progress": progressFor(user),
	})
}

// ReferralProgress handles GET /api/v1/referrals.
func (s *Server) ReferralProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if user.Type == models.UserBusiness {
		writeError(w, http.StatusForbidden, "business users cannot refer friends")
		return
	}
	writeJSON(w, http.StatusOK, progressFor(user))
}
