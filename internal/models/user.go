package models

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// UserType distinguishes the two user variants.
type UserType string

const (
	UserPersonal UserType = "personal"
	UserBusiness UserType = "business"
)

// BusinessType categorizes a business user; boost eligibility keys on the
// merchant's category.
type BusinessType string

const (
	BusinessCafe       BusinessType = "cafe"
	BusinessGrocery    BusinessType = "grocery"
	BusinessRetailer   BusinessType = "retailer"
	BusinessRestaurant BusinessType = "restaurant"
	BusinessOther      BusinessType = "other"
)

// ValidBusinessType reports whether t names a known category.
func ValidBusinessType(t BusinessType) bool {
	switch t {
	case BusinessCafe, BusinessGrocery, BusinessRetailer, BusinessRestaurant, BusinessOther:
		return true
	}
	return false
}

// Referral program constants.
const ReferralCountForReward = 3

// CashBackForReferral is credited to the user's account each time the
// referral counter crosses a multiple of ReferralCountForReward.
var CashBackForReferral = decimal.NewFromInt(10)

// User is an identity plus referral program state. A user owns at most
// one Account; the account is created separately and attached afterwards
// (the account holds the user, the user holds a non-owning back-reference).
type User struct {
	Username string   `json:"username"`
	Location string   `json:"location"`
	Type     UserType `json:"type"`

	// Personal users
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	// Business users
	CompanyName string       `json:"company_name,omitempty"`
	Category    BusinessType `json:"category,omitempty"`

	mu              sync.Mutex
	account         *Account
	passwordHash    string
	referrals       map[string]struct{}
	referralCount   int
	rewardedThrough int
}

// NewPersonalUser creates a personal user with no account attached.
func NewPersonalUser(username, location, firstName, lastName string) *User {
	return &User{
		Username:  username,
		Location:  location,
		Type:      UserPersonal,
		FirstName: firstName,
		LastName:  lastName,
		referrals: make(map[string]struct{}),
	}
}

// NewBusinessUser creates a business user with no account attached.
func NewBusinessUser(username, location, companyName string, category BusinessType) *User {
	return &User{
		Username:    username,
		Location:    location,
		Type:        UserBusiness,
		CompanyName: companyName,
		Category:    category,
		referrals:   make(map[string]struct{}),
	}
}

// AttachAccount wires the user to its account. This is the second phase
// of construction: the account is built with the user, then the user is
// pointed back at the account.
func (u *User) AttachAccount(a *Account) {
	u.account = a
}

// Account returns the attached account, or nil before attachment.
func (u *User) Account() *Account {
	return u.account
}

// SetPasswordHash stores the credential hash. The hash lives on the user
// so it survives snapshot round trips together with the rest of the
// account state.
func (u *User) SetPasswordHash(hash string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.passwordHash = hash
}

// PasswordHash returns the stored credential hash, or "" if none is set.
func (u *User) PasswordHash() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.passwordHash
}

// ReferFriend records a referral. It returns true exactly once per
// distinct email; repeat referrals of the same address return false and
// leave the counter unchanged. Business users cannot refer.
func (u *User) ReferFriend(email string) bool {
	if u.Type == UserBusiness {
		return false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, seen := u.referrals[email]; seen {
		return false
	}
	u.referrals[email] = struct{}{}
	u.referralCount++
	return true
}

// ReferralReward credits CashBackForReferral to the attached account when
// the referral counter has just crossed a multiple of
// ReferralCountForReward. The same crossing is never credited twice.
func (u *User) ReferralReward() bool {
	if u.Type == UserBusiness {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.referralCount == 0 || u.referralCount%ReferralCountForReward != 0 {
		return false
	}
	if u.referralCount == u.rewardedThrough {
		return false
	}
	u.rewardedThrough = u.referralCount
	if u.account != nil {
		u.account.ReceiveMoney(CashBackForReferral)
	}
	return true
}

// ReferralCount returns how many distinct friends this user has referred.
func (u *User) ReferralCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.referralCount
}

// RewardedThrough returns the counter value at the last credited crossing.
func (u *User) RewardedThrough() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rewardedThrough
}

// ReferredEmails returns the referred addresses in sorted order, for
// persistence.
func (u *User) ReferredEmails() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.referrals))
	for e := range u.referrals {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// RestoreReferrals rebuilds referral state from persisted data.
func (u *User) RestoreReferrals(emails []string, rewardedThrough int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.referrals = make(map[string]struct{}, len(emails))
	for _, e := range emails {
		u.referrals[strings.ToLower(e)] = struct{}{}
	}
	u.referralCount = len(u.referrals)
	u.rewardedThrough = rewardedThrough
}
