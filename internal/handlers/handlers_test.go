package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/alicelovescake/cashapp/internal/auth"
	"github.com/alicelovescake/cashapp/internal/events"
	"github.com/alicelovescake/cashapp/internal/ledger"
	"github.com/alicelovescake/cashapp/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, ledger.New())
}

func newTestServerWith(t *testing.T, book *ledger.Ledger) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := NewServer(
		book,
		storage.NewJSONStore(filepath.Join(t.TempDir(), "accounts.json")),
		events.NoopPublisher{},
		auth.NewTokenManager("test-secret", time.Minute),
		auth.NewMemoryBlacklist(),
		logger,
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// call sends a JSON request and decodes the JSON response into out (when
// out is non-nil). An empty token omits the Authorization header.
func call(t *testing.T, ts *httptest.Server, method, path, token string, body, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func signup(t *testing.T, ts *httptest.Server, req SignupRequest) AccountView {
	t.Helper()
	var view AccountView
	if code := call(t, ts, http.MethodPost, "/api/v1/signup", "", req, &view); code != http.StatusCreated {
		t.Fatalf("signup %s: status=%d", req.Username, code)
	}
	return view
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	var pair auth.TokenPair
	code := call(t, ts, http.MethodPost, "/api/v1/login", "",
		map[string]string{"username": username, "password": password}, &pair)
	if code != http.StatusOK {
		t.Fatalf("login %s: status=%d", username, code)
	}
	return pair.AccessToken
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func personalSignup(username string) SignupRequest {
	return SignupRequest{
		Username:  username,
		Password:  "hunter2",
		Location:  "Vancouver",
		Type:      "personal",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	if code := call(t, ts, http.MethodGet, "/health", "", nil, &body); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if body["status"] != "ok" {
		t.Fatalf("body=%v", body)
	}
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t)

	req := personalSignup("ada")
	req.Type = "alien"
	if code := call(t, ts, http.MethodPost, "/api/v1/signup", "", req, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown type: status=%d", code)
	}

	req = personalSignup("acme")
	req.Type = "business"
	req.Category = "casino"
	if code := call(t, ts, http.MethodPost, "/api/v1/signup", "", req, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown category: status=%d", code)
	}

	signup(t, ts, personalSignup("ada"))
	if code := call(t, ts, http.MethodPost, "/api/v1/signup", "", personalSignup("ada"), nil); code != http.StatusConflict {
		t.Fatalf("duplicate username: status=%d", code)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	view := signup(t, ts, personalSignup("ada"))

	path := "/api/v1/accounts/" + view.ID.String()
	if code := call(t, ts, http.MethodGet, path, "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: status=%d", code)
	}
	if code := call(t, ts, http.MethodGet, path, "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token: status=%d", code)
	}
}

func TestAccountOwnership(t *testing.T) {
	ts := newTestServer(t)
	ada := signup(t, ts, personalSignup("ada"))
	signup(t, ts, personalSignup("bob"))
	bobToken := login(t, ts, "bob", "hunter2")

	path := "/api/v1/accounts/" + ada.ID.String()
	if code := call(t, ts, http.MethodGet, path, bobToken, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign account: status=%d", code)
	}
}

func TestCardAndDepositFlow(t *testing.T) {
	ts := newTestServer(t)
	view := signup(t, ts, personalSignup("ada"))
	token := login(t, ts, "ada", "hunter2")
	base := "/api/v1/accounts/" + view.ID.String()

	card := map[string]interface{}{
		"issuer":       "visa",
		"card_number":  4111111111111111,
		"expiry_year":  time.Now().Year() + 2,
		"expiry_month": 1,
	}
	if code := call(t, ts, http.MethodPost, base+"/cards", token, card, nil); code != http.StatusCreated {
		t.Fatalf("add card: status=%d", code)
	}

	deposit := map[string]interface{}{"card_number": 4111111111111111, "amount": "100.50"}
	var depResp struct {
		Balance string `json:"balance"`
	}
	if code := call(t, ts, http.MethodPost, base+"/deposit", token, deposit, &depResp); code != http.StatusOK {
		t.Fatalf("deposit: status=%d", code)
	}
	if depResp.Balance != "100.5" {
		t.Fatalf("balance=%s want=100.5", depResp.Balance)
	}

	withdraw := map[string]interface{}{"card_number": 4111111111111111, "amount": "1000"}
	if code := call(t, ts, http.MethodPost, base+"/withdraw", token, withdraw, nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraw: status=%d", code)
	}

	var balResp struct {
		Balance string `json:"balance"`
	}
	if code := call(t, ts, http.MethodGet, base+"/balance", token, nil, &balResp); code != http.StatusOK {
		t.Fatalf("balance: status=%d", code)
	}
	if balResp.Balance != "100.5" {
		t.Fatalf("balance=%s want=100.5", balResp.Balance)
	}
}

func TestDepositUnknownCard(t *testing.T) {
	ts := newTestServer(t)
	view := signup(t, ts, personalSignup("ada"))
	token := login(t, ts, "ada", "hunter2")

	deposit := map[string]interface{}{"card_number": 999, "amount": "10"}
	code := call(t, ts, http.MethodPost, "/api/v1/accounts/"+view.ID.String()+"/deposit", token, deposit, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("status=%d", code)
	}
}

func TestSendMoneyFlow(t *testing.T) {
	ts := newTestServer(t)

	adaReq := personalSignup("ada")
	adaReq.InitialBalance = mustDecimal(t, "100")
	ada := signup(t, ts, adaReq)
	bob := signup(t, ts, personalSignup("bob"))
	token := login(t, ts, "ada", "hunter2")

	send := map[string]interface{}{"target_account_id": bob.ID, "amount": "40"}
	var tx struct {
		Status            string `json:"status"`
		SenderUsername    string `json:"sender_username"`
		RecipientUsername string `json:"recipient_username"`
	}
	code := call(t, ts, http.MethodPost, "/api/v1/accounts/"+ada.ID.String()+"/send", token, send, &tx)
	if code != http.StatusCreated {
		t.Fatalf("send: status=%d", code)
	}
	if tx.Status != "complete" || tx.SenderUsername != "ada" || tx.RecipientUsername != "bob" {
		t.Fatalf("tx=%+v", tx)
	}

	// Insufficient funds still returns 201 with a failed record.
	send["amount"] = "9999"
	code = call(t, ts, http.MethodPost, "/api/v1/accounts/"+ada.ID.String()+"/send", token, send, &tx)
	if code != http.StatusCreated || tx.Status != "failed" {
		t.Fatalf("failed send: status=%d tx=%+v", code, tx)
	}

	var txns struct {
		Completed []json.RawMessage `json:"completed"`
		Failed    []json.RawMessage `json:"failed"`
	}
	code = call(t, ts, http.MethodGet, "/api/v1/accounts/"+ada.ID.String()+"/transactions", token, nil, &txns)
	if code != http.StatusOK {
		t.Fatalf("transactions: status=%d", code)
	}
	if len(txns.Completed) != 1 || len(txns.Failed) != 1 {
		t.Fatalf("completed=%d failed=%d want 1/1", len(txns.Completed), len(txns.Failed))
	}
}

func TestRequestResolveFlow(t *testing.T) {
	ts := newTestServer(t)

	ada := signup(t, ts, personalSignup("ada"))
	bobReq := personalSignup("bob")
	bobReq.InitialBalance = mustDecimal(t, "100")
	bob := signup(t, ts, bobReq)
	adaToken := login(t, ts, "ada", "hunter2")
	bobToken := login(t, ts, "bob", "hunter2")

	request := map[string]interface{}{"target_account_id": bob.ID, "amount": "40"}
	var tx struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	code := call(t, ts, http.MethodPost, "/api/v1/accounts/"+ada.ID.String()+"/request", adaToken, request, &tx)
	if code != http.StatusCreated || tx.Status != "pending" {
		t.Fatalf("request: status=%d tx=%+v", code, tx)
	}

	// Only the payer can resolve; the requester does not own bob's account.
	resolvePath := fmt.Sprintf("/api/v1/accounts/%s/requests/%s/resolve", bob.ID, tx.ID)
	approve := map[string]bool{"approve": true}
	if code := call(t, ts, http.MethodPost, resolvePath, adaToken, approve, nil); code != http.StatusForbidden {
		t.Fatalf("requester resolving: status=%d", code)
	}

	var resolved struct {
		Status string `json:"status"`
	}
	if code := call(t, ts, http.MethodPost, resolvePath, bobToken, approve, &resolved); code != http.StatusOK {
		t.Fatalf("resolve: status=%d", code)
	}
	if resolved.Status != "complete" {
		t.Fatalf("status=%s want=complete", resolved.Status)
	}

	var bal struct {
		Balance string `json:"balance"`
	}
	call(t, ts, http.MethodGet, "/api/v1/accounts/"+ada.ID.String()+"/balance", adaToken, nil, &bal)
	if bal.Balance != "40" {
		t.Fatalf("requester balance=%s want=40", bal.Balance)
	}

	// A resolved request is gone from the pending bucket.
	if code := call(t, ts, http.MethodPost, resolvePath, bobToken, approve, nil); code != http.StatusNotFound {
		t.Fatalf("re-resolve: status=%d", code)
	}
}

func TestBoostEndpoints(t *testing.T) {
	ts := newTestServer(t)
	view := signup(t, ts, personalSignup("ada"))
	token := login(t, ts, "ada", "hunter2")
	base := "/api/v1/accounts/" + view.ID.String() + "/boosts"

	add := func(boost string) int {
		return call(t, ts, http.MethodPost, base, token, map[string]string{"type": boost}, nil)
	}
	if code := add("high_roller"); code != http.StatusCreated {
		t.Fatalf("add: status=%d", code)
	}
	if code := add("high_roller"); code != http.StatusConflict {
		t.Fatalf("duplicate: status=%d", code)
	}
	if code := add("mega_saver"); code != http.StatusBadRequest {
		t.Fatalf("unknown: status=%d", code)
	}
	if code := add("foodie"); code != http.StatusCreated {
		t.Fatalf("second: status=%d", code)
	}
	if code := add("shopaholic"); code != http.StatusConflict {
		t.Fatalf("over limit: status=%d", code)
	}
	if code := call(t, ts, http.MethodDelete, base+"/foodie", token, nil, nil); code != http.StatusOK {
		t.Fatalf("remove: status=%d", code)
	}
	if code := call(t, ts, http.MethodDelete, base+"/foodie", token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("remove absent: status=%d", code)
	}
}

func TestReferralEndpoints(t *testing.T) {
	ts := newTestServer(t)
	view := signup(t, ts, personalSignup("ada"))
	token := login(t, ts, "ada", "hunter2")

	refer := func(email string) map[string]interface{} {
		var resp map[string]interface{}
		code := call(t, ts, http.MethodPost, "/api/v1/referrals", token, map[string]string{"email": email}, &resp)
		if code != http.StatusOK {
			t.Fatalf("refer %s: status=%d", email, code)
		}
		return resp
	}

	if resp := refer("one@example.com"); resp["referred"] != true || resp["rewarded"] != false {
		t.Fatalf("first referral: %v", resp)
	}
	if resp := refer("one@example.com"); resp["referred"] != false {
		t.Fatalf("duplicate referral: %v", resp)
	}
	refer("two@example.com")
	if resp := refer("three@example.com"); resp["rewarded"] != true {
		t.Fatalf("third referral should reward: %v", resp)
	}

	var bal struct {
		Balance string `json:"balance"`
	}
	call(t, ts, http.MethodGet, "/api/v1/accounts/"+view.ID.String()+"/balance", token, nil, &bal)
	if bal.Balance != "10" {
		t.Fatalf("balance=%s want=10", bal.Balance)
	}

	var progress referralProgress
	if code := call(t, ts, http.MethodGet, "/api/v1/referrals", token, nil, &progress); code != http.StatusOK {
		t.Fatalf("progress: status=%d", code)
	}
	if progress.ReferralCount != 3 || progress.ReferralsUntilNext != 3 {
		t.Fatalf("progress=%+v", progress)
	}
}

func TestBusinessCannotRefer(t *testing.T) {
	ts := newTestServer(t)
	req := SignupRequest{
		Username:    "acme",
		Password:    "hunter2",
		Location:    "Vancouver",
		Type:        "business",
		CompanyName: "Acme Inc",
		Category:    "retailer",
	}
	signup(t, ts, req)
	token := login(t, ts, "acme", "hunter2")

	code := call(t, ts, http.MethodPost, "/api/v1/referrals", token, map[string]string{"email": "x@y.com"}, nil)
	if code != http.StatusForbidden {
		t.Fatalf("status=%d", code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	view := signup(t, ts, personalSignup("ada"))
	token := login(t, ts, "ada", "hunter2")
	path := "/api/v1/accounts/" + view.ID.String()

	if code := call(t, ts, http.MethodGet, path, token, nil, nil); code != http.StatusOK {
		t.Fatalf("before logout: status=%d", code)
	}
	if code := call(t, ts, http.MethodPost, "/api/v1/logout", token, nil, nil); code != http.StatusOK {
		t.Fatalf("logout: status=%d", code)
	}
	if code := call(t, ts, http.MethodGet, path, token, nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("after logout: status=%d", code)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, personalSignup("ada"))

	var pair auth.TokenPair
	call(t, ts, http.MethodPost, "/api/v1/login", "",
		map[string]string{"username": "ada", "password": "hunter2"}, &pair)

	code := call(t, ts, http.MethodPost, "/api/v1/logout", pair.AccessToken,
		map[string]string{"refresh_token": pair.RefreshToken}, nil)
	if code != http.StatusOK {
		t.Fatalf("logout: status=%d", code)
	}

	code = call(t, ts, http.MethodPost, "/api/v1/refresh", "",
		map[string]string{"refresh_token": pair.RefreshToken}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("a logged-out session must not mint fresh pairs: status=%d", code)
	}
}

func TestLoginSurvivesRestore(t *testing.T) {
	book := ledger.New()
	ts := newTestServerWith(t, book)
	view := signup(t, ts, personalSignup("ada"))
	login(t, ts, "ada", "hunter2")

	restored := ledger.New()
	if err := restored.Restore(book.Snapshot()); err != nil {
		t.Fatal(err)
	}
	ts2 := newTestServerWith(t, restored)

	token := login(t, ts2, "ada", "hunter2")
	path := "/api/v1/accounts/" + view.ID.String()
	if code := call(t, ts2, http.MethodGet, path, token, nil, nil); code != http.StatusOK {
		t.Fatalf("restored account should be reachable: status=%d", code)
	}

	code := call(t, ts2, http.MethodPost, "/api/v1/login", "",
		map[string]string{"username": "ada", "password": "wrong"}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("wrong password after restore: status=%d", code)
	}
}

func TestRefreshFlow(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, personalSignup("ada"))

	var pair auth.TokenPair
	call(t, ts, http.MethodPost, "/api/v1/login", "",
		map[string]string{"username": "ada", "password": "hunter2"}, &pair)

	var fresh auth.TokenPair
	code := call(t, ts, http.MethodPost, "/api/v1/refresh", "",
		map[string]string{"refresh_token": pair.RefreshToken}, &fresh)
	if code != http.StatusOK || fresh.AccessToken == "" {
		t.Fatalf("refresh: status=%d", code)
	}

	code = call(t, ts, http.MethodPost, "/api/v1/refresh", "",
		map[string]string{"refresh_token": "garbage"}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("bad refresh: status=%d", code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, personalSignup("ada"))
	token := login(t, ts, "ada", "hunter2")

	if code := call(t, ts, http.MethodPost, "/api/v1/snapshot", token, nil, nil); code != http.StatusOK {
		t.Fatalf("snapshot: status=%d", code)
	}
}
