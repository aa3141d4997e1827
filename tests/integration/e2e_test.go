//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerpay/peerpay-backend/internal/adapter/repository/postgres"
)

var (
	db         *postgres.DB
	baseURL    string
	httpClient *http.Client
)

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	// 1. Connect to Database
	var err error
	db, err = postgres.NewDB(getDBConnectionString(), 5, 2)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	// 2. Point the HTTP client at the running server
	baseURL = os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	httpClient = &http.Client{Timeout: 10 * time.Second}

	code := m.Run()

	os.Exit(code)
}

// getDBConnectionString returns the database connection string from environment or defaults
func getDBConnectionString() string {
	connStr := os.Getenv("DB_CONN_STR")
	if connStr != "" {
		return connStr
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	user := os.Getenv("DB_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "peerpay"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// call performs one JSON request against the running server
func call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// signupUser registers a fresh user with a unique email and returns its
// email, token, and account ID
func signupUser(t *testing.T) (string, string, string) {
	t.Helper()

	email := fmt.Sprintf("e2e-%s@example.com", uuid.New().String()[:8])
	status, body := call(t, http.MethodPost, "/api/auth/signup", "", map[string]interface{}{
		"email":    email,
		"password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusCreated, status, "signup should succeed for %s", email)

	token := body["token"].(string)
	account := body["account"].(map[string]interface{})
	return email, token, account["id"].(string)
}

// dbBalance reads an account balance straight from the database
func dbBalance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()

	var balanceStr string
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balanceStr)
	require.NoError(t, err, "should be able to query balance for %s", accountID)

	balance, err := decimal.NewFromString(balanceStr)
	require.NoError(t, err)
	return balance
}

// TestEndToEndTransferFlow tests the complete flow: signup -> transfer -> history
func TestEndToEndTransferFlow(t *testing.T) {
	senderEmail, senderToken, senderID := signupUser(t)
	recipientEmail, recipientToken, recipientID := signupUser(t)

	senderBefore := dbBalance(t, senderID)
	recipientBefore := dbBalance(t, recipientID)

	// Step A: Execute a transfer
	amount := decimal.RequireFromString("123.45")
	status, body := call(t, http.MethodPost, "/api/transfers", senderToken, map[string]interface{}{
		"recipient_email": recipientEmail,
		"amount":          amount.String(),
		"description":     "integration transfer",
	})
	require.Equal(t, http.StatusCreated, status, "transfer should succeed: %v", body)
	assert.Equal(t, true, body["success"])
	txnID := body["transaction_id"].(string)
	require.NotEmpty(t, txnID)

	txn := body["transaction"].(map[string]interface{})
	assert.Equal(t, "completed", txn["status"])
	assert.Equal(t, senderEmail, txn["sender_email"])
	assert.Equal(t, recipientEmail, txn["receiver_email"])

	// Step B: Verify both balances moved in the database
	senderAfter := dbBalance(t, senderID)
	recipientAfter := dbBalance(t, recipientID)
	assert.True(t, senderAfter.Equal(senderBefore.Sub(amount)),
		"sender balance should decrease: got %s, expected %s", senderAfter, senderBefore.Sub(amount))
	assert.True(t, recipientAfter.Equal(recipientBefore.Add(amount)),
		"recipient balance should increase: got %s, expected %s", recipientAfter, recipientBefore.Add(amount))

	// Step C: Both participants can read the transaction
	status, body = call(t, http.MethodGet, "/api/transfers/"+txnID, senderToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "123.45", body["amount"])

	status, _ = call(t, http.MethodGet, "/api/transfers/"+txnID, recipientToken, nil)
	require.Equal(t, http.StatusOK, status)

	// Step D: It shows up in the sender's sent history
	status, body = call(t, http.MethodGet, "/api/transfers?direction=sent", senderToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])

	// Step E: A stranger cannot read it
	_, strangerToken, _ := signupUser(t)
	status, _ = call(t, http.MethodGet, "/api/transfers/"+txnID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

// TestInsufficientFundsRecordsFailedTransaction verifies the failed audit
// record is committed even though no funds move
func TestInsufficientFundsRecordsFailedTransaction(t *testing.T) {
	_, senderToken, senderID := signupUser(t)
	recipientEmail, _, _ := signupUser(t)

	senderBefore := dbBalance(t, senderID)
	over := senderBefore.Add(decimal.RequireFromString("0.01"))

	status, body := call(t, http.MethodPost, "/api/transfers", senderToken, map[string]interface{}{
		"recipient_email": recipientEmail,
		"amount":          over.String(),
	})
	require.Equal(t, http.StatusPaymentRequired, status, "over-balance transfer should be rejected: %v", body)
	assert.Equal(t, false, body["success"])
	txnID := body["transaction_id"].(string)
	require.NotEmpty(t, txnID)

	// The failed record exists in the ledger
	var recordedStatus string
	err := db.QueryRow(`SELECT status FROM transactions WHERE id = $1`, txnID).Scan(&recordedStatus)
	require.NoError(t, err, "failed transaction record should be committed")
	assert.Equal(t, "failed", recordedStatus)

	// And no funds moved
	senderAfter := dbBalance(t, senderID)
	assert.True(t, senderAfter.Equal(senderBefore), "sender balance should be unchanged")
}

// TestNegativeScenarios tests error handling for invalid inputs
func TestNegativeScenarios(t *testing.T) {
	senderEmail, senderToken, _ := signupUser(t)
	recipientEmail, _, _ := signupUser(t)

	t.Run("SelfTransfer", func(t *testing.T) {
		status, body := call(t, http.MethodPost, "/api/transfers", senderToken, map[string]interface{}{
			"recipient_email": senderEmail,
			"amount":          "10.00",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "self_transfer", body["error"])
	})

	t.Run("UnknownRecipient", func(t *testing.T) {
		status, body := call(t, http.MethodPost, "/api/transfers", senderToken, map[string]interface{}{
			"recipient_email": "nobody-" + uuid.New().String() + "@example.com",
			"amount":          "10.00",
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "recipient_not_found", body["error"])
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		status, body := call(t, http.MethodPost, "/api/transfers", senderToken, map[string]interface{}{
			"recipient_email": recipientEmail,
			"amount":          "-5.00",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_amount", body["error"])
	})

	t.Run("MissingToken", func(t *testing.T) {
		status, _ := call(t, http.MethodPost, "/api/transfers", "", map[string]interface{}{
			"recipient_email": recipientEmail,
			"amount":          "10.00",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("DuplicateSignup", func(t *testing.T) {
		status, body := call(t, http.MethodPost, "/api/auth/signup", "", map[string]interface{}{
			"email":    senderEmail,
			"password": "An0therPass",
		})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "email_taken", body["error"])
	})
}
