package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/peerpay/peerpay-backend/internal/domain"
)

// AccountResponse is the public view of an account. The password hash never
// leaves the server.
type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicAccountResponse is the view returned by recipient search. It omits the
// balance of other users.
type PublicAccountResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// TransactionResponse is the public view of a ledger entry.
type TransactionResponse struct {
	ID            string    `json:"id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	SenderEmail   string    `json:"sender_email,omitempty"`
	ReceiverEmail string    `json:"receiver_email,omitempty"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description,omitempty"`
	Status        string    `json:"status"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransferResponse is the result of a transfer attempt. Success is false for
// an insufficient-funds outcome, which still carries the recorded transaction.
type TransferResponse struct {
	Success       bool                 `json:"success"`
	TransactionID string               `json:"transaction_id"`
	Message       string               `json:"message"`
	Transaction   *TransactionResponse `json:"transaction,omitempty"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

// TransactionListResponse is a page of transaction history.
type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int                    `json:"total"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

func newAccountResponse(account *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        account.ID.String(),
		Email:     account.Email,
		FullName:  account.FullName,
		Balance:   account.Balance.StringFixed(2),
		CreatedAt: account.CreatedAt,
	}
}

func newPublicAccountResponse(account *domain.Account) *PublicAccountResponse {
	return &PublicAccountResponse{
		ID:       account.ID.String(),
		Email:    account.Email,
		FullName: account.FullName,
	}
}

func newTransactionResponse(txn *domain.Transaction, senderEmail, receiverEmail string) *TransactionResponse {
	return &TransactionResponse{
		ID:            txn.ID.String(),
		FromAccountID: txn.FromAccountID.String(),
		ToAccountID:   txn.ToAccountID.String(),
		SenderEmail:   senderEmail,
		ReceiverEmail: receiverEmail,
		Amount:        txn.Amount.StringFixed(2),
		Description:   txn.Description,
		Status:        string(txn.Status),
		Category:      string(txn.Category),
		CreatedAt:     txn.CreatedAt,
	}
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": code, "message": message}
}

// writeError translates domain errors to HTTP statuses. Anything unrecognized
// is a 500 with a generic message so internals never leak to clients.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrRecipientNotFound):
		c.JSON(http.StatusNotFound, errorBody("recipient_not_found", err.Error()))
	case errors.Is(err, domain.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, errorBody("account_not_found", err.Error()))
	case errors.Is(err, domain.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, errorBody("transaction_not_found", err.Error()))
	case errors.Is(err, domain.ErrSelfTransfer):
		c.JSON(http.StatusBadRequest, errorBody("self_transfer", err.Error()))
	case errors.Is(err, domain.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, errorBody("invalid_amount", err.Error()))
	case errors.Is(err, domain.ErrInvalidDescription):
		c.JSON(http.StatusBadRequest, errorBody("invalid_description", err.Error()))
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, errorBody("email_taken", err.Error()))
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorBody("invalid_credentials", err.Error()))
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, errorBody("forbidden", err.Error()))
	case errors.Is(err, domain.ErrTransferFailed):
		c.JSON(http.StatusInternalServerError, errorBody("transfer_failed", domain.ErrTransferFailed.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}
