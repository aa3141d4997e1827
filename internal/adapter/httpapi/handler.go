package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peerpay/peerpay-backend/internal/domain"
	"github.com/peerpay/peerpay-backend/internal/usecase/account"
	"github.com/peerpay/peerpay-backend/internal/usecase/transfer"
)

// defaultPageSize bounds transaction history pages when the client does not
// specify a limit.
const defaultPageSize = 20

// maxPageSize caps the page size a client may request.
const maxPageSize = 100

// Handler exposes the account and transfer use cases over HTTP.
type Handler struct {
	accounts  *account.Service
	transfers *transfer.Service
	directory domain.AccountRepository
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(accounts *account.Service, transfers *transfer.Service, directory domain.AccountRepository, logger *zap.Logger) *Handler {
	return &Handler{
		accounts:  accounts,
		transfers: transfers,
		directory: directory,
		logger:    logger,
	}
}

// SignupRequest is the registration payload.
type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a new account and returns it with a bearer token.
// POST /api/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}

	acct, token, err := h.accounts.Register(c.Request.Context(), account.RegisterInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, Account: newAccountResponse(acct)})
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an account and returns a bearer token.
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}

	acct, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, Account: newAccountResponse(acct)})
}

// Me returns the authenticated account.
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	claims := claimsFrom(c)

	acct, err := h.accounts.Get(c.Request.Context(), claims.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAccountResponse(acct))
}

// Balance returns the authenticated account's current balance.
// GET /api/account/balance
func (h *Handler) Balance(c *gin.Context) {
	claims := claimsFrom(c)

	acct, err := h.accounts.Get(c.Request.Context(), claims.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": acct.ID.String(),
		"balance":    acct.Balance.StringFixed(2),
	})
}

// SearchUsers finds transfer recipients by email substring.
// GET /api/users/search?q=ali
func (h *Handler) SearchUsers(c *gin.Context) {
	claims := claimsFrom(c)

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", "query parameter q is required"))
		return
	}

	accounts, err := h.accounts.Search(c.Request.Context(), query, claims.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}

	results := make([]*PublicAccountResponse, 0, len(accounts))
	for _, acct := range accounts {
		results = append(results, newPublicAccountResponse(acct))
	}

	c.JSON(http.StatusOK, gin.H{"users": results})
}

// CreateTransferRequest is the transfer payload. The amount travels as a
// string so precision is never lost to float parsing.
type CreateTransferRequest struct {
	RecipientEmail string `json:"recipient_email" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Description    string `json:"description"`
	Category       string `json:"category"`
}

// CreateTransfer executes a transfer from the authenticated account.
// POST /api/transfers
func (h *Handler) CreateTransfer(c *gin.Context) {
	claims := claimsFrom(c)

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_amount", "amount is not a valid decimal number"))
		return
	}

	txn, err := h.transfers.Execute(c.Request.Context(), transfer.ExecuteInput{
		SenderID:       claims.AccountID,
		RecipientEmail: req.RecipientEmail,
		Amount:         amount,
		Description:    req.Description,
		Category:       domain.TransactionCategory(req.Category),
	})
	if err != nil {
		// Insufficient funds is a business outcome, not a failure of the
		// request pipeline. The failed record is returned alongside it.
		if errors.Is(err, domain.ErrInsufficientFunds) && txn != nil {
			c.JSON(http.StatusPaymentRequired, TransferResponse{
				Success:       false,
				TransactionID: txn.ID.String(),
				Message:       "insufficient funds",
				Transaction:   h.transactionView(c.Request.Context(), txn),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TransferResponse{
		Success:       true,
		TransactionID: txn.ID.String(),
		Message:       "transfer completed",
		Transaction:   h.transactionView(c.Request.Context(), txn),
	})
}

// GetTransfer returns one transaction the authenticated account participates in.
// GET /api/transfers/:id
func (h *Handler) GetTransfer(c *gin.Context) {
	claims := claimsFrom(c)

	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", "transfer id must be a UUID"))
		return
	}

	txn, err := h.transfers.Get(c.Request.Context(), claims.AccountID, txnID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.transactionView(c.Request.Context(), txn))
}

// ListTransfers returns a page of the authenticated account's history.
// GET /api/transfers?direction=sent&limit=20&offset=0
func (h *Handler) ListTransfers(c *gin.Context) {
	claims := claimsFrom(c)

	direction := domain.TransactionDirection(c.DefaultQuery("direction", string(domain.DirectionAll)))
	switch direction {
	case domain.DirectionSent, domain.DirectionReceived, domain.DirectionAll:
	default:
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", "direction must be sent, received or all"))
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	transactions, total, err := h.transfers.List(c.Request.Context(), claims.AccountID, direction, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]*TransactionResponse, 0, len(transactions))
	emails := make(map[uuid.UUID]string)
	for _, txn := range transactions {
		views = append(views, newTransactionResponse(txn,
			h.emailFor(c.Request.Context(), emails, txn.FromAccountID),
			h.emailFor(c.Request.Context(), emails, txn.ToAccountID),
		))
	}

	c.JSON(http.StatusOK, TransactionListResponse{
		Transactions: views,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// transactionView builds the public view of one transaction, resolving
// participant emails best-effort.
func (h *Handler) transactionView(ctx context.Context, txn *domain.Transaction) *TransactionResponse {
	emails := make(map[uuid.UUID]string, 2)
	return newTransactionResponse(txn,
		h.emailFor(ctx, emails, txn.FromAccountID),
		h.emailFor(ctx, emails, txn.ToAccountID),
	)
}

// emailFor resolves an account ID to its email, memoizing per request. A
// lookup failure yields an empty email rather than failing the response.
func (h *Handler) emailFor(ctx context.Context, cache map[uuid.UUID]string, id uuid.UUID) string {
	if email, ok := cache[id]; ok {
		return email
	}

	acct, err := h.directory.GetByID(ctx, id)
	if err != nil {
		h.logger.Warn("failed to resolve account email", zap.String("account_id", id.String()), zap.Error(err))
		cache[id] = ""
		return ""
	}

	cache[id] = acct.Email
	return acct.Email
}
