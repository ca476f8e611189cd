package api

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

// LedgerService is the surface of ledger.Ledger the HTTP layer may call.
type LedgerService interface {
	CreateAccount(ctx context.Context, accountID int64, ownerName string, initialDeposit decimal.Decimal) (models.Account, error)
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (ledger.Receipt, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (ledger.Receipt, error)
	Transfer(ctx context.Context, fromAccountID, toAccountID int64, amount decimal.Decimal) (ledger.TransferReceipt, error)
	GetAccount(ctx context.Context, accountID int64) (models.Account, error)
	GetHistory(ctx context.Context, accountID int64) iter.Seq2[models.TransactionRecord, error]
}

type Handler struct {
	ledger LedgerService
}

type CreateAccountRequest struct {
	AccountID      int64           `json:"account_id" validate:"required,gt=0"`
	OwnerName      string          `json:"owner_name" validate:"required"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	FromAccountID int64           `json:"from_account_id" validate:"required"`
	ToAccountID   int64           `json:"to_account_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

type ListTransactionsResponse struct {
	AccountID    int64                      `json:"account_id"`
	Transactions []models.TransactionRecord `json:"transactions"`
}

func NewHandler(svc LedgerService) *Handler {
	return &Handler{ledger: svc}
}

func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := ValidateRequest(req); validationErrors != nil {
		RespondWithValidationError(c, validationErrors)
		return
	}

	acct, err := h.ledger.CreateAccount(c.Request.Context(), req.AccountID, req.OwnerName, req.InitialDeposit)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acct)
}

func (h *Handler) GetAccount(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}
	acct, err := h.ledger.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

func (h *Handler) Deposit(c *gin.Context) {
	h.move(c, h.ledger.Deposit)
}

func (h *Handler) Withdraw(c *gin.Context) {
	h.move(c, h.ledger.Withdraw)
}

func (h *Handler) move(c *gin.Context, op func(context.Context, int64, decimal.Decimal) (ledger.Receipt, error)) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := op(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := ValidateRequest(req); validationErrors != nil {
		RespondWithValidationError(c, validationErrors)
		return
	}

	receipt, err := h.ledger.Transfer(c.Request.Context(), req.FromAccountID, req.ToAccountID, req.Amount)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// ListTransactions returns the account's history newest first. An optional
// ?limit=N stops reading after N records.
func (h *Handler) ListTransactions(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}
	limit := -1
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondWithError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records := []models.TransactionRecord{}
	for rec, err := range h.ledger.GetHistory(c.Request.Context(), accountID) {
		if err != nil {
			respondWithLedgerError(c, err)
			return
		}
		if limit >= 0 && len(records) >= limit {
			break
		}
		records = append(records, rec)
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{AccountID: accountID, Transactions: records})
}

func accountParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid account id")
		return 0, false
	}
	return id, true
}

func respondWithLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		RespondWithError(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, models.ErrDuplicateAccount):
		RespondWithError(c, http.StatusConflict, "Account already exists")
	case errors.Is(err, models.ErrInsufficientFunds):
		RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, models.ErrSameAccountTransfer):
		RespondWithError(c, http.StatusUnprocessableEntity, "Cannot transfer to the same account")
	case errors.Is(err, models.ErrInvalidAmount):
		RespondWithError(c, http.StatusBadRequest, "Amount must be positive with at most two decimal places")
	case errors.Is(err, models.ErrInvalidAccountID):
		RespondWithError(c, http.StatusBadRequest, "Account id must be positive")
	case errors.Is(err, models.ErrInvalidOwnerName):
		RespondWithError(c, http.StatusBadRequest, "Owner name is required")
	case errors.Is(err, models.ErrStorageUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "Ledger storage unavailable")
	default:
		RespondWithError(c, http.StatusInternalServerError, "Internal error")
	}
}
