package handler

import (
	"context"
	"time"

	"retail-banking-core/internal/adapter/http/dto"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"
	"retail-banking-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultPageSize = 20

// AccountHandler handles account, KYC and statement endpoints.
type AccountHandler struct {
	accountSvc   ports.AccountService
	statementSvc ports.StatementService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, statementSvc ports.StatementService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, statementSvc: statementSvc}
}

// Open handles POST /api/v1/accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.OpenAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountSvc.Open(c.Request.Context(), userID, domain.Currency(req.Currency), domain.AccountType(req.AccountType))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toAccountResponse(account))
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	accounts, err := h.accountSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResponse(&accounts[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/accounts/:number.
func (h *AccountHandler) Get(c *gin.Context) {
	h.withAccount(c, h.accountSvc.Get)
}

// SetPrimary handles POST /api/v1/accounts/:number/primary.
func (h *AccountHandler) SetPrimary(c *gin.Context) {
	h.withAccount(c, h.accountSvc.SetPrimary)
}

// SubmitKYC handles POST /api/v1/accounts/:number/kyc.
func (h *AccountHandler) SubmitKYC(c *gin.Context) {
	h.withAccount(c, h.accountSvc.SubmitKYC)
}

func (h *AccountHandler) withAccount(c *gin.Context, op func(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error)) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	account, err := op(c.Request.Context(), userID, c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAccountResponse(account))
}

// VerifyKYC handles POST /api/v1/accounts/:number/verify (account executives).
func (h *AccountHandler) VerifyKYC(c *gin.Context) {
	executiveID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.KYCReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountSvc.VerifyKYC(c.Request.Context(), ports.KYCReview{
		ExecutiveID:   executiveID,
		AccountNumber: c.Param("number"),
		Verified:      *req.Verified,
		Notes:         req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAccountResponse(account))
}

// Transactions handles GET /api/v1/transactions and
// GET /api/v1/accounts/:number/transactions.
func (h *AccountHandler) Transactions(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}

	txns, total, err := h.statementSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize != 0 {
		totalPages++
	}

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	})
}

// Statement handles GET /api/v1/accounts/:number/statement as a file download.
func (h *AccountHandler) Statement(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}

	body, contentType, err := h.statementSvc.Export(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "statement-" + c.Param("number") + "-" + time.Now().UTC().Format("20060102") + ".csv"
	response.Attachment(c, filename, contentType, body)
}

// listParams reads the statement filter. An account in the path is
// resolved through the account service so ownership is enforced.
func (h *AccountHandler) listParams(c *gin.Context) (ports.TransactionListParams, bool) {
	userID, ok := callerID(c)
	if !ok {
		return ports.TransactionListParams{}, false
	}

	var q dto.TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return ports.TransactionListParams{}, false
	}

	params := ports.TransactionListParams{UserID: userID, Page: q.Page, PageSize: q.PageSize}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if q.Type != "" {
		typ := domain.TransactionType(q.Type)
		params.Type = &typ
	}
	if q.From != "" {
		from, _ := time.Parse(dateLayout, q.From)
		params.From = &from
	}
	if q.To != "" {
		to, _ := time.Parse(dateLayout, q.To)
		to = to.Add(24*time.Hour - time.Nanosecond)
		params.To = &to
	}

	if number := c.Param("number"); number != "" {
		account, err := h.accountSvc.Get(c.Request.Context(), userID, number)
		if err != nil {
			response.Error(c, err)
			return ports.TransactionListParams{}, false
		}
		params.AccountID = &account.ID
	}
	return params, true
}
