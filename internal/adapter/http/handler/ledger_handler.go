package handler

import (
	"retail-banking-core/internal/adapter/http/dto"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles deposits and the staged withdrawal and transfer flows.
// Withdrawals and transfers are never executed directly: they are staged
// and committed once every identity proof has passed.
type LedgerHandler struct {
	ledgerSvc   ports.LedgerService
	workflowSvc ports.WorkflowService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService, workflowSvc ports.WorkflowService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc, workflowSvc: workflowSvc}
}

// Deposit handles POST /api/v1/deposits (tellers).
func (h *LedgerHandler) Deposit(c *gin.Context) {
	tellerID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.DepositRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.ledgerSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		PerformedBy:   tellerID,
		AccountNumber: req.AccountNumber,
		Amount:        amount,
		Description:   req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(txn))
}

// InitiateWithdrawal handles POST /api/v1/withdrawals.
func (h *LedgerHandler) InitiateWithdrawal(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.WithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	op, err := h.workflowSvc.InitiateWithdrawal(c.Request.Context(), ports.WithdrawRequest{
		UserID:        userID,
		AccountNumber: req.AccountNumber,
		Amount:        amount,
		Description:   req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, toStagedResponse(op))
}

// VerifyWithdrawalUsername handles POST /api/v1/withdrawals/verify-username.
func (h *LedgerHandler) VerifyWithdrawalUsername(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.VerifyUsernameRequest
	if !bindJSON(c, &req) {
		return
	}

	h.step(c, req.Token, func(token uuid.UUID) (*domain.StagedOperation, error) {
		return h.workflowSvc.VerifyWithdrawalUsername(c.Request.Context(), userID, token, req.Username)
	})
}

// InitiateTransfer handles POST /api/v1/transfers.
func (h *LedgerHandler) InitiateTransfer(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	op, err := h.workflowSvc.InitiateTransfer(c.Request.Context(), ports.TransferRequest{
		UserID:                userID,
		SenderAccountNumber:   req.SenderAccountNumber,
		ReceiverAccountNumber: req.ReceiverAccountNumber,
		Amount:                amount,
		Description:           req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, toStagedResponse(op))
}

// VerifySecurityAnswer handles POST /api/v1/transfers/security-answer.
func (h *LedgerHandler) VerifySecurityAnswer(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.SecurityAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	h.step(c, req.Token, func(token uuid.UUID) (*domain.StagedOperation, error) {
		return h.workflowSvc.VerifySecurityAnswer(c.Request.Context(), userID, token, req.Answer)
	})
}

// VerifyTransferOTP handles POST /api/v1/transfers/otp.
func (h *LedgerHandler) VerifyTransferOTP(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.TransferOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	h.step(c, req.Token, func(token uuid.UUID) (*domain.StagedOperation, error) {
		return h.workflowSvc.VerifyTransferOTP(c.Request.Context(), userID, token, req.Code)
	})
}

// Commit handles POST /api/v1/withdrawals/commit and /api/v1/transfers/commit.
func (h *LedgerHandler) Commit(c *gin.Context) {
	userID, token, ok := h.bindToken(c)
	if !ok {
		return
	}

	txn, err := h.workflowSvc.Commit(c.Request.Context(), userID, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(txn))
}

// Cancel handles POST /api/v1/withdrawals/cancel and /api/v1/transfers/cancel.
func (h *LedgerHandler) Cancel(c *gin.Context) {
	userID, token, ok := h.bindToken(c)
	if !ok {
		return
	}

	if err := h.workflowSvc.Cancel(c.Request.Context(), userID, token); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"token": token.String(), "cancelled": true})
}

func (h *LedgerHandler) bindToken(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := callerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	var req dto.StagedTokenRequest
	if !bindJSON(c, &req) {
		return uuid.Nil, uuid.Nil, false
	}
	token, err := parseToken(req.Token)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, token, true
}

// step runs one identity proof against the staged operation named by rawToken.
func (h *LedgerHandler) step(c *gin.Context, rawToken string, proof func(token uuid.UUID) (*domain.StagedOperation, error)) {
	token, err := parseToken(rawToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	op, err := proof(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toStagedResponse(op))
}
