package handler

import (
	"time"

	"retail-banking-core/internal/adapter/http/dto"
	"retail-banking-core/internal/adapter/http/middleware"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/pkg/apperror"
	"retail-banking-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// callerID returns the authenticated user or writes an INVALID_TOKEN response.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
	}
	return id, ok
}

// bindJSON binds and sanitizes a request body or writes a VALIDATION_ERROR response.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	dto.SanitizeStruct(req)
	return true
}

// parseAmount reads an amount that already passed the money validator.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}
	return d, nil
}

func parseToken(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.Validation("token must be a UUID")
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          t.ID.String(),
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   formatTime(t.CreatedAt),
	}
	if t.SenderAccountID != nil {
		s := t.SenderAccountID.String()
		resp.SenderAccountID = &s
	}
	if t.ReceiverAccountID != nil {
		s := t.ReceiverAccountID.String()
		resp.ReceiverAccountID = &s
	}
	return resp
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:             a.ID.String(),
		AccountNumber:  a.Number,
		Currency:       string(a.Currency),
		AccountType:    string(a.Type),
		Balance:        a.Balance.StringFixed(2),
		Status:         string(a.Status),
		IsPrimary:      a.IsPrimary,
		KYCSubmitted:   a.KYCSubmitted,
		KYCVerified:    a.KYCVerified,
		FullyActivated: a.FullyActivated,
		CreatedAt:      formatTime(a.CreatedAt),
	}
}

func toCardResponse(card *domain.Card) dto.CardResponse {
	return dto.CardResponse{
		ID:         card.ID.String(),
		AccountID:  card.AccountID.String(),
		Number:     card.Masked(),
		ExpiryDate: card.ExpiryDate.UTC().Format("01/06"),
		Balance:    card.Balance.StringFixed(2),
		Status:     string(card.Status),
	}
}

func toStagedResponse(op *domain.StagedOperation) dto.StagedResponse {
	return dto.StagedResponse{
		Token:                 op.Token.String(),
		Kind:                  string(op.Kind),
		State:                 string(op.State),
		AccountNumber:         op.AccountNumber,
		ReceiverAccountNumber: op.ReceiverAccountNumber,
		Amount:                op.Amount.StringFixed(2),
		ExpiresAt:             formatTime(op.ExpiresAt),
	}
}
