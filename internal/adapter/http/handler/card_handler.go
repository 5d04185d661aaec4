package handler

import (
	"retail-banking-core/internal/adapter/http/dto"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"
	"retail-banking-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CardHandler handles virtual card endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

// Issue handles POST /api/v1/cards. The full number and CVV appear only in
// this response.
func (h *CardHandler) Issue(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.IssueCardRequest
	if !bindJSON(c, &req) {
		return
	}

	issued, err := h.cardSvc.Issue(c.Request.Context(), userID, req.AccountNumber)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.IssuedCardResponse{CardResponse: toCardResponse(issued.Card), CVV: issued.CVV}
	resp.Number = issued.Number
	response.Created(c, resp)
}

// List handles GET /api/v1/cards.
func (h *CardHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	cards, err := h.cardSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.CardResponse, 0, len(cards))
	for i := range cards {
		items = append(items, toCardResponse(&cards[i]))
	}
	response.OK(c, items)
}

// TopUp handles POST /api/v1/cards/:id/topup.
func (h *CardHandler) TopUp(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Card"))
		return
	}
	var req dto.CardTopUpRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.cardSvc.TopUp(c.Request.Context(), ports.CardTopUpRequest{
		UserID:        userID,
		AccountNumber: req.AccountNumber,
		CardID:        cardID,
		Amount:        amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(txn))
}

// Delete handles DELETE /api/v1/cards/:id.
func (h *CardHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Card"))
		return
	}

	if err := h.cardSvc.Delete(c.Request.Context(), userID, cardID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": cardID.String(), "deleted": true})
}
