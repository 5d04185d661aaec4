package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	action       domain.AuditAction
	resourceType string
}

// auditRoutes maps "METHOD route-pattern" to the audited action.
var auditRoutes = map[string]auditRoute{
	"POST /api/v1/auth/register":            {domain.AuditActionRegister, "user"},
	"POST /api/v1/auth/verify-otp":          {domain.AuditActionLogin, "session"},
	"PUT /api/v1/profile":                   {domain.AuditActionProfile, "profile"},
	"POST /api/v1/accounts":                 {domain.AuditActionOpen, "account"},
	"POST /api/v1/accounts/:number/kyc":     {domain.AuditActionKYC, "account"},
	"POST /api/v1/accounts/:number/verify":  {domain.AuditActionKYC, "account"},
	"POST /api/v1/accounts/:number/primary": {domain.AuditActionOpen, "account"},
	"POST /api/v1/deposits":                 {domain.AuditActionDeposit, "transaction"},
	"POST /api/v1/withdrawals/commit":       {domain.AuditActionWithdrawal, "transaction"},
	"POST /api/v1/transfers/commit":         {domain.AuditActionTransfer, "transaction"},
	"POST /api/v1/cards":                    {domain.AuditActionCard, "card"},
	"POST /api/v1/cards/:id/topup":          {domain.AuditActionCard, "card"},
	"DELETE /api/v1/cards/:id":              {domain.AuditActionCard, "card"},
}

// AuditLog creates an audit middleware that logs successful write operations.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		route, ok := auditRoutes[c.Request.Method+" "+c.FullPath()]
		if !ok {
			return
		}

		var userID *uuid.UUID
		if id, ok := UserID(c); ok {
			userID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       route.action,
			ResourceType: route.resourceType,
			ResourceID:   resourceID(c),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func resourceID(c *gin.Context) string {
	if n := c.Param("number"); n != "" {
		return n
	}
	return c.Param("id")
}
