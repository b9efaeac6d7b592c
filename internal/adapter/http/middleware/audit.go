package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	action       domain.AuditAction
	resourceType string
	idParam      string // route param holding the resource id; empty means the caller
}

// auditRoutes is keyed by method + gin route pattern.
var auditRoutes = map[string]auditRoute{
	"POST /api/v1/payments/orders":     {domain.AuditActionOrderCreate, "ledger_entry", ""},
	"POST /api/v1/payments/verify":     {domain.AuditActionPaymentVerify, "ledger_entry", ""},
	"POST /api/v1/wallet/init":         {domain.AuditActionWalletInit, "wallet", ""},
	"PUT /api/v1/wallet/bank-details":  {domain.AuditActionBankDetailsUpdate, "wallet", ""},
	"POST /api/v1/wallet/withdrawals":  {domain.AuditActionWithdrawRequest, "wallet", ""},
	"POST /api/v1/payouts/:id/confirm": {domain.AuditActionPayoutConfirm, "withdrawal_request", "id"},
	"POST /api/v1/payouts/:id/reject":  {domain.AuditActionPayoutReject, "withdrawal_request", "id"},
}

// AuditLog records successful write operations.
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

		entry := &domain.AuditLog{
			ID:           uuid.New(),
			Action:       route.action,
			ResourceType: route.resourceType,
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		}
		if caller, ok := CallerFrom(c); ok {
			entry.ActorID = &caller.SubjectID
			entry.ActorRole = caller.Role
			entry.ResourceID = caller.SubjectID.String()
		}
		if route.idParam != "" {
			entry.ResourceID = c.Param(route.idParam)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})
		entry.Details = string(details)

		auditSvc.Log(c.Request.Context(), entry)
	}
}
