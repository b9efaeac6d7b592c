package handler

import (
	"context"

	"notehub/internal/core/ports"
	"notehub/pkg/apperror"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PayoutHandler lets platform operators settle withdrawal requests.
type PayoutHandler struct {
	withdrawalSvc ports.WithdrawalService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(withdrawalSvc ports.WithdrawalService) *PayoutHandler {
	return &PayoutHandler{withdrawalSvc: withdrawalSvc}
}

// Confirm handles POST /api/v1/payouts/:id/confirm.
func (h *PayoutHandler) Confirm(c *gin.Context) {
	h.resolve(c, h.withdrawalSvc.ConfirmWithdrawal, "Withdrawal paid")
}

// Reject handles POST /api/v1/payouts/:id/reject.
func (h *PayoutHandler) Reject(c *gin.Context) {
	h.resolve(c, h.withdrawalSvc.RejectWithdrawal, "Withdrawal rejected")
}

func (h *PayoutHandler) resolve(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*ports.WithdrawalResult, error), msg string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal request id"))
		return
	}

	result, err := apply(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKWithMessage(c, msg, gin.H{
		"request": toWithdrawalResponse(result.Request),
		"wallet":  result.Wallet,
	})
}
