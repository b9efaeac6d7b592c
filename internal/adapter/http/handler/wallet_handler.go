package handler

import (
	"notehub/internal/adapter/http/dto"
	"notehub/internal/adapter/http/middleware"
	"notehub/internal/core/domain"
	"notehub/internal/core/ports"
	"notehub/pkg/apperror"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles the admin wallet endpoints.
type WalletHandler struct {
	walletSvc     ports.WalletService
	withdrawalSvc ports.WithdrawalService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, withdrawalSvc ports.WithdrawalService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, withdrawalSvc: withdrawalSvc}
}

// GetWallet handles GET /api/v1/wallet. The wallet is provisioned on first read.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	snap, err := h.walletSvc.GetSnapshot(c.Request.Context(), caller.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snap)
}

// InitWallet handles POST /api/v1/wallet/init, the registration and login hook.
func (h *WalletHandler) InitWallet(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.walletSvc.Provision(c.Request.Context(), caller.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKWithMessage(c, "Wallet ready", wallet)
}

// UpdateBankDetails handles PUT /api/v1/wallet/bank-details.
func (h *WalletHandler) UpdateBankDetails(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BankDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	snap, err := h.walletSvc.UpdateBankDetails(c.Request.Context(), caller.SubjectID, ports.BankDetailsInput{
		HolderName:    req.AccountHolderName,
		AccountNumber: req.AccountNumber,
		RoutingCode:   req.IFSCCode,
		BankName:      req.BankName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKWithMessage(c, "Bank details updated", snap)
}

// RequestWithdrawal handles POST /api/v1/wallet/withdrawals.
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.withdrawalSvc.RequestWithdrawal(c.Request.Context(), caller.SubjectID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"request": toWithdrawalResponse(result.Request),
		"wallet":  result.Wallet,
	})
}

// ListWithdrawals handles GET /api/v1/wallet/withdrawals.
func (h *WalletHandler) ListWithdrawals(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	reqs, err := h.withdrawalSvc.ListWithdrawals(c.Request.Context(), caller.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WithdrawalResponse, 0, len(reqs))
	for i := range reqs {
		items = append(items, toWithdrawalResponse(&reqs[i]))
	}
	response.OK(c, items)
}

func toWithdrawalResponse(r *domain.WithdrawalRequest) dto.WithdrawalResponse {
	return dto.WithdrawalResponse{
		ID:         r.ID.String(),
		AdminID:    r.AdminID.String(),
		Amount:     r.Amount,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
	}
}
