package handler

import (
	"math"

	"notehub/internal/adapter/http/dto"
	"notehub/internal/adapter/http/middleware"
	"notehub/internal/core/domain"
	"notehub/internal/core/ports"
	"notehub/pkg/apperror"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaymentHandler handles note purchase and payment history endpoints.
type PaymentHandler struct {
	settlementSvc ports.SettlementService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(settlementSvc ports.SettlementService) *PaymentHandler {
	return &PaymentHandler{settlementSvc: settlementSvc}
}

// CreateOrder handles POST /api/v1/payments/orders.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.settlementSvc.CreateOrder(c.Request.Context(), ports.CreateOrderRequest{
		StudentID: caller.SubjectID,
		NoteID:    uuid.MustParse(req.NoteID),
		Amount:    req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, order)
}

// VerifyPayment handles POST /api/v1/payments/verify.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.settlementSvc.CompleteOrder(c.Request.Context(), ports.CompleteOrderRequest{
		StudentID: caller.SubjectID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		NoteID:    uuid.MustParse(req.NoteID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	msg := "Payment verified"
	if result.Replayed {
		msg = "Payment already verified"
	}
	response.OKWithMessage(c, msg, dto.VerifyPaymentResponse{
		Payment:     toLedgerEntryResponse(result.Payment),
		AdminProfit: result.AdminProfit,
		Replayed:    result.Replayed,
	})
}

// ListPurchases handles GET /api/v1/payments/purchases.
func (h *PaymentHandler) ListPurchases(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params, ok := bindPage(c, caller.SubjectID)
	if !ok {
		return
	}

	entries, total, err := h.settlementSvc.ListStudentPurchases(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toLedgerList(entries, total, params))
}

// ListHistory handles GET /api/v1/payments/history.
func (h *PaymentHandler) ListHistory(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params, ok := bindPage(c, caller.SubjectID)
	if !ok {
		return
	}
	if s := c.Query("status"); s != "" {
		status := domain.LedgerStatus(s)
		switch status {
		case domain.LedgerStatusPending, domain.LedgerStatusCompleted, domain.LedgerStatusFailed:
			params.Status = &status
		default:
			response.Error(c, apperror.Validation("status must be one of pending, completed, failed"))
			return
		}
	}

	entries, total, err := h.settlementSvc.ListAdminPayments(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toLedgerList(entries, total, params))
}

func bindPage(c *gin.Context, ownerID uuid.UUID) (ports.LedgerListParams, bool) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return ports.LedgerListParams{}, false
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > maxPageSize {
		q.PageSize = defaultPageSize
	}
	return ports.LedgerListParams{OwnerID: ownerID, Page: q.Page, PageSize: q.PageSize}, true
}

func toLedgerList(entries []domain.LedgerEntry, total int64, params ports.LedgerListParams) dto.LedgerListResponse {
	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, toLedgerEntryResponse(&entries[i]))
	}
	return dto.LedgerListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(params.PageSize))),
	}
}

func toLedgerEntryResponse(e *domain.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:          e.ID.String(),
		StudentID:   e.StudentID.String(),
		NoteID:      e.NoteID.String(),
		Amount:      e.Amount,
		Currency:    e.Currency,
		OrderID:     e.ProviderOrderID,
		PaymentID:   e.ProviderPaymentID,
		Status:      string(e.Status),
		PlatformFee: e.PlatformFee,
		AdminProfit: e.AdminProfit,
		CreatedAt:   e.CreatedAt,
		CompletedAt: e.CompletedAt,
	}
}
