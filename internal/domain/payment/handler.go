package payment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classbook/internal/domain/entitlement"
	"classbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// PaymentCompleted godoc
// @Summary Record a completed payment and renew the member's entitlement
// @Tags Payments
// @Security BearerAuth
// @Router /admin/payments/completed [post]
func (h *Handler) PaymentCompleted(c *gin.Context) {
	var req PaymentCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	var paidAt time.Time
	if req.PaidAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "paid_at must be RFC 3339")
			return
		}
		paidAt = parsed.UTC()
	}

	result, err := h.service.OnPaymentCompleted(
		c.Request.Context(),
		req.UserID,
		c.GetInt64("company_id"),
		req.PlanID,
		req.Amount,
		paidAt,
	)
	if err != nil {
		if errors.Is(err, entitlement.ErrPlanNotFound) {
			response.Error(c, http.StatusNotFound, "PLAN_NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to process payment")
		return
	}

	response.Success(c, http.StatusOK, result)
}
