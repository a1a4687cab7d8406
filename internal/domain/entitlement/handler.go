package entitlement

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListPlans godoc
// @Summary List active plans
// @Tags Entitlement
// @Router /plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load plans")
		return
	}
	response.Success(c, http.StatusOK, plans)
}

// SavePlan godoc
// @Summary Create or update a plan
// @Tags Entitlement
// @Security BearerAuth
// @Router /admin/plans [post]
func (h *Handler) SavePlan(c *gin.Context) {
	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	plan := &Plan{
		ID:                  req.ID,
		Name:                req.Name,
		PriceMonthly:        req.PriceMonthly,
		ClassesPerWeek:      req.ClassesPerWeek,
		MaxClassesPerPeriod: req.MaxClassesPerPeriod,
		AllowClassRollover:  req.AllowClassRollover,
		MaxRolloverClasses:  req.MaxRolloverClasses,
		IsActive:            true,
	}
	if err := h.service.SavePlan(c.Request.Context(), plan); err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to save plan")
		return
	}
	response.Success(c, http.StatusCreated, plan)
}

// Status godoc
// @Summary Current entitlement status for the authenticated member
// @Tags Entitlement
// @Security BearerAuth
// @Router /entitlement [get]
func (h *Handler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.GetInt64("user_id"), c.GetInt64("company_id"))
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			response.Error(c, http.StatusNotFound, "NO_SUBSCRIPTION", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load entitlement")
		return
	}
	response.Success(c, http.StatusOK, status)
}

// CanBook godoc
// @Summary Check whether the member can book a class on a date
// @Tags Entitlement
// @Security BearerAuth
// @Router /entitlement/can-book [get]
func (h *Handler) CanBook(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
		return
	}

	sub, err := h.service.ActiveSubscription(c.Request.Context(), c.GetInt64("user_id"), c.GetInt64("company_id"))
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			response.Success(c, http.StatusOK, gin.H{"can_book": false, "reason": "no active subscription"})
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to check entitlement")
		return
	}

	ok, err := h.service.CanBook(c.Request.Context(), sub.ID, date)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to check entitlement")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"can_book": ok})
}

// CreateSuspension godoc
// @Summary Suspend the member's entitlement for a date range
// @Tags Entitlement
// @Security BearerAuth
// @Router /suspensions [post]
func (h *Handler) CreateSuspension(c *gin.Context) {
	var req CreateSuspensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	start, err1 := time.Parse("2006-01-02", req.StartDate)
	end, err2 := time.Parse("2006-01-02", req.EndDate)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "dates must be YYYY-MM-DD")
		return
	}

	susp := &Suspension{
		UserID:    c.GetInt64("user_id"),
		CompanyID: c.GetInt64("company_id"),
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	}
	if err := h.service.CreateSuspension(c.Request.Context(), susp); err != nil {
		switch {
		case errors.Is(err, ErrSuspensionOverlap):
			response.Error(c, http.StatusConflict, "SUSPENSION_OVERLAP", err.Error())
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to create suspension")
		}
		return
	}
	response.Success(c, http.StatusCreated, susp)
}

// RecordUsage godoc
// @Summary Debit a walk-in or special class against a member
// @Tags Entitlement
// @Security BearerAuth
// @Router /admin/entitlement/usages [post]
func (h *Handler) RecordUsage(c *gin.Context) {
	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.UsageDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "usage_date must be YYYY-MM-DD")
		return
	}

	sub, err := h.service.ActiveSubscription(c.Request.Context(), req.UserID, c.GetInt64("company_id"))
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			response.Error(c, http.StatusNotFound, "NO_SUBSCRIPTION", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to resolve subscription")
		return
	}

	usage, err := h.service.Debit(c.Request.Context(), sub.ID, date, nil, UsageType(req.UsageType))
	if err != nil {
		if errors.Is(err, ErrQuotaViolation) {
			response.Error(c, http.StatusConflict, "QUOTA_VIOLATION", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to record usage")
		return
	}
	response.Success(c, http.StatusCreated, usage)
}
