package reservation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/schedule"
	"classbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Book godoc
// @Summary Reserve a slot for the authenticated user
// @Tags Reservations
// @Security BearerAuth
// @Router /reservations [post]
func (h *Handler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	res, err := h.service.Book(c.Request.Context(), c.GetInt64("user_id"), req.SlotID)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrSlotNotFound):
			response.Error(c, http.StatusNotFound, "SLOT_NOT_FOUND", err.Error())
		case errors.Is(err, ErrPastSlot):
			response.Error(c, http.StatusUnprocessableEntity, "PAST_SLOT", err.Error())
		case errors.Is(err, ErrCannotBook):
			response.Error(c, http.StatusForbidden, "CANNOT_BOOK", err.Error())
		case errors.Is(err, ErrDuplicate):
			response.Error(c, http.StatusConflict, "DUPLICATE", err.Error())
		case errors.Is(err, schedule.ErrSlotFull):
			response.Error(c, http.StatusConflict, "NO_CAPACITY", err.Error())
		case errors.Is(err, entitlement.ErrQuotaViolation):
			response.Error(c, http.StatusConflict, "QUOTA_VIOLATION", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to book slot")
		}
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Cancel godoc
// @Summary Cancel a reservation before the cutoff
// @Tags Reservations
// @Security BearerAuth
// @Router /reservations/{id} [delete]
func (h *Handler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid reservation id")
		return
	}

	err = h.service.Cancel(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrReservationNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
		case errors.Is(err, ErrCutoffExceeded):
			response.Error(c, http.StatusConflict, "CUTOFF_EXCEEDED", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to cancel reservation")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListMyReservations(c.Request.Context(), c.GetInt64("user_id"), limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load reservations")
		return
	}
	response.Success(c, http.StatusOK, list)
}

// CreateRule godoc
// @Summary Create a recurring reservation rule and expand it immediately
// @Tags Recurring
// @Security BearerAuth
// @Router /recurring [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_date must be YYYY-MM-DD")
		return
	}

	rule := &RecurringReservation{
		UserID:         c.GetInt64("user_id"),
		CompanyID:      c.GetInt64("company_id"),
		DaysOfWeek:     DaysCSV(req.DaysOfWeek),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		StartDate:      startDate,
		EndType:        EndType(req.EndType),
		MaxOccurrences: req.MaxOccurrences,
	}
	if req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end_date must be YYYY-MM-DD")
			return
		}
		rule.EndDate = &endDate
	}

	summary, err := h.service.CreateRule(c.Request.Context(), rule)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, entitlement.ErrQuotaViolation):
			response.Error(c, http.StatusConflict, "QUOTA_VIOLATION", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to create recurring rule")
		}
		return
	}

	response.Success(c, http.StatusCreated, RuleResponse{Rule: rule, Summary: summary})
}

// PauseRule godoc
// @Summary Pause a recurring rule without touching its reservations
// @Tags Recurring
// @Security BearerAuth
// @Router /recurring/{id}/pause [post]
func (h *Handler) PauseRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid rule id")
		return
	}

	err = h.service.PauseRule(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.ruleError(c, err, "failed to pause rule")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": RulePaused})
}

// ResumeRule godoc
// @Summary Resume a paused rule and re-expand it
// @Tags Recurring
// @Security BearerAuth
// @Router /recurring/{id}/resume [post]
func (h *Handler) ResumeRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid rule id")
		return
	}

	summary, err := h.service.ResumeRule(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.ruleError(c, err, "failed to resume rule")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": RuleActive, "summary": summary})
}

// CancelRule godoc
// @Summary Cancel a rule, optionally deleting its generated reservations
// @Tags Recurring
// @Security BearerAuth
// @Router /recurring/{id} [delete]
func (h *Handler) CancelRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid rule id")
		return
	}
	deleteReservations := c.Query("delete_reservations") == "true"

	err = h.service.CancelRule(c.Request.Context(), id, c.GetInt64("user_id"), deleteReservations)
	if err != nil {
		h.ruleError(c, err, "failed to cancel rule")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": RuleCancelled, "reservations_deleted": deleteReservations})
}

func (h *Handler) ruleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrRuleNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrRuleNotActive):
		response.Error(c, http.StatusConflict, "RULE_NOT_ACTIVE", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", fallback)
	}
}
