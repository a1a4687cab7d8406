package schedule

import (
	"errors"
	"net/http"
	"strconv"
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

// SaveConfig godoc
// @Summary Create or update the weekday schedule configuration
// @Tags Schedule
// @Security BearerAuth
// @Router /admin/schedule/configs [post]
func (h *Handler) SaveConfig(c *gin.Context) {
	var req SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	cfg := &ScheduleConfig{
		CompanyID:              c.GetInt64("company_id"),
		DayOfWeek:              req.DayOfWeek,
		OpenTime:               req.OpenTime,
		CloseTime:              req.CloseTime,
		Capacity:               req.Capacity,
		SlotDurationMinutes:    req.SlotDurationMinutes,
		AllowIntermediateSlots: req.AllowIntermediateSlots,
		IntermediateCapacity:   req.IntermediateCapacity,
		IsActive:               true,
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}

	if err := h.service.SaveConfig(c.Request.Context(), cfg); err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to save config")
		return
	}

	response.Success(c, http.StatusCreated, cfg)
}

func (h *Handler) ListConfigs(c *gin.Context) {
	configs, err := h.service.ListConfigs(c.Request.Context(), c.GetInt64("company_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load configs")
		return
	}
	response.Success(c, http.StatusOK, configs)
}

// GenerateSlots godoc
// @Summary Materialize slots for a date range from configs and exceptions
// @Tags Schedule
// @Security BearerAuth
// @Router /admin/schedule/slots/generate [post]
func (h *Handler) GenerateSlots(c *gin.Context) {
	var req GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	from, err1 := time.Parse("2006-01-02", req.From)
	to, err2 := time.Parse("2006-01-02", req.To)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "dates must be YYYY-MM-DD")
		return
	}

	report, err := h.service.GenerateSlots(c.Request.Context(), c.GetInt64("company_id"), from, to)
	if err != nil {
		switch {
		case errors.Is(err, ErrConfigurationMissing):
			response.Error(c, http.StatusUnprocessableEntity, "CONFIGURATION_MISSING", err.Error())
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to generate slots")
		}
		return
	}

	response.Success(c, http.StatusOK, report)
}

// CreateException godoc
// @Summary Create a date exception and apply it to existing slots
// @Tags Schedule
// @Security BearerAuth
// @Router /admin/schedule/exceptions [post]
func (h *Handler) CreateException(c *gin.Context) {
	var req CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
		return
	}

	exc := &ScheduleException{
		CompanyID: c.GetInt64("company_id"),
		Date:      date,
		Closed:    req.Closed,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		Capacity:  req.Capacity,
		Reason:    req.Reason,
	}

	report, err := h.service.CreateException(c.Request.Context(), exc)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to apply exception")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exception": exc, "report": report})
}

// RemoveException godoc
// @Summary Delete an exception and restore the date from the base config
// @Tags Schedule
// @Security BearerAuth
// @Router /admin/schedule/exceptions/{id} [delete]
func (h *Handler) RemoveException(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid exception id")
		return
	}

	err = h.service.RemoveException(c.Request.Context(), c.GetInt64("company_id"), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrExceptionNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, ErrHasActiveReservations):
			response.Error(c, http.StatusConflict, "HAS_ACTIVE_RESERVATIONS", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to remove exception")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"restored": true})
}

// ListSlots godoc
// @Summary List slots in a date range
// @Tags Schedule
// @Security BearerAuth
// @Router /schedule/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	from, err1 := time.Parse("2006-01-02", c.Query("from"))
	to, err2 := time.Parse("2006-01-02", c.Query("to"))
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "from/to must be YYYY-MM-DD")
		return
	}

	slots, err := h.service.ListSlots(c.Request.Context(), c.GetInt64("company_id"), from, to)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load slots")
		return
	}

	response.Success(c, http.StatusOK, slots)
}
