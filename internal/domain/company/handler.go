package company

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"classbook/internal/pkg/response"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List godoc
// @Summary List active companies
// @Tags Companies
// @Router /companies [get]
func (h *Handler) List(c *gin.Context) {
	companies, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load companies")
		return
	}
	response.Success(c, http.StatusOK, companies)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid company id")
		return
	}

	comp, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load company")
		return
	}
	response.Success(c, http.StatusOK, comp)
}

// Create godoc
// @Summary Register a new company
// @Tags Companies
// @Security BearerAuth
// @Router /admin/companies [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	comp := &Company{
		Name:     req.Name,
		City:     req.City,
		Address:  req.Address,
		IsActive: true,
	}
	if err := h.repo.Create(c.Request.Context(), comp); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to create company")
		return
	}
	response.Success(c, http.StatusCreated, comp)
}

type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	City    string `json:"city"`
	Address string `json:"address"`
}
