package company

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes exposes the tenant directory without auth so clients
// can pick a company before registering.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/companies", h.List)
	r.GET("/companies/:id", h.Get)
}

// RegisterAdminRoutes exposes tenant creation. Callers must pass the admin
// role middleware first.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/admin/companies", h.Create)
}
