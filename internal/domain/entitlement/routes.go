package entitlement

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes exposes the plan catalog without auth.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/plans", h.ListPlans)
}

func RegisterMemberRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/entitlement", h.Status)
	r.GET("/entitlement/can-book", h.CanBook)
	r.POST("/suspensions", h.CreateSuspension)
}

func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/admin/plans", h.SavePlan)
	r.POST("/admin/entitlement/usages", h.RecordUsage)
}
