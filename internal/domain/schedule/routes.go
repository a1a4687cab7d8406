package schedule

import "github.com/gin-gonic/gin"

// RegisterMemberRoutes exposes read-only slot listing to any authenticated
// user.
func RegisterMemberRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/schedule/slots", h.ListSlots)
}

// RegisterAdminRoutes exposes config, generation and exception management.
// Callers must pass the admin role middleware first.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/admin/schedule")
	{
		grp.POST("/configs", h.SaveConfig)
		grp.GET("/configs", h.ListConfigs)
		grp.POST("/slots/generate", h.GenerateSlots)
		grp.POST("/exceptions", h.CreateException)
		grp.DELETE("/exceptions/:id", h.RemoveException)
	}
}
