package reservation

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts single and recurring reservation endpoints for
// authenticated members.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/reservations", h.Book)
	r.GET("/reservations", h.ListMine)
	r.DELETE("/reservations/:id", h.Cancel)

	grp := r.Group("/recurring")
	{
		grp.POST("", h.CreateRule)
		grp.POST("/:id/pause", h.PauseRule)
		grp.POST("/:id/resume", h.ResumeRule)
		grp.DELETE("/:id", h.CancelRule)
	}
}
