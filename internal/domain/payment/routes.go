package payment

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes mounts the payment webhook surface. Callers must pass
// the admin role middleware first.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/admin/payments/completed", h.PaymentCompleted)
}
