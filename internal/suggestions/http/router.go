package http

import "github.com/gin-gonic/gin"

// Register attaches suggestion routes to the given router.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/suggest", h.suggest)
}
