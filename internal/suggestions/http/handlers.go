package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

func (h *Handler) suggest(c *gin.Context) {
	var req suggestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrEmptyPrompt.Error()})
		return
	}

	res, err := h.svc.Suggest(c.Request.Context(), domain.SuggestionRequest{
		PromptText: req.PromptText,
		Tags:       req.Tags,
		ClientID:   c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyPrompt):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate suggestions"})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}
