package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/service"
)

// CartHandler prices a client-side cart. The cart itself lives in the
// browser; nothing is stored here.
type CartHandler struct {
	orderService *service.OrderService
}

func NewCartHandler(orderService *service.OrderService) *CartHandler {
	return &CartHandler{orderService: orderService}
}

func (h *CartHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.orderService.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
