package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/middleware"
	"github.com/flicky/hortifruti-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.orderService.List(c.Request.Context(), middleware.GetUserID(c), middleware.IsAdmin(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := parseID(c, "order")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CountToday(c *gin.Context) {
	n, err := h.orderService.CountToday(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *OrderHandler) SalesToday(c *gin.Context) {
	total, err := h.orderService.SalesToday(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *OrderHandler) Recent(c *gin.Context) {
	resp, err := h.orderService.Recent(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
