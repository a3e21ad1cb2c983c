package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flicky/hortifruti-api/internal/service"
)

type StoreHandler struct {
	settings      service.StoreSettings
	notifications *service.NotificationService
}

func NewStoreHandler(settings service.StoreSettings, notifications *service.NotificationService) *StoreHandler {
	return &StoreHandler{settings: settings, notifications: notifications}
}

func (h *StoreHandler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Response())
}

func (h *StoreHandler) Notifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.notifications.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
