package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/service"
	"github.com/flicky/hortifruti-api/internal/storage"
)

type CategoryHandler struct {
	categoryService *service.CategoryService
	images          *service.ImageService
}

func NewCategoryHandler(categoryService *service.CategoryService, images *service.ImageService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, images: images}
}

func (h *CategoryHandler) List(c *gin.Context) {
	resp, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoryHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "category")
	if !ok {
		return
	}
	resp, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.categoryService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "category")
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.categoryService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "category")
	if !ok {
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

func (h *CategoryHandler) Upload(c *gin.Context) {
	uploadImage(c, h.images, storage.KindCategories)
}
