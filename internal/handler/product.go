package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/middleware"
	"github.com/flicky/hortifruti-api/internal/service"
	"github.com/flicky/hortifruti-api/internal/storage"
)

type ProductHandler struct {
	productService *service.ProductService
	images         *service.ImageService
}

func NewProductHandler(productService *service.ProductService, images *service.ImageService) *ProductHandler {
	return &ProductHandler{productService: productService, images: images}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	resp, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List is public; include_inactive only takes effect for admin tokens.
func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.productService.List(c.Request.Context(), req, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Featured(c *gin.Context) {
	resp, err := h.productService.Featured(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Count(c *gin.Context) {
	n, err := h.productService.Count(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *ProductHandler) LowStock(c *gin.Context) {
	resp, err := h.productService.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (h *ProductHandler) Upload(c *gin.Context) {
	uploadImage(c, h.images, storage.KindProducts)
}
