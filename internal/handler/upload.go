package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/service"
	"github.com/flicky/hortifruti-api/internal/storage"
)

const uploadField = "image"

func uploadImage(c *gin.Context, images *service.ImageService, kind storage.Kind) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file in request"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	url, err := images.Upload(kind, header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.UploadResponse{URL: url, Message: "image uploaded"})
}
