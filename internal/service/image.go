package service

import (
	"errors"
	"fmt"
	"io"

	"github.com/flicky/hortifruti-api/internal/storage"
)

type ImageStore interface {
	Save(kind storage.Kind, filename string, src io.Reader) (string, error)
}

type ImageService struct {
	store ImageStore
}

func NewImageService(store ImageStore) *ImageService {
	return &ImageService{store: store}
}

// Upload stores an image and returns its public URL.
func (s *ImageService) Upload(kind storage.Kind, filename string, src io.Reader) (string, error) {
	if filename == "" {
		return "", validationError("no file selected")
	}
	url, err := s.store.Save(kind, filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFileType) {
			return "", ErrInvalidFileType
		}
		return "", fmt.Errorf("save image: %w", err)
	}
	return url, nil
}
