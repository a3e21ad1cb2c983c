package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, toCategoryResponse(&categories[i]))
	}
	return items, nil
}

func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error) {
	category, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	category := &model.Category{Name: name, Description: req.Description, Image: req.Image}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Image != nil {
		category.Image = *req.Image
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

// Delete refuses while any product still points at the category.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	n, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return ErrCategoryHasProducts
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func toCategoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, Image: c.Image}
}
