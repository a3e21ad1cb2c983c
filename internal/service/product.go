package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/hortifruti-api/internal/cache"
	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

// ProductCache fronts single-product reads. Anything that changes a product
// row, stock included, must invalidate it.
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Product, bool)
	Set(ctx context.Context, p *model.Product)
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// orNoCache swaps a nil cache for the nil-safe *cache.ProductCache.
func orNoCache(c ProductCache) ProductCache {
	if c == nil {
		return (*cache.ProductCache)(nil)
	}
	return c
}

type ProductService struct {
	productRepo       repository.ProductRepository
	categoryRepo      repository.CategoryRepository
	cache             ProductCache
	lowStockThreshold int
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	productCache ProductCache,
	lowStockThreshold int,
) *ProductService {
	return &ProductService{
		productRepo:       productRepo,
		categoryRepo:      categoryRepo,
		cache:             orNoCache(productCache),
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !req.Price.IsPositive() {
		return nil, validationError("price must be positive")
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Unit:        req.Unit,
		Image:       req.Image,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
		Organic:     req.Organic,
		Featured:    req.Featured,
		Discount:    req.Discount,
		Active:      true,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		resp := toProductResponse(cached)
		return &resp, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	s.cache.Set(ctx, product)

	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest, isAdmin bool) ([]dto.ProductResponse, error) {
	filter := model.ProductFilter{
		Featured:        req.Featured,
		Organic:         req.Organic,
		Search:          req.Search,
		IncludeInactive: req.IncludeInactive && isAdmin,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, validationError("invalid category_id")
		}
		filter.CategoryID = &id
	}
	return s.list(ctx, filter)
}

func (s *ProductService) Featured(ctx context.Context) ([]dto.ProductResponse, error) {
	featured := true
	return s.list(ctx, model.ProductFilter{Featured: &featured})
}

func (s *ProductService) list(ctx context.Context, filter model.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return toProductResponses(products), nil
}

func (s *ProductService) LowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return toProductResponses(products), nil
}

func (s *ProductService) Count(ctx context.Context) (int, error) {
	return s.productRepo.Count(ctx)
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, validationError("price must be positive")
		}
		product.Price = *req.Price
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Organic != nil {
		product.Organic = *req.Organic
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.Discount != nil {
		product.Discount = *req.Discount
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	// Update never writes stock; it is set only when the request carries it.
	err = s.productRepo.Update(ctx, product)
	if err == nil && req.Stock != nil {
		product.Stock = *req.Stock
		err = s.productRepo.SetStock(ctx, product)
	}
	s.cache.Invalidate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

func (s *ProductService) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("category_id is required")
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return nil
}

func validateProduct(p *model.Product) error {
	switch {
	case p.Name == "":
		return validationError("name is required")
	case strings.TrimSpace(p.Unit) == "":
		return validationError("unit is required")
	case p.Stock < 0:
		return validationError("stock must not be negative")
	case p.Discount < 0 || p.Discount > 100:
		return validationError("discount must be between 0 and 100")
	}
	return nil
}

func toProductResponses(products []model.Product) []dto.ProductResponse {
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return items
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Unit:        p.Unit,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		Stock:       p.Stock,
		Organic:     p.Organic,
		Featured:    p.Featured,
		Discount:    p.Discount,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
