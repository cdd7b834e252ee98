package service

import (
	"context"
	"fmt"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImageInput is one already-uploaded image in a create/update submission.
// Ordering is significant: the first image becomes the main image.
type ImageInput struct {
	URL string
	Alt string
}

// CreateProductInput holds validated fields for a new product aggregate
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	SKU         *string
	IsActive    bool
	CategoryIDs []uuid.UUID
	Images      []ImageInput
}

// UpdateProductInput holds a partial update. Nil scalar fields are left
// unchanged. CategoryIDs and Images distinguish "absent" (nil, relation
// untouched) from "empty" (clear the whole set).
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	SKU         *string
	IsActive    *bool
	CategoryIDs *[]uuid.UUID
	Images      *[]ImageInput
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, search string, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, error)
	ListRefs(ctx context.Context) ([]domain.ProductRef, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create builds the aggregate rows from the validated input and writes them
// in one transaction. The first image is flagged as main and images without
// alt text get a derived default.
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		SKU:         input.SKU,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	images := buildImages(product.ID, input.Name, input.Images)

	created, err := s.productRepo.Create(ctx, product, input.CategoryIDs, images)
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update applies a partial update. When a new image list is supplied the alt
// derivation needs the product name, so the current name is read first
// unless the update carries one.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	upd := repository.ProductUpdate{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		SKU:         input.SKU,
		IsActive:    input.IsActive,
		CategoryIDs: input.CategoryIDs,
	}

	if input.Images != nil {
		name, err := s.resolveName(ctx, id, input.Name)
		if err != nil {
			return nil, err
		}
		images := buildImages(id, name, *input.Images)
		upd.Images = &images
	}

	updated, err := s.productRepo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the product and everything referencing it
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves a product with its joined categories and images
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List retrieves products with optional name search and sorting
func (s *productService) List(ctx context.Context, search string, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, error) {
	return s.productRepo.List(ctx, search, sortBy, sortOrder)
}

// ListRefs returns minimal id/name pairs for reference pickers
func (s *productService) ListRefs(ctx context.Context) ([]domain.ProductRef, error) {
	return s.productRepo.ListRefs(ctx)
}

func (s *productService) resolveName(ctx context.Context, id uuid.UUID, name *string) (string, error) {
	if name != nil {
		return *name, nil
	}
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return existing.Name, nil
}

// buildImages converts image inputs to rows in input order. The first image
// is the main one; images without alt text get "<name> image <position+1>".
func buildImages(productID uuid.UUID, productName string, inputs []ImageInput) []domain.ProductImage {
	images := make([]domain.ProductImage, 0, len(inputs))
	for i, input := range inputs {
		alt := input.Alt
		if alt == "" {
			alt = fmt.Sprintf("%s image %d", productName, i+1)
		}
		images = append(images, domain.ProductImage{
			ID:        uuid.New(),
			URL:       input.URL,
			Alt:       alt,
			IsMain:    i == 0,
			ProductID: productID,
		})
	}
	return images
}
