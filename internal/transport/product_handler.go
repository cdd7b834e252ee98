package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/middleware"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImageRequest is one image in a product submission. Clients may send either
// a bare URL string or an object with url and optional alt text.
type ImageRequest struct {
	URL string `json:"url" validate:"required"`
	Alt string `json:"alt"`
}

// UnmarshalJSON accepts both "https://..." and {"url": "...", "alt": "..."}
func (i *ImageRequest) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		i.URL = url
		i.Alt = ""
		return nil
	}

	type imageObject struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	}
	var obj imageObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("image must be a url string or an object with a url field: %w", err)
	}
	i.URL = obj.URL
	i.Alt = obj.Alt
	return nil
}

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=50"`
	Description string          `json:"description" validate:"required,min=2,max=1000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	SKU         *string         `json:"sku" validate:"omitempty,min=1,max=100"`
	IsActive    *bool           `json:"isActive"`
	Categories  []string        `json:"categories" validate:"dive,uuid"`
	Images      []ImageRequest  `json:"images" validate:"dive"`
}

// UpdateProductRequest represents a partial product update. Omitted scalar
// fields stay unchanged. Categories and Images are tri-state: a missing key
// leaves the relation untouched, an empty array clears it.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=50"`
	Description *string          `json:"description" validate:"omitempty,min=2,max=1000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	IsActive    *bool            `json:"isActive"`
	Categories  *[]string        `json:"categories" validate:"omitempty,dive,uuid"`
	Images      *[]ImageRequest  `json:"images" validate:"omitempty,dive"`
}

// ImageResponse represents one product image in API responses
type ImageResponse struct {
	ID     uuid.UUID `json:"id"`
	URL    string    `json:"url"`
	Alt    string    `json:"alt"`
	IsMain bool      `json:"isMain"`
}

// CategoryLinkResponse wraps a joined category the way the admin UI expects
type CategoryLinkResponse struct {
	Category CategoryRef `json:"category"`
}

// CategoryRef is the minimal category projection inside a product response
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductResponse echoes the stored aggregate with joined relations
type ProductResponse struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Price       decimal.Decimal        `json:"price"`
	Stock       int                    `json:"stock"`
	SKU         *string                `json:"sku"`
	IsActive    bool                   `json:"isActive"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	Categories  []CategoryLinkResponse `json:"categories"`
	Images      []ImageResponse        `json:"images"`
}

// ProductRefResponse is the id/name pair for reference pickers
type ProductRefResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/ids", h.ListRefs)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /products with an optional ?search= filter
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	sortBy := r.URL.Query().Get("sort")
	order := parseSortOrder(r.URL.Query().Get("order"))

	products, err := h.productService.List(r.Context(), search, sortBy, order)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	response := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		response = append(response, toProductResponse(product))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// ListRefs handles GET /products/ids
func (h *ProductHandler) ListRefs(w http.ResponseWriter, r *http.Request) {
	refs, err := h.productService.ListRefs(r.Context())
	if err != nil {
		h.logger.Error("Failed to list product refs", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	response := make([]ProductRefResponse, 0, len(refs))
	for _, ref := range refs {
		response = append(response, ProductRefResponse{ID: ref.ID, Name: ref.Name})
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// GetByID handles GET /products/{id}
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "Failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// Create handles POST /products. The payload carries the validated product
// fields plus the category id list and the already-uploaded image URLs; the
// whole aggregate is written in one transaction.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Price.IsNegative() {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "Price", Message: "Value must be greater than or equal to 0"},
		})
		return
	}

	categoryIDs, err := parseCategoryIDs(req.Categories)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	input := service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		IsActive:    isActive,
		CategoryIDs: categoryIDs,
		Images:      toImageInputs(req.Images),
	}

	product, err := h.productService.Create(r.Context(), input)
	if err != nil {
		h.respondProductError(w, err, "Failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update handles PUT /products/{id} with partial-update semantics
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Price != nil && req.Price.IsNegative() {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "Price", Message: "Value must be greater than or equal to 0"},
		})
		return
	}

	input := service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		IsActive:    req.IsActive,
	}

	if req.Categories != nil {
		categoryIDs, err := parseCategoryIDs(*req.Categories)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
			return
		}
		input.CategoryIDs = &categoryIDs
	}

	if req.Images != nil {
		images := toImageInputs(*req.Images)
		input.Images = &images
	}

	product, err := h.productService.Update(r.Context(), id, input)
	if err != nil {
		h.respondProductError(w, err, "Failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete handles DELETE /products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.respondProductError(w, err, "Failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

func (h *ProductHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "product ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idParam)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return uuid.Nil, false
	}

	return id, true
}

func (h *ProductHandler) respondProductError(w http.ResponseWriter, err error, logMessage string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrDuplicateSKU):
		middleware.RespondWithError(w, http.StatusConflict, "product with this sku already exists")
	default:
		h.logger.Error(logMessage, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func parseCategoryIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toImageInputs(images []ImageRequest) []service.ImageInput {
	inputs := make([]service.ImageInput, 0, len(images))
	for _, image := range images {
		inputs = append(inputs, service.ImageInput{URL: image.URL, Alt: image.Alt})
	}
	return inputs
}

func toProductResponse(product *domain.Product) ProductResponse {
	images := make([]ImageResponse, 0, len(product.Images))
	for _, image := range product.Images {
		images = append(images, ImageResponse{
			ID:     image.ID,
			URL:    image.URL,
			Alt:    image.Alt,
			IsMain: image.IsMain,
		})
	}

	categories := make([]CategoryLinkResponse, 0, len(product.Categories))
	for _, link := range product.Categories {
		categories = append(categories, CategoryLinkResponse{
			Category: CategoryRef{ID: link.Category.ID, Name: link.Category.Name},
		})
	}

	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		SKU:         product.SKU,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
		Categories:  categories,
		Images:      images,
	}
}
