package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Product represents a catalog product together with its owned images and
// its category memberships. A product and its relations form one consistency
// boundary: they are written together inside a single transaction.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	SKU         *string         `json:"sku" db:"sku"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`

	Images     []ProductImage    `json:"images"`
	Categories []ProductCategory `json:"categories"`
}

// ProductImage is owned exclusively by its product. The first image in
// upload order is the main image.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	Alt       string    `json:"alt" db:"alt"`
	IsMain    bool      `json:"isMain" db:"is_main"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
}

// ProductCategory is a membership row in the product/category many-to-many
// relation. The joined category is embedded for read responses.
type ProductCategory struct {
	ProductID  uuid.UUID `json:"productId" db:"product_id"`
	CategoryID uuid.UUID `json:"categoryId" db:"category_id"`
	Category   Category  `json:"category"`
}

// ProductRef is a minimal id/name pair for reference pickers
type ProductRef struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// DashboardStats holds the entity counts shown on the admin dashboard
type DashboardStats struct {
	Users      int `json:"users"`
	Products   int `json:"products"`
	Categories int `json:"categories"`
	Orders     int `json:"orders"`
}
