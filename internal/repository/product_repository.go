package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductUpdate carries a partial update for a product aggregate. Nil scalar
// fields are left unchanged. CategoryIDs and Images are tri-state: nil means
// "leave the relation untouched", a non-nil slice (even empty) means "replace
// the whole set with this one".
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	SKU         *string
	IsActive    *bool
	CategoryIDs *[]uuid.UUID
	Images      *[]domain.ProductImage
}

// ProductRepository defines the interface for product aggregate data access.
// Create, Update and Delete each run inside a single transaction so that a
// product and its images and category links are never partially visible.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, categoryIDs []uuid.UUID, images []domain.ProductImage) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, upd ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, search string, sortBy string, sortOrder SortOrder) ([]*domain.Product, error)
	ListRefs(ctx context.Context) ([]domain.ProductRef, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx so aggregate reads can
// run inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create inserts the product row, one membership row per category id and one
// image row per image, all in one transaction, then re-reads the aggregate.
// Either every row is committed or none are.
func (r *productRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []uuid.UUID, images []domain.ProductImage) (*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (id, name, description, price, stock, sku, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.SKU,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if err := insertCategoryLinks(ctx, tx, product.ID, categoryIDs); err != nil {
		return nil, err
	}

	if err := insertImages(ctx, tx, product.ID, images); err != nil {
		return nil, err
	}

	created, err := loadAggregate(ctx, tx, product.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// Update applies a partial update to the product row and, when a category or
// image set is supplied, replaces the whole related-row set. All changes
// commit together or not at all.
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, upd ProductUpdate) (*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	setClauses := []string{}
	args := []any{id}
	argIndex := 2

	addSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.Description != nil {
		addSet("description", *upd.Description)
	}
	if upd.Price != nil {
		addSet("price", *upd.Price)
	}
	if upd.Stock != nil {
		addSet("stock", *upd.Stock)
	}
	if upd.SKU != nil {
		addSet("sku", *upd.SKU)
	}
	if upd.IsActive != nil {
		addSet("is_active", *upd.IsActive)
	}

	if len(setClauses) > 0 {
		addSet("updated_at", time.Now().UTC())
		query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $1`, strings.Join(setClauses, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if pgErrorCode(err) == pgUniqueViolation {
				return nil, ErrDuplicateSKU
			}
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	if upd.CategoryIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, id); err != nil {
			return nil, fmt.Errorf("failed to clear product categories: %w", err)
		}
		if err := insertCategoryLinks(ctx, tx, id, *upd.CategoryIDs); err != nil {
			return nil, err
		}
	}

	if upd.Images != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, id); err != nil {
			return nil, fmt.Errorf("failed to clear product images: %w", err)
		}
		if err := insertImages(ctx, tx, id, *upd.Images); err != nil {
			return nil, err
		}
	}

	updated, err := loadAggregate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}

// Delete removes a product together with every row that references it. Cart
// and order lines pointing at the product are removed first (the back-office
// policy is cascade, not reject); images and category links go through the
// schema's ON DELETE CASCADE.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a product with its joined categories and images
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return loadAggregate(ctx, r.db, id)
}

// List retrieves products with an optional case-insensitive substring match
// on name. Each product carries its joined categories and images; products
// without relations get empty slices, never nil.
func (r *productRepository) List(ctx context.Context, search string, sortBy string, sortOrder SortOrder) ([]*domain.Product, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"stock":      true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	whereClause := ""
	args := []any{}
	if strings.TrimSpace(search) != "" {
		whereClause = "WHERE name ILIKE $1"
		args = append(args, "%"+strings.TrimSpace(search)+"%")
	}

	query := fmt.Sprintf(`
		SELECT id, name, description, price, stock, sku, is_active, created_at, updated_at
		FROM products
		%s
		ORDER BY %s %s
	`, whereClause, sortBy, sortOrder)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := attachRelations(ctx, r.db, products); err != nil {
		return nil, err
	}

	return products, nil
}

// ListRefs returns minimal id/name pairs for reference pickers
func (r *productRepository) ListRefs(ctx context.Context) ([]domain.ProductRef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list product refs: %w", err)
	}
	defer rows.Close()

	refs := []domain.ProductRef{}
	for rows.Next() {
		var ref domain.ProductRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan product ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product refs: %w", err)
	}

	return refs, nil
}

// insertCategoryLinks inserts one membership row per category id. An unknown
// category id violates the foreign key and surfaces as ErrCategoryNotFound
// rather than being silently skipped.
func insertCategoryLinks(ctx context.Context, q querier, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	query := `
		INSERT INTO product_categories (product_id, category_id)
		VALUES ($1, $2)
	`

	for _, categoryID := range categoryIDs {
		if _, err := q.ExecContext(ctx, query, productID, categoryID); err != nil {
			if pgErrorCode(err) == pgForeignKeyViolation {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to link category %s: %w", categoryID, err)
		}
	}

	return nil
}

// insertImages inserts the image rows in input order; the position column
// preserves upload order for reads.
func insertImages(ctx context.Context, q querier, productID uuid.UUID, images []domain.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, url, alt, is_main, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i, image := range images {
		if _, err := q.ExecContext(ctx, query, image.ID, productID, image.URL, image.Alt, image.IsMain, i); err != nil {
			return fmt.Errorf("failed to insert product image: %w", err)
		}
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for product scanning
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	product := &domain.Product{
		Images:     []domain.ProductImage{},
		Categories: []domain.ProductCategory{},
	}
	err := s.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.SKU,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return product, nil
}

// loadAggregate re-reads one product with its joined categories and images
func loadAggregate(ctx context.Context, q querier, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, stock, sku, is_active, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	product, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := attachRelations(ctx, q, []*domain.Product{product}); err != nil {
		return nil, err
	}

	return product, nil
}

// attachRelations batch-loads images and category links for the given
// products and attaches them in order.
func attachRelations(ctx context.Context, q querier, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID.String())
	}

	imageQuery := `
		SELECT id, url, alt, is_main, product_id
		FROM product_images
		WHERE product_id = ANY($1::uuid[])
		ORDER BY product_id, position ASC
	`

	imageRows, err := q.QueryContext(ctx, imageQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to load product images: %w", err)
	}
	defer imageRows.Close()

	for imageRows.Next() {
		var image domain.ProductImage
		if err := imageRows.Scan(&image.ID, &image.URL, &image.Alt, &image.IsMain, &image.ProductID); err != nil {
			return fmt.Errorf("failed to scan product image: %w", err)
		}
		if p, ok := byID[image.ProductID]; ok {
			p.Images = append(p.Images, image)
		}
	}
	if err = imageRows.Err(); err != nil {
		return fmt.Errorf("error iterating product images: %w", err)
	}

	categoryQuery := `
		SELECT pc.product_id, pc.category_id, c.id, c.name, c.description, c.created_at
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1::uuid[])
		ORDER BY c.name ASC
	`

	categoryRows, err := q.QueryContext(ctx, categoryQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to load product categories: %w", err)
	}
	defer categoryRows.Close()

	for categoryRows.Next() {
		var link domain.ProductCategory
		err := categoryRows.Scan(
			&link.ProductID,
			&link.CategoryID,
			&link.Category.ID,
			&link.Category.Name,
			&link.Category.Description,
			&link.Category.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan product category: %w", err)
		}
		if p, ok := byID[link.ProductID]; ok {
			p.Categories = append(p.Categories, link)
		}
	}
	if err = categoryRows.Err(); err != nil {
		return fmt.Errorf("error iterating product categories: %w", err)
	}

	return nil
}
