package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"catalog-admin/internal/domain"
)

// ImageRepository provides read access to product images across products,
// used by the image gallery view.
type ImageRepository interface {
	List(ctx context.Context, query string) ([]domain.ProductImage, error)
}

type imageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepository{db: db}
}

// List retrieves all product images, optionally filtered by a
// case-insensitive substring match on url or alt text.
func (r *imageRepository) List(ctx context.Context, query string) ([]domain.ProductImage, error) {
	whereClause := ""
	args := []any{}
	if strings.TrimSpace(query) != "" {
		whereClause = "WHERE url ILIKE $1 OR alt ILIKE $1"
		args = append(args, "%"+strings.TrimSpace(query)+"%")
	}

	stmt := fmt.Sprintf(`
		SELECT id, url, alt, is_main, product_id
		FROM product_images
		%s
		ORDER BY product_id, position ASC
	`, whereClause)

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	images := []domain.ProductImage{}
	for rows.Next() {
		var image domain.ProductImage
		if err := rows.Scan(&image.ID, &image.URL, &image.Alt, &image.IsMain, &image.ProductID); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, image)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}
