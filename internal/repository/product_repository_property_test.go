package repository

import (
	"context"
	"testing"
	"time"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func seedCategory(t *testing.T, name string) *domain.Category {
	t.Helper()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name + " " + uuid.New().String(),
		Description: "seeded category",
		CreatedAt:   time.Now().UTC(),
	}
	if err := NewCategoryRepository(testDB).Create(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return category
}

func galleryImages(productID uuid.UUID, n int) []domain.ProductImage {
	images := make([]domain.ProductImage, 0, n)
	for i := 0; i < n; i++ {
		images = append(images, domain.ProductImage{
			ID:        uuid.New(),
			URL:       "https://img.example/" + uuid.New().String() + ".jpg",
			Alt:       "image",
			IsMain:    i == 0,
			ProductID: productID,
		})
	}
	return images
}

func storedProduct(price decimal.Decimal, stock int) *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:          uuid.New(),
		Name:        "Phone",
		Description: "A phone",
		Price:       price,
		Stock:       stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Creating a product and reading it back must preserve every attribute, the
// image order and the main-image flag on the first image.
func TestProperty_ProductAggregateRoundTrip(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("aggregate round trip preserves attributes and image order", prop.ForAll(
		func(cents int, stock int, imageCount int) bool {
			category := seedCategory(t, "Round Trip")
			price := decimal.New(int64(cents), -2)
			product := storedProduct(price, stock)
			images := galleryImages(product.ID, imageCount)

			created, err := repo.Create(ctx, product, []uuid.UUID{category.ID}, images)
			if err != nil {
				t.Logf("FAIL: Create returned error: %v", err)
				return false
			}

			retrieved, err := repo.FindByID(ctx, created.ID)
			if err != nil {
				t.Logf("FAIL: FindByID returned error: %v", err)
				return false
			}

			if !retrieved.Price.Equal(price) {
				t.Logf("FAIL: price mismatch, expected %s got %s", price, retrieved.Price)
				return false
			}
			if retrieved.Stock != stock {
				t.Logf("FAIL: stock mismatch, expected %d got %d", stock, retrieved.Stock)
				return false
			}
			if len(retrieved.Images) != imageCount {
				t.Logf("FAIL: expected %d images, got %d", imageCount, len(retrieved.Images))
				return false
			}
			for i, image := range retrieved.Images {
				if image.URL != images[i].URL {
					t.Logf("FAIL: image %d out of order", i)
					return false
				}
				if image.IsMain != (i == 0) {
					t.Logf("FAIL: image %d has isMain=%v", i, image.IsMain)
					return false
				}
			}
			if len(retrieved.Categories) != 1 || retrieved.Categories[0].CategoryID != category.ID {
				t.Log("FAIL: category membership not preserved")
				return false
			}
			return true
		},
		gen.IntRange(0, 1000000),
		gen.IntRange(0, 10000),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// An explicit empty category list removes every membership; an update that
// omits the list entirely leaves memberships alone.
func TestUpdate_CategoryListReplaceSemantics(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	first := seedCategory(t, "Replace A")
	second := seedCategory(t, "Replace B")

	product := storedProduct(decimal.NewFromInt(100), 5)
	created, err := repo.Create(ctx, product, []uuid.UUID{first.ID, second.ID}, nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(created.Categories) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(created.Categories))
	}

	// Omitted list: memberships survive a scalar-only update.
	stock := 9
	updated, err := repo.Update(ctx, created.ID, ProductUpdate{Stock: &stock})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(updated.Categories) != 2 {
		t.Errorf("expected memberships to survive, got %d", len(updated.Categories))
	}

	// Replacement with a single id.
	replacement := []uuid.UUID{first.ID}
	updated, err = repo.Update(ctx, created.ID, ProductUpdate{CategoryIDs: &replacement})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(updated.Categories) != 1 || updated.Categories[0].CategoryID != first.ID {
		t.Errorf("expected a single membership for %s", first.ID)
	}

	// Empty list clears everything.
	empty := []uuid.UUID{}
	updated, err = repo.Update(ctx, created.ID, ProductUpdate{CategoryIDs: &empty})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(updated.Categories) != 0 {
		t.Errorf("expected no memberships, got %d", len(updated.Categories))
	}
}

func TestUpdate_ImageListReplaceSemantics(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := storedProduct(decimal.NewFromInt(50), 1)
	created, err := repo.Create(ctx, product, nil, galleryImages(product.ID, 3))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	replacement := galleryImages(created.ID, 2)
	updated, err := repo.Update(ctx, created.ID, ProductUpdate{Images: &replacement})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if len(updated.Images) != 2 {
		t.Fatalf("expected 2 images after replacement, got %d", len(updated.Images))
	}
	for i, image := range updated.Images {
		if image.URL != replacement[i].URL {
			t.Errorf("image %d out of order after replacement", i)
		}
	}

	empty := []domain.ProductImage{}
	updated, err = repo.Update(ctx, created.ID, ProductUpdate{Images: &empty})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(updated.Images) != 0 {
		t.Errorf("expected gallery to be cleared, got %d images", len(updated.Images))
	}
}

// A create that collides on sku must leave no trace of the failed aggregate:
// no product row, no image rows, no membership rows.
func TestCreate_DuplicateSKULeavesNoPartialRows(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	sku := "SKU-" + uuid.New().String()
	first := storedProduct(decimal.NewFromInt(10), 1)
	first.SKU = &sku
	if _, err := repo.Create(ctx, first, nil, nil); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	category := seedCategory(t, "Conflict")
	second := storedProduct(decimal.NewFromInt(20), 2)
	second.SKU = &sku

	_, err := repo.Create(ctx, second, []uuid.UUID{category.ID}, galleryImages(second.ID, 2))
	if err != ErrDuplicateSKU {
		t.Fatalf("expected ErrDuplicateSKU, got %v", err)
	}

	var count int
	if err := testDB.QueryRow(`SELECT COUNT(*) FROM products WHERE id = $1`, second.ID).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no product row, found %d", count)
	}
	if err := testDB.QueryRow(`SELECT COUNT(*) FROM product_images WHERE product_id = $1`, second.ID).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no image rows, found %d", count)
	}
	if err := testDB.QueryRow(`SELECT COUNT(*) FROM product_categories WHERE product_id = $1`, second.ID).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no membership rows, found %d", count)
	}
}

func TestCreate_UnknownCategoryRejectsAggregate(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := storedProduct(decimal.NewFromInt(10), 1)
	_, err := repo.Create(ctx, product, []uuid.UUID{uuid.New()}, nil)
	if err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	var count int
	if err := testDB.QueryRow(`SELECT COUNT(*) FROM products WHERE id = $1`, product.ID).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no product row, found %d", count)
	}
}

// Deleting a product removes its images and memberships through the schema
// cascades and its cart and order lines through explicit deletes.
func TestDelete_RemovesOwnedAndReferencingRows(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	category := seedCategory(t, "Cascade")
	product := storedProduct(decimal.NewFromInt(30), 4)
	created, err := repo.Create(ctx, product, []uuid.UUID{category.ID}, galleryImages(product.ID, 2))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	userID := uuid.New()
	cartID := uuid.New()
	orderID := uuid.New()
	if _, err := testDB.Exec(`INSERT INTO users (id, clerk_id) VALUES ($1, $2)`, userID, "clerk_"+uuid.New().String()); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if _, err := testDB.Exec(`INSERT INTO carts (id, user_id) VALUES ($1, $2)`, cartID, userID); err != nil {
		t.Fatalf("failed to seed cart: %v", err)
	}
	if _, err := testDB.Exec(`INSERT INTO cart_items (id, cart_id, product_id, quantity) VALUES ($1, $2, $3, 1)`, uuid.New(), cartID, created.ID); err != nil {
		t.Fatalf("failed to seed cart item: %v", err)
	}
	if _, err := testDB.Exec(`INSERT INTO orders (id, order_number, user_id, total_amount) VALUES ($1, $2, $3, 30)`, orderID, "ORD-"+uuid.New().String(), userID); err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	if _, err := testDB.Exec(`INSERT INTO order_items (id, order_id, product_id, quantity, price_at_time) VALUES ($1, $2, $3, 1, 30)`, uuid.New(), orderID, created.ID); err != nil {
		t.Fatalf("failed to seed order item: %v", err)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	for _, table := range []string{"product_images", "product_categories", "cart_items", "order_items"} {
		var count int
		if err := testDB.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE product_id = $1`, created.ID).Scan(&count); err != nil {
			t.Fatalf("count query failed for %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("expected no rows in %s, found %d", table, count)
		}
	}

	if _, err := repo.FindByID(ctx, created.ID); err != ErrProductNotFound {
		t.Errorf("expected ErrProductNotFound after delete, got %v", err)
	}
}

func TestList_SearchMatchesNameSubstring(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	needle := storedProduct(decimal.NewFromInt(5), 1)
	needle.Name = "Searchable Widget"
	if _, err := repo.Create(ctx, needle, nil, nil); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	products, err := repo.List(ctx, "searchable wid", "name", SortOrderAsc)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	found := false
	for _, product := range products {
		if product.ID == needle.ID {
			found = true
		}
		if product.Images == nil || product.Categories == nil {
			t.Error("listed products must carry empty slices, not nil relations")
		}
	}
	if !found {
		t.Error("expected case-insensitive substring match to find the product")
	}
}
