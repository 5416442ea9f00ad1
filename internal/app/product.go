package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"revendo/internal/util"
	"revendo/pkg/domain"
	"revendo/pkg/storage"
)

const (
	productNameMaxLen = 120
	imageURLExpiry    = 15 * time.Minute
)

// CreateProductInput carries the listing fields supplied by the owner.
type CreateProductInput struct {
	Name        string
	Description string
	Condition   string
	Price       decimal.Decimal
	Tags        []string
}

// CreateProduct publishes a new listing owned by the caller.
func (a *App) CreateProduct(ctx context.Context, owner domain.User, in CreateProductInput) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > productNameMaxLen {
		return domain.Product{}, fmt.Errorf("%w: product name must be 1 to %d characters", ErrValidation, productNameMaxLen)
	}
	if !in.Price.IsPositive() {
		return domain.Product{}, fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Condition:   strings.TrimSpace(in.Condition),
		Price:       in.Price,
		Status:      domain.ProductAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveProduct(product); err != nil {
		return domain.Product{}, fmt.Errorf("save product: %w", err)
	}
	if len(in.Tags) > 0 {
		tagged, err := a.TagProduct(owner, product.ID, in.Tags)
		if err != nil {
			return domain.Product{}, err
		}
		product.Tags = tagged.Tags
	}
	return a.withImageURLs(ctx, product), nil
}

// GetProduct returns a single listing with presigned image URLs.
func (a *App) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, ok, err := a.store.GetProduct(id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return a.withImageURLs(ctx, product), nil
}

// ListProducts returns listings, optionally filtered by owner and
// status, newest first.
func (a *App) ListProducts(ctx context.Context, ownerID string, status domain.ProductStatus, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	products, err := a.store.ListProducts(ownerID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for i := range products {
		products[i] = a.withImageURLs(ctx, products[i])
	}
	return products, nil
}

// UploadProductImage stores an image for a listing in object storage.
// Only the owner may upload, and only for listings still available.
func (a *App) UploadProductImage(ctx context.Context, owner domain.User, productID string, r io.Reader, size int64, contentType string) (domain.Product, error) {
	if a.objects == nil {
		return domain.Product{}, fmt.Errorf("object storage not configured")
	}
	product, ok, err := a.store.GetProduct(productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if product.OwnerID != owner.ID {
		return domain.Product{}, fmt.Errorf("%w: only the owner may upload images", ErrNotAuthorized)
	}
	key, err := storage.NewImageKey(product.ID, contentType)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Product{}, fmt.Errorf("store image: %w", err)
	}
	product.ImageKeys = append(product.ImageKeys, key)
	product.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveProduct(product); err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return a.withImageURLs(ctx, product), nil
}

// withImageURLs resolves stored image keys to presigned GET URLs.
// Presign failures degrade to a listing without URLs.
func (a *App) withImageURLs(ctx context.Context, product domain.Product) domain.Product {
	if a.objects == nil || len(product.ImageKeys) == 0 {
		return product
	}
	urls := make([]string, 0, len(product.ImageKeys))
	for _, key := range product.ImageKeys {
		url, err := a.objects.PresignGet(ctx, key, imageURLExpiry)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("presign image url failed", "key", key, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	product.ImageURLs = urls
	return product
}
