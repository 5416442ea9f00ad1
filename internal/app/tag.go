package app

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"revendo/pkg/domain"
)

const (
	tagMinLen = 2
	tagMaxLen = 30

	tagSearchMinLen = 2
	productTagLimit = 10
)

// CreateTag creates a tag, or returns the existing one when the name
// is already taken. Names are trimmed and matched case-insensitively.
func (a *App) CreateTag(name string) (domain.Tag, error) {
	normalized, err := normalizeTagName(name)
	if err != nil {
		return domain.Tag{}, err
	}
	existing, ok, err := a.store.FindTagByName(normalized)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("find tag: %w", err)
	}
	if ok {
		return existing, nil
	}
	tag := domain.Tag{
		ID:        uuid.NewString(),
		Name:      normalized,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveTag(tag); err != nil {
		return domain.Tag{}, fmt.Errorf("save tag: %w", err)
	}
	return tag, nil
}

// SearchTags returns tags matching the query by substring.
func (a *App) SearchTags(query string, limit int) ([]domain.Tag, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if utf8.RuneCountInString(query) < tagSearchMinLen {
		return nil, fmt.Errorf("%w: search query must be at least %d characters", ErrValidation, tagSearchMinLen)
	}
	tags, err := a.store.SearchTags(query, limit)
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	return tags, nil
}

// PopularTags returns tags ordered by how many products carry them.
func (a *App) PopularTags(limit int) ([]domain.Tag, error) {
	tags, err := a.store.ListPopularTags(limit)
	if err != nil {
		return nil, fmt.Errorf("list popular tags: %w", err)
	}
	return tags, nil
}

// TagProduct replaces a product's tags. Missing tags are created on the
// fly; duplicates collapse onto the existing tag. Owner only.
func (a *App) TagProduct(owner domain.User, productID string, names []string) (domain.Product, error) {
	product, ok, err := a.store.GetProduct(productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if product.OwnerID != owner.ID {
		return domain.Product{}, fmt.Errorf("%w: only the owner may tag a product", ErrNotAuthorized)
	}
	if len(names) > productTagLimit {
		return domain.Product{}, fmt.Errorf("%w: at most %d tags per product", ErrValidation, productTagLimit)
	}
	seen := make(map[string]bool, len(names))
	tagIDs := make([]string, 0, len(names))
	tagNames := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := a.CreateTag(name)
		if err != nil {
			return domain.Product{}, err
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		tagIDs = append(tagIDs, tag.ID)
		tagNames = append(tagNames, tag.Name)
	}
	if err := a.store.ReplaceProductTags(product.ID, tagIDs); err != nil {
		return domain.Product{}, fmt.Errorf("replace product tags: %w", err)
	}
	product.Tags = tagNames
	return product, nil
}

func normalizeTagName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if n := utf8.RuneCountInString(normalized); n < tagMinLen || n > tagMaxLen {
		return "", fmt.Errorf("%w: tag name must be %d to %d characters", ErrValidation, tagMinLen, tagMaxLen)
	}
	return normalized, nil
}
