package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"revendo/pkg/domain"
)

const (
	commentMinLen = 3
	commentMaxLen = 1000

	// Max comments per user per product per UTC calendar day.
	commentDailyLimit = 5
)

// AddComment attaches a comment to a product. Text is trimmed and must
// be 3 to 1000 characters; a user may leave at most five comments on
// the same product per UTC day.
func (a *App) AddComment(ctx context.Context, author domain.User, productID, text string) (domain.Comment, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < commentMinLen || n > commentMaxLen {
		return domain.Comment{}, fmt.Errorf("%w: comment must be %d to %d characters", ErrValidation, commentMinLen, commentMaxLen)
	}
	product, ok, err := a.store.GetProduct(productID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Comment{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := a.store.CountUserProductCommentsSince(author.ID, product.ID, dayStart)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("count comments: %w", err)
	}
	if count >= commentDailyLimit {
		return domain.Comment{}, fmt.Errorf("%w: comment limit of %d per product per day reached", ErrConflict, commentDailyLimit)
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		AuthorID:  author.ID,
		Text:      text,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveComment(comment); err != nil {
		return domain.Comment{}, fmt.Errorf("save comment: %w", err)
	}
	if product.OwnerID != author.ID {
		a.notifyBestEffort(ctx, product.OwnerID, "New comment on your product",
			fmt.Sprintf("%s commented on %s", author.Name, product.Name))
	}
	return comment, nil
}

// ListProductComments returns a product's comments, newest first.
// Inactive comments are only included for admins.
func (a *App) ListProductComments(viewer domain.User, productID string) ([]domain.Comment, error) {
	if _, ok, err := a.store.GetProduct(productID); err != nil {
		return nil, fmt.Errorf("fetch product: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	comments, err := a.store.ListProductComments(productID, viewer.Role == domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// DeactivateComment soft-deletes a comment. The author or an admin may
// deactivate; the author is notified when a moderator removes it.
func (a *App) DeactivateComment(ctx context.Context, actor domain.User, commentID string) (domain.Comment, error) {
	comment, ok, err := a.store.GetComment(commentID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("fetch comment: %w", err)
	}
	if !ok {
		return domain.Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
	}
	if actor.ID != comment.AuthorID && actor.Role != domain.RoleAdmin {
		return domain.Comment{}, fmt.Errorf("%w: only the author or an admin may remove a comment", ErrNotAuthorized)
	}
	if !comment.Active {
		return domain.Comment{}, fmt.Errorf("%w: comment is already inactive", ErrInvalidState)
	}
	comment.Active = false
	comment.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveComment(comment); err != nil {
		return domain.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	a.notifyBestEffort(ctx, comment.AuthorID, "Comment removed",
		"One of your comments has been removed")
	return comment, nil
}

// RestoreComment reverses a soft delete. Admin only.
func (a *App) RestoreComment(actor domain.User, commentID string) (domain.Comment, error) {
	if actor.Role != domain.RoleAdmin {
		return domain.Comment{}, fmt.Errorf("%w: only admins may restore comments", ErrNotAuthorized)
	}
	comment, ok, err := a.store.GetComment(commentID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("fetch comment: %w", err)
	}
	if !ok {
		return domain.Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
	}
	if comment.Active {
		return domain.Comment{}, fmt.Errorf("%w: comment is already active", ErrInvalidState)
	}
	comment.Active = true
	comment.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveComment(comment); err != nil {
		return domain.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}
