package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"revendo/pkg/domain"
	"revendo/pkg/store"
)

// RatePurchase records a 1-5 score from one side of a completed
// purchase about the other. Each side rates at most once; the store
// flips the per-role flag in the same transaction as the rating insert,
// so a concurrent duplicate fails with a conflict.
func (a *App) RatePurchase(ctx context.Context, rater domain.User, purchaseID string, score int, comment string) (domain.Rating, error) {
	if score < 1 || score > 5 {
		return domain.Rating{}, fmt.Errorf("%w: score must be between 1 and 5", ErrValidation)
	}
	purchase, ok, err := a.store.GetPurchase(purchaseID)
	if err != nil {
		return domain.Rating{}, fmt.Errorf("fetch purchase: %w", err)
	}
	if !ok {
		return domain.Rating{}, fmt.Errorf("%w: purchase %s", ErrNotFound, purchaseID)
	}
	if purchase.Status != domain.PurchaseCompleted {
		return domain.Rating{}, fmt.Errorf("%w: purchase is %s, only completed purchases can be rated", ErrInvalidState, purchase.Status)
	}

	var role domain.RatingRole
	var ratedID string
	switch rater.ID {
	case purchase.BuyerID:
		role = domain.BuyerRatesSeller
		ratedID = purchase.SellerID
		if purchase.BuyerRated {
			return domain.Rating{}, fmt.Errorf("%w: buyer already rated this purchase", ErrConflict)
		}
	case purchase.SellerID:
		role = domain.SellerRatesBuyer
		ratedID = purchase.BuyerID
		if purchase.SellerRated {
			return domain.Rating{}, fmt.Errorf("%w: seller already rated this purchase", ErrConflict)
		}
	default:
		return domain.Rating{}, fmt.Errorf("%w: only the buyer or seller may rate this purchase", ErrNotAuthorized)
	}
	if ratedID == rater.ID {
		return domain.Rating{}, fmt.Errorf("%w: cannot rate yourself", ErrNotAuthorized)
	}

	rating := domain.Rating{
		ID:         uuid.NewString(),
		PurchaseID: purchase.ID,
		Role:       role,
		RaterID:    rater.ID,
		RatedID:    ratedID,
		Score:      score,
		Comment:    strings.TrimSpace(comment),
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.store.CreateRating(rating); err != nil {
		if errors.Is(err, store.ErrAlreadyRated) {
			return domain.Rating{}, fmt.Errorf("%w: purchase already rated for this role", ErrConflict)
		}
		return domain.Rating{}, fmt.Errorf("save rating: %w", err)
	}

	a.notifyBestEffort(ctx, ratedID, "You received a rating",
		fmt.Sprintf("%s rated you %d/5", rater.Name, score))
	// Buy-now purchases have no negotiation thread to notify.
	if purchase.ThreadID != "" {
		a.notifyBestEffort(ctx, purchase.ThreadID, "Rating submitted",
			fmt.Sprintf("%s submitted a %d/5 rating for purchase %s", rater.Name, score, purchase.ID))
	}
	return rating, nil
}

// ListUserRatings returns ratings received by a user, newest first.
func (a *App) ListUserRatings(userID string) ([]domain.Rating, error) {
	if _, ok, err := a.store.GetUserByID(userID); err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	ratings, err := a.store.ListRatingsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}
