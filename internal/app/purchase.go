package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"revendo/pkg/domain"
)

// BuyNow purchases a listing directly at its asking price, skipping
// negotiation. The product moves to reserved until the purchase is
// completed.
func (a *App) BuyNow(ctx context.Context, buyer domain.User, productID string) (domain.Purchase, error) {
	product, ok, err := a.store.GetProduct(productID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Purchase{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if product.OwnerID == buyer.ID {
		return domain.Purchase{}, fmt.Errorf("%w: cannot buy your own product", ErrNotAuthorized)
	}
	if product.Status != domain.ProductAvailable {
		return domain.Purchase{}, fmt.Errorf("%w: product is %s", ErrInvalidState, product.Status)
	}
	now := time.Now().UTC()
	purchase := domain.Purchase{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		BuyerID:    buyer.ID,
		SellerID:   product.OwnerID,
		FinalPrice: product.Price,
		Status:     domain.PurchasePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.CreatePurchase(purchase); err != nil {
		return domain.Purchase{}, fmt.Errorf("create purchase: %w", err)
	}
	if err := a.store.SetProductStatus(product.ID, domain.ProductReserved); err != nil {
		return domain.Purchase{}, fmt.Errorf("reserve product: %w", err)
	}
	a.notifyBestEffort(ctx, product.OwnerID, "Product sold",
		fmt.Sprintf("%s bought %s at the asking price of %s", buyer.Name, product.Name, product.Price.StringFixed(2)))
	return purchase, nil
}

// CompletePurchase marks a pending purchase as completed and the
// product as sold. Either party may confirm completion.
func (a *App) CompletePurchase(ctx context.Context, actor domain.User, purchaseID string) (domain.Purchase, error) {
	purchase, ok, err := a.store.GetPurchase(purchaseID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("fetch purchase: %w", err)
	}
	if !ok {
		return domain.Purchase{}, fmt.Errorf("%w: purchase %s", ErrNotFound, purchaseID)
	}
	if actor.ID != purchase.BuyerID && actor.ID != purchase.SellerID {
		return domain.Purchase{}, fmt.Errorf("%w: only the buyer or seller may complete a purchase", ErrNotAuthorized)
	}
	if purchase.Status != domain.PurchasePending {
		return domain.Purchase{}, fmt.Errorf("%w: purchase is %s", ErrInvalidState, purchase.Status)
	}
	if err := a.store.SetPurchaseStatus(purchase.ID, domain.PurchaseCompleted); err != nil {
		return domain.Purchase{}, fmt.Errorf("complete purchase: %w", err)
	}
	if err := a.store.SetProductStatus(purchase.ProductID, domain.ProductSold); err != nil {
		return domain.Purchase{}, fmt.Errorf("mark product sold: %w", err)
	}
	purchase.Status = domain.PurchaseCompleted
	purchase.UpdatedAt = time.Now().UTC()

	other := purchase.SellerID
	if actor.ID == purchase.SellerID {
		other = purchase.BuyerID
	}
	a.notifyBestEffort(ctx, other, "Purchase completed",
		fmt.Sprintf("Purchase %s has been completed, you can now rate the other party", purchase.ID))
	return purchase, nil
}

// CancelPurchase cancels a pending purchase and releases the product
// back to available. Either party may cancel.
func (a *App) CancelPurchase(ctx context.Context, actor domain.User, purchaseID string) (domain.Purchase, error) {
	purchase, ok, err := a.store.GetPurchase(purchaseID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("fetch purchase: %w", err)
	}
	if !ok {
		return domain.Purchase{}, fmt.Errorf("%w: purchase %s", ErrNotFound, purchaseID)
	}
	if actor.ID != purchase.BuyerID && actor.ID != purchase.SellerID {
		return domain.Purchase{}, fmt.Errorf("%w: only the buyer or seller may cancel a purchase", ErrNotAuthorized)
	}
	if purchase.Status != domain.PurchasePending {
		return domain.Purchase{}, fmt.Errorf("%w: purchase is %s", ErrInvalidState, purchase.Status)
	}
	if err := a.store.SetPurchaseStatus(purchase.ID, domain.PurchaseCancelled); err != nil {
		return domain.Purchase{}, fmt.Errorf("cancel purchase: %w", err)
	}
	if err := a.store.SetProductStatus(purchase.ProductID, domain.ProductAvailable); err != nil {
		return domain.Purchase{}, fmt.Errorf("release product: %w", err)
	}
	purchase.Status = domain.PurchaseCancelled
	purchase.UpdatedAt = time.Now().UTC()

	other := purchase.SellerID
	if actor.ID == purchase.SellerID {
		other = purchase.BuyerID
	}
	a.notifyBestEffort(ctx, other, "Purchase cancelled",
		fmt.Sprintf("Purchase %s has been cancelled", purchase.ID))
	return purchase, nil
}

// ListMyPurchases returns purchases where the user is buyer or seller.
func (a *App) ListMyPurchases(user domain.User) ([]domain.Purchase, error) {
	purchases, err := a.store.ListUserPurchases(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}
