package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"revendo/pkg/domain"
)

func TestBuyNow(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	purchase, err := a.BuyNow(ctx, buyer, product.ID)
	if err != nil {
		t.Fatalf("buy now: %v", err)
	}
	if !purchase.FinalPrice.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("final price = %s, want asking price 60.00", purchase.FinalPrice)
	}
	got, _, _ := memStore.GetProduct(product.ID)
	if got.Status != domain.ProductReserved {
		t.Fatalf("product status = %s, want reserved", got.Status)
	}

	// A reserved product cannot be bought again.
	other := seedUser(t, memStore, "carol")
	if _, err := a.BuyNow(ctx, other, product.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("buying reserved product: %v, want ErrInvalidState", err)
	}
	if _, err := a.BuyNow(ctx, seller, product.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("owner buying own product: %v, want ErrNotAuthorized", err)
	}
}

func TestCompletePurchase(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	outsider := seedUser(t, memStore, "mallory")
	product := seedProduct(t, memStore, seller, "60.00")

	purchase, err := a.BuyNow(ctx, buyer, product.ID)
	if err != nil {
		t.Fatalf("buy now: %v", err)
	}
	if _, err := a.CompletePurchase(ctx, outsider, purchase.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("outsider completing: %v, want ErrNotAuthorized", err)
	}
	completed, err := a.CompletePurchase(ctx, buyer, purchase.ID)
	if err != nil {
		t.Fatalf("complete purchase: %v", err)
	}
	if completed.Status != domain.PurchaseCompleted {
		t.Fatalf("purchase status = %s, want completed", completed.Status)
	}
	got, _, _ := memStore.GetProduct(product.ID)
	if got.Status != domain.ProductSold {
		t.Fatalf("product status = %s, want sold", got.Status)
	}
	if _, err := a.CompletePurchase(ctx, buyer, purchase.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double complete: %v, want ErrInvalidState", err)
	}
}

func TestCancelPurchaseReleasesProduct(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	purchase, err := a.BuyNow(ctx, buyer, product.ID)
	if err != nil {
		t.Fatalf("buy now: %v", err)
	}
	cancelled, err := a.CancelPurchase(ctx, seller, purchase.ID)
	if err != nil {
		t.Fatalf("cancel purchase: %v", err)
	}
	if cancelled.Status != domain.PurchaseCancelled {
		t.Fatalf("purchase status = %s, want cancelled", cancelled.Status)
	}
	got, _, _ := memStore.GetProduct(product.ID)
	if got.Status != domain.ProductAvailable {
		t.Fatalf("product status = %s, want available", got.Status)
	}
	// Cancelled purchases cannot be completed or rated.
	if _, err := a.CompletePurchase(ctx, buyer, purchase.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete after cancel: %v, want ErrInvalidState", err)
	}
	if _, err := a.RatePurchase(ctx, buyer, purchase.ID, 5, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("rate after cancel: %v, want ErrInvalidState", err)
	}
}

func TestListMyPurchases(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	if _, err := a.BuyNow(ctx, buyer, product.ID); err != nil {
		t.Fatalf("buy now: %v", err)
	}
	for _, user := range []domain.User{buyer, seller} {
		purchases, err := a.ListMyPurchases(user)
		if err != nil {
			t.Fatalf("list purchases for %s: %v", user.Name, err)
		}
		if len(purchases) != 1 {
			t.Fatalf("purchases for %s = %d, want 1", user.Name, len(purchases))
		}
	}
}
