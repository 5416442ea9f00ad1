package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"revendo/pkg/domain"
	"revendo/pkg/store"
)

// completedPurchase drives a full buy-now plus completion so the
// purchase is ratable.
func completedPurchase(t *testing.T, a *App, buyer, seller domain.User, productID string) domain.Purchase {
	t.Helper()
	ctx := context.Background()
	purchase, err := a.BuyNow(ctx, buyer, productID)
	if err != nil {
		t.Fatalf("buy now: %v", err)
	}
	completed, err := a.CompletePurchase(ctx, seller, purchase.ID)
	if err != nil {
		t.Fatalf("complete purchase: %v", err)
	}
	return completed
}

func TestRatePurchaseBothSides(t *testing.T) {
	a, memStore, notifier := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")
	purchase := completedPurchase(t, a, buyer, seller, product.ID)

	sentBefore := len(notifier.Sent())
	rating, err := a.RatePurchase(ctx, buyer, purchase.ID, 5, "great seller")
	if err != nil {
		t.Fatalf("buyer rating: %v", err)
	}
	if rating.Role != domain.BuyerRatesSeller || rating.RatedID != seller.ID {
		t.Fatalf("rating role=%s rated=%q, want buyer_rates_seller/%q", rating.Role, rating.RatedID, seller.ID)
	}
	// Buy-now purchases have no negotiation thread, so only the rated
	// party is notified.
	if got := len(notifier.Sent()) - sentBefore; got != 1 {
		t.Fatalf("notifications sent = %d, want 1", got)
	}

	if _, err := a.RatePurchase(ctx, seller, purchase.ID, 4, ""); err != nil {
		t.Fatalf("seller rating: %v", err)
	}

	got, ok, err := memStore.GetPurchase(purchase.ID)
	if err != nil || !ok {
		t.Fatalf("fetch purchase: ok=%v err=%v", ok, err)
	}
	if !got.BuyerRated || !got.SellerRated {
		t.Fatalf("rated flags = buyer:%v seller:%v, want both true", got.BuyerRated, got.SellerRated)
	}

	ratings, err := a.ListUserRatings(seller.ID)
	if err != nil {
		t.Fatalf("list seller ratings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Score != 5 {
		t.Fatalf("seller ratings = %+v, want one 5-score rating", ratings)
	}
}

func TestRatePurchaseOncePerRole(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")
	purchase := completedPurchase(t, a, buyer, seller, product.ID)

	if _, err := a.RatePurchase(ctx, buyer, purchase.ID, 5, ""); err != nil {
		t.Fatalf("first buyer rating: %v", err)
	}
	if _, err := a.RatePurchase(ctx, buyer, purchase.ID, 1, ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("second buyer rating: %v, want ErrConflict", err)
	}
	// The seller side is still open.
	if _, err := a.RatePurchase(ctx, seller, purchase.ID, 3, ""); err != nil {
		t.Fatalf("seller rating: %v", err)
	}
}

func TestRatePurchaseRequiresCompletion(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	purchase, err := a.BuyNow(ctx, buyer, product.ID)
	if err != nil {
		t.Fatalf("buy now: %v", err)
	}
	if _, err := a.RatePurchase(ctx, buyer, purchase.ID, 5, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("rating pending purchase: %v, want ErrInvalidState", err)
	}
}

func TestRatePurchaseRequiresParticipant(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	outsider := seedUser(t, memStore, "mallory")
	product := seedProduct(t, memStore, seller, "60.00")
	purchase := completedPurchase(t, a, buyer, seller, product.ID)

	if _, err := a.RatePurchase(ctx, outsider, purchase.ID, 5, ""); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("outsider rating: %v, want ErrNotAuthorized", err)
	}
}

func TestRatePurchaseScoreBounds(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")
	purchase := completedPurchase(t, a, buyer, seller, product.ID)

	for _, score := range []int{0, -1, 6, 100} {
		if _, err := a.RatePurchase(ctx, buyer, purchase.ID, score, ""); !errors.Is(err, ErrValidation) {
			t.Fatalf("score %d: %v, want ErrValidation", score, err)
		}
	}
	if _, err := a.RatePurchase(ctx, buyer, purchase.ID, 1, ""); err != nil {
		t.Fatalf("score 1: %v", err)
	}
}

func TestRatingFromNegotiatedPurchase(t *testing.T) {
	a, memStore, notifier := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	m1, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("45.50"))
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	_, purchase, err := a.AcceptOffer(ctx, seller, m1.ID)
	if err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	if _, err := a.CompletePurchase(ctx, buyer, purchase.ID); err != nil {
		t.Fatalf("complete purchase: %v", err)
	}
	sentBefore := len(notifier.Sent())
	rating, err := a.RatePurchase(ctx, seller, purchase.ID, 4, "smooth deal")
	if err != nil {
		t.Fatalf("seller rating: %v", err)
	}
	if rating.Role != domain.SellerRatesBuyer || rating.RatedID != buyer.ID {
		t.Fatalf("rating role=%s rated=%q, want seller_rates_buyer/%q", rating.Role, rating.RatedID, buyer.ID)
	}
	// Rated party and the negotiation thread each get a notification.
	if got := len(notifier.Sent()) - sentBefore; got != 2 {
		t.Fatalf("notifications sent = %d, want 2", got)
	}
}

// failingNotifier simulates an unreachable delivery backend.
type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, string, string, string) error {
	return errors.New("notifier down")
}

func TestRatePurchaseSurvivesNotifierFailure(t *testing.T) {
	memStore := store.NewMemoryStore()
	sessions, err := store.NewJWTSessionStore(store.JWTOptions{
		Secret: "test-secret",
		TTL:    time.Minute,
	}, store.NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	a, err := New(Config{
		Store:         memStore,
		Sessions:      sessions,
		RefreshTokens: store.NewMemoryRefreshTokenStore(),
		Notifier:      failingNotifier{},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")
	purchase := completedPurchase(t, a, buyer, seller, product.ID)

	if _, err := a.RatePurchase(ctx, buyer, purchase.ID, 5, "great seller"); err != nil {
		t.Fatalf("rating with failing notifier: %v", err)
	}
	got, ok, err := memStore.GetPurchase(purchase.ID)
	if err != nil || !ok {
		t.Fatalf("fetch purchase: ok=%v err=%v", ok, err)
	}
	if !got.BuyerRated {
		t.Fatalf("buyer rated flag not set")
	}
	ratings, err := memStore.ListRatingsForUser(seller.ID)
	if err != nil {
		t.Fatalf("list ratings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Score != 5 {
		t.Fatalf("seller ratings = %+v, want one 5-score rating", ratings)
	}
}
