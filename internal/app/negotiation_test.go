package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"revendo/pkg/domain"
)

func TestOfferCounterAccept(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	m1, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("45.50"))
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	if m1.Type != domain.MessageOffer {
		t.Fatalf("m1 type = %s, want offer", m1.Type)
	}
	if !m1.OfferedPrice.Equal(decimal.RequireFromString("45.50")) {
		t.Fatalf("m1 offered = %s, want 45.50", m1.OfferedPrice)
	}
	if !m1.OriginalPrice.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("m1 original = %s, want 60.00", m1.OriginalPrice)
	}
	if m1.RecipientID != seller.ID {
		t.Fatalf("m1 recipient = %q, want seller %q", m1.RecipientID, seller.ID)
	}

	m2, err := a.CounterOffer(ctx, seller, m1.ID, decimal.RequireFromString("50.00"))
	if err != nil {
		t.Fatalf("counter offer: %v", err)
	}
	if m2.Type != domain.MessageCounterOffer {
		t.Fatalf("m2 type = %s, want counter_offer", m2.Type)
	}
	if m2.RespondsTo != m1.ID {
		t.Fatalf("m2 respondsTo = %q, want %q", m2.RespondsTo, m1.ID)
	}
	if m2.ThreadID != m1.ThreadID {
		t.Fatalf("m2 thread = %q, want %q", m2.ThreadID, m1.ThreadID)
	}
	if !m2.OriginalPrice.Equal(m1.OriginalPrice) {
		t.Fatalf("m2 original = %s, want %s", m2.OriginalPrice, m1.OriginalPrice)
	}

	m3, purchase, err := a.AcceptOffer(ctx, buyer, m2.ID)
	if err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	if m3.Type != domain.MessageOfferAccepted {
		t.Fatalf("m3 type = %s, want offer_accepted", m3.Type)
	}
	if !purchase.FinalPrice.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("final price = %s, want 50.00", purchase.FinalPrice)
	}
	if purchase.BuyerID != buyer.ID || purchase.SellerID != seller.ID {
		t.Fatalf("purchase buyer=%q seller=%q, want %q/%q", purchase.BuyerID, purchase.SellerID, buyer.ID, seller.ID)
	}
	if purchase.Status != domain.PurchasePending {
		t.Fatalf("purchase status = %s, want pending", purchase.Status)
	}

	got, ok, err := memStore.GetProduct(product.ID)
	if err != nil || !ok {
		t.Fatalf("fetch product: ok=%v err=%v", ok, err)
	}
	if got.Status != domain.ProductReserved {
		t.Fatalf("product status = %s, want reserved", got.Status)
	}
}

func TestAcceptIsTerminal(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	m1, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("45.50"))
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	if _, _, err := a.AcceptOffer(ctx, seller, m1.ID); err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	if _, _, err := a.AcceptOffer(ctx, seller, m1.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second accept: %v, want ErrInvalidState", err)
	}
	if _, err := a.RejectOffer(ctx, seller, m1.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reject after accept: %v, want ErrInvalidState", err)
	}
	if _, err := a.CounterOffer(ctx, seller, m1.ID, decimal.RequireFromString("55.00")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("counter after accept: %v, want ErrInvalidState", err)
	}
}

func TestRejectLeavesProductAvailable(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	m1, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("10.00"))
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	m2, err := a.RejectOffer(ctx, seller, m1.ID)
	if err != nil {
		t.Fatalf("reject offer: %v", err)
	}
	if m2.Type != domain.MessageOfferRejected {
		t.Fatalf("m2 type = %s, want offer_rejected", m2.Type)
	}

	got, _, _ := memStore.GetProduct(product.ID)
	if got.Status != domain.ProductAvailable {
		t.Fatalf("product status = %s, want available", got.Status)
	}
	purchases, err := memStore.ListUserPurchases(buyer.ID)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(purchases) != 0 {
		t.Fatalf("purchases = %d, want 0", len(purchases))
	}
}

func TestSubmitOfferValidation(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	if _, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.Zero); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero price: %v, want ErrValidation", err)
	}
	if _, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("-5")); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative price: %v, want ErrValidation", err)
	}
	if _, err := a.SubmitOffer(ctx, seller, product.ID, decimal.RequireFromString("50.00")); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("owner offering on own product: %v, want ErrNotAuthorized", err)
	}
	if _, err := a.SubmitOffer(ctx, buyer, "missing", decimal.RequireFromString("50.00")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing product: %v, want ErrNotFound", err)
	}

	if err := memStore.SetProductStatus(product.ID, domain.ProductSold); err != nil {
		t.Fatalf("set product status: %v", err)
	}
	if _, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("50.00")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("offer on sold product: %v, want ErrInvalidState", err)
	}
}

func TestOnlyRecipientMayRespond(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	intruder := seedUser(t, memStore, "mallory")
	product := seedProduct(t, memStore, seller, "60.00")

	m1, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("45.50"))
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	if _, err := a.CounterOffer(ctx, intruder, m1.ID, decimal.RequireFromString("50.00")); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("intruder counter: %v, want ErrNotAuthorized", err)
	}
	// The sender cannot answer their own offer either.
	if _, _, err := a.AcceptOffer(ctx, buyer, m1.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("sender accepting own offer: %v, want ErrNotAuthorized", err)
	}
}

func TestCounterOfferChain(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "100.00")

	msg, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("70.00"))
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	// Counter offers may go back and forth indefinitely.
	parties := []domain.User{seller, buyer, seller, buyer}
	price := decimal.RequireFromString("71.00")
	for _, responder := range parties {
		next, err := a.CounterOffer(ctx, responder, msg.ID, price)
		if err != nil {
			t.Fatalf("counter offer by %s: %v", responder.Name, err)
		}
		price = price.Add(decimal.RequireFromString("1.00"))
		msg = next
	}
	// After four counters the last message is buyer→seller.
	if msg.RecipientID != seller.ID {
		t.Fatalf("last counter recipient = %q, want seller %q", msg.RecipientID, seller.ID)
	}
	if _, _, err := a.AcceptOffer(ctx, seller, msg.ID); err != nil {
		t.Fatalf("final accept: %v", err)
	}
}

func TestRespondRequiresAvailableProduct(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	buyer := seedUser(t, memStore, "alice")
	seller := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, seller, "60.00")

	offer, err := a.SubmitOffer(ctx, buyer, product.ID, decimal.RequireFromString("45.50"))
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	// The product is reserved out from under the open offer.
	if err := memStore.SetProductStatus(product.ID, domain.ProductReserved); err != nil {
		t.Fatalf("reserve product: %v", err)
	}

	if _, err := a.CounterOffer(ctx, seller, offer.ID, decimal.RequireFromString("50.00")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("counter on reserved product: %v, want ErrInvalidState", err)
	}
	if _, _, err := a.AcceptOffer(ctx, seller, offer.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("accept on reserved product: %v, want ErrInvalidState", err)
	}
}
