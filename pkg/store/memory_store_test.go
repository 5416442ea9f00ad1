package store

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"revendo/pkg/domain"
)

func TestMemoryStoreRespondToOfferOnce(t *testing.T) {
	m := NewMemoryStore()

	offer, err := m.AppendMessage(domain.Message{
		ID:           "offer-1",
		ThreadID:     "thread-1",
		SenderID:     "buyer",
		RecipientID:  "seller",
		Type:         domain.MessageOffer,
		OfferedPrice: decimal.RequireFromString("40"),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("append offer: %v", err)
	}

	accept := domain.Message{
		ID:          "accept-1",
		ThreadID:    "thread-1",
		SenderID:    "seller",
		RecipientID: "buyer",
		Type:        domain.MessageOfferAccepted,
		RespondsTo:  offer.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := m.RespondToOffer(offer.ID, accept, nil); err != nil {
		t.Fatalf("respond: %v", err)
	}

	reject := accept
	reject.ID = "reject-1"
	reject.Type = domain.MessageOfferRejected
	if _, err := m.RespondToOffer(offer.ID, reject, nil); !errors.Is(err, ErrOfferAlreadyAnswered) {
		t.Fatalf("expected ErrOfferAlreadyAnswered, got: %v", err)
	}

	answered, err := m.HasResponse(offer.ID)
	if err != nil || !answered {
		t.Fatalf("expected offer to be answered, answered=%v err=%v", answered, err)
	}
	msgs, err := m.ListThreadMessages("thread-1")
	if err != nil {
		t.Fatalf("list thread: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 thread messages, got %d", len(msgs))
	}
}

func TestMemoryStoreRespondToOfferWithPurchase(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveProduct(domain.Product{
		ID:      "prod-1",
		OwnerID: "seller",
		Status:  domain.ProductAvailable,
	}); err != nil {
		t.Fatalf("save product: %v", err)
	}
	offer, err := m.AppendMessage(domain.Message{
		ID:          "offer-1",
		ThreadID:    "thread-1",
		SenderID:    "buyer",
		RecipientID: "seller",
		Type:        domain.MessageOffer,
	})
	if err != nil {
		t.Fatalf("append offer: %v", err)
	}

	purchase := &domain.Purchase{
		ID:         "purchase-1",
		ProductID:  "prod-1",
		BuyerID:    "buyer",
		SellerID:   "seller",
		FinalPrice: decimal.RequireFromString("40"),
		Status:     domain.PurchasePending,
	}
	accept := domain.Message{
		ID:          "accept-1",
		ThreadID:    "thread-1",
		SenderID:    "seller",
		RecipientID: "buyer",
		Type:        domain.MessageOfferAccepted,
		RespondsTo:  offer.ID,
	}
	if _, err := m.RespondToOffer(offer.ID, accept, purchase); err != nil {
		t.Fatalf("respond: %v", err)
	}

	stored, ok, err := m.GetPurchase("purchase-1")
	if err != nil || !ok {
		t.Fatalf("get purchase: ok=%v err=%v", ok, err)
	}
	if stored.Status != domain.PurchasePending {
		t.Fatalf("unexpected purchase status: %s", stored.Status)
	}
	product, ok, err := m.GetProduct("prod-1")
	if err != nil || !ok {
		t.Fatalf("get product: ok=%v err=%v", ok, err)
	}
	if product.Status != domain.ProductReserved {
		t.Fatalf("expected product reserved, got %s", product.Status)
	}
}

func TestMemoryStoreCreateRatingPerRole(t *testing.T) {
	m := NewMemoryStore()
	if err := m.CreatePurchase(domain.Purchase{
		ID:       "purchase-1",
		BuyerID:  "buyer",
		SellerID: "seller",
		Status:   domain.PurchaseCompleted,
	}); err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	buyerRating := domain.Rating{
		ID:         "rating-1",
		PurchaseID: "purchase-1",
		Role:       domain.BuyerRatesSeller,
		RaterID:    "buyer",
		RatedID:    "seller",
		Score:      5,
	}
	if err := m.CreateRating(buyerRating); err != nil {
		t.Fatalf("create rating: %v", err)
	}
	if err := m.CreateRating(buyerRating); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got: %v", err)
	}

	// The seller side is still open.
	if err := m.CreateRating(domain.Rating{
		ID:         "rating-2",
		PurchaseID: "purchase-1",
		Role:       domain.SellerRatesBuyer,
		RaterID:    "seller",
		RatedID:    "buyer",
		Score:      4,
	}); err != nil {
		t.Fatalf("create seller rating: %v", err)
	}

	p, _, err := m.GetPurchase("purchase-1")
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if !p.BuyerRated || !p.SellerRated {
		t.Fatalf("expected both rating flags set, got buyer=%v seller=%v", p.BuyerRated, p.SellerRated)
	}
	ratings, err := m.ListRatingsForUser("seller")
	if err != nil {
		t.Fatalf("list ratings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Score != 5 {
		t.Fatalf("unexpected seller ratings: %+v", ratings)
	}
}

func TestMemoryStoreMessageOrdering(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	for _, msg := range []domain.Message{
		{ID: "m1", ThreadID: "t", SenderID: "a", RecipientID: "b", CreatedAt: base},
		{ID: "m2", ThreadID: "t", SenderID: "b", RecipientID: "a", CreatedAt: base.Add(time.Minute)},
		// Same instant as m2; sequence order breaks the tie.
		{ID: "m3", ThreadID: "t", SenderID: "a", RecipientID: "b", CreatedAt: base.Add(time.Minute)},
	} {
		if _, err := m.AppendMessage(msg); err != nil {
			t.Fatalf("append %s: %v", msg.ID, err)
		}
	}

	msgs, err := m.ListThreadMessages("t")
	if err != nil {
		t.Fatalf("list thread: %v", err)
	}
	got := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		got = append(got, msg.ID)
	}
	want := []string{"m3", "m2", "m1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}

	unread, err := m.ListUnreadMessages("b")
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("expected 2 unread for b, got %d", len(unread))
	}
	if err := m.MarkMessageRead("m3"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err = m.ListUnreadMessages("b")
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "m1" {
		t.Fatalf("unexpected unread after read: %+v", unread)
	}
}

func TestMemoryStoreTagProductCounts(t *testing.T) {
	m := NewMemoryStore()
	for _, tag := range []domain.Tag{
		{ID: "tag-audio", Name: "audio"},
		{ID: "tag-rare", Name: "rare"},
	} {
		if err := m.SaveTag(tag); err != nil {
			t.Fatalf("save tag: %v", err)
		}
	}
	if err := m.ReplaceProductTags("prod-1", []string{"tag-audio", "tag-rare"}); err != nil {
		t.Fatalf("tag prod-1: %v", err)
	}
	if err := m.ReplaceProductTags("prod-2", []string{"tag-audio"}); err != nil {
		t.Fatalf("tag prod-2: %v", err)
	}

	popular, err := m.ListPopularTags(10)
	if err != nil {
		t.Fatalf("popular tags: %v", err)
	}
	if len(popular) != 2 || popular[0].Name != "audio" || popular[0].ProductCount != 2 {
		t.Fatalf("unexpected popular tags: %+v", popular)
	}

	found, ok, err := m.FindTagByName("rare")
	if err != nil || !ok {
		t.Fatalf("find tag: ok=%v err=%v", ok, err)
	}
	if found.ProductCount != 1 {
		t.Fatalf("unexpected product count: %d", found.ProductCount)
	}

	results, err := m.SearchTags("AUD", 10)
	if err != nil {
		t.Fatalf("search tags: %v", err)
	}
	if len(results) != 1 || results[0].Name != "audio" {
		t.Fatalf("unexpected search results: %+v", results)
	}
}

func TestMemoryStoreCreateRatingUnknownPurchase(t *testing.T) {
	m := NewMemoryStore()
	err := m.CreateRating(domain.Rating{
		ID:         "rating-1",
		PurchaseID: "missing",
		Role:       domain.BuyerRatesSeller,
		Score:      5,
	})
	if err == nil {
		t.Fatalf("expected error for unknown purchase")
	}
}
