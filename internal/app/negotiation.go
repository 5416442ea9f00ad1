package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"revendo/pkg/domain"
	"revendo/pkg/store"
)

// SubmitOffer opens a negotiation: a new offer message from proposer to
// the product owner, capturing the product's current price.
func (a *App) SubmitOffer(ctx context.Context, proposer domain.User, productID string, price decimal.Decimal) (domain.Message, error) {
	if !price.IsPositive() {
		return domain.Message{}, fmt.Errorf("%w: offered price must be greater than zero", ErrValidation)
	}
	product, ok, err := a.store.GetProduct(productID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if product.OwnerID == proposer.ID {
		return domain.Message{}, fmt.Errorf("%w: cannot make an offer on your own product", ErrNotAuthorized)
	}
	if product.Status != domain.ProductAvailable {
		return domain.Message{}, fmt.Errorf("%w: product is %s", ErrInvalidState, product.Status)
	}
	now := time.Now().UTC()
	msg := domain.Message{
		ID:            uuid.NewString(),
		ThreadID:      uuid.NewString(),
		SenderID:      proposer.ID,
		RecipientID:   product.OwnerID,
		ProductID:     product.ID,
		Type:          domain.MessageOffer,
		OfferedPrice:  price,
		OriginalPrice: product.Price,
		CreatedAt:     now,
	}
	saved, err := a.store.AppendMessage(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("save offer: %w", err)
	}
	a.notifyBestEffort(ctx, product.OwnerID, "New offer received",
		fmt.Sprintf("%s offered %s for %s", proposer.Name, price.StringFixed(2), product.Name))
	return saved, nil
}

// CounterOffer answers an open offer with a new price, addressed back to
// the other party and linked to the message it responds to.
func (a *App) CounterOffer(ctx context.Context, responder domain.User, offerID string, price decimal.Decimal) (domain.Message, error) {
	if !price.IsPositive() {
		return domain.Message{}, fmt.Errorf("%w: offered price must be greater than zero", ErrValidation)
	}
	parent, product, err := a.openOfferFor(responder, offerID)
	if err != nil {
		return domain.Message{}, err
	}
	response := a.responseTo(parent, responder, domain.MessageCounterOffer)
	response.OfferedPrice = price
	saved, err := a.store.RespondToOffer(parent.ID, response, nil)
	if err != nil {
		if errors.Is(err, store.ErrOfferAlreadyAnswered) {
			return domain.Message{}, fmt.Errorf("%w: offer already answered", ErrInvalidState)
		}
		return domain.Message{}, fmt.Errorf("save counter offer: %w", err)
	}
	a.notifyBestEffort(ctx, parent.SenderID, "Counter offer received",
		fmt.Sprintf("%s countered with %s for %s", responder.Name, price.StringFixed(2), product.Name))
	return saved, nil
}

// AcceptOffer closes the negotiation: a terminal offer_accepted message
// plus a pending purchase at the accepted price, and the product moves
// to reserved. All three effects commit atomically.
func (a *App) AcceptOffer(ctx context.Context, responder domain.User, offerID string) (domain.Message, domain.Purchase, error) {
	parent, product, err := a.openOfferFor(responder, offerID)
	if err != nil {
		return domain.Message{}, domain.Purchase{}, err
	}
	response := a.responseTo(parent, responder, domain.MessageOfferAccepted)

	// The buyer is whichever thread party does not own the product.
	buyerID := parent.SenderID
	if buyerID == product.OwnerID {
		buyerID = parent.RecipientID
	}
	now := time.Now().UTC()
	purchase := domain.Purchase{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		BuyerID:    buyerID,
		SellerID:   product.OwnerID,
		ThreadID:   parent.ThreadID,
		FinalPrice: parent.OfferedPrice,
		Status:     domain.PurchasePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	saved, err := a.store.RespondToOffer(parent.ID, response, &purchase)
	if err != nil {
		if errors.Is(err, store.ErrOfferAlreadyAnswered) {
			return domain.Message{}, domain.Purchase{}, fmt.Errorf("%w: offer already answered", ErrInvalidState)
		}
		return domain.Message{}, domain.Purchase{}, fmt.Errorf("accept offer: %w", err)
	}
	a.notifyBestEffort(ctx, parent.SenderID, "Offer accepted",
		fmt.Sprintf("%s accepted the offer of %s for %s", responder.Name, parent.OfferedPrice.StringFixed(2), product.Name))
	return saved, purchase, nil
}

// RejectOffer closes the negotiation with a terminal offer_rejected
// message. No purchase is created.
func (a *App) RejectOffer(ctx context.Context, responder domain.User, offerID string) (domain.Message, error) {
	parent, product, err := a.openOfferFor(responder, offerID)
	if err != nil {
		return domain.Message{}, err
	}
	response := a.responseTo(parent, responder, domain.MessageOfferRejected)
	saved, err := a.store.RespondToOffer(parent.ID, response, nil)
	if err != nil {
		if errors.Is(err, store.ErrOfferAlreadyAnswered) {
			return domain.Message{}, fmt.Errorf("%w: offer already answered", ErrInvalidState)
		}
		return domain.Message{}, fmt.Errorf("reject offer: %w", err)
	}
	a.notifyBestEffort(ctx, parent.SenderID, "Offer rejected",
		fmt.Sprintf("%s rejected the offer for %s", responder.Name, product.Name))
	return saved, nil
}

// openOfferFor loads the referenced message and verifies that responder
// may act on it right now: responder is the current recipient, the
// message is still open, and the product is still available. The store's
// respond operation re-checks openness inside its transaction, so a race
// that slips past these reads still fails cleanly.
func (a *App) openOfferFor(responder domain.User, offerID string) (domain.Message, domain.Product, error) {
	parent, ok, err := a.store.GetMessage(offerID)
	if err != nil {
		return domain.Message{}, domain.Product{}, fmt.Errorf("fetch offer: %w", err)
	}
	if !ok {
		return domain.Message{}, domain.Product{}, fmt.Errorf("%w: offer %s", ErrNotFound, offerID)
	}
	if !parent.Type.Open() {
		return domain.Message{}, domain.Product{}, fmt.Errorf("%w: message is not an open offer", ErrInvalidState)
	}
	if parent.RecipientID != responder.ID {
		return domain.Message{}, domain.Product{}, fmt.Errorf("%w: only the offer recipient may respond", ErrNotAuthorized)
	}
	answered, err := a.store.HasResponse(parent.ID)
	if err != nil {
		return domain.Message{}, domain.Product{}, fmt.Errorf("check offer state: %w", err)
	}
	if answered {
		return domain.Message{}, domain.Product{}, fmt.Errorf("%w: offer already answered", ErrInvalidState)
	}
	product, ok, err := a.store.GetProduct(parent.ProductID)
	if err != nil {
		return domain.Message{}, domain.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Message{}, domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, parent.ProductID)
	}
	if product.Status != domain.ProductAvailable {
		return domain.Message{}, domain.Product{}, fmt.Errorf("%w: product is %s", ErrInvalidState, product.Status)
	}
	return parent, product, nil
}

// responseTo builds a response message in the parent's thread, addressed
// back to the parent's sender, preserving the negotiation prices.
func (a *App) responseTo(parent domain.Message, responder domain.User, msgType domain.MessageType) domain.Message {
	return domain.Message{
		ID:            uuid.NewString(),
		ThreadID:      parent.ThreadID,
		SenderID:      responder.ID,
		RecipientID:   parent.SenderID,
		ProductID:     parent.ProductID,
		Type:          msgType,
		OfferedPrice:  parent.OfferedPrice,
		OriginalPrice: parent.OriginalPrice,
		RespondsTo:    parent.ID,
		CreatedAt:     time.Now().UTC(),
	}
}
