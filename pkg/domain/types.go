package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductReserved  ProductStatus = "reserved"
	ProductSold      ProductStatus = "sold"
)

// MessageType distinguishes plain chat messages from the offer
// lifecycle messages that drive price negotiation.
type MessageType string

const (
	MessageText          MessageType = "text"
	MessageOffer         MessageType = "offer"
	MessageCounterOffer  MessageType = "counter_offer"
	MessageOfferAccepted MessageType = "offer_accepted"
	MessageOfferRejected MessageType = "offer_rejected"
)

// Open reports whether a message of this type still awaits a response.
func (t MessageType) Open() bool {
	return t == MessageOffer || t == MessageCounterOffer
}

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// RatingRole identifies which side of a purchase submitted a rating.
type RatingRole string

const (
	BuyerRatesSeller RatingRole = "buyer_rates_seller"
	SellerRatesBuyer RatingRole = "seller_rates_buyer"
)

type ReportKind string

const (
	ReportProduct ReportKind = "product"
	ReportComment ReportKind = "comment"
	ReportUser    ReportKind = "user"
)

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Product struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Condition   string          `json:"condition,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Status      ProductStatus   `json:"status"`
	ImageKeys   []string        `json:"-"`
	ImageURLs   []string        `json:"imageUrls,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Message is one entry in a conversation thread. Offer lifecycle
// messages are immutable: every state transition is a new message
// linked to the one it answers via RespondsTo, never an update.
type Message struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"-"`
	ThreadID      string          `json:"threadId"`
	SenderID      string          `json:"senderId"`
	RecipientID   string          `json:"recipientId"`
	ProductID     string          `json:"productId,omitempty"`
	Type          MessageType     `json:"type"`
	Text          string          `json:"text,omitempty"`
	OfferedPrice  decimal.Decimal `json:"offeredPrice"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	RespondsTo    string          `json:"respondsTo,omitempty"`
	Read          bool            `json:"read"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Conversation groups the messages of one thread for display.
type Conversation struct {
	ThreadID  string    `json:"threadId"`
	ProductID string    `json:"productId,omitempty"`
	Messages  []Message `json:"messages"`
}

type Purchase struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	BuyerID     string          `json:"buyerId"`
	SellerID    string          `json:"sellerId"`
	ThreadID    string          `json:"threadId,omitempty"`
	FinalPrice  decimal.Decimal `json:"finalPrice"`
	Status      PurchaseStatus  `json:"status"`
	BuyerRated  bool            `json:"buyerRated"`
	SellerRated bool            `json:"sellerRated"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Rating struct {
	ID         string     `json:"id"`
	PurchaseID string     `json:"purchaseId"`
	Role       RatingRole `json:"role"`
	RaterID    string     `json:"raterId"`
	RatedID    string     `json:"ratedId"`
	Score      int        `json:"score"`
	Comment    string     `json:"comment,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Report struct {
	ID             string       `json:"id"`
	ReporterID     string       `json:"reporterId"`
	Kind           ReportKind   `json:"kind"`
	Category       string       `json:"category"`
	Reason         string       `json:"reason"`
	ProductID      string       `json:"productId,omitempty"`
	CommentID      string       `json:"commentId,omitempty"`
	ReportedUserID string       `json:"reportedUserId,omitempty"`
	Status         ReportStatus `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
}

type Tag struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProductCount int       `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
}
