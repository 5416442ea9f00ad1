package store

import (
	"errors"
	"time"

	"revendo/pkg/domain"
)

var (
	// ErrOfferAlreadyAnswered indicates the referenced offer message
	// already has a response, so no further transition is allowed.
	ErrOfferAlreadyAnswered = errors.New("offer already answered")

	// ErrAlreadyRated indicates the purchase side has already submitted
	// its rating.
	ErrAlreadyRated = errors.New("purchase already rated for this role")
)

// Store defines persistence operations for the marketplace entities.
// Every method executes within its own atomic boundary; the combined
// operations (RespondToOffer, CreateRating) re-check state inside that
// boundary so concurrent callers observe the most recently committed
// state.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	UserCount() (int, error)

	// products
	SaveProduct(domain.Product) error
	GetProduct(id string) (domain.Product, bool, error)
	ListProducts(ownerID string, status domain.ProductStatus, limit int) ([]domain.Product, error)
	SetProductStatus(id string, status domain.ProductStatus) error
	ReplaceProductTags(productID string, tagIDs []string) error

	// messages
	AppendMessage(domain.Message) (domain.Message, error)
	GetMessage(id string) (domain.Message, bool, error)
	HasResponse(messageID string) (bool, error)
	ListThreadMessages(threadID string) ([]domain.Message, error)
	ListUserMessages(userID string) ([]domain.Message, error)
	ListUnreadMessages(userID string) ([]domain.Message, error)
	MarkMessageRead(id string) error

	// RespondToOffer atomically appends a response in the same thread as
	// the parent offer message. When purchase is non-nil it also creates
	// the purchase and moves the product to reserved, all or nothing.
	// Returns ErrOfferAlreadyAnswered when the parent was answered by a
	// concurrent request.
	RespondToOffer(parentID string, response domain.Message, purchase *domain.Purchase) (domain.Message, error)

	// purchases
	CreatePurchase(domain.Purchase) error
	GetPurchase(id string) (domain.Purchase, bool, error)
	ListUserPurchases(userID string) ([]domain.Purchase, error)
	SetPurchaseStatus(id string, status domain.PurchaseStatus) error

	// CreateRating atomically persists the rating and flips the matching
	// per-role flag on the purchase. Returns ErrAlreadyRated when the
	// flag was already set by a concurrent request.
	CreateRating(domain.Rating) error
	ListRatingsForUser(ratedID string) ([]domain.Rating, error)

	// comments
	SaveComment(domain.Comment) error
	GetComment(id string) (domain.Comment, bool, error)
	ListProductComments(productID string, includeInactive bool) ([]domain.Comment, error)
	CountUserProductCommentsSince(authorID, productID string, since time.Time) (int, error)

	// reports
	SaveReport(domain.Report) error
	ListReportsByReporter(reporterID string) ([]domain.Report, error)

	// tags
	SaveTag(domain.Tag) error
	FindTagByName(name string) (domain.Tag, bool, error)
	SearchTags(query string, limit int) ([]domain.Tag, error)
	ListPopularTags(limit int) ([]domain.Tag, error)
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}

// RefreshTokenStore persists refresh tokens for rotation.
type RefreshTokenStore interface {
	NewToken(userID string, ttl time.Duration) (string, error)
	RotateToken(token string, ttl time.Duration) (userID string, newToken string, err error)
	DeleteToken(token string) error
}

// ErrInvalidRefreshToken indicates a refresh token is unknown or expired.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")
