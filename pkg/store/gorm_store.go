package store

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"revendo/pkg/domain"
)

const migrateLockID int64 = 52415241

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory
// lock so concurrent instances do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&UserModel{},
			&ProductModel{},
			&MessageModel{},
			&PurchaseModel{},
			&RatingModel{},
			&CommentModel{},
			&ReportModel{},
			&TagModel{},
			&ProductTagModel{},
		)
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		return fn(tx)
	})
}

// SaveUser stores or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone", "password_hash", "role", "status", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if an email is already registered.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail fetches a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID fetches a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UserCount returns number of users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveProduct stores or updates a product.
func (s *GormStore) SaveProduct(p domain.Product) error {
	model := productToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "condition", "price", "status", "image_keys", "updated_at"}),
	}).Create(&model).Error
}

// GetProduct retrieves a product with its tag names.
func (s *GormStore) GetProduct(id string) (domain.Product, bool, error) {
	var model ProductModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Product{}, false, nil
		}
		return domain.Product{}, false, err
	}
	product := productFromModel(model)
	tags, err := s.listProductTagNames(id)
	if err != nil {
		return domain.Product{}, false, err
	}
	product.Tags = tags
	return product, true, nil
}

func (s *GormStore) listProductTagNames(productID string) ([]string, error) {
	var names []string
	err := s.db.Model(&TagModel{}).
		Joins("JOIN product_tag_models pt ON pt.tag_id = tag_models.id").
		Where("pt.product_id = ?", productID).
		Order("tag_models.name ASC").
		Pluck("tag_models.name", &names).Error
	return names, err
}

// ListProducts returns products, newest first, optionally filtered by
// owner and status.
func (s *GormStore) ListProducts(ownerID string, status domain.ProductStatus, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	tx := s.db.Order("created_at DESC").Limit(limit)
	if ownerID != "" {
		tx = tx.Where("owner_id = ?", ownerID)
	}
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}
	var models []ProductModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Product, 0, len(models))
	for _, m := range models {
		res = append(res, productFromModel(m))
	}
	return res, nil
}

// SetProductStatus updates the sale status.
func (s *GormStore) SetProductStatus(id string, status domain.ProductStatus) error {
	return s.db.Model(&ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
}

// ReplaceProductTags rewrites the product/tag links.
func (s *GormStore) ReplaceProductTags(productID string, tagIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ProductTagModel{}, "product_id = ?", productID).Error; err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			link := ProductTagModel{ProductID: productID, TagID: tagID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendMessage records a message and returns it with its sequence number.
func (s *GormStore) AppendMessage(msg domain.Message) (domain.Message, error) {
	model := messageToModel(msg)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Message{}, err
	}
	return messageFromModel(model), nil
}

// GetMessage retrieves one message.
func (s *GormStore) GetMessage(id string) (domain.Message, bool, error) {
	var model MessageModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, err
	}
	return messageFromModel(model), true, nil
}

// HasResponse reports whether any message answers the given one.
func (s *GormStore) HasResponse(messageID string) (bool, error) {
	var count int64
	if err := s.db.Model(&MessageModel{}).Where("responds_to = ?", messageID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListThreadMessages returns a thread newest first, ties broken by
// insertion order.
func (s *GormStore) ListThreadMessages(threadID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Order("seq DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return messagesFromModels(models), nil
}

// ListUserMessages returns all messages sent or received by a user,
// newest first.
func (s *GormStore) ListUserMessages(userID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Order("seq DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return messagesFromModels(models), nil
}

// ListUnreadMessages returns unread messages addressed to the user.
func (s *GormStore) ListUnreadMessages(userID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("recipient_id = ? AND read = false", userID).
		Order("created_at DESC").
		Order("seq DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return messagesFromModels(models), nil
}

func messagesFromModels(models []MessageModel) []domain.Message {
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res
}

// MarkMessageRead flags a message as read.
func (s *GormStore) MarkMessageRead(id string) error {
	return s.db.Model(&MessageModel{}).Where("id = ?", id).Update("read", true).Error
}

// RespondToOffer appends the response and, on acceptance, the purchase
// plus product reservation in one transaction. The parent row is locked
// and re-checked so only the first response wins.
func (s *GormStore) RespondToOffer(parentID string, response domain.Message, purchase *domain.Purchase) (domain.Message, error) {
	model := messageToModel(response)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var parent MessageModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&parent, "id = ?", parentID).Error; err != nil {
			return err
		}
		var answered int64
		if err := tx.Model(&MessageModel{}).Where("responds_to = ?", parentID).Count(&answered).Error; err != nil {
			return err
		}
		if answered > 0 {
			return ErrOfferAlreadyAnswered
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if purchase != nil {
			purchaseModel := purchaseToModel(*purchase)
			if err := tx.Create(&purchaseModel).Error; err != nil {
				return err
			}
			if err := tx.Model(&ProductModel{}).
				Where("id = ?", purchase.ProductID).
				Updates(map[string]any{
					"status":     string(domain.ProductReserved),
					"updated_at": time.Now().UTC(),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	return messageFromModel(model), nil
}

// CreatePurchase records a purchase and reserves the product.
func (s *GormStore) CreatePurchase(p domain.Purchase) error {
	model := purchaseToModel(p)
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return tx.Model(&ProductModel{}).
			Where("id = ?", p.ProductID).
			Updates(map[string]any{
				"status":     string(domain.ProductReserved),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

// GetPurchase retrieves a purchase.
func (s *GormStore) GetPurchase(id string) (domain.Purchase, bool, error) {
	var model PurchaseModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Purchase{}, false, nil
		}
		return domain.Purchase{}, false, err
	}
	return purchaseFromModel(model), true, nil
}

// ListUserPurchases returns purchases where the user is buyer or seller.
func (s *GormStore) ListUserPurchases(userID string) ([]domain.Purchase, error) {
	var models []PurchaseModel
	if err := s.db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Purchase, 0, len(models))
	for _, m := range models {
		res = append(res, purchaseFromModel(m))
	}
	return res, nil
}

// SetPurchaseStatus updates the completion status.
func (s *GormStore) SetPurchaseStatus(id string, status domain.PurchaseStatus) error {
	return s.db.Model(&PurchaseModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
}

// CreateRating inserts the rating and flips the per-role flag on the
// purchase in one transaction. The purchase row is locked so duplicate
// submissions race on the flag, not on the unique index error.
func (s *GormStore) CreateRating(r domain.Rating) error {
	model := ratingToModel(r)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var purchase PurchaseModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&purchase, "id = ?", r.PurchaseID).Error; err != nil {
			return err
		}
		var flagColumn string
		switch r.Role {
		case domain.BuyerRatesSeller:
			if purchase.BuyerRated {
				return ErrAlreadyRated
			}
			flagColumn = "buyer_rated"
		case domain.SellerRatesBuyer:
			if purchase.SellerRated {
				return ErrAlreadyRated
			}
			flagColumn = "seller_rated"
		default:
			return fmt.Errorf("unknown rating role: %s", r.Role)
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return tx.Model(&PurchaseModel{}).
			Where("id = ?", r.PurchaseID).
			Updates(map[string]any{
				flagColumn:   true,
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

// ListRatingsForUser returns ratings received by a user, newest first.
func (s *GormStore) ListRatingsForUser(ratedID string) ([]domain.Rating, error) {
	var models []RatingModel
	if err := s.db.Where("rated_id = ?", ratedID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Rating, 0, len(models))
	for _, m := range models {
		res = append(res, ratingFromModel(m))
	}
	return res, nil
}

// SaveComment stores or updates a comment.
func (s *GormStore) SaveComment(c domain.Comment) error {
	model := commentToModel(c)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "active", "updated_at"}),
	}).Create(&model).Error
}

// GetComment retrieves a comment.
func (s *GormStore) GetComment(id string) (domain.Comment, bool, error) {
	var model CommentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Comment{}, false, nil
		}
		return domain.Comment{}, false, err
	}
	return commentFromModel(model), true, nil
}

// ListProductComments returns a product's comments, newest first.
func (s *GormStore) ListProductComments(productID string, includeInactive bool) ([]domain.Comment, error) {
	tx := s.db.Where("product_id = ?", productID)
	if !includeInactive {
		tx = tx.Where("active = true")
	}
	var models []CommentModel
	if err := tx.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Comment, 0, len(models))
	for _, m := range models {
		res = append(res, commentFromModel(m))
	}
	return res, nil
}

// CountUserProductCommentsSince counts comments (active or not) by an
// author on a product since the given instant.
func (s *GormStore) CountUserProductCommentsSince(authorID, productID string, since time.Time) (int, error) {
	var count int64
	if err := s.db.Model(&CommentModel{}).
		Where("author_id = ? AND product_id = ? AND created_at >= ?", authorID, productID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveReport stores a report.
func (s *GormStore) SaveReport(r domain.Report) error {
	model := reportToModel(r)
	return s.db.Create(&model).Error
}

// ListReportsByReporter returns the reports filed by a user.
func (s *GormStore) ListReportsByReporter(reporterID string) ([]domain.Report, error) {
	var models []ReportModel
	if err := s.db.Where("reporter_id = ?", reporterID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Report, 0, len(models))
	for _, m := range models {
		res = append(res, reportFromModel(m))
	}
	return res, nil
}

// SaveTag stores a tag.
func (s *GormStore) SaveTag(t domain.Tag) error {
	model := TagModel{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
	return s.db.Create(&model).Error
}

// FindTagByName looks a tag up by exact name (names are stored
// normalized to lower case).
func (s *GormStore) FindTagByName(name string) (domain.Tag, bool, error) {
	var model TagModel
	if err := s.db.First(&model, "name = ?", name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Tag{}, false, nil
		}
		return domain.Tag{}, false, err
	}
	count, err := s.tagProductCount(model.ID)
	if err != nil {
		return domain.Tag{}, false, err
	}
	return tagFromModel(model, count), true, nil
}

// SearchTags returns tags whose name contains the query.
func (s *GormStore) SearchTags(query string, limit int) ([]domain.Tag, error) {
	if limit <= 0 {
		limit = 20
	}
	var models []TagModel
	pattern := "%" + strings.ToLower(query) + "%"
	if err := s.db.Where("name LIKE ?", pattern).
		Order("name ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return s.tagsWithCounts(models)
}

// ListPopularTags returns tags ordered by product count descending.
func (s *GormStore) ListPopularTags(limit int) ([]domain.Tag, error) {
	if limit <= 0 {
		limit = 50
	}
	type tagCount struct {
		TagModel
		ProductCount int
	}
	var rows []tagCount
	if err := s.db.Model(&TagModel{}).
		Select("tag_models.*, COUNT(pt.product_id) AS product_count").
		Joins("LEFT JOIN product_tag_models pt ON pt.tag_id = tag_models.id").
		Group("tag_models.id").
		Order("product_count DESC").
		Order("tag_models.name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Tag, 0, len(rows))
	for _, row := range rows {
		res = append(res, tagFromModel(row.TagModel, row.ProductCount))
	}
	return res, nil
}

func (s *GormStore) tagProductCount(tagID string) (int, error) {
	var count int64
	if err := s.db.Model(&ProductTagModel{}).Where("tag_id = ?", tagID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) tagsWithCounts(models []TagModel) ([]domain.Tag, error) {
	res := make([]domain.Tag, 0, len(models))
	for _, m := range models {
		count, err := s.tagProductCount(m.ID)
		if err != nil {
			return nil, err
		}
		res = append(res, tagFromModel(m, count))
	}
	return res, nil
}
