package store

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"revendo/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Phone        string
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	Status       string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type ProductModel struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Condition   string
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status      string          `gorm:"not null;index"`
	ImageKeys   datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

type MessageModel struct {
	ID            string `gorm:"primaryKey"`
	Seq           int64  `gorm:"autoIncrement;uniqueIndex"`
	ThreadID      string `gorm:"not null;index"`
	SenderID      string `gorm:"not null;index"`
	RecipientID   string `gorm:"not null;index"`
	ProductID     string `gorm:"index"`
	Type          string `gorm:"not null"`
	Text          string `gorm:"type:text"`
	OfferedPrice  decimal.Decimal `gorm:"type:numeric(12,2)"`
	OriginalPrice decimal.Decimal `gorm:"type:numeric(12,2)"`
	RespondsTo    string          `gorm:"index"`
	Read          bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time       `gorm:"not null;index"`
}

type PurchaseModel struct {
	ID          string `gorm:"primaryKey"`
	ProductID   string `gorm:"not null;index"`
	BuyerID     string `gorm:"not null;index"`
	SellerID    string `gorm:"not null;index"`
	ThreadID    string
	FinalPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status      string          `gorm:"not null"`
	BuyerRated  bool            `gorm:"not null;default:false"`
	SellerRated bool            `gorm:"not null;default:false"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

type RatingModel struct {
	ID         string `gorm:"primaryKey"`
	PurchaseID string `gorm:"not null;index;uniqueIndex:idx_purchase_role,priority:1"`
	Role       string `gorm:"not null;uniqueIndex:idx_purchase_role,priority:2"`
	RaterID    string `gorm:"not null;index"`
	RatedID    string `gorm:"not null;index"`
	Score      int    `gorm:"not null"`
	Comment    string `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

type CommentModel struct {
	ID        string `gorm:"primaryKey"`
	ProductID string `gorm:"not null;index"`
	AuthorID  string `gorm:"not null;index"`
	Text      string `gorm:"type:text;not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ReportModel struct {
	ID             string `gorm:"primaryKey"`
	ReporterID     string `gorm:"not null;index"`
	Kind           string `gorm:"not null"`
	Category       string `gorm:"not null"`
	Reason         string `gorm:"type:text;not null"`
	ProductID      string
	CommentID      string
	ReportedUserID string
	Status         string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

type TagModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type ProductTagModel struct {
	ProductID string `gorm:"primaryKey"`
	TagID     string `gorm:"primaryKey;index"`
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		Status:       domain.UserStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func productToModel(p domain.Product) ProductModel {
	keys, _ := json.Marshal(p.ImageKeys)
	return ProductModel{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Condition:   p.Condition,
		Price:       p.Price,
		Status:      string(p.Status),
		ImageKeys:   datatypes.JSON(keys),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func productFromModel(m ProductModel) domain.Product {
	var keys []string
	if len(m.ImageKeys) > 0 {
		_ = json.Unmarshal(m.ImageKeys, &keys)
	}
	return domain.Product{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		Condition:   m.Condition,
		Price:       m.Price,
		Status:      domain.ProductStatus(m.Status),
		ImageKeys:   keys,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		ID:            msg.ID,
		ThreadID:      msg.ThreadID,
		SenderID:      msg.SenderID,
		RecipientID:   msg.RecipientID,
		ProductID:     msg.ProductID,
		Type:          string(msg.Type),
		Text:          msg.Text,
		OfferedPrice:  msg.OfferedPrice,
		OriginalPrice: msg.OriginalPrice,
		RespondsTo:    msg.RespondsTo,
		Read:          msg.Read,
		CreatedAt:     msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:            m.ID,
		Seq:           m.Seq,
		ThreadID:      m.ThreadID,
		SenderID:      m.SenderID,
		RecipientID:   m.RecipientID,
		ProductID:     m.ProductID,
		Type:          domain.MessageType(m.Type),
		Text:          m.Text,
		OfferedPrice:  m.OfferedPrice,
		OriginalPrice: m.OriginalPrice,
		RespondsTo:    m.RespondsTo,
		Read:          m.Read,
		CreatedAt:     m.CreatedAt,
	}
}

func purchaseToModel(p domain.Purchase) PurchaseModel {
	return PurchaseModel{
		ID:          p.ID,
		ProductID:   p.ProductID,
		BuyerID:     p.BuyerID,
		SellerID:    p.SellerID,
		ThreadID:    p.ThreadID,
		FinalPrice:  p.FinalPrice,
		Status:      string(p.Status),
		BuyerRated:  p.BuyerRated,
		SellerRated: p.SellerRated,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func purchaseFromModel(m PurchaseModel) domain.Purchase {
	return domain.Purchase{
		ID:          m.ID,
		ProductID:   m.ProductID,
		BuyerID:     m.BuyerID,
		SellerID:    m.SellerID,
		ThreadID:    m.ThreadID,
		FinalPrice:  m.FinalPrice,
		Status:      domain.PurchaseStatus(m.Status),
		BuyerRated:  m.BuyerRated,
		SellerRated: m.SellerRated,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func ratingToModel(r domain.Rating) RatingModel {
	return RatingModel{
		ID:         r.ID,
		PurchaseID: r.PurchaseID,
		Role:       string(r.Role),
		RaterID:    r.RaterID,
		RatedID:    r.RatedID,
		Score:      r.Score,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func ratingFromModel(m RatingModel) domain.Rating {
	return domain.Rating{
		ID:         m.ID,
		PurchaseID: m.PurchaseID,
		Role:       domain.RatingRole(m.Role),
		RaterID:    m.RaterID,
		RatedID:    m.RatedID,
		Score:      m.Score,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt,
	}
}

func commentToModel(c domain.Comment) CommentModel {
	return CommentModel{
		ID:        c.ID,
		ProductID: c.ProductID,
		AuthorID:  c.AuthorID,
		Text:      c.Text,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func commentFromModel(m CommentModel) domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		ProductID: m.ProductID,
		AuthorID:  m.AuthorID,
		Text:      m.Text,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func reportToModel(r domain.Report) ReportModel {
	return ReportModel{
		ID:             r.ID,
		ReporterID:     r.ReporterID,
		Kind:           string(r.Kind),
		Category:       r.Category,
		Reason:         r.Reason,
		ProductID:      r.ProductID,
		CommentID:      r.CommentID,
		ReportedUserID: r.ReportedUserID,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
	}
}

func reportFromModel(m ReportModel) domain.Report {
	return domain.Report{
		ID:             m.ID,
		ReporterID:     m.ReporterID,
		Kind:           domain.ReportKind(m.Kind),
		Category:       m.Category,
		Reason:         m.Reason,
		ProductID:      m.ProductID,
		CommentID:      m.CommentID,
		ReportedUserID: m.ReportedUserID,
		Status:         domain.ReportStatus(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}

func tagFromModel(m TagModel, productCount int) domain.Tag {
	return domain.Tag{
		ID:           m.ID,
		Name:         m.Name,
		ProductCount: productCount,
		CreatedAt:    m.CreatedAt,
	}
}
