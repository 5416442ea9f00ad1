package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"revendo/pkg/domain"
)

// MemoryStore keeps all records in-process. It backs the app tests and
// mirrors the transactional re-checks of the SQL store under one mutex.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	email     map[string]string // email -> user ID
	products  map[string]domain.Product
	tags      map[string]domain.Tag // id -> tag
	prodTags  map[string][]string   // productID -> tag IDs
	messages  []domain.Message
	purchases map[string]domain.Purchase
	ratings   []domain.Rating
	comments  map[string]domain.Comment
	reports   []domain.Report
	seq       int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		email:     make(map[string]string),
		products:  make(map[string]domain.Product),
		tags:      make(map[string]domain.Tag),
		prodTags:  make(map[string][]string),
		purchases: make(map[string]domain.Purchase),
		comments:  make(map[string]domain.Comment),
	}
}

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryStore) SaveProduct(p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStore) GetProduct(id string) (domain.Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, false, nil
	}
	p.Tags = m.productTagNamesLocked(id)
	return p, true, nil
}

func (m *MemoryStore) productTagNamesLocked(productID string) []string {
	var names []string
	for _, tagID := range m.prodTags[productID] {
		if tag, ok := m.tags[tagID]; ok {
			names = append(names, tag.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *MemoryStore) ListProducts(ownerID string, status domain.ProductStatus, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if ownerID != "" && p.OwnerID != ownerID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) SetProductStatus(id string, status domain.ProductStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return nil
}

func (m *MemoryStore) ReplaceProductTags(productID string, tagIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prodTags[productID] = append([]string(nil), tagIDs...)
	return nil
}

func (m *MemoryStore) AppendMessage(msg domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendMessageLocked(msg), nil
}

func (m *MemoryStore) appendMessageLocked(msg domain.Message) domain.Message {
	m.seq++
	msg.Seq = m.seq
	m.messages = append(m.messages, msg)
	return msg
}

func (m *MemoryStore) GetMessage(id string) (domain.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, true, nil
		}
	}
	return domain.Message{}, false, nil
}

func (m *MemoryStore) HasResponse(messageID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasResponseLocked(messageID), nil
}

func (m *MemoryStore) hasResponseLocked(messageID string) bool {
	for _, msg := range m.messages {
		if msg.RespondsTo == messageID {
			return true
		}
	}
	return false
}

func (m *MemoryStore) ListThreadMessages(threadID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Message
	for _, msg := range m.messages {
		if msg.ThreadID == threadID {
			res = append(res, msg)
		}
	}
	sortMessagesDesc(res)
	return res, nil
}

func (m *MemoryStore) ListUserMessages(userID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Message
	for _, msg := range m.messages {
		if msg.SenderID == userID || msg.RecipientID == userID {
			res = append(res, msg)
		}
	}
	sortMessagesDesc(res)
	return res, nil
}

func (m *MemoryStore) ListUnreadMessages(userID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Message
	for _, msg := range m.messages {
		if msg.RecipientID == userID && !msg.Read {
			res = append(res, msg)
		}
	}
	sortMessagesDesc(res)
	return res, nil
}

// sortMessagesDesc orders newest first, ties broken by sequence number
// descending so ordering is stable within the same instant.
func sortMessagesDesc(msgs []domain.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].Seq > msgs[j].Seq
		}
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
}

func (m *MemoryStore) MarkMessageRead(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].Read = true
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) RespondToOffer(parentID string, response domain.Message, purchase *domain.Purchase) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasResponseLocked(parentID) {
		return domain.Message{}, ErrOfferAlreadyAnswered
	}
	created := m.appendMessageLocked(response)
	if purchase != nil {
		m.purchases[purchase.ID] = *purchase
		if p, ok := m.products[purchase.ProductID]; ok {
			p.Status = domain.ProductReserved
			p.UpdatedAt = time.Now().UTC()
			m.products[purchase.ProductID] = p
		}
	}
	return created, nil
}

func (m *MemoryStore) CreatePurchase(p domain.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[p.ID] = p
	if prod, ok := m.products[p.ProductID]; ok {
		prod.Status = domain.ProductReserved
		prod.UpdatedAt = time.Now().UTC()
		m.products[p.ProductID] = prod
	}
	return nil
}

func (m *MemoryStore) GetPurchase(id string) (domain.Purchase, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.purchases[id]
	return p, ok, nil
}

func (m *MemoryStore) ListUserPurchases(userID string) ([]domain.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Purchase
	for _, p := range m.purchases {
		if p.BuyerID == userID || p.SellerID == userID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) SetPurchaseStatus(id string, status domain.PurchaseStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	m.purchases[id] = p
	return nil
}

func (m *MemoryStore) CreateRating(r domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[r.PurchaseID]
	if !ok {
		return fmt.Errorf("purchase not found: %s", r.PurchaseID)
	}
	switch r.Role {
	case domain.BuyerRatesSeller:
		if p.BuyerRated {
			return ErrAlreadyRated
		}
		p.BuyerRated = true
	case domain.SellerRatesBuyer:
		if p.SellerRated {
			return ErrAlreadyRated
		}
		p.SellerRated = true
	}
	p.UpdatedAt = time.Now().UTC()
	m.purchases[r.PurchaseID] = p
	m.ratings = append(m.ratings, r)
	return nil
}

func (m *MemoryStore) ListRatingsForUser(ratedID string) ([]domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Rating
	for _, r := range m.ratings {
		if r.RatedID == ratedID {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) SaveComment(c domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[c.ID] = c
	return nil
}

func (m *MemoryStore) GetComment(id string) (domain.Comment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	return c, ok, nil
}

func (m *MemoryStore) ListProductComments(productID string, includeInactive bool) ([]domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Comment
	for _, c := range m.comments {
		if c.ProductID != productID {
			continue
		}
		if !includeInactive && !c.Active {
			continue
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) CountUserProductCommentsSince(authorID, productID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, c := range m.comments {
		if c.AuthorID == authorID && c.ProductID == productID && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) SaveReport(r domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func (m *MemoryStore) ListReportsByReporter(reporterID string) ([]domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Report
	for _, r := range m.reports {
		if r.ReporterID == reporterID {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) SaveTag(t domain.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[t.ID] = t
	return nil
}

func (m *MemoryStore) FindTagByName(name string) (domain.Tag, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tags {
		if t.Name == name {
			t.ProductCount = m.tagProductCountLocked(t.ID)
			return t, true, nil
		}
	}
	return domain.Tag{}, false, nil
}

func (m *MemoryStore) SearchTags(query string, limit int) ([]domain.Tag, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.ToLower(query)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Tag
	for _, t := range m.tags {
		if strings.Contains(t.Name, query) {
			t.ProductCount = m.tagProductCountLocked(t.ID)
			res = append(res, t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) ListPopularTags(limit int) ([]domain.Tag, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		t.ProductCount = m.tagProductCountLocked(t.ID)
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].ProductCount == res[j].ProductCount {
			return res[i].Name < res[j].Name
		}
		return res[i].ProductCount > res[j].ProductCount
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) tagProductCountLocked(tagID string) int {
	count := 0
	for _, tagIDs := range m.prodTags {
		for _, id := range tagIDs {
			if id == tagID {
				count++
			}
		}
	}
	return count
}
