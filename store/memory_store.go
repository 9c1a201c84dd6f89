package store

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/vesaki/vesaki-server/models"
)

// MemoryStore is an in-memory Store used by tests. Product iteration keeps
// insertion order so fallback and dedup behavior stays deterministic.
type MemoryStore struct {
	mu sync.Mutex

	products    []models.Product
	swipes      []models.Swipe
	collections []models.Collection
	items       []models.CollectionItem
	users       map[string]models.User
	photos      []models.Photo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]models.User)}
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetProductByExternalID(_ context.Context, externalID string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if externalID == "" {
		return nil, ErrNotFound
	}
	for i := range m.products {
		if m.products[i].ExternalID == externalID {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) InsertProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, *p)
	return nil
}

func (m *MemoryStore) SearchProducts(_ context.Context, query string, count int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Product
	for _, p := range m.products {
		if len(out) >= count {
			break
		}
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) TrendingProducts(_ context.Context, count int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.products {
		if len(out) >= count {
			break
		}
		if p.Trending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) RandomProducts(_ context.Context, count int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shuffled := make([]models.Product, len(m.products))
	copy(shuffled, m.products)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if len(shuffled) > count {
		shuffled = shuffled[:count]
	}
	return shuffled, nil
}

func (m *MemoryStore) CountProducts(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.products)), nil
}

func (m *MemoryStore) InsertSwipe(_ context.Context, s *models.Swipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swipes = append(m.swipes, *s)
	return nil
}

func (m *MemoryStore) ListSwipes(_ context.Context, userID string) ([]models.Swipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Swipe
	for _, s := range m.swipes {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SwipedAt.After(out[j].SwipedAt) })
	return out, nil
}

func (m *MemoryStore) DefaultCollection(_ context.Context, userID string) (*models.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.collections {
		if m.collections[i].UserID == userID && m.collections[i].IsDefault {
			c := m.collections[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) InsertCollection(_ context.Context, c *models.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = append(m.collections, *c)
	return nil
}

func (m *MemoryStore) ListCollections(_ context.Context, userID string) ([]models.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Collection
	for _, c := range m.collections {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetCollection(_ context.Context, id string) (*models.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.collections {
		if m.collections[i].ID == id {
			c := m.collections[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetCollectionItem(_ context.Context, collectionID, productID string) (*models.CollectionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].CollectionID == collectionID && m.items[i].ProductID == productID {
			item := m.items[i]
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) InsertCollectionItem(_ context.Context, item *models.CollectionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *item)
	return nil
}

func (m *MemoryStore) SetCollectionItemTryOn(_ context.Context, itemID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items[i].TryOnImageURL = url
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListCollectionItems(_ context.Context, collectionID string) ([]models.CollectionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CollectionItem
	for _, item := range m.items {
		if item.CollectionID == collectionID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) ListPhotos(_ context.Context, userID string) ([]models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Photo
	for _, p := range m.photos {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetPhoto(_ context.Context, id string) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.photos {
		if m.photos[i].ID == id {
			p := m.photos[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) InsertPhoto(_ context.Context, p *models.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos = append(m.photos, *p)
	return nil
}

func (m *MemoryStore) DeletePhoto(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.photos {
		if m.photos[i].ID == id {
			m.photos = append(m.photos[:i], m.photos[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) SetPrimaryPhoto(_ context.Context, userID, photoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.photos {
		if m.photos[i].UserID != userID {
			continue
		}
		if m.photos[i].ID == photoID {
			m.photos[i].IsPrimary = true
			found = true
		} else {
			m.photos[i].IsPrimary = false
		}
	}
	if !found {
		return ErrNotFound
	}
	u, ok := m.users[userID]
	if ok {
		u.PrimaryPhotoID = photoID
		m.users[userID] = u
	}
	return nil
}
