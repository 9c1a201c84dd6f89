package store

import (
	"context"
	"errors"

	"github.com/vesaki/vesaki-server/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence boundary for the app. MongoStore backs it in
// production; MemoryStore backs it in tests.
type Store interface {
	// Products
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductByExternalID(ctx context.Context, externalID string) (*models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	// SearchProducts matches query case-insensitively as a substring of
	// name, brand, category or description.
	SearchProducts(ctx context.Context, query string, count int) ([]models.Product, error)
	TrendingProducts(ctx context.Context, count int) ([]models.Product, error)
	RandomProducts(ctx context.Context, count int) ([]models.Product, error)
	CountProducts(ctx context.Context) (int64, error)

	// Swipes (append-only)
	InsertSwipe(ctx context.Context, s *models.Swipe) error
	ListSwipes(ctx context.Context, userID string) ([]models.Swipe, error)

	// Collections
	DefaultCollection(ctx context.Context, userID string) (*models.Collection, error)
	InsertCollection(ctx context.Context, c *models.Collection) error
	ListCollections(ctx context.Context, userID string) ([]models.Collection, error)
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	GetCollectionItem(ctx context.Context, collectionID, productID string) (*models.CollectionItem, error)
	InsertCollectionItem(ctx context.Context, item *models.CollectionItem) error
	SetCollectionItemTryOn(ctx context.Context, itemID, url string) error
	ListCollectionItems(ctx context.Context, collectionID string) ([]models.CollectionItem, error)

	// Users
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error

	// Photos
	ListPhotos(ctx context.Context, userID string) ([]models.Photo, error)
	GetPhoto(ctx context.Context, id string) (*models.Photo, error)
	InsertPhoto(ctx context.Context, p *models.Photo) error
	DeletePhoto(ctx context.Context, id string) error
	// SetPrimaryPhoto marks one photo primary, unmarks all others, and
	// updates the user's primary-photo pointer.
	SetPrimaryPhoto(ctx context.Context, userID, photoID string) error
}
