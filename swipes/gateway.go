package swipes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/store"
)

// uuidRe validates RFC-4122-style session and product identifiers.
var uuidRe = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsUUID reports whether s is a well-formed RFC-4122 UUID string.
func IsUUID(s string) bool {
	return uuidRe.MatchString(s)
}

// Request carries one swipe decision into the gateway. Product is the card
// snapshot as the client saw it; required to upsert external products into
// the catalog on first like.
type Request struct {
	ProductID     string              `json:"productId"`
	Direction     string              `json:"direction"`
	SessionID     string              `json:"sessionId"`
	CardPosition  int                 `json:"cardPosition"`
	Product       *models.ProductCard `json:"product,omitempty"`
	TryOnImageURL string              `json:"tryOnImageUrl,omitempty"`
}

// Gateway records swipe events and maintains the default "Likes" collection.
type Gateway struct {
	store store.Store
}

func NewGateway(s store.Store) *Gateway {
	return &Gateway{store: s}
}

// Record persists one swipe. The session id is repaired if malformed, the
// product is resolved to a permanent catalog id (upserting external products
// on first sight), and a right-swipe lands in the user's default collection
// exactly once.
func (g *Gateway) Record(ctx context.Context, userID string, req Request) (*models.Swipe, error) {
	switch req.Direction {
	case models.SwipeLeft, models.SwipeRight, models.SwipeUp:
	default:
		return nil, fmt.Errorf("invalid swipe direction %q", req.Direction)
	}

	sessionID := req.SessionID
	if !IsUUID(sessionID) {
		fresh := uuid.NewString()
		log.Printf("Invalid sessionId provided: %s. Generated new UUID: %s", sessionID, fresh)
		sessionID = fresh
	}

	productID, err := g.resolveProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	swipe := &models.Swipe{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProductID:    productID,
		Direction:    req.Direction,
		SessionID:    sessionID,
		CardPosition: req.CardPosition,
		SwipedAt:     time.Now(),
	}
	if err := g.store.InsertSwipe(ctx, swipe); err != nil {
		return nil, fmt.Errorf("record swipe: %w", err)
	}

	if req.Direction == models.SwipeRight {
		if err := g.addToDefaultCollection(ctx, userID, productID, req.TryOnImageURL); err != nil {
			return nil, err
		}
	}
	return swipe, nil
}

// resolveProduct maps the swiped card to a permanent catalog id. A
// well-formed UUID is already a catalog row; anything else is an external
// product that gets upserted from the request's snapshot.
func (g *Gateway) resolveProduct(ctx context.Context, req Request) (string, error) {
	if IsUUID(req.ProductID) {
		return req.ProductID, nil
	}

	externalID := req.ProductID
	if req.Product != nil && req.Product.ExternalID != "" {
		externalID = req.Product.ExternalID
	}

	existing, err := g.store.GetProductByExternalID(ctx, externalID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("look up external product: %w", err)
	}

	row := productFromSnapshot(req, externalID)
	if err := g.store.InsertProduct(ctx, row); err != nil {
		return "", fmt.Errorf("upsert external product: %w", err)
	}
	return row.ID, nil
}

func productFromSnapshot(req Request, externalID string) *models.Product {
	card := req.Product
	if card == nil {
		card = &models.ProductCard{ID: req.ProductID}
	}

	name := card.Name
	if name == "" {
		name = "Product"
	}
	brand := card.Brand
	if brand == "" {
		brand = "Unknown"
	}
	currency := card.Currency
	if currency == "" {
		currency = "USD"
	}
	category := card.Category
	if category == "" {
		category = "search"
	}
	retailer := card.Retailer
	if retailer == "" {
		retailer = brand
	}
	productURL := card.ProductURL
	if productURL == "" {
		productURL = "#"
	}

	return &models.Product{
		ID:          uuid.NewString(),
		ExternalID:  externalID,
		Name:        name,
		Brand:       brand,
		Price:       strconv.FormatFloat(card.Price, 'f', 2, 64),
		Currency:    currency,
		Retailer:    retailer,
		Category:    category,
		Subcategory: card.Subcategory,
		ImageURL:    card.ImageURL,
		ProductURL:  productURL,
		Description: card.Description,
		InStock:     true,
		CreatedAt:   time.Now(),
	}
}

// addToDefaultCollection ensures the "Likes" collection exists and holds at
// most one item for the product. A repeat like fills in a try-on URL the
// existing item was missing.
func (g *Gateway) addToDefaultCollection(ctx context.Context, userID, productID, tryOnURL string) error {
	coll, err := g.store.DefaultCollection(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		coll = &models.Collection{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      models.DefaultCollectionName,
			IsDefault: true,
			CreatedAt: time.Now(),
		}
		if err := g.store.InsertCollection(ctx, coll); err != nil {
			return fmt.Errorf("create default collection: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("fetch default collection: %w", err)
	}

	existing, err := g.store.GetCollectionItem(ctx, coll.ID, productID)
	if errors.Is(err, store.ErrNotFound) {
		item := &models.CollectionItem{
			ID:            uuid.NewString(),
			CollectionID:  coll.ID,
			ProductID:     productID,
			TryOnImageURL: tryOnURL,
			AddedAt:       time.Now(),
		}
		if err := g.store.InsertCollectionItem(ctx, item); err != nil {
			return fmt.Errorf("insert collection item: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("check collection item: %w", err)
	}

	if existing.TryOnImageURL == "" && tryOnURL != "" {
		if err := g.store.SetCollectionItemTryOn(ctx, existing.ID, tryOnURL); err != nil {
			return fmt.Errorf("update collection item try-on: %w", err)
		}
	}
	return nil
}

// History returns the user's swipes, newest first, with product snapshots
// embedded where the catalog still has them.
func (g *Gateway) History(ctx context.Context, userID string) ([]models.Swipe, error) {
	list, err := g.store.ListSwipes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list swipes: %w", err)
	}
	for i := range list {
		if p, err := g.store.GetProduct(ctx, list[i].ProductID); err == nil {
			list[i].Product = p
		}
	}
	return list, nil
}
