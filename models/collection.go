package models

import "time"

// DefaultCollectionName is the name of the lazily created default collection
// that right-swipes land in.
const DefaultCollectionName = "Likes"

// Collection is a named, user-owned grouping of products. Exactly one
// collection per user carries IsDefault.
type Collection struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Name      string    `bson:"name" json:"name"`
	IsDefault bool      `bson:"is_default" json:"isDefault"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// CollectionItem links a collection to a product. At most one item exists per
// (collection, product) pair; a repeat like updates TryOnImageURL in place.
type CollectionItem struct {
	ID            string    `bson:"_id" json:"id"`
	CollectionID  string    `bson:"collection_id" json:"collectionId"`
	ProductID     string    `bson:"product_id" json:"productId"`
	TryOnImageURL string    `bson:"tryon_image_url,omitempty" json:"tryOnImageUrl,omitempty"`
	AddedAt       time.Time `bson:"added_at" json:"addedAt"`

	// Product is embedded on reads; never stored.
	Product *Product `bson:"-" json:"product,omitempty"`
}
