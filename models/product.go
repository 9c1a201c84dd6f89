package models

import "time"

// Product is a catalog row. Internal rows carry a UUID string as _id so the
// swipe gateway can tell catalog products from external search results by id
// shape alone. Price is stored as a string-encoded decimal.
type Product struct {
	ID          string    `bson:"_id" json:"id"`
	ExternalID  string    `bson:"external_id,omitempty" json:"externalId,omitempty"`
	Name        string    `bson:"name" json:"name"`
	Brand       string    `bson:"brand" json:"brand"`
	Price       string    `bson:"price" json:"price"`
	Currency    string    `bson:"currency" json:"currency"`
	Retailer    string    `bson:"retailer" json:"retailer"`
	Category    string    `bson:"category" json:"category"`
	Subcategory string    `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	ImageURL    string    `bson:"image_url" json:"imageUrl"`
	ProductURL  string    `bson:"product_url" json:"productUrl"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	InStock     bool      `bson:"in_stock" json:"inStock"`
	Trending    bool      `bson:"trending" json:"trending"`
	IsNew       bool      `bson:"is_new" json:"isNew"`
	IsEditorial bool      `bson:"is_editorial" json:"isEditorial"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// ProductCard is the product shape served to the UI. Cards come either from
// the external search provider (IsExternal) or from the catalog. ImageURL is
// always present after the source adapter runs; empty string means every
// image-resolution strategy failed.
type ProductCard struct {
	ID          string  `json:"id"`
	ExternalID  string  `json:"externalId,omitempty"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Retailer    string  `json:"retailer"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	ImageURL    string  `json:"imageUrl"`
	ProductURL  string  `json:"productUrl"`
	Description string  `json:"description,omitempty"`
	InStock     bool    `json:"inStock"`
	Trending    bool    `json:"trending"`
	IsNew       bool    `json:"isNew"`
	IsEditorial bool    `json:"isEditorial"`
	IsExternal  bool    `json:"isExternal"`
}
