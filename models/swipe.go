package models

import "time"

// Swipe directions. Left rejects, right likes, up super-likes.
const (
	SwipeLeft  = "left"
	SwipeRight = "right"
	SwipeUp    = "up"
)

// Swipe is one recorded swipe decision. Rows are append-only and never
// mutated after insert.
type Swipe struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user_id" json:"userId"`
	ProductID    string    `bson:"product_id" json:"productId"`
	Direction    string    `bson:"direction" json:"direction"`
	SessionID    string    `bson:"session_id" json:"sessionId"`
	CardPosition int       `bson:"card_position" json:"cardPosition"`
	SwipedAt     time.Time `bson:"swiped_at" json:"swipedAt"`

	// Product is embedded on reads for swipe-history responses; never stored.
	Product *Product `bson:"-" json:"product,omitempty"`
}
