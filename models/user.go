package models

import "time"

// Sizes holds the clothing sizes a user picked during onboarding.
type Sizes struct {
	Top    string `bson:"top,omitempty" json:"top,omitempty"`
	Bottom string `bson:"bottom,omitempty" json:"bottom,omitempty"`
	Shoes  string `bson:"shoes,omitempty" json:"shoes,omitempty"`
}

// Preferences is the styling preferences structure attached to a user.
// BudgetRange is a two-element [min, max] when present.
type Preferences struct {
	Sizes       Sizes     `bson:"sizes,omitempty" json:"sizes,omitempty"`
	BudgetRange []float64 `bson:"budget_range,omitempty" json:"budgetRange,omitempty"`
}

// User represents a registered user
type User struct {
	ID             string       `bson:"_id" json:"id"`
	Email          string       `bson:"email" json:"email"`
	Name           string       `bson:"name" json:"name"`
	Password       string       `bson:"password" json:"-"` // Password is not returned in JSON
	Status         string       `bson:"status" json:"status"` // pending, verified
	OTP            string       `bson:"otp,omitempty" json:"-"`
	Preferences    *Preferences `bson:"preferences,omitempty" json:"preferences,omitempty"`
	PrimaryPhotoID string       `bson:"primary_photo_id,omitempty" json:"primaryPhotoId,omitempty"`
	CreatedAt      time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `bson:"updated_at" json:"updatedAt"`
}

// MaxPhotosPerUser caps the number of photos attached to one profile.
const MaxPhotosPerUser = 5

// Photo is one uploaded user photo. URL holds the S3 object key; presigned
// URLs are generated at response time.
type Photo struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	URL       string    `bson:"url" json:"url"`
	IsPrimary bool      `bson:"is_primary" json:"isPrimary"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
