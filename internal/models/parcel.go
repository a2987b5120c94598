package models

import (
	"time"
)

// Parcel represents a registered land parcel with boundary geometry.
// The matricule is a human-assigned registry code; it is searched by
// partial match and is not guaranteed globally unique.
// All nullable fields use pointers to distinguish between zero values and NULL.
type Parcel struct {
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
	Matricule           string        `json:"matricule"`
	OwnerID             string        `json:"ownerId"`
	Boundary            string        `json:"boundary,omitempty"`
	Neighborhood        *string       `json:"neighborhood,omitempty"`
	Activity            *string       `json:"activity,omitempty"`
	ActivityDescription *string       `json:"activityDescription,omitempty"`
	OwnerName           *string       `json:"ownerName,omitempty"`
	OwnerPhone          *string       `json:"ownerPhone,omitempty"`
	TitleIssuedAt       *time.Time    `json:"titleIssuedAt,omitempty"`
	DevelopedAt         *time.Time    `json:"developedAt,omitempty"`
	Images              []ParcelImage `json:"images,omitempty"`
	PricePerM2          float64       `json:"pricePerM2"`
	ID                  int64         `json:"id"`
	IsTitled            bool          `json:"isTitled"`
	IsActive            bool          `json:"isActive"`
}

// ParcelImage is one entry in a parcel's ordered image list. Position is
// assignment order and is never reordered in place.
type ParcelImage struct {
	URL      string `json:"url"`
	ID       int64  `json:"id"`
	ParcelID int64  `json:"parcelId"`
	Position int    `json:"position"`
}

// ParcelFilters narrows parcel listings. Zero values mean "no filter".
// TitleStatus accepts "titled" or "untitled"; anything else is ignored.
type ParcelFilters struct {
	Division    string
	Activity    string
	TitleStatus string
	PriceMin    float64
	PriceMax    float64
	Limit       int
}

// ParcelUpdate carries a partial update for a parcel. Nil fields are left
// untouched. Ownership and soft-delete state are not updatable here;
// soft deletion has its own operation.
type ParcelUpdate struct {
	Matricule           *string  `json:"matricule,omitempty"`
	Neighborhood        *string  `json:"neighborhood,omitempty"`
	Activity            *string  `json:"activity,omitempty"`
	ActivityDescription *string  `json:"activityDescription,omitempty"`
	PricePerM2          *float64 `json:"pricePerM2,omitempty"`
	IsTitled            *bool    `json:"isTitled,omitempty"`
}
