package models

import (
	"time"
)

// ContactStatus is the lifecycle state of an introduction request.
// Transitions are monotonic: pending may become accepted or rejected,
// and resolved contacts never change again.
type ContactStatus string

const (
	ContactPending  ContactStatus = "pending"
	ContactAccepted ContactStatus = "accepted"
	ContactRejected ContactStatus = "rejected"
)

// Contact is an introduction request between a prospective client and a
// parcel owner. OwnerID is resolved from the parcel at request time and
// never re-derived, even if the parcel changes hands later.
type Contact struct {
	RequestedAt time.Time     `json:"requestedAt"`
	Status      ContactStatus `json:"status"`
	ClientID    string        `json:"clientId"`
	OwnerID     string        `json:"ownerId"`
	ID          int64         `json:"id"`
	ParcelID    int64         `json:"parcelId"`
}

// FeeSchedule is the informational brokerage commission grid disclosed
// to the client on approval. Nothing in this system computes or collects
// the fee.
type FeeSchedule struct {
	ClientPercent float64 `json:"clientPercent"`
	OwnerPercent  float64 `json:"ownerPercent"`
}

// DefaultFeeSchedule returns the commission percentages communicated in
// approval notifications.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{ClientPercent: 3, OwnerPercent: 2}
}
