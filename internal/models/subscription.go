package models

import (
	"time"
)

// SubscriptionStatus is the lifecycle state of a subscription.
// Transitions are monotonic: pending may become active or failed, and an
// expired subscription is never resurrected; a new one is created instead.
type SubscriptionStatus string

const (
	SubscriptionPending SubscriptionStatus = "pending"
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionFailed  SubscriptionStatus = "failed"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription records a billing agreement with the external payment
// gateway. GatewayRef is the correlation token (tx_ref) shared with the
// gateway; state only moves forward when a verified webhook says so.
type Subscription struct {
	CreatedAt    time.Time          `json:"createdAt"`
	StartDate    time.Time          `json:"startDate"`
	EndDate      *time.Time         `json:"endDate,omitempty"`
	Status       SubscriptionStatus `json:"status"`
	UserID       string             `json:"userId"`
	PlanType     string             `json:"planType"`
	Currency     string             `json:"currency"`
	GatewayRef   string             `json:"gatewayRef"`
	TierName     *string            `json:"tierName,omitempty"`
	DeclaredArea *float64           `json:"declaredArea,omitempty"`
	Amount       float64            `json:"amount"`
	ID           int64              `json:"id"`
}
