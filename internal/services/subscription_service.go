package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/payment"
	"github.com/geofoncier/api/internal/pricing"
	"github.com/geofoncier/api/internal/repository"
	"github.com/google/uuid"
)

// Service-level errors for the subscription workflow.
var (
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnknownPlan          = errors.New("unknown plan type")
	ErrUnknownPeriod        = errors.New("unknown billing period")
	ErrAreaRequired         = errors.New("owner plans require a declared area")
)

// Plan and period identifiers shared with clients of the API.
const (
	PlanOwner  = "owner"
	PlanClient = "client"

	PeriodMonthly = "monthly"
	PeriodAnnual  = "annual"
)

// CreateSubscriptionInput opens a pending subscription before the user
// is redirected to the payment gateway.
type CreateSubscriptionInput struct {
	UserID       string   `json:"userId"`
	PlanType     string   `json:"planType"`
	Period       string   `json:"period"`
	Zone         string   `json:"zone"`
	DeclaredArea *float64 `json:"declaredArea"`
}

// webhookPayload is the gateway's charge notification, parsed only
// after the signature check passes.
type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		TxRef  string `json:"tx_ref"`
		Status string `json:"status"`
	} `json:"data"`
}

// SubscriptionService opens subscriptions and applies the state
// transitions reported by the payment gateway's webhooks.
type SubscriptionService interface {
	// Create records a pending subscription and returns it with the
	// gateway correlation reference the caller hands to the gateway.
	Create(ctx context.Context, input CreateSubscriptionInput) (*models.Subscription, error)
	// HandleWebhook verifies the gateway signature over the raw body,
	// then activates or fails the referenced subscription. Replayed
	// webhooks for an already-resolved subscription are acknowledged
	// without effect.
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	HasActive(ctx context.Context, userID string) (bool, error)
	HistoryByUser(ctx context.Context, userID string) ([]models.Subscription, error)
}

type subscriptionService struct {
	repo          repository.SubscriptionRepository
	webhookSecret string
	log           *logger.Logger
}

// NewSubscriptionService creates a new instance of SubscriptionService.
func NewSubscriptionService(repo repository.SubscriptionRepository, webhookSecret string, log *logger.Logger) SubscriptionService {
	return &subscriptionService{repo: repo, webhookSecret: webhookSecret, log: log}
}

func (s *subscriptionService) Create(ctx context.Context, input CreateSubscriptionInput) (*models.Subscription, error) {
	if input.UserID == "" {
		return nil, ErrOwnerRequired
	}
	if input.Period != PeriodMonthly && input.Period != PeriodAnnual {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, input.Period)
	}

	sub := &models.Subscription{
		UserID:     input.UserID,
		PlanType:   input.PlanType,
		Currency:   "XAF",
		GatewayRef: "gf-" + uuid.New().String(),
		StartDate:  time.Now(),
	}

	switch input.PlanType {
	case PlanOwner:
		if input.DeclaredArea == nil {
			return nil, ErrAreaRequired
		}
		quote, err := pricing.ForOwner(*input.DeclaredArea)
		if err != nil {
			return nil, err
		}
		sub.DeclaredArea = input.DeclaredArea
		sub.TierName = &quote.TierName
		if input.Period == PeriodAnnual {
			sub.Amount = quote.AnnualPrice
		} else {
			sub.Amount = quote.MonthlyPrice
		}

	case PlanClient:
		zone := input.Zone
		if zone == "" {
			zone = "africa"
		}
		plans, ok := pricing.ForClient()[zone]
		if !ok {
			return nil, fmt.Errorf("%w: unknown zone %q", ErrUnknownPlan, input.Zone)
		}
		sub.Amount = plans[input.Period].Price

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, input.PlanType)
	}

	end := sub.StartDate.AddDate(0, 1, 0)
	if input.Period == PeriodAnnual {
		end = sub.StartDate.AddDate(1, 0, 0)
	}
	sub.EndDate = &end

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		s.log.Error("Failed to create subscription", err, map[string]interface{}{"user_id": input.UserID})
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.log.Info("Subscription opened", map[string]interface{}{
		"subscription_id": created.ID,
		"user_id":         created.UserID,
		"plan":            created.PlanType,
		"gateway_ref":     created.GatewayRef,
	})
	return created, nil
}

func (s *subscriptionService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	// Nothing in the body is trusted before the signature passes.
	if !payment.VerifySignature(body, signature, s.webhookSecret) {
		s.log.Warn("Webhook rejected: signature mismatch", nil)
		return ErrInvalidSignature
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if payload.Data.TxRef == "" {
		return fmt.Errorf("%w: webhook carries no reference", ErrSubscriptionNotFound)
	}

	sub, err := s.repo.GetByGatewayRef(ctx, payload.Data.TxRef)
	if err != nil {
		return fmt.Errorf("failed to resolve subscription: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("%w: ref %s", ErrSubscriptionNotFound, payload.Data.TxRef)
	}

	succeeded := payload.Data.Status == "successful"

	var applied bool
	if succeeded {
		applied, err = s.repo.Activate(ctx, payload.Data.TxRef)
	} else {
		applied, err = s.repo.MarkFailed(ctx, payload.Data.TxRef)
	}
	if err != nil {
		s.log.Error("Failed to apply webhook transition", err, map[string]interface{}{
			"gateway_ref": payload.Data.TxRef,
		})
		return fmt.Errorf("failed to apply webhook: %w", err)
	}

	if !applied {
		// Gateways retry webhooks; a replay against a resolved
		// subscription is acknowledged, not re-applied.
		s.log.Info("Webhook replay ignored", map[string]interface{}{
			"gateway_ref": payload.Data.TxRef,
			"status":      sub.Status,
		})
		return nil
	}

	s.log.Info("Subscription transition applied", map[string]interface{}{
		"gateway_ref": payload.Data.TxRef,
		"activated":   succeeded,
	})
	return nil
}

func (s *subscriptionService) HasActive(ctx context.Context, userID string) (bool, error) {
	return s.repo.HasActiveSubscription(ctx, userID)
}

func (s *subscriptionService) HistoryByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	if userID == "" {
		return nil, ErrOwnerRequired
	}

	history, err := s.repo.HistoryByUser(ctx, userID)
	if err != nil {
		s.log.Error("Failed to load subscription history", err, map[string]interface{}{"user_id": userID})
		return nil, fmt.Errorf("failed to load subscription history: %w", err)
	}
	return history, nil
}
