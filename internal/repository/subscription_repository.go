package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geofoncier/api/internal/database"
	"github.com/geofoncier/api/internal/models"
	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	id, user_id, plan_type, amount, currency, status,
	gateway_ref, tier_name, declared_area,
	start_date, end_date, created_at`

// SubscriptionRepository records billing state told to us by the payment
// gateway. Status transitions are conditional writes so they stay
// monotonic under concurrent webhooks.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	GetByGatewayRef(ctx context.Context, ref string) (*models.Subscription, error)

	// Activate moves a pending subscription to active. Returns false when
	// the subscription was not pending (or absent).
	Activate(ctx context.Context, gatewayRef string) (bool, error)

	// MarkFailed moves a pending subscription to failed. Same contract.
	MarkFailed(ctx context.Context, gatewayRef string) (bool, error)

	// HasActiveSubscription reports whether the user currently holds an
	// active subscription; the registry uses this as a gating fact.
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)

	// HistoryByUser returns all of a user's subscriptions, newest first.
	HistoryByUser(ctx context.Context, userID string) ([]models.Subscription, error)
}

type subscriptionRepository struct {
	db *database.Database
}

// NewSubscriptionRepository creates a new instance of SubscriptionRepository.
func NewSubscriptionRepository(db *database.Database) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (
			user_id, plan_type, amount, currency, status,
			gateway_ref, tier_name, declared_area, start_date, end_date
		)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8, $9)
		RETURNING ` + subscriptionColumns + `
	`

	var created models.Subscription
	err := r.db.Pool.QueryRow(ctx, query,
		sub.UserID, sub.PlanType, sub.Amount, sub.Currency,
		sub.GatewayRef, sub.TierName, sub.DeclaredArea,
		sub.StartDate, sub.EndDate,
	).Scan(
		&created.ID, &created.UserID, &created.PlanType,
		&created.Amount, &created.Currency, &created.Status,
		&created.GatewayRef, &created.TierName, &created.DeclaredArea,
		&created.StartDate, &created.EndDate, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription for user %s: %w", sub.UserID, err)
	}

	return &created, nil
}

func (r *subscriptionRepository) GetByGatewayRef(ctx context.Context, ref string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE gateway_ref = $1`

	var sub models.Subscription
	err := r.db.Pool.QueryRow(ctx, query, ref).Scan(
		&sub.ID, &sub.UserID, &sub.PlanType,
		&sub.Amount, &sub.Currency, &sub.Status,
		&sub.GatewayRef, &sub.TierName, &sub.DeclaredArea,
		&sub.StartDate, &sub.EndDate, &sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query subscription by ref %s: %w", ref, err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) Activate(ctx context.Context, gatewayRef string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE subscriptions SET status = 'active' WHERE gateway_ref = $1 AND status = 'pending'`,
		gatewayRef,
	)
	if err != nil {
		return false, fmt.Errorf("failed to activate subscription %s: %w", gatewayRef, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *subscriptionRepository) MarkFailed(ctx context.Context, gatewayRef string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE subscriptions SET status = 'failed' WHERE gateway_ref = $1 AND status = 'pending'`,
		gatewayRef,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark subscription %s failed: %w", gatewayRef, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *subscriptionRepository) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND status = 'active'
			  AND (end_date IS NULL OR end_date >= CURRENT_DATE)
		)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active subscription for user %s: %w", userID, err)
	}
	return exists, nil
}

func (r *subscriptionRepository) HistoryByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions for user %s: %w", userID, err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.PlanType,
			&sub.Amount, &sub.Currency, &sub.Status,
			&sub.GatewayRef, &sub.TierName, &sub.DeclaredArea,
			&sub.StartDate, &sub.EndDate, &sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}

	return subs, nil
}
