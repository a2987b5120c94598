package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geofoncier/api/internal/database"
	"github.com/geofoncier/api/internal/models"
	"github.com/jackc/pgx/v5"
)

// ContactRepository defines data access for introduction requests.
// Resolution is a single conditional write so that concurrent attempts
// on the same pending contact produce exactly one success.
type ContactRepository interface {
	Create(ctx context.Context, clientID, ownerID string, parcelID int64) (*models.Contact, error)
	GetByID(ctx context.Context, id int64) (*models.Contact, error)

	// Resolve moves a pending contact to the given terminal status.
	// Returns false when the contact was not pending (or absent).
	Resolve(ctx context.Context, id int64, status models.ContactStatus) (bool, error)

	// HistoryByUser returns contacts where the user is client or owner,
	// newest first.
	HistoryByUser(ctx context.Context, userID string) ([]models.Contact, error)
}

type contactRepository struct {
	db *database.Database
}

// NewContactRepository creates a new instance of ContactRepository.
func NewContactRepository(db *database.Database) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, clientID, ownerID string, parcelID int64) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (client_id, owner_id, parcel_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, client_id, owner_id, parcel_id, status, requested_at
	`

	var contact models.Contact
	err := r.db.Pool.QueryRow(ctx, query, clientID, ownerID, parcelID).Scan(
		&contact.ID, &contact.ClientID, &contact.OwnerID,
		&contact.ParcelID, &contact.Status, &contact.RequestedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact for parcel %d: %w", parcelID, err)
	}

	return &contact, nil
}

func (r *contactRepository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	query := `
		SELECT id, client_id, owner_id, parcel_id, status, requested_at
		FROM contacts
		WHERE id = $1
	`

	var contact models.Contact
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&contact.ID, &contact.ClientID, &contact.OwnerID,
		&contact.ParcelID, &contact.Status, &contact.RequestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query contact %d: %w", id, err)
	}

	return &contact, nil
}

// Resolve relies on the database's row-level atomicity: the conditional
// UPDATE means two concurrent approvals yield one affected row and one
// zero-row result, never two disclosures.
func (r *contactRepository) Resolve(ctx context.Context, id int64, status models.ContactStatus) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE contacts SET status = $2 WHERE id = $1 AND status = 'pending'`,
		id, status,
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve contact %d to %s: %w", id, status, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *contactRepository) HistoryByUser(ctx context.Context, userID string) ([]models.Contact, error) {
	query := `
		SELECT id, client_id, owner_id, parcel_id, status, requested_at
		FROM contacts
		WHERE client_id = $1 OR owner_id = $1
		ORDER BY requested_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact history for user %s: %w", userID, err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var contact models.Contact
		if err := rows.Scan(
			&contact.ID, &contact.ClientID, &contact.OwnerID,
			&contact.ParcelID, &contact.Status, &contact.RequestedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}

	return contacts, nil
}
