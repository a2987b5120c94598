package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geofoncier/api/internal/database"
	"github.com/geofoncier/api/internal/models"
	"github.com/jackc/pgx/v5"
)

// Default and maximum page sizes for parcel listings.
const (
	defaultParcelLimit = 100
	maxParcelLimit     = 500
)

const parcelColumns = `
	p.id, p.matricule, p.owner_id, ST_AsText(p.boundary),
	p.neighborhood, p.activity, p.activity_description,
	p.owner_name, p.owner_phone,
	p.price_per_m2, p.is_titled, p.is_active,
	p.title_issued_at, p.developed_at,
	p.created_at, p.updated_at`

// ParcelRepository defines data access for the parcel registry.
// Listings always exclude soft-deleted rows; direct id lookup does not,
// so history stays retrievable.
type ParcelRepository interface {
	Create(ctx context.Context, parcel *models.Parcel) (*models.Parcel, error)
	List(ctx context.Context, filters models.ParcelFilters) ([]models.Parcel, error)
	GetByID(ctx context.Context, id int64) (*models.Parcel, error)
	SearchByMatricule(ctx context.Context, fragment string) ([]models.Parcel, error)
	Update(ctx context.Context, id int64, update models.ParcelUpdate) (*models.Parcel, error)
	SoftDelete(ctx context.Context, id int64) error
	AttachImages(ctx context.Context, parcelID int64, urls []string) ([]models.ParcelImage, error)
	ListImages(ctx context.Context, parcelID int64) ([]models.ParcelImage, error)
}

type parcelRepository struct {
	db *database.Database
}

// NewParcelRepository creates a new instance of ParcelRepository.
func NewParcelRepository(db *database.Database) ParcelRepository {
	return &parcelRepository{db: db}
}

func (r *parcelRepository) Create(ctx context.Context, parcel *models.Parcel) (*models.Parcel, error) {
	query := `
		INSERT INTO parcels (
			matricule, owner_id, boundary,
			neighborhood, activity, activity_description,
			owner_name, owner_phone,
			price_per_m2, is_titled, is_active,
			title_issued_at, developed_at
		)
		VALUES ($1, $2, ST_GeomFromText($3, 4326), $4, $5, $6, $7, $8, $9, $10, true, $11, $12)
		RETURNING id, matricule, owner_id, ST_AsText(boundary),
		          neighborhood, activity, activity_description,
		          owner_name, owner_phone,
		          price_per_m2, is_titled, is_active,
		          title_issued_at, developed_at,
		          created_at, updated_at
	`

	var created models.Parcel
	var boundary *string
	err := r.db.Pool.QueryRow(ctx, query,
		parcel.Matricule, parcel.OwnerID, parcel.Boundary,
		parcel.Neighborhood, parcel.Activity, parcel.ActivityDescription,
		parcel.OwnerName, parcel.OwnerPhone,
		parcel.PricePerM2, parcel.IsTitled,
		parcel.TitleIssuedAt, parcel.DevelopedAt,
	).Scan(
		&created.ID, &created.Matricule, &created.OwnerID, &boundary,
		&created.Neighborhood, &created.Activity, &created.ActivityDescription,
		&created.OwnerName, &created.OwnerPhone,
		&created.PricePerM2, &created.IsTitled, &created.IsActive,
		&created.TitleIssuedAt, &created.DevelopedAt,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parcel %q: %w", parcel.Matricule, err)
	}
	if boundary != nil {
		created.Boundary = *boundary
	}

	return &created, nil
}

// List returns active parcels matching the filters, newest first.
// Division filtering matches the containing arrondissement, department
// or region by name via server-side containment.
func (r *parcelRepository) List(ctx context.Context, filters models.ParcelFilters) ([]models.Parcel, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultParcelLimit
	}
	if limit > maxParcelLimit {
		limit = maxParcelLimit
	}

	var titled *bool
	switch filters.TitleStatus {
	case "titled":
		v := true
		titled = &v
	case "untitled":
		v := false
		titled = &v
	}

	var division, activity *string
	if filters.Division != "" {
		division = &filters.Division
	}
	if filters.Activity != "" {
		activity = &filters.Activity
	}
	var priceMin, priceMax *float64
	if filters.PriceMin > 0 {
		priceMin = &filters.PriceMin
	}
	if filters.PriceMax > 0 {
		priceMax = &filters.PriceMax
	}

	query := `
		SELECT ` + parcelColumns + `
		FROM parcels p
		WHERE p.is_active = true
		  AND ($1::text IS NULL OR EXISTS (
			SELECT 1 FROM arrondissements a
			WHERE a.name ILIKE '%' || $1 || '%'
			  AND ST_Intersects(p.boundary, a.boundary)
		  ))
		  AND ($2::text IS NULL OR p.activity = $2)
		  AND ($3::boolean IS NULL OR p.is_titled = $3)
		  AND ($4::numeric IS NULL OR p.price_per_m2 >= $4)
		  AND ($5::numeric IS NULL OR p.price_per_m2 <= $5)
		ORDER BY p.created_at DESC
		LIMIT $6
	`

	rows, err := r.db.Pool.Query(ctx, query, division, activity, titled, priceMin, priceMax, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcels: %w", err)
	}
	defer rows.Close()

	return scanParcels(rows)
}

// GetByID returns the parcel regardless of its soft-delete state, so
// callers can still inspect deleted rows. Returns nil, nil when absent.
func (r *parcelRepository) GetByID(ctx context.Context, id int64) (*models.Parcel, error) {
	query := `
		SELECT ` + parcelColumns + `
		FROM parcels p
		WHERE p.id = $1
	`

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcel %d: %w", id, err)
	}
	defer rows.Close()

	parcels, err := scanParcels(rows)
	if err != nil {
		return nil, err
	}
	if len(parcels) == 0 {
		return nil, nil
	}

	parcel := parcels[0]
	images, err := r.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	parcel.Images = images

	return &parcel, nil
}

func (r *parcelRepository) SearchByMatricule(ctx context.Context, fragment string) ([]models.Parcel, error) {
	query := `
		SELECT ` + parcelColumns + `
		FROM parcels p
		WHERE p.is_active = true
		  AND p.matricule ILIKE '%' || $1 || '%'
		ORDER BY p.created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, fragment, defaultParcelLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search parcels by matricule %q: %w", fragment, err)
	}
	defer rows.Close()

	return scanParcels(rows)
}

func (r *parcelRepository) Update(ctx context.Context, id int64, update models.ParcelUpdate) (*models.Parcel, error) {
	query := `
		UPDATE parcels
		SET matricule = COALESCE($2, matricule),
		    neighborhood = COALESCE($3, neighborhood),
		    activity = COALESCE($4, activity),
		    activity_description = COALESCE($5, activity_description),
		    price_per_m2 = COALESCE($6, price_per_m2),
		    is_titled = COALESCE($7, is_titled),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, matricule, owner_id, ST_AsText(boundary),
		          neighborhood, activity, activity_description,
		          owner_name, owner_phone,
		          price_per_m2, is_titled, is_active,
		          title_issued_at, developed_at,
		          created_at, updated_at
	`

	var parcel models.Parcel
	var boundary *string
	err := r.db.Pool.QueryRow(ctx, query, id,
		update.Matricule, update.Neighborhood, update.Activity,
		update.ActivityDescription, update.PricePerM2, update.IsTitled,
	).Scan(
		&parcel.ID, &parcel.Matricule, &parcel.OwnerID, &boundary,
		&parcel.Neighborhood, &parcel.Activity, &parcel.ActivityDescription,
		&parcel.OwnerName, &parcel.OwnerPhone,
		&parcel.PricePerM2, &parcel.IsTitled, &parcel.IsActive,
		&parcel.TitleIssuedAt, &parcel.DevelopedAt,
		&parcel.CreatedAt, &parcel.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update parcel %d: %w", id, err)
	}
	if boundary != nil {
		parcel.Boundary = *boundary
	}

	return &parcel, nil
}

// SoftDelete flips is_active off. The row is never physically removed,
// so integrity reports and direct lookups keep working.
func (r *parcelRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE parcels SET is_active = false, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete parcel %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AttachImages appends URLs to the parcel's image list. Position
// continues from the current maximum, so ordering is assignment order.
func (r *parcelRepository) AttachImages(ctx context.Context, parcelID int64, urls []string) ([]models.ParcelImage, error) {
	query := `
		INSERT INTO parcel_images (parcel_id, url, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1
		FROM parcel_images
		WHERE parcel_id = $1
		RETURNING id, parcel_id, url, position
	`

	images := make([]models.ParcelImage, 0, len(urls))
	for _, url := range urls {
		var img models.ParcelImage
		err := r.db.Pool.QueryRow(ctx, query, parcelID, url).Scan(
			&img.ID, &img.ParcelID, &img.URL, &img.Position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to attach image to parcel %d: %w", parcelID, err)
		}
		images = append(images, img)
	}

	return images, nil
}

func (r *parcelRepository) ListImages(ctx context.Context, parcelID int64) ([]models.ParcelImage, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, parcel_id, url, position FROM parcel_images WHERE parcel_id = $1 ORDER BY position`,
		parcelID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query images for parcel %d: %w", parcelID, err)
	}
	defer rows.Close()

	images := []models.ParcelImage{}
	for rows.Next() {
		var img models.ParcelImage
		if err := rows.Scan(&img.ID, &img.ParcelID, &img.URL, &img.Position); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image rows: %w", err)
	}

	return images, nil
}

// scanParcels drains a result set whose columns match parcelColumns.
func scanParcels(rows pgx.Rows) ([]models.Parcel, error) {
	parcels := []models.Parcel{}
	for rows.Next() {
		var parcel models.Parcel
		var boundary *string
		err := rows.Scan(
			&parcel.ID, &parcel.Matricule, &parcel.OwnerID, &boundary,
			&parcel.Neighborhood, &parcel.Activity, &parcel.ActivityDescription,
			&parcel.OwnerName, &parcel.OwnerPhone,
			&parcel.PricePerM2, &parcel.IsTitled, &parcel.IsActive,
			&parcel.TitleIssuedAt, &parcel.DevelopedAt,
			&parcel.CreatedAt, &parcel.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parcel row: %w", err)
		}
		if boundary != nil {
			parcel.Boundary = *boundary
		}
		parcels = append(parcels, parcel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parcel rows: %w", err)
	}

	return parcels, nil
}
