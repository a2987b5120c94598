package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geofoncier/api/internal/database"
	"github.com/geofoncier/api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes for missing server-side support: the spatial
// stored procedures and the materialized view are treated as opaque
// capabilities that may be absent on a given database.
const (
	pgUndefinedFunction = "42883"
	pgUndefinedTable    = "42P01"
)

// IsMissingServerSupport reports whether err means a stored procedure or
// materialized view does not exist on the backing database. Callers fall
// back to direct table queries when this is true.
func IsMissingServerSupport(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedFunction || pgErr.Code == pgUndefinedTable
	}
	return false
}

// SpatialRepository calls the named server-side spatial functions. All
// geometry math happens inside PostGIS; this layer only shapes queries
// and results. Boundaries travel as WKT.
type SpatialRepository interface {
	// LocateByPoint resolves the hierarchy containing a point.
	// Returns nil, nil when no division contains it.
	LocateByPoint(ctx context.Context, lng, lat float64) (*models.LocationHierarchy, error)

	// NearestDivision returns the closest region center within
	// maxDistance meters (geodesic). Returns nil, nil beyond the radius.
	NearestDivision(ctx context.Context, lng, lat float64, maxDistanceMeters float64) (*models.NearestDivision, error)

	// ParcelsInBounds returns active parcels intersecting the box,
	// given as a WKT polygon built by the caller.
	ParcelsInBounds(ctx context.Context, boundsWKT string) ([]models.Parcel, error)

	// ParcelsInRegion returns active parcels contained in the named
	// region's boundary.
	ParcelsInRegion(ctx context.Context, regionName string) ([]models.Parcel, error)

	// DetectOverlaps returns active parcels intersecting the given one.
	DetectOverlaps(ctx context.Context, parcelID int64) ([]models.ParcelOverlap, error)

	// MultiRegionParcels returns parcels spanning more than one region.
	MultiRegionParcels(ctx context.Context) ([]models.MultiRegionParcel, error)

	// BorderParcels returns parcels within distanceMeters of a region boundary.
	BorderParcels(ctx context.Context, distanceMeters float64) ([]models.BorderParcel, error)

	// RegionArea computes a region's area server-side. Falls back to a
	// direct ST_Area query when the stored procedure is missing.
	RegionArea(ctx context.Context, regionID int64) (*models.RegionArea, error)

	// RegionStats reads the materialized statistics view, falling back
	// to a direct aggregate query when the view is missing.
	RegionStats(ctx context.Context) ([]models.RegionStats, bool, error)

	// RegionDetailedStats returns the full breakdown for one region.
	// Returns nil, nil when the region does not exist.
	RegionDetailedStats(ctx context.Context, regionID int64) (*models.RegionDetailedStats, error)

	// HierarchyCounts returns total rows per hierarchy level plus
	// active parcels.
	HierarchyCounts(ctx context.Context) (regions, departments, arrondissements, parcels int, err error)

	// RefreshMaterializedViews recomputes the statistics view. Idempotent.
	RefreshMaterializedViews(ctx context.Context) error

	// ValidateIntegrity runs the server-side consistency sweep, falling
	// back to direct orphan queries. Never mutates data.
	ValidateIntegrity(ctx context.Context) ([]models.IntegrityIssue, error)

	// OptimizeGeometries simplifies division boundaries server-side.
	OptimizeGeometries(ctx context.Context, tolerance float64) (string, error)
}

type spatialRepository struct {
	db *database.Database
}

// NewSpatialRepository creates a new instance of SpatialRepository.
func NewSpatialRepository(db *database.Database) SpatialRepository {
	return &spatialRepository{db: db}
}

func (r *spatialRepository) LocateByPoint(ctx context.Context, lng, lat float64) (*models.LocationHierarchy, error) {
	query := `
		SELECT region_id, region_name,
		       department_id, department_name,
		       arrondissement_id, arrondissement_name
		FROM get_location_hierarchy($1, $2)
	`

	var loc models.LocationHierarchy
	err := r.db.Pool.QueryRow(ctx, query, lng, lat).Scan(
		&loc.RegionID, &loc.RegionName,
		&loc.DepartmentID, &loc.DepartmentName,
		&loc.ArrondissementID, &loc.ArrondissementName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to locate point (lng=%f, lat=%f): %w", lng, lat, err)
	}

	return &loc, nil
}

func (r *spatialRepository) NearestDivision(ctx context.Context, lng, lat, maxDistanceMeters float64) (*models.NearestDivision, error) {
	query := `
		SELECT region_id, region_name, distance_meters
		FROM find_nearest_region($1, $2, $3)
	`

	var nearest models.NearestDivision
	err := r.db.Pool.QueryRow(ctx, query, lng, lat, maxDistanceMeters).Scan(
		&nearest.ID, &nearest.Name, &nearest.DistanceMeters,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find nearest division (lng=%f, lat=%f): %w", lng, lat, err)
	}

	return &nearest, nil
}

func (r *spatialRepository) ParcelsInBounds(ctx context.Context, boundsWKT string) ([]models.Parcel, error) {
	query := `
		SELECT ` + parcelColumns + `
		FROM parcels p
		WHERE p.is_active = true
		  AND ST_Intersects(p.boundary, ST_GeomFromText($1, 4326))
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, boundsWKT)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcels in bounds: %w", err)
	}
	defer rows.Close()

	return scanParcels(rows)
}

func (r *spatialRepository) ParcelsInRegion(ctx context.Context, regionName string) ([]models.Parcel, error) {
	// The stored procedure resolves the region case-insensitively and
	// applies containment in one pass.
	query := `
		SELECT id, matricule, owner_id, boundary,
		       neighborhood, activity, activity_description,
		       owner_name, owner_phone,
		       price_per_m2, is_titled, is_active,
		       title_issued_at, developed_at,
		       created_at, updated_at
		FROM parcels_in_region($1)
	`

	rows, err := r.db.Pool.Query(ctx, query, regionName)
	if err == nil {
		defer rows.Close()
		return scanParcels(rows)
	}
	if !IsMissingServerSupport(err) {
		return nil, fmt.Errorf("failed to query parcels in region %q: %w", regionName, err)
	}

	// Fallback: direct containment join against the regions table.
	fallback := `
		SELECT ` + parcelColumns + `
		FROM parcels p
		JOIN regions r ON r.name ILIKE '%' || $1 || '%'
		WHERE p.is_active = true
		  AND ST_Intersects(p.boundary, r.boundary)
		ORDER BY p.created_at DESC
	`

	rows, err = r.db.Pool.Query(ctx, fallback, regionName)
	if err != nil {
		return nil, fmt.Errorf("failed fallback query for parcels in region %q: %w", regionName, err)
	}
	defer rows.Close()

	return scanParcels(rows)
}

func (r *spatialRepository) DetectOverlaps(ctx context.Context, parcelID int64) ([]models.ParcelOverlap, error) {
	query := `
		SELECT parcel_id, matricule, overlap_area_m2
		FROM detect_parcel_overlaps($1)
	`

	rows, err := r.db.Pool.Query(ctx, query, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to detect overlaps for parcel %d: %w", parcelID, err)
	}
	defer rows.Close()

	overlaps := []models.ParcelOverlap{}
	for rows.Next() {
		var o models.ParcelOverlap
		if err := rows.Scan(&o.ParcelID, &o.Matricule, &o.OverlapAreaM2); err != nil {
			return nil, fmt.Errorf("failed to scan overlap row: %w", err)
		}
		overlaps = append(overlaps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overlap rows: %w", err)
	}

	return overlaps, nil
}

func (r *spatialRepository) MultiRegionParcels(ctx context.Context) ([]models.MultiRegionParcel, error) {
	query := `
		SELECT parcel_id, matricule, region_count, region_names
		FROM parcels_multi_region()
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query multi-region parcels: %w", err)
	}
	defer rows.Close()

	parcels := []models.MultiRegionParcel{}
	for rows.Next() {
		var p models.MultiRegionParcel
		if err := rows.Scan(&p.ParcelID, &p.Matricule, &p.RegionCount, &p.RegionNames); err != nil {
			return nil, fmt.Errorf("failed to scan multi-region row: %w", err)
		}
		parcels = append(parcels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating multi-region rows: %w", err)
	}

	return parcels, nil
}

func (r *spatialRepository) BorderParcels(ctx context.Context, distanceMeters float64) ([]models.BorderParcel, error) {
	query := `
		SELECT parcel_id, matricule, region_name, distance_meters
		FROM border_parcels($1)
	`

	rows, err := r.db.Pool.Query(ctx, query, distanceMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to query border parcels within %fm: %w", distanceMeters, err)
	}
	defer rows.Close()

	parcels := []models.BorderParcel{}
	for rows.Next() {
		var p models.BorderParcel
		if err := rows.Scan(&p.ParcelID, &p.Matricule, &p.RegionName, &p.DistanceMeters); err != nil {
			return nil, fmt.Errorf("failed to scan border parcel row: %w", err)
		}
		parcels = append(parcels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating border parcel rows: %w", err)
	}

	return parcels, nil
}

func (r *spatialRepository) RegionArea(ctx context.Context, regionID int64) (*models.RegionArea, error) {
	var area models.RegionArea
	area.RegionID = regionID

	err := r.db.Pool.QueryRow(ctx,
		`SELECT region_name, area_m2 FROM calculate_region_area($1)`, regionID,
	).Scan(&area.RegionName, &area.AreaM2)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if !IsMissingServerSupport(err) {
			return nil, fmt.Errorf("failed to compute area for region %d: %w", regionID, err)
		}

		// Fallback: geography cast gives meters directly.
		err = r.db.Pool.QueryRow(ctx,
			`SELECT name, ST_Area(boundary::geography) FROM regions WHERE id = $1`, regionID,
		).Scan(&area.RegionName, &area.AreaM2)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed fallback area query for region %d: %w", regionID, err)
		}
	}

	area.AreaKm2 = area.AreaM2 / 1_000_000
	return &area, nil
}

// RegionStats prefers the materialized view; when it is absent the
// direct aggregate runs instead. The second return value reports
// whether the materialized view served the data.
func (r *spatialRepository) RegionStats(ctx context.Context) ([]models.RegionStats, bool, error) {
	viewQuery := `
		SELECT region_id, region_name, department_count, parcel_count, area_km2
		FROM mv_region_stats
		ORDER BY region_name
	`

	rows, err := r.db.Pool.Query(ctx, viewQuery)
	if err == nil {
		stats, scanErr := scanRegionStats(rows)
		return stats, true, scanErr
	}
	if !IsMissingServerSupport(err) {
		return nil, false, fmt.Errorf("failed to query region stats view: %w", err)
	}

	directQuery := `
		SELECT r.id, r.name,
		       COUNT(DISTINCT d.id),
		       COUNT(DISTINCT p.id) FILTER (WHERE p.is_active),
		       COALESCE(ST_Area(r.boundary::geography) / 1000000, 0)
		FROM regions r
		LEFT JOIN departments d ON d.region_id = r.id
		LEFT JOIN parcels p ON ST_Intersects(p.boundary, r.boundary)
		GROUP BY r.id, r.name, r.boundary
		ORDER BY r.name
	`

	rows, err = r.db.Pool.Query(ctx, directQuery)
	if err != nil {
		return nil, false, fmt.Errorf("failed fallback region stats query: %w", err)
	}
	stats, scanErr := scanRegionStats(rows)
	return stats, false, scanErr
}

// RegionDetailedStats prefers the region_detailed_stats procedure and
// falls back to direct aggregates over the hierarchy tables.
func (r *spatialRepository) RegionDetailedStats(ctx context.Context, regionID int64) (*models.RegionDetailedStats, error) {
	stats := models.RegionDetailedStats{RegionID: regionID}

	err := r.db.Pool.QueryRow(ctx,
		`SELECT region_name, area_km2, department_count, arrondissement_count,
		        parcel_count, titled_parcel_count, avg_price_per_m2
		 FROM region_detailed_stats($1)`, regionID,
	).Scan(
		&stats.RegionName, &stats.AreaKm2, &stats.DepartmentCount,
		&stats.ArrondissementCount, &stats.ParcelCount,
		&stats.TitledParcelCount, &stats.AvgPricePerM2,
	)
	if err == nil {
		return &stats, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if !IsMissingServerSupport(err) {
		return nil, fmt.Errorf("failed to query detailed stats for region %d: %w", regionID, err)
	}

	fallback := `
		SELECT r.name,
		       COALESCE(ST_Area(r.boundary::geography) / 1000000, 0),
		       COUNT(DISTINCT d.id),
		       COUNT(DISTINCT a.id),
		       COUNT(DISTINCT p.id) FILTER (WHERE p.is_active),
		       COUNT(DISTINCT p.id) FILTER (WHERE p.is_active AND p.is_titled),
		       COALESCE(AVG(p.price_per_m2) FILTER (WHERE p.is_active), 0)
		FROM regions r
		LEFT JOIN departments d ON d.region_id = r.id
		LEFT JOIN arrondissements a ON a.department_id = d.id
		LEFT JOIN parcels p ON ST_Intersects(p.boundary, r.boundary)
		WHERE r.id = $1
		GROUP BY r.id, r.name, r.boundary
	`

	err = r.db.Pool.QueryRow(ctx, fallback, regionID).Scan(
		&stats.RegionName, &stats.AreaKm2, &stats.DepartmentCount,
		&stats.ArrondissementCount, &stats.ParcelCount,
		&stats.TitledParcelCount, &stats.AvgPricePerM2,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed fallback detailed stats query for region %d: %w", regionID, err)
	}

	return &stats, nil
}

func scanRegionStats(rows pgx.Rows) ([]models.RegionStats, error) {
	defer rows.Close()

	stats := []models.RegionStats{}
	for rows.Next() {
		var s models.RegionStats
		if err := rows.Scan(&s.RegionID, &s.RegionName, &s.DepartmentCount, &s.ParcelCount, &s.AreaKm2); err != nil {
			return nil, fmt.Errorf("failed to scan region stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating region stats rows: %w", err)
	}

	return stats, nil
}

func (r *spatialRepository) HierarchyCounts(ctx context.Context) (int, int, int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM regions),
			(SELECT COUNT(*) FROM departments),
			(SELECT COUNT(*) FROM arrondissements),
			(SELECT COUNT(*) FROM parcels WHERE is_active = true)
	`

	var regions, departments, arrondissements, parcels int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&regions, &departments, &arrondissements, &parcels)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to count hierarchy rows: %w", err)
	}

	return regions, departments, arrondissements, parcels, nil
}

func (r *spatialRepository) RefreshMaterializedViews(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `SELECT refresh_region_stats()`)
	if err != nil {
		if IsMissingServerSupport(err) {
			// No view to refresh; nothing to do and safe to repeat.
			return nil
		}
		return fmt.Errorf("failed to refresh materialized views: %w", err)
	}
	return nil
}

func (r *spatialRepository) ValidateIntegrity(ctx context.Context) ([]models.IntegrityIssue, error) {
	query := `
		SELECT kind, entity, entity_id, description
		FROM validate_geographic_integrity()
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err == nil {
		return scanIntegrityIssues(rows)
	}
	if !IsMissingServerSupport(err) {
		return nil, fmt.Errorf("failed to run integrity validation: %w", err)
	}

	// Fallback: orphan detection by direct queries. Boundary
	// self-intersection checks need the stored procedure, so the
	// fallback sweep covers referential defects only.
	fallback := `
		SELECT 'orphaned_department', 'department', d.id,
		       'department "' || d.name || '" has no owning region'
		FROM departments d
		LEFT JOIN regions r ON r.id = d.region_id
		WHERE r.id IS NULL
		UNION ALL
		SELECT 'orphaned_arrondissement', 'arrondissement', a.id,
		       'arrondissement "' || a.name || '" has no owning department'
		FROM arrondissements a
		LEFT JOIN departments d ON d.id = a.department_id
		WHERE d.id IS NULL
	`

	rows, err = r.db.Pool.Query(ctx, fallback)
	if err != nil {
		return nil, fmt.Errorf("failed fallback integrity query: %w", err)
	}
	return scanIntegrityIssues(rows)
}

func scanIntegrityIssues(rows pgx.Rows) ([]models.IntegrityIssue, error) {
	defer rows.Close()

	issues := []models.IntegrityIssue{}
	for rows.Next() {
		var issue models.IntegrityIssue
		if err := rows.Scan(&issue.Kind, &issue.Entity, &issue.EntityID, &issue.Description); err != nil {
			return nil, fmt.Errorf("failed to scan integrity issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating integrity issue rows: %w", err)
	}

	return issues, nil
}

func (r *spatialRepository) OptimizeGeometries(ctx context.Context, tolerance float64) (string, error) {
	var message string
	err := r.db.Pool.QueryRow(ctx, `SELECT optimize_region_geometries($1)`, tolerance).Scan(&message)
	if err != nil {
		return "", fmt.Errorf("failed to optimize geometries (tolerance=%f): %w", tolerance, err)
	}
	return message, nil
}
