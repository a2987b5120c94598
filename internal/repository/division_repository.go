package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/geofoncier/api/internal/database"
	"github.com/geofoncier/api/internal/models"
	"github.com/jackc/pgx/v5"
)

// DivisionRepository defines data access for the administrative
// hierarchy (regions, departments, arrondissements). Boundaries travel
// as WKT literals; conversion to the exchange format happens above.
type DivisionRepository interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
	GetRegionByID(ctx context.Context, id int64) (*models.Region, error)
	// GetRegionByName performs a case-insensitive partial match.
	GetRegionByName(ctx context.Context, name string) (*models.Region, error)
	CreateRegion(ctx context.Context, name, boundary string) (*models.Region, error)
	UpdateRegion(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Region, error)
	DeleteRegion(ctx context.Context, id int64) error
	CountDepartmentsInRegion(ctx context.Context, regionID int64) (int, error)

	ListDepartments(ctx context.Context, regionID *int64) ([]models.Department, error)
	GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error)
	CreateDepartment(ctx context.Context, name, boundary string, regionID int64) (*models.Department, error)
	UpdateDepartment(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
	CountArrondissementsInDepartment(ctx context.Context, departmentID int64) (int, error)

	ListArrondissements(ctx context.Context, regionID, departmentID *int64) ([]models.Arrondissement, error)
	GetArrondissementByID(ctx context.Context, id int64) (*models.Arrondissement, error)
	CreateArrondissement(ctx context.Context, name, boundary string, departmentID int64) (*models.Arrondissement, error)
	UpdateArrondissement(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Arrondissement, error)
	DeleteArrondissement(ctx context.Context, id int64) error
}

type divisionRepository struct {
	db *database.Database
}

// NewDivisionRepository creates a new instance of DivisionRepository.
func NewDivisionRepository(db *database.Database) DivisionRepository {
	return &divisionRepository{db: db}
}

func (r *divisionRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	query := `
		SELECT id, name, ST_AsText(boundary), created_at, updated_at
		FROM regions
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	regions := []models.Region{}
	for rows.Next() {
		var region models.Region
		var boundary *string
		if err := rows.Scan(&region.ID, &region.Name, &boundary, &region.CreatedAt, &region.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan region row: %w", err)
		}
		if boundary != nil {
			region.Boundary = *boundary
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating region rows: %w", err)
	}

	return regions, nil
}

// GetRegionByID returns nil, nil when the region does not exist.
func (r *divisionRepository) GetRegionByID(ctx context.Context, id int64) (*models.Region, error) {
	query := `
		SELECT id, name, ST_AsText(boundary), created_at, updated_at
		FROM regions
		WHERE id = $1
	`

	var region models.Region
	var boundary *string
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&region.ID, &region.Name, &boundary, &region.CreatedAt, &region.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query region %d: %w", id, err)
	}
	if boundary != nil {
		region.Boundary = *boundary
	}

	return &region, nil
}

func (r *divisionRepository) GetRegionByName(ctx context.Context, name string) (*models.Region, error) {
	query := `
		SELECT id, name, ST_AsText(boundary), created_at, updated_at
		FROM regions
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT 1
	`

	var region models.Region
	var boundary *string
	err := r.db.Pool.QueryRow(ctx, query, name).Scan(
		&region.ID, &region.Name, &boundary, &region.CreatedAt, &region.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query region by name %q: %w", name, err)
	}
	if boundary != nil {
		region.Boundary = *boundary
	}

	return &region, nil
}

func (r *divisionRepository) CreateRegion(ctx context.Context, name, boundary string) (*models.Region, error) {
	query := `
		INSERT INTO regions (name, boundary)
		VALUES ($1, ST_GeomFromText($2, 4326))
		RETURNING id, name, ST_AsText(boundary), created_at, updated_at
	`

	var region models.Region
	var boundaryOut *string
	err := r.db.Pool.QueryRow(ctx, query, name, boundary).Scan(
		&region.ID, &region.Name, &boundaryOut, &region.CreatedAt, &region.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create region %q: %w", name, err)
	}
	if boundaryOut != nil {
		region.Boundary = *boundaryOut
	}

	return &region, nil
}

// UpdateRegion applies a partial update. COALESCE keeps unspecified
// fields untouched. Returns nil, nil when the region does not exist.
func (r *divisionRepository) UpdateRegion(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Region, error) {
	query := `
		UPDATE regions
		SET name = COALESCE($2, name),
		    boundary = COALESCE(ST_GeomFromText($3, 4326), boundary),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, ST_AsText(boundary), created_at, updated_at
	`

	var region models.Region
	var boundaryOut *string
	err := r.db.Pool.QueryRow(ctx, query, id, update.Name, update.Boundary).Scan(
		&region.ID, &region.Name, &boundaryOut, &region.CreatedAt, &region.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update region %d: %w", id, err)
	}
	if boundaryOut != nil {
		region.Boundary = *boundaryOut
	}

	return &region, nil
}

func (r *divisionRepository) DeleteRegion(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete region %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *divisionRepository) CountDepartmentsInRegion(ctx context.Context, regionID int64) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM departments WHERE region_id = $1`, regionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count departments in region %d: %w", regionID, err)
	}
	return count, nil
}

func (r *divisionRepository) ListDepartments(ctx context.Context, regionID *int64) ([]models.Department, error) {
	query := `
		SELECT d.id, d.name, ST_AsText(d.boundary), d.region_id, r.name
		FROM departments d
		LEFT JOIN regions r ON r.id = d.region_id
		WHERE $1::bigint IS NULL OR d.region_id = $1
		ORDER BY d.name
	`

	rows, err := r.db.Pool.Query(ctx, query, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		var dept models.Department
		var boundary *string
		if err := rows.Scan(&dept.ID, &dept.Name, &boundary, &dept.RegionID, &dept.RegionName); err != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", err)
		}
		if boundary != nil {
			dept.Boundary = *boundary
		}
		departments = append(departments, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating department rows: %w", err)
	}

	return departments, nil
}

func (r *divisionRepository) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	query := `
		SELECT d.id, d.name, ST_AsText(d.boundary), d.region_id, r.name
		FROM departments d
		LEFT JOIN regions r ON r.id = d.region_id
		WHERE d.id = $1
	`

	var dept models.Department
	var boundary *string
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&dept.ID, &dept.Name, &boundary, &dept.RegionID, &dept.RegionName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query department %d: %w", id, err)
	}
	if boundary != nil {
		dept.Boundary = *boundary
	}

	return &dept, nil
}

func (r *divisionRepository) CreateDepartment(ctx context.Context, name, boundary string, regionID int64) (*models.Department, error) {
	query := `
		INSERT INTO departments (name, boundary, region_id)
		VALUES ($1, ST_GeomFromText($2, 4326), $3)
		RETURNING id, name, ST_AsText(boundary), region_id
	`

	var dept models.Department
	var boundaryOut *string
	err := r.db.Pool.QueryRow(ctx, query, name, boundary, regionID).Scan(
		&dept.ID, &dept.Name, &boundaryOut, &dept.RegionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create department %q: %w", name, err)
	}
	if boundaryOut != nil {
		dept.Boundary = *boundaryOut
	}

	return &dept, nil
}

func (r *divisionRepository) UpdateDepartment(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Department, error) {
	query := `
		UPDATE departments
		SET name = COALESCE($2, name),
		    boundary = COALESCE(ST_GeomFromText($3, 4326), boundary),
		    region_id = COALESCE($4, region_id)
		WHERE id = $1
		RETURNING id, name, ST_AsText(boundary), region_id
	`

	var dept models.Department
	var boundaryOut *string
	err := r.db.Pool.QueryRow(ctx, query, id, update.Name, update.Boundary, update.ParentID).Scan(
		&dept.ID, &dept.Name, &boundaryOut, &dept.RegionID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update department %d: %w", id, err)
	}
	if boundaryOut != nil {
		dept.Boundary = *boundaryOut
	}

	return &dept, nil
}

func (r *divisionRepository) DeleteDepartment(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *divisionRepository) CountArrondissementsInDepartment(ctx context.Context, departmentID int64) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM arrondissements WHERE department_id = $1`, departmentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count arrondissements in department %d: %w", departmentID, err)
	}
	return count, nil
}

// ListArrondissements joins up the hierarchy so each row carries its
// department and region names. One query serves both filters; nil means
// no filter on that level.
func (r *divisionRepository) ListArrondissements(ctx context.Context, regionID, departmentID *int64) ([]models.Arrondissement, error) {
	query := `
		SELECT a.id, a.name, ST_AsText(a.boundary),
		       a.department_id, d.name,
		       COALESCE(d.region_id, 0), r.name
		FROM arrondissements a
		LEFT JOIN departments d ON d.id = a.department_id
		LEFT JOIN regions r ON r.id = d.region_id
		WHERE ($1::bigint IS NULL OR d.region_id = $1)
		  AND ($2::bigint IS NULL OR a.department_id = $2)
		ORDER BY a.name
	`

	rows, err := r.db.Pool.Query(ctx, query, regionID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query arrondissements: %w", err)
	}
	defer rows.Close()

	arrondissements := []models.Arrondissement{}
	for rows.Next() {
		var arr models.Arrondissement
		var boundary *string
		if err := rows.Scan(
			&arr.ID, &arr.Name, &boundary,
			&arr.DepartmentID, &arr.DepartmentName,
			&arr.RegionID, &arr.RegionName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan arrondissement row: %w", err)
		}
		if boundary != nil {
			arr.Boundary = *boundary
		}
		arrondissements = append(arrondissements, arr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating arrondissement rows: %w", err)
	}

	return arrondissements, nil
}

func (r *divisionRepository) GetArrondissementByID(ctx context.Context, id int64) (*models.Arrondissement, error) {
	query := `
		SELECT a.id, a.name, ST_AsText(a.boundary),
		       a.department_id, d.name,
		       COALESCE(d.region_id, 0), r.name
		FROM arrondissements a
		LEFT JOIN departments d ON d.id = a.department_id
		LEFT JOIN regions r ON r.id = d.region_id
		WHERE a.id = $1
	`

	var arr models.Arrondissement
	var boundary *string
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&arr.ID, &arr.Name, &boundary,
		&arr.DepartmentID, &arr.DepartmentName,
		&arr.RegionID, &arr.RegionName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query arrondissement %d: %w", id, err)
	}
	if boundary != nil {
		arr.Boundary = *boundary
	}

	return &arr, nil
}

func (r *divisionRepository) CreateArrondissement(ctx context.Context, name, boundary string, departmentID int64) (*models.Arrondissement, error) {
	query := `
		INSERT INTO arrondissements (name, boundary, department_id)
		VALUES ($1, ST_GeomFromText($2, 4326), $3)
		RETURNING id, name, ST_AsText(boundary), department_id
	`

	var arr models.Arrondissement
	var boundaryOut *string
	err := r.db.Pool.QueryRow(ctx, query, name, boundary, departmentID).Scan(
		&arr.ID, &arr.Name, &boundaryOut, &arr.DepartmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrondissement %q: %w", name, err)
	}
	if boundaryOut != nil {
		arr.Boundary = *boundaryOut
	}

	return &arr, nil
}

func (r *divisionRepository) UpdateArrondissement(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Arrondissement, error) {
	query := `
		UPDATE arrondissements
		SET name = COALESCE($2, name),
		    boundary = COALESCE(ST_GeomFromText($3, 4326), boundary),
		    department_id = COALESCE($4, department_id)
		WHERE id = $1
		RETURNING id, name, ST_AsText(boundary), department_id
	`

	var arr models.Arrondissement
	var boundaryOut *string
	err := r.db.Pool.QueryRow(ctx, query, id, update.Name, update.Boundary, update.ParentID).Scan(
		&arr.ID, &arr.Name, &boundaryOut, &arr.DepartmentID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update arrondissement %d: %w", id, err)
	}
	if boundaryOut != nil {
		arr.Boundary = *boundaryOut
	}

	return &arr, nil
}

func (r *divisionRepository) DeleteArrondissement(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM arrondissements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete arrondissement %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
