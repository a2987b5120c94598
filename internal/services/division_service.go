package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/geofoncier/api/internal/geometry"
	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"
)

// Service-level errors for the hierarchy store.
var (
	ErrDivisionNotFound = errors.New("division not found")
	ErrHasDependents    = errors.New("division has dependent children")
	ErrNameRequired     = errors.New("a non-empty name is required")
)

// DivisionUpdateInput carries a partial division update from the API
// boundary. Nil fields are left untouched.
type DivisionUpdateInput struct {
	Name     *string
	Boundary *geojson.Geometry
	ParentID *int64
}

// DivisionService owns the three-level administrative taxonomy.
// Parent references are enforced at write time; legacy violations are
// surfaced by the integrity sweep instead.
type DivisionService interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
	GetRegion(ctx context.Context, id int64) (*models.Region, error)
	CreateRegion(ctx context.Context, name string, boundary *geojson.Geometry) (*models.Region, error)
	UpdateRegion(ctx context.Context, id int64, input DivisionUpdateInput) (*models.Region, error)
	// DeleteRegion refuses with ErrHasDependents while any department
	// references the region.
	DeleteRegion(ctx context.Context, id int64) error

	ListDepartments(ctx context.Context, regionID *int64) ([]models.Department, error)
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	CreateDepartment(ctx context.Context, name string, regionID int64, boundary *geojson.Geometry) (*models.Department, error)
	UpdateDepartment(ctx context.Context, id int64, input DivisionUpdateInput) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error

	ListArrondissements(ctx context.Context, regionID, departmentID *int64) ([]models.Arrondissement, error)
	GetArrondissement(ctx context.Context, id int64) (*models.Arrondissement, error)
	CreateArrondissement(ctx context.Context, name string, departmentID int64, boundary *geojson.Geometry) (*models.Arrondissement, error)
	UpdateArrondissement(ctx context.Context, id int64, input DivisionUpdateInput) (*models.Arrondissement, error)
	DeleteArrondissement(ctx context.Context, id int64) error
}

type divisionService struct {
	repo repository.DivisionRepository
	log  *logger.Logger
}

// NewDivisionService creates a new instance of DivisionService.
func NewDivisionService(repo repository.DivisionRepository, log *logger.Logger) DivisionService {
	return &divisionService{repo: repo, log: log}
}

// boundaryLiteral converts an optional exchange-format geometry into a
// storage literal. A nil geometry yields an empty literal.
func boundaryLiteral(boundary *geojson.Geometry) (string, error) {
	if boundary == nil {
		return "", nil
	}
	return geometry.FromGeoJSON(boundary)
}

// updateFromInput converts an API-level partial update into the
// repository form, encoding the boundary when one is present.
func updateFromInput(input DivisionUpdateInput) (models.DivisionUpdate, error) {
	update := models.DivisionUpdate{Name: input.Name, ParentID: input.ParentID}
	if input.Name != nil && *input.Name == "" {
		return update, ErrNameRequired
	}
	if input.Boundary != nil {
		literal, err := geometry.FromGeoJSON(input.Boundary)
		if err != nil {
			return update, err
		}
		update.Boundary = &literal
	}
	return update, nil
}

func (s *divisionService) ListRegions(ctx context.Context) ([]models.Region, error) {
	regions, err := s.repo.ListRegions(ctx)
	if err != nil {
		s.log.Error("Failed to list regions", err, nil)
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	return regions, nil
}

func (s *divisionService) GetRegion(ctx context.Context, id int64) (*models.Region, error) {
	region, err := s.repo.GetRegionByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get region", err, map[string]interface{}{"region_id": id})
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	if region == nil {
		return nil, ErrDivisionNotFound
	}
	return region, nil
}

func (s *divisionService) CreateRegion(ctx context.Context, name string, boundary *geojson.Geometry) (*models.Region, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	literal, err := boundaryLiteral(boundary)
	if err != nil {
		return nil, err
	}

	region, err := s.repo.CreateRegion(ctx, name, literal)
	if err != nil {
		s.log.Error("Failed to create region", err, map[string]interface{}{"name": name})
		return nil, fmt.Errorf("failed to create region: %w", err)
	}

	s.log.Info("Region created", map[string]interface{}{
		"region_id": region.ID,
		"name":      region.Name,
	})
	return region, nil
}

func (s *divisionService) UpdateRegion(ctx context.Context, id int64, input DivisionUpdateInput) (*models.Region, error) {
	update, err := updateFromInput(input)
	if err != nil {
		return nil, err
	}

	region, err := s.repo.UpdateRegion(ctx, id, update)
	if err != nil {
		s.log.Error("Failed to update region", err, map[string]interface{}{"region_id": id})
		return nil, fmt.Errorf("failed to update region: %w", err)
	}
	if region == nil {
		return nil, ErrDivisionNotFound
	}
	return region, nil
}

func (s *divisionService) DeleteRegion(ctx context.Context, id int64) error {
	count, err := s.repo.CountDepartmentsInRegion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check region dependents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: region %d has %d departments", ErrHasDependents, id, count)
	}

	if err := s.repo.DeleteRegion(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDivisionNotFound
		}
		s.log.Error("Failed to delete region", err, map[string]interface{}{"region_id": id})
		return fmt.Errorf("failed to delete region: %w", err)
	}

	s.log.Info("Region deleted", map[string]interface{}{"region_id": id})
	return nil
}

func (s *divisionService) ListDepartments(ctx context.Context, regionID *int64) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx, regionID)
	if err != nil {
		s.log.Error("Failed to list departments", err, nil)
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (s *divisionService) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	department, err := s.repo.GetDepartmentByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get department", err, map[string]interface{}{"department_id": id})
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	if department == nil {
		return nil, ErrDivisionNotFound
	}
	return department, nil
}

func (s *divisionService) CreateDepartment(ctx context.Context, name string, regionID int64, boundary *geojson.Geometry) (*models.Department, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	// A department must attach to an existing region from the start.
	region, err := s.repo.GetRegionByID(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owning region: %w", err)
	}
	if region == nil {
		return nil, fmt.Errorf("%w: region %d", ErrDivisionNotFound, regionID)
	}

	literal, err := boundaryLiteral(boundary)
	if err != nil {
		return nil, err
	}

	dept, err := s.repo.CreateDepartment(ctx, name, literal, regionID)
	if err != nil {
		s.log.Error("Failed to create department", err, map[string]interface{}{
			"name":      name,
			"region_id": regionID,
		})
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	s.log.Info("Department created", map[string]interface{}{
		"department_id": dept.ID,
		"region_id":     regionID,
	})
	return dept, nil
}

func (s *divisionService) UpdateDepartment(ctx context.Context, id int64, input DivisionUpdateInput) (*models.Department, error) {
	update, err := updateFromInput(input)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		region, err := s.repo.GetRegionByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve owning region: %w", err)
		}
		if region == nil {
			return nil, fmt.Errorf("%w: region %d", ErrDivisionNotFound, *input.ParentID)
		}
	}

	dept, err := s.repo.UpdateDepartment(ctx, id, update)
	if err != nil {
		s.log.Error("Failed to update department", err, map[string]interface{}{"department_id": id})
		return nil, fmt.Errorf("failed to update department: %w", err)
	}
	if dept == nil {
		return nil, ErrDivisionNotFound
	}
	return dept, nil
}

func (s *divisionService) DeleteDepartment(ctx context.Context, id int64) error {
	count, err := s.repo.CountArrondissementsInDepartment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check department dependents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: department %d has %d arrondissements", ErrHasDependents, id, count)
	}

	if err := s.repo.DeleteDepartment(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDivisionNotFound
		}
		s.log.Error("Failed to delete department", err, map[string]interface{}{"department_id": id})
		return fmt.Errorf("failed to delete department: %w", err)
	}

	s.log.Info("Department deleted", map[string]interface{}{"department_id": id})
	return nil
}

func (s *divisionService) ListArrondissements(ctx context.Context, regionID, departmentID *int64) ([]models.Arrondissement, error) {
	arrondissements, err := s.repo.ListArrondissements(ctx, regionID, departmentID)
	if err != nil {
		s.log.Error("Failed to list arrondissements", err, nil)
		return nil, fmt.Errorf("failed to list arrondissements: %w", err)
	}
	return arrondissements, nil
}

func (s *divisionService) GetArrondissement(ctx context.Context, id int64) (*models.Arrondissement, error) {
	arrondissement, err := s.repo.GetArrondissementByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get arrondissement", err, map[string]interface{}{"arrondissement_id": id})
		return nil, fmt.Errorf("failed to get arrondissement: %w", err)
	}
	if arrondissement == nil {
		return nil, ErrDivisionNotFound
	}
	return arrondissement, nil
}

func (s *divisionService) CreateArrondissement(ctx context.Context, name string, departmentID int64, boundary *geojson.Geometry) (*models.Arrondissement, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	dept, err := s.repo.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owning department: %w", err)
	}
	if dept == nil {
		return nil, fmt.Errorf("%w: department %d", ErrDivisionNotFound, departmentID)
	}

	literal, err := boundaryLiteral(boundary)
	if err != nil {
		return nil, err
	}

	arr, err := s.repo.CreateArrondissement(ctx, name, literal, departmentID)
	if err != nil {
		s.log.Error("Failed to create arrondissement", err, map[string]interface{}{
			"name":          name,
			"department_id": departmentID,
		})
		return nil, fmt.Errorf("failed to create arrondissement: %w", err)
	}

	s.log.Info("Arrondissement created", map[string]interface{}{
		"arrondissement_id": arr.ID,
		"department_id":     departmentID,
	})
	return arr, nil
}

func (s *divisionService) UpdateArrondissement(ctx context.Context, id int64, input DivisionUpdateInput) (*models.Arrondissement, error) {
	update, err := updateFromInput(input)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		dept, err := s.repo.GetDepartmentByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve owning department: %w", err)
		}
		if dept == nil {
			return nil, fmt.Errorf("%w: department %d", ErrDivisionNotFound, *input.ParentID)
		}
	}

	arr, err := s.repo.UpdateArrondissement(ctx, id, update)
	if err != nil {
		s.log.Error("Failed to update arrondissement", err, map[string]interface{}{"arrondissement_id": id})
		return nil, fmt.Errorf("failed to update arrondissement: %w", err)
	}
	if arr == nil {
		return nil, ErrDivisionNotFound
	}
	return arr, nil
}

func (s *divisionService) DeleteArrondissement(ctx context.Context, id int64) error {
	if err := s.repo.DeleteArrondissement(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDivisionNotFound
		}
		s.log.Error("Failed to delete arrondissement", err, map[string]interface{}{"arrondissement_id": id})
		return fmt.Errorf("failed to delete arrondissement: %w", err)
	}

	s.log.Info("Arrondissement deleted", map[string]interface{}{"arrondissement_id": id})
	return nil
}
