package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geofoncier/api/internal/cache"
	"github.com/geofoncier/api/internal/geometry"
	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/repository"
	"github.com/paulmach/orb/geojson"
)

// Service-level errors for spatial queries.
var (
	ErrInvalidCoordinates   = errors.New("invalid coordinates")
	ErrInvalidBounds        = errors.New("invalid bounding box")
	ErrNoContainingDivision = errors.New("no division contains this point")
	ErrNoNearbyDivision     = errors.New("no division within range")
	ErrRegionNotFound       = errors.New("region not found")
	ErrMissingName          = errors.New("feature has no name property")
)

const (
	// defaultNearestRangeMeters bounds the nearest-division search when
	// the caller gives no radius.
	defaultNearestRangeMeters = 50000.0

	// defaultBorderDistanceMeters is the band width for border-parcel
	// queries when the caller gives no distance.
	defaultBorderDistanceMeters = 1000.0

	// defaultSimplifyTolerance is the geometry simplification tolerance
	// in degrees when the caller gives none.
	defaultSimplifyTolerance = 0.001

	// maintenanceTimeout caps cache refreshes, integrity sweeps and
	// geometry optimization so an admin call cannot hang a worker.
	maintenanceTimeout = 2 * time.Minute
)

// ParcelFeature pairs a parcel with its boundary decoded into the
// exchange format. Boundary is cleared once decoded so the raw literal
// is not duplicated on the wire.
type ParcelFeature struct {
	Geometry *geojson.Geometry `json:"geometry"`
	Parcel   models.Parcel     `json:"parcel"`
}

// ParcelCollection is a spatial query result. DroppedGeometries counts
// rows whose stored boundary could not be decoded; those rows are
// omitted rather than failing the whole query.
type ParcelCollection struct {
	Parcels           []ParcelFeature `json:"parcels"`
	DroppedGeometries int             `json:"droppedGeometries"`
}

// RegionExport is the hierarchy boundary export. Dropped counts regions
// whose stored boundary could not be decoded.
type RegionExport struct {
	Collection *geojson.FeatureCollection `json:"collection"`
	Dropped    int                        `json:"dropped"`
}

// SpatialService answers point, window and proximity questions against
// the hierarchy and the registry, and runs the server-side maintenance
// routines (stats refresh, integrity sweep, geometry optimization).
type SpatialService interface {
	LocateByPoint(ctx context.Context, lat, lng float64) (*models.LocationHierarchy, error)
	NearestDivision(ctx context.Context, lat, lng, maxDistanceMeters float64) (*models.NearestDivision, error)
	ParcelsInBounds(ctx context.Context, bounds models.BoundingBox) (*ParcelCollection, error)
	ParcelsInRegion(ctx context.Context, regionName string) (*ParcelCollection, error)
	DetectOverlaps(ctx context.Context, parcelID int64) ([]models.ParcelOverlap, error)
	MultiRegionParcels(ctx context.Context) ([]models.MultiRegionParcel, error)
	BorderParcels(ctx context.Context, distanceMeters float64) ([]models.BorderParcel, error)
	RegionArea(ctx context.Context, regionID int64) (*models.RegionArea, error)
	ExportRegions(ctx context.Context) (*RegionExport, error)
	ImportRegion(ctx context.Context, feature *geojson.Feature) (*models.Region, error)
	RegionStats(ctx context.Context) ([]models.RegionStats, error)
	RegionDetailedStats(ctx context.Context, regionID int64) (*models.RegionDetailedStats, error)
	RefreshStats(ctx context.Context) error
	ValidateIntegrity(ctx context.Context) ([]models.IntegrityIssue, error)
	GeographicReport(ctx context.Context) (*models.GeographicReport, error)
	OptimizeGeometries(ctx context.Context, tolerance float64) (string, error)
}

type spatialService struct {
	spatial   repository.SpatialRepository
	divisions repository.DivisionRepository
	cache     *cache.Cache
	log       *logger.Logger
}

// NewSpatialService creates a new instance of SpatialService.
func NewSpatialService(spatial repository.SpatialRepository, divisions repository.DivisionRepository, c *cache.Cache, log *logger.Logger) SpatialService {
	return &spatialService{spatial: spatial, divisions: divisions, cache: c, log: log}
}

func validatePoint(lat, lng float64) error {
	if lat < geometry.MinLatitude || lat > geometry.MaxLatitude {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidCoordinates, lat)
	}
	if lng < geometry.MinLongitude || lng > geometry.MaxLongitude {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidCoordinates, lng)
	}
	return nil
}

// toFeatures decodes stored boundaries into the exchange format,
// dropping rows whose geometry fails to parse. One bad row must never
// take a whole result set down; callers see the drop count instead.
func (s *spatialService) toFeatures(parcels []models.Parcel) *ParcelCollection {
	result := &ParcelCollection{Parcels: make([]ParcelFeature, 0, len(parcels))}
	for _, p := range parcels {
		geom := geometry.ToGeoJSON(p.Boundary)
		if geom == nil {
			result.DroppedGeometries++
			s.log.Warn("Dropping parcel with undecodable boundary", map[string]interface{}{
				"parcel_id": p.ID,
				"matricule": p.Matricule,
			})
			continue
		}
		p.Boundary = ""
		result.Parcels = append(result.Parcels, ParcelFeature{Parcel: p, Geometry: geom})
	}
	return result
}

func (s *spatialService) LocateByPoint(ctx context.Context, lat, lng float64) (*models.LocationHierarchy, error) {
	if err := validatePoint(lat, lng); err != nil {
		return nil, err
	}

	hierarchy, err := s.spatial.LocateByPoint(ctx, lng, lat)
	if err != nil {
		s.log.Error("Point lookup failed", err, map[string]interface{}{"lat": lat, "lng": lng})
		return nil, fmt.Errorf("failed to locate point: %w", err)
	}
	if hierarchy == nil {
		return nil, ErrNoContainingDivision
	}
	return hierarchy, nil
}

func (s *spatialService) NearestDivision(ctx context.Context, lat, lng, maxDistanceMeters float64) (*models.NearestDivision, error) {
	if err := validatePoint(lat, lng); err != nil {
		return nil, err
	}
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = defaultNearestRangeMeters
	}

	nearest, err := s.spatial.NearestDivision(ctx, lng, lat, maxDistanceMeters)
	if err != nil {
		s.log.Error("Nearest-division lookup failed", err, map[string]interface{}{"lat": lat, "lng": lng})
		return nil, fmt.Errorf("failed to find nearest division: %w", err)
	}
	if nearest == nil {
		return nil, fmt.Errorf("%w: within %.0fm of (%f, %f)", ErrNoNearbyDivision, maxDistanceMeters, lat, lng)
	}
	return nearest, nil
}

func (s *spatialService) ParcelsInBounds(ctx context.Context, bounds models.BoundingBox) (*ParcelCollection, error) {
	if err := validatePoint(bounds.North, bounds.East); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, err)
	}
	if err := validatePoint(bounds.South, bounds.West); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, err)
	}
	if bounds.North <= bounds.South {
		return nil, fmt.Errorf("%w: north must exceed south", ErrInvalidBounds)
	}
	// Windows crossing the antimeridian are not supported; east must
	// exceed west on the plain longitude axis.
	if bounds.East <= bounds.West {
		return nil, fmt.Errorf("%w: east must exceed west", ErrInvalidBounds)
	}

	literal := geometry.BoundsLiteral(bounds.North, bounds.South, bounds.East, bounds.West)
	parcels, err := s.spatial.ParcelsInBounds(ctx, literal)
	if err != nil {
		s.log.Error("Bounds query failed", err, nil)
		return nil, fmt.Errorf("failed to query parcels in bounds: %w", err)
	}
	return s.toFeatures(parcels), nil
}

func (s *spatialService) ParcelsInRegion(ctx context.Context, regionName string) (*ParcelCollection, error) {
	if regionName == "" {
		return nil, fmt.Errorf("%w: empty region name", ErrRegionNotFound)
	}

	region, err := s.divisions.GetRegionByName(ctx, regionName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve region: %w", err)
	}
	if region == nil {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, regionName)
	}

	parcels, err := s.spatial.ParcelsInRegion(ctx, region.Name)
	if err != nil {
		s.log.Error("Region parcel query failed", err, map[string]interface{}{"region": region.Name})
		return nil, fmt.Errorf("failed to query parcels in region: %w", err)
	}
	return s.toFeatures(parcels), nil
}

func (s *spatialService) DetectOverlaps(ctx context.Context, parcelID int64) ([]models.ParcelOverlap, error) {
	overlaps, err := s.spatial.DetectOverlaps(ctx, parcelID)
	if err != nil {
		s.log.Error("Overlap detection failed", err, map[string]interface{}{"parcel_id": parcelID})
		return nil, fmt.Errorf("failed to detect overlaps: %w", err)
	}
	return overlaps, nil
}

func (s *spatialService) MultiRegionParcels(ctx context.Context) ([]models.MultiRegionParcel, error) {
	parcels, err := s.spatial.MultiRegionParcels(ctx)
	if err != nil {
		s.log.Error("Multi-region parcel query failed", err, nil)
		return nil, fmt.Errorf("failed to query multi-region parcels: %w", err)
	}
	return parcels, nil
}

func (s *spatialService) BorderParcels(ctx context.Context, distanceMeters float64) ([]models.BorderParcel, error) {
	if distanceMeters <= 0 {
		distanceMeters = defaultBorderDistanceMeters
	}

	parcels, err := s.spatial.BorderParcels(ctx, distanceMeters)
	if err != nil {
		s.log.Error("Border parcel query failed", err, map[string]interface{}{"distance_m": distanceMeters})
		return nil, fmt.Errorf("failed to query border parcels: %w", err)
	}
	return parcels, nil
}

func (s *spatialService) RegionArea(ctx context.Context, regionID int64) (*models.RegionArea, error) {
	area, err := s.spatial.RegionArea(ctx, regionID)
	if err != nil {
		s.log.Error("Region area computation failed", err, map[string]interface{}{"region_id": regionID})
		return nil, fmt.Errorf("failed to compute region area: %w", err)
	}
	if area == nil {
		return nil, fmt.Errorf("%w: id %d", ErrRegionNotFound, regionID)
	}
	return area, nil
}

func (s *spatialService) RegionDetailedStats(ctx context.Context, regionID int64) (*models.RegionDetailedStats, error) {
	stats, err := s.spatial.RegionDetailedStats(ctx, regionID)
	if err != nil {
		s.log.Error("Detailed region stats failed", err, map[string]interface{}{"region_id": regionID})
		return nil, fmt.Errorf("failed to load detailed region stats: %w", err)
	}
	if stats == nil {
		return nil, fmt.Errorf("%w: id %d", ErrRegionNotFound, regionID)
	}
	return stats, nil
}

func (s *spatialService) ExportRegions(ctx context.Context) (*RegionExport, error) {
	regions, err := s.divisions.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions for export: %w", err)
	}

	export := &RegionExport{Collection: geojson.NewFeatureCollection()}
	for _, region := range regions {
		geom := geometry.ToGeoJSON(region.Boundary)
		if geom == nil {
			export.Dropped++
			s.log.Warn("Dropping region with undecodable boundary", map[string]interface{}{
				"region_id": region.ID,
				"name":      region.Name,
			})
			continue
		}
		feature := geojson.NewFeature(geom.Geometry())
		feature.Properties = geojson.Properties{
			"id":   region.ID,
			"name": region.Name,
		}
		export.Collection.Append(feature)
	}
	return export, nil
}

func (s *spatialService) ImportRegion(ctx context.Context, feature *geojson.Feature) (*models.Region, error) {
	if feature == nil || feature.Geometry == nil {
		return nil, fmt.Errorf("%w: empty feature", geometry.ErrInvalidGeometry)
	}

	name, _ := feature.Properties["name"].(string)
	if name == "" {
		return nil, ErrMissingName
	}

	literal, err := geometry.FromGeoJSON(geojson.NewGeometry(feature.Geometry))
	if err != nil {
		return nil, err
	}

	region, err := s.divisions.CreateRegion(ctx, name, literal)
	if err != nil {
		s.log.Error("Region import failed", err, map[string]interface{}{"name": name})
		return nil, fmt.Errorf("failed to import region: %w", err)
	}

	s.log.Info("Region imported", map[string]interface{}{
		"region_id": region.ID,
		"name":      region.Name,
	})
	return region, nil
}

// RegionStats reads the per-region statistics, cheapest source first:
// Redis, then the materialized view, then a direct aggregate. Cache
// writes are best effort and never fail the read.
func (s *spatialService) RegionStats(ctx context.Context) ([]models.RegionStats, error) {
	if cached, err := s.cache.GetRegionStats(ctx); err != nil {
		s.log.Warn("Region stats cache read failed", map[string]interface{}{"error": err.Error()})
	} else if cached != nil {
		return cached, nil
	}

	stats, fromView, err := s.spatial.RegionStats(ctx)
	if err != nil {
		s.log.Error("Region stats query failed", err, nil)
		return nil, fmt.Errorf("failed to query region stats: %w", err)
	}

	if err := s.cache.SetRegionStats(ctx, stats); err != nil {
		s.log.Warn("Region stats cache write failed", map[string]interface{}{"error": err.Error()})
	}

	if !fromView {
		s.log.Warn("Region stats served from direct aggregate, view unavailable", nil)
	}
	return stats, nil
}

// RefreshStats recomputes the server-side statistics view and drops the
// cached copy. Safe to call repeatedly; a missing view is a no-op.
func (s *spatialService) RefreshStats(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
	defer cancel()

	if err := s.spatial.RefreshMaterializedViews(ctx); err != nil {
		s.log.Error("Stats refresh failed", err, nil)
		return fmt.Errorf("failed to refresh stats: %w", err)
	}

	if err := s.cache.InvalidateRegionStats(ctx); err != nil {
		s.log.Warn("Region stats cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}

	s.log.Info("Region stats refreshed", nil)
	return nil
}

func (s *spatialService) ValidateIntegrity(ctx context.Context) ([]models.IntegrityIssue, error) {
	ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
	defer cancel()

	issues, err := s.spatial.ValidateIntegrity(ctx)
	if err != nil {
		s.log.Error("Integrity sweep failed", err, nil)
		return nil, fmt.Errorf("failed to validate integrity: %w", err)
	}

	s.log.Info("Integrity sweep complete", map[string]interface{}{"issues": len(issues)})
	return issues, nil
}

func (s *spatialService) GeographicReport(ctx context.Context) (*models.GeographicReport, error) {
	stats, err := s.RegionStats(ctx)
	if err != nil {
		return nil, err
	}

	regions, departments, arrondissements, parcels, err := s.spatial.HierarchyCounts(ctx)
	if err != nil {
		s.log.Error("Hierarchy count query failed", err, nil)
		return nil, fmt.Errorf("failed to count hierarchy: %w", err)
	}

	return &models.GeographicReport{
		Regions:              stats,
		TotalRegions:         regions,
		TotalDepartments:     departments,
		TotalArrondissements: arrondissements,
		TotalParcels:         parcels,
	}, nil
}

func (s *spatialService) OptimizeGeometries(ctx context.Context, tolerance float64) (string, error) {
	if tolerance <= 0 {
		tolerance = defaultSimplifyTolerance
	}

	ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
	defer cancel()

	message, err := s.spatial.OptimizeGeometries(ctx, tolerance)
	if err != nil {
		s.log.Error("Geometry optimization failed", err, map[string]interface{}{"tolerance": tolerance})
		return "", fmt.Errorf("failed to optimize geometries: %w", err)
	}

	s.log.Info("Geometries optimized", map[string]interface{}{"tolerance": tolerance})
	return message, nil
}
