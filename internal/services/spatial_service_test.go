package services

import (
	"context"
	"testing"

	"github.com/geofoncier/api/internal/cache"
	"github.com/geofoncier/api/internal/config"
	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func regionFeature(t *testing.T, name string) *geojson.Feature {
	t.Helper()
	feature := geojson.NewFeature(orb.Polygon{{{9.7, 4.05}, {9.7, 4.06}, {9.71, 4.06}, {9.7, 4.05}}})
	if name != "" {
		feature.Properties["name"] = name
	}
	return feature
}

func newSpatialService(spatial *MockSpatialRepository, divisions *MockDivisionRepository) SpatialService {
	return NewSpatialService(spatial, divisions, cache.New(config.RedisConfig{}), logger.New("test"))
}

func TestLocateByPoint_Success(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	expected := &models.LocationHierarchy{
		RegionName:         "Littoral",
		DepartmentName:     "Wouri",
		ArrondissementName: "Douala I",
	}
	// The repository receives (lng, lat).
	mockSpatial.On("LocateByPoint", mock.Anything, 9.70, 4.05).Return(expected, nil)

	hierarchy, err := service.LocateByPoint(context.Background(), 4.05, 9.70)

	require.NoError(t, err)
	assert.Equal(t, expected, hierarchy)
	mockSpatial.AssertExpectations(t)
}

func TestLocateByPoint_NoContainingDivision(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	mockSpatial.On("LocateByPoint", mock.Anything, 9.70, 4.05).Return(nil, nil)

	hierarchy, err := service.LocateByPoint(context.Background(), 4.05, 9.70)

	assert.Nil(t, hierarchy)
	assert.ErrorIs(t, err, ErrNoContainingDivision)
}

func TestLocateByPoint_InvalidCoordinates(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	_, err := service.LocateByPoint(context.Background(), 91, 9.70)

	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	mockSpatial.AssertNotCalled(t, "LocateByPoint")
}

func TestNearestDivision_DefaultsRange(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	expected := &models.NearestDivision{ID: 1, Name: "Littoral", DistanceMeters: 1200}
	mockSpatial.On("NearestDivision", mock.Anything, 9.70, 4.05, defaultNearestRangeMeters).Return(expected, nil)

	nearest, err := service.NearestDivision(context.Background(), 4.05, 9.70, 0)

	require.NoError(t, err)
	assert.Equal(t, expected, nearest)
	mockSpatial.AssertExpectations(t)
}

func TestNearestDivision_NothingInRange(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	mockSpatial.On("NearestDivision", mock.Anything, 9.70, 4.05, 500.0).Return(nil, nil)

	nearest, err := service.NearestDivision(context.Background(), 4.05, 9.70, 500)

	assert.Nil(t, nearest)
	assert.ErrorIs(t, err, ErrNoNearbyDivision)
}

func TestParcelsInBounds_RejectsInvertedLatitude(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	_, err := service.ParcelsInBounds(context.Background(), models.BoundingBox{
		North: 4.0, South: 4.1, East: 9.8, West: 9.7,
	})

	assert.ErrorIs(t, err, ErrInvalidBounds)
	mockSpatial.AssertNotCalled(t, "ParcelsInBounds")
}

func TestParcelsInBounds_RejectsAntimeridianWindow(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	_, err := service.ParcelsInBounds(context.Background(), models.BoundingBox{
		North: 4.1, South: 4.0, East: -179.5, West: 179.5,
	})

	assert.ErrorIs(t, err, ErrInvalidBounds)
	mockSpatial.AssertNotCalled(t, "ParcelsInBounds")
}

func TestParcelsInBounds_DropsUndecodableGeometries(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	parcels := []models.Parcel{
		{ID: 1, Matricule: "DLA-001", Boundary: "POLYGON((9.7 4.05, 9.7 4.06, 9.71 4.06, 9.7 4.05))", IsActive: true},
		{ID: 2, Matricule: "DLA-002", Boundary: "not wkt at all", IsActive: true},
		{ID: 3, Matricule: "DLA-003", Boundary: "POLYGON((9.8 4.05, 9.8 4.06, 9.81 4.06, 9.8 4.05))", IsActive: true},
	}
	mockSpatial.On("ParcelsInBounds", mock.Anything, mock.AnythingOfType("string")).Return(parcels, nil)

	result, err := service.ParcelsInBounds(context.Background(), models.BoundingBox{
		North: 4.1, South: 4.0, East: 9.9, West: 9.6,
	})

	require.NoError(t, err)
	assert.Len(t, result.Parcels, 2)
	assert.Equal(t, 1, result.DroppedGeometries)
	assert.Equal(t, int64(1), result.Parcels[0].Parcel.ID)
	assert.Equal(t, int64(3), result.Parcels[1].Parcel.ID)
	assert.NotNil(t, result.Parcels[0].Geometry)
	// The raw literal is not duplicated once decoded.
	assert.Empty(t, result.Parcels[0].Parcel.Boundary)
}

func TestParcelsInRegion_UnknownRegion(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	mockDivisions := new(MockDivisionRepository)
	service := newSpatialService(mockSpatial, mockDivisions)

	mockDivisions.On("GetRegionByName", mock.Anything, "Atlantis").Return(nil, nil)

	result, err := service.ParcelsInRegion(context.Background(), "Atlantis")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrRegionNotFound)
	mockSpatial.AssertNotCalled(t, "ParcelsInRegion")
}

func TestBorderParcels_DefaultsDistance(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	mockSpatial.On("BorderParcels", mock.Anything, defaultBorderDistanceMeters).
		Return([]models.BorderParcel{}, nil)

	_, err := service.BorderParcels(context.Background(), 0)

	require.NoError(t, err)
	mockSpatial.AssertExpectations(t)
}

func TestRegionArea_NotFound(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	mockSpatial.On("RegionArea", mock.Anything, int64(99)).Return(nil, nil)

	area, err := service.RegionArea(context.Background(), 99)

	assert.Nil(t, area)
	assert.ErrorIs(t, err, ErrRegionNotFound)
}

func TestRegionDetailedStats_Success(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	expected := &models.RegionDetailedStats{
		RegionID:            1,
		RegionName:          "Littoral",
		AreaKm2:             20248.0,
		DepartmentCount:     4,
		ArrondissementCount: 34,
		ParcelCount:         120,
		TitledParcelCount:   80,
		AvgPricePerM2:       14500,
	}
	mockSpatial.On("RegionDetailedStats", mock.Anything, int64(1)).Return(expected, nil)

	stats, err := service.RegionDetailedStats(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, expected, stats)
	mockSpatial.AssertExpectations(t)
}

func TestRegionDetailedStats_NotFound(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	mockSpatial.On("RegionDetailedStats", mock.Anything, int64(99)).Return(nil, nil)

	stats, err := service.RegionDetailedStats(context.Background(), 99)

	assert.Nil(t, stats)
	assert.ErrorIs(t, err, ErrRegionNotFound)
}

func TestRegionStats_FallsThroughDisabledCache(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	expected := []models.RegionStats{{RegionID: 1, RegionName: "Littoral", ParcelCount: 12}}
	mockSpatial.On("RegionStats", mock.Anything).Return(expected, true, nil)

	stats, err := service.RegionStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expected, stats)
	mockSpatial.AssertExpectations(t)
}

func TestRefreshStats(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	mockSpatial.On("RefreshMaterializedViews", mock.Anything).Return(nil)

	require.NoError(t, service.RefreshStats(context.Background()))
	mockSpatial.AssertExpectations(t)
}

func TestExportRegions_SkipsBadBoundaries(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	mockDivisions := new(MockDivisionRepository)
	service := newSpatialService(mockSpatial, mockDivisions)

	regions := []models.Region{
		{ID: 1, Name: "Littoral", Boundary: "POLYGON((9.7 4.05, 9.7 4.06, 9.71 4.06, 9.7 4.05))"},
		{ID: 2, Name: "Broken", Boundary: "garbage"},
	}
	mockDivisions.On("ListRegions", mock.Anything).Return(regions, nil)

	export, err := service.ExportRegions(context.Background())

	require.NoError(t, err)
	assert.Len(t, export.Collection.Features, 1)
	assert.Equal(t, 1, export.Dropped)
	assert.Equal(t, "Littoral", export.Collection.Features[0].Properties["name"])
}

func TestImportRegion_RequiresName(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	mockDivisions := new(MockDivisionRepository)
	service := newSpatialService(mockSpatial, mockDivisions)

	feature := regionFeature(t, "")

	region, err := service.ImportRegion(context.Background(), feature)

	assert.Nil(t, region)
	assert.ErrorIs(t, err, ErrMissingName)
	mockDivisions.AssertNotCalled(t, "CreateRegion")
}

func TestImportRegion_Success(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	mockDivisions := new(MockDivisionRepository)
	service := newSpatialService(mockSpatial, mockDivisions)

	feature := regionFeature(t, "Littoral")
	expected := &models.Region{ID: 1, Name: "Littoral"}
	mockDivisions.On("CreateRegion", mock.Anything, "Littoral", mock.AnythingOfType("string")).
		Return(expected, nil)

	region, err := service.ImportRegion(context.Background(), feature)

	require.NoError(t, err)
	assert.Equal(t, expected, region)
	mockDivisions.AssertExpectations(t)
}

func TestGeographicReport(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	stats := []models.RegionStats{{RegionID: 1, RegionName: "Littoral"}}
	mockSpatial.On("RegionStats", mock.Anything).Return(stats, true, nil)
	mockSpatial.On("HierarchyCounts", mock.Anything).Return(10, 58, 360, 1200, nil)

	report, err := service.GeographicReport(context.Background())

	require.NoError(t, err)
	assert.Equal(t, stats, report.Regions)
	assert.Equal(t, 10, report.TotalRegions)
	assert.Equal(t, 58, report.TotalDepartments)
	assert.Equal(t, 360, report.TotalArrondissements)
	assert.Equal(t, 1200, report.TotalParcels)
}

func TestOptimizeGeometries_DefaultsTolerance(t *testing.T) {
	mockSpatial := new(MockSpatialRepository)
	service := newSpatialService(mockSpatial, new(MockDivisionRepository))

	mockSpatial.On("OptimizeGeometries", mock.Anything, defaultSimplifyTolerance).
		Return("optimized 10 regions", nil)

	message, err := service.OptimizeGeometries(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, "optimized 10 regions", message)
}
