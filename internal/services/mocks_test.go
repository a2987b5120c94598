package services

import (
	"context"

	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/notify"
	"github.com/stretchr/testify/mock"
)

// Shared testify mocks for the repository and notifier interfaces.

type MockDivisionRepository struct {
	mock.Mock
}

func (m *MockDivisionRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Region), args.Error(1)
}

func (m *MockDivisionRepository) GetRegionByID(ctx context.Context, id int64) (*models.Region, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Region), args.Error(1)
}

func (m *MockDivisionRepository) GetRegionByName(ctx context.Context, name string) (*models.Region, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Region), args.Error(1)
}

func (m *MockDivisionRepository) CreateRegion(ctx context.Context, name, boundary string) (*models.Region, error) {
	args := m.Called(ctx, name, boundary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Region), args.Error(1)
}

func (m *MockDivisionRepository) UpdateRegion(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Region, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Region), args.Error(1)
}

func (m *MockDivisionRepository) DeleteRegion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDivisionRepository) CountDepartmentsInRegion(ctx context.Context, regionID int64) (int, error) {
	args := m.Called(ctx, regionID)
	return args.Int(0), args.Error(1)
}

func (m *MockDivisionRepository) ListDepartments(ctx context.Context, regionID *int64) ([]models.Department, error) {
	args := m.Called(ctx, regionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Department), args.Error(1)
}

func (m *MockDivisionRepository) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Department), args.Error(1)
}

func (m *MockDivisionRepository) CreateDepartment(ctx context.Context, name, boundary string, regionID int64) (*models.Department, error) {
	args := m.Called(ctx, name, boundary, regionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Department), args.Error(1)
}

func (m *MockDivisionRepository) UpdateDepartment(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Department, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Department), args.Error(1)
}

func (m *MockDivisionRepository) DeleteDepartment(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDivisionRepository) CountArrondissementsInDepartment(ctx context.Context, departmentID int64) (int, error) {
	args := m.Called(ctx, departmentID)
	return args.Int(0), args.Error(1)
}

func (m *MockDivisionRepository) ListArrondissements(ctx context.Context, regionID, departmentID *int64) ([]models.Arrondissement, error) {
	args := m.Called(ctx, regionID, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Arrondissement), args.Error(1)
}

func (m *MockDivisionRepository) GetArrondissementByID(ctx context.Context, id int64) (*models.Arrondissement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Arrondissement), args.Error(1)
}

func (m *MockDivisionRepository) CreateArrondissement(ctx context.Context, name, boundary string, departmentID int64) (*models.Arrondissement, error) {
	args := m.Called(ctx, name, boundary, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Arrondissement), args.Error(1)
}

func (m *MockDivisionRepository) UpdateArrondissement(ctx context.Context, id int64, update models.DivisionUpdate) (*models.Arrondissement, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Arrondissement), args.Error(1)
}

func (m *MockDivisionRepository) DeleteArrondissement(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockParcelRepository struct {
	mock.Mock
}

func (m *MockParcelRepository) Create(ctx context.Context, parcel *models.Parcel) (*models.Parcel, error) {
	args := m.Called(ctx, parcel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

func (m *MockParcelRepository) List(ctx context.Context, filters models.ParcelFilters) ([]models.Parcel, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockParcelRepository) GetByID(ctx context.Context, id int64) (*models.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

func (m *MockParcelRepository) SearchByMatricule(ctx context.Context, fragment string) ([]models.Parcel, error) {
	args := m.Called(ctx, fragment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockParcelRepository) Update(ctx context.Context, id int64, update models.ParcelUpdate) (*models.Parcel, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parcel), args.Error(1)
}

func (m *MockParcelRepository) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockParcelRepository) AttachImages(ctx context.Context, parcelID int64, urls []string) ([]models.ParcelImage, error) {
	args := m.Called(ctx, parcelID, urls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParcelImage), args.Error(1)
}

func (m *MockParcelRepository) ListImages(ctx context.Context, parcelID int64) ([]models.ParcelImage, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParcelImage), args.Error(1)
}

type MockSpatialRepository struct {
	mock.Mock
}

func (m *MockSpatialRepository) LocateByPoint(ctx context.Context, lng, lat float64) (*models.LocationHierarchy, error) {
	args := m.Called(ctx, lng, lat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LocationHierarchy), args.Error(1)
}

func (m *MockSpatialRepository) NearestDivision(ctx context.Context, lng, lat float64, maxDistanceMeters float64) (*models.NearestDivision, error) {
	args := m.Called(ctx, lng, lat, maxDistanceMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NearestDivision), args.Error(1)
}

func (m *MockSpatialRepository) ParcelsInBounds(ctx context.Context, boundsWKT string) ([]models.Parcel, error) {
	args := m.Called(ctx, boundsWKT)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockSpatialRepository) ParcelsInRegion(ctx context.Context, regionName string) ([]models.Parcel, error) {
	args := m.Called(ctx, regionName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockSpatialRepository) DetectOverlaps(ctx context.Context, parcelID int64) ([]models.ParcelOverlap, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParcelOverlap), args.Error(1)
}

func (m *MockSpatialRepository) MultiRegionParcels(ctx context.Context) ([]models.MultiRegionParcel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MultiRegionParcel), args.Error(1)
}

func (m *MockSpatialRepository) BorderParcels(ctx context.Context, distanceMeters float64) ([]models.BorderParcel, error) {
	args := m.Called(ctx, distanceMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BorderParcel), args.Error(1)
}

func (m *MockSpatialRepository) RegionArea(ctx context.Context, regionID int64) (*models.RegionArea, error) {
	args := m.Called(ctx, regionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegionArea), args.Error(1)
}

func (m *MockSpatialRepository) RegionDetailedStats(ctx context.Context, regionID int64) (*models.RegionDetailedStats, error) {
	args := m.Called(ctx, regionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegionDetailedStats), args.Error(1)
}

func (m *MockSpatialRepository) RegionStats(ctx context.Context) ([]models.RegionStats, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]models.RegionStats), args.Bool(1), args.Error(2)
}

func (m *MockSpatialRepository) HierarchyCounts(ctx context.Context) (int, int, int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Int(2), args.Int(3), args.Error(4)
}

func (m *MockSpatialRepository) RefreshMaterializedViews(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSpatialRepository) ValidateIntegrity(ctx context.Context) ([]models.IntegrityIssue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.IntegrityIssue), args.Error(1)
}

func (m *MockSpatialRepository) OptimizeGeometries(ctx context.Context, tolerance float64) (string, error) {
	args := m.Called(ctx, tolerance)
	return args.String(0), args.Error(1)
}

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, clientID, ownerID string, parcelID int64) (*models.Contact, error) {
	args := m.Called(ctx, clientID, ownerID, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactRepository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactRepository) Resolve(ctx context.Context, id int64, status models.ContactStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockContactRepository) HistoryByUser(ctx context.Context, userID string) ([]models.Contact, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Contact), args.Error(1)
}

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByGatewayRef(ctx context.Context, ref string) (*models.Subscription, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Activate(ctx context.Context, gatewayRef string) (bool, error) {
	args := m.Called(ctx, gatewayRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) MarkFailed(ctx context.Context, gatewayRef string) (bool, error) {
	args := m.Called(ctx, gatewayRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) HistoryByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	return m.Called(ctx, msg).Error(0)
}
