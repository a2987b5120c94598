package services

import (
	"context"
	"testing"

	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDivisionService(repo *MockDivisionRepository) DivisionService {
	return NewDivisionService(repo, logger.New("test"))
}

func TestGetRegion_NotFound(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("GetRegionByID", mock.Anything, int64(7)).Return(nil, nil)

	region, err := service.GetRegion(context.Background(), 7)

	assert.Nil(t, region)
	assert.ErrorIs(t, err, ErrDivisionNotFound)
	mockRepo.AssertExpectations(t)
}

func TestGetDepartment_Success(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	expected := &models.Department{ID: 3, Name: "Wouri", RegionID: 1}
	mockRepo.On("GetDepartmentByID", mock.Anything, int64(3)).Return(expected, nil)

	department, err := service.GetDepartment(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, expected, department)
	mockRepo.AssertExpectations(t)
}

func TestGetArrondissement_NotFound(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("GetArrondissementByID", mock.Anything, int64(11)).Return(nil, nil)

	arrondissement, err := service.GetArrondissement(context.Background(), 11)

	assert.Nil(t, arrondissement)
	assert.ErrorIs(t, err, ErrDivisionNotFound)
	mockRepo.AssertExpectations(t)
}

func TestCreateRegion_RequiresName(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	region, err := service.CreateRegion(context.Background(), "", nil)

	assert.Nil(t, region)
	assert.ErrorIs(t, err, ErrNameRequired)
	mockRepo.AssertNotCalled(t, "CreateRegion")
}

func TestCreateRegion_WithoutBoundary(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	expected := &models.Region{ID: 1, Name: "Littoral"}
	mockRepo.On("CreateRegion", mock.Anything, "Littoral", "").Return(expected, nil)

	region, err := service.CreateRegion(context.Background(), "Littoral", nil)

	require.NoError(t, err)
	assert.Equal(t, expected, region)
	mockRepo.AssertExpectations(t)
}

func TestDeleteRegion_WithDependents(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("CountDepartmentsInRegion", mock.Anything, int64(3)).Return(4, nil)

	err := service.DeleteRegion(context.Background(), 3)

	assert.ErrorIs(t, err, ErrHasDependents)
	mockRepo.AssertNotCalled(t, "DeleteRegion")
}

func TestDeleteRegion_Empty(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("CountDepartmentsInRegion", mock.Anything, int64(3)).Return(0, nil)
	mockRepo.On("DeleteRegion", mock.Anything, int64(3)).Return(nil)

	err := service.DeleteRegion(context.Background(), 3)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDeleteRegion_NotFound(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("CountDepartmentsInRegion", mock.Anything, int64(9)).Return(0, nil)
	mockRepo.On("DeleteRegion", mock.Anything, int64(9)).Return(pgx.ErrNoRows)

	err := service.DeleteRegion(context.Background(), 9)

	assert.ErrorIs(t, err, ErrDivisionNotFound)
}

func TestCreateDepartment_MissingRegion(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("GetRegionByID", mock.Anything, int64(42)).Return(nil, nil)

	dept, err := service.CreateDepartment(context.Background(), "Wouri", 42, nil)

	assert.Nil(t, dept)
	assert.ErrorIs(t, err, ErrDivisionNotFound)
	mockRepo.AssertNotCalled(t, "CreateDepartment")
}

func TestCreateDepartment_Success(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("GetRegionByID", mock.Anything, int64(1)).Return(&models.Region{ID: 1, Name: "Littoral"}, nil)
	expected := &models.Department{ID: 10, Name: "Wouri", RegionID: 1}
	mockRepo.On("CreateDepartment", mock.Anything, "Wouri", "", int64(1)).Return(expected, nil)

	dept, err := service.CreateDepartment(context.Background(), "Wouri", 1, nil)

	require.NoError(t, err)
	assert.Equal(t, expected, dept)
	mockRepo.AssertExpectations(t)
}

func TestDeleteDepartment_WithDependents(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	mockRepo.On("CountArrondissementsInDepartment", mock.Anything, int64(10)).Return(2, nil)

	err := service.DeleteDepartment(context.Background(), 10)

	assert.ErrorIs(t, err, ErrHasDependents)
	mockRepo.AssertNotCalled(t, "DeleteDepartment")
}

func TestUpdateRegion_RejectsEmptyName(t *testing.T) {
	mockRepo := new(MockDivisionRepository)
	service := newDivisionService(mockRepo)

	empty := ""
	region, err := service.UpdateRegion(context.Background(), 1, DivisionUpdateInput{Name: &empty})

	assert.Nil(t, region)
	assert.ErrorIs(t, err, ErrNameRequired)
	mockRepo.AssertNotCalled(t, "UpdateRegion")
}
