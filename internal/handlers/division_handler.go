package handlers

import (
	"errors"
	"net/http"
	"strconv"

	apierrors "github.com/geofoncier/api/internal/errors"
	"github.com/geofoncier/api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geojson"
)

// DivisionHandler handles administrative-hierarchy HTTP requests.
type DivisionHandler struct {
	service services.DivisionService
}

// NewDivisionHandler creates a new DivisionHandler instance.
func NewDivisionHandler(service services.DivisionService) *DivisionHandler {
	return &DivisionHandler{
		service: service,
	}
}

// CreateDivisionRequest is the body for creating a region, department or
// arrondissement. ParentID is ignored for regions and required for the
// two lower levels.
type CreateDivisionRequest struct {
	Boundary *geojson.Geometry `json:"boundary"`
	Name     string            `json:"name" binding:"required"`
	ParentID int64             `json:"parentId"`
}

// UpdateDivisionRequest is the body for a partial division update.
type UpdateDivisionRequest struct {
	Name     *string           `json:"name"`
	Boundary *geojson.Geometry `json:"boundary"`
	ParentID *int64            `json:"parentId"`
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid "+name+" parameter", nil)
		return 0, false
	}
	return id, true
}

// parseOptionalIDQuery reads an optional integer query parameter.
func parseOptionalIDQuery(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid "+name+" parameter", nil)
		return nil, false
	}
	return &id, true
}

// bindJSON binds the request body and writes the error response itself
// on failure.
func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}

// divisionError maps hierarchy service errors to HTTP responses.
func divisionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrDivisionNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrHasDependents):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNameRequired):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		if geometryError(c, err) {
			return
		}
		apierrors.InternalServerError(c, fallback, err)
	}
}

// ListRegions handles GET /api/v1/regions.
func (h *DivisionHandler) ListRegions(c *gin.Context) {
	regions, err := h.service.ListRegions(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list regions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions, "count": len(regions)})
}

// GetRegion handles GET /api/v1/regions/:id.
func (h *DivisionHandler) GetRegion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	region, err := h.service.GetRegion(c.Request.Context(), id)
	if err != nil {
		divisionError(c, err, "Failed to get region")
		return
	}
	c.JSON(http.StatusOK, region)
}

// CreateRegion handles POST /api/v1/regions.
func (h *DivisionHandler) CreateRegion(c *gin.Context) {
	var req CreateDivisionRequest
	if !bindJSON(c, &req) {
		return
	}

	region, err := h.service.CreateRegion(c.Request.Context(), req.Name, req.Boundary)
	if err != nil {
		divisionError(c, err, "Failed to create region")
		return
	}
	c.JSON(http.StatusCreated, region)
}

// UpdateRegion handles PATCH /api/v1/regions/:id.
func (h *DivisionHandler) UpdateRegion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateDivisionRequest
	if !bindJSON(c, &req) {
		return
	}

	region, err := h.service.UpdateRegion(c.Request.Context(), id, services.DivisionUpdateInput{
		Name:     req.Name,
		Boundary: req.Boundary,
	})
	if err != nil {
		divisionError(c, err, "Failed to update region")
		return
	}
	c.JSON(http.StatusOK, region)
}

// DeleteRegion handles DELETE /api/v1/regions/:id.
func (h *DivisionHandler) DeleteRegion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteRegion(c.Request.Context(), id); err != nil {
		divisionError(c, err, "Failed to delete region")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDepartments handles GET /api/v1/departments?regionId=N.
func (h *DivisionHandler) ListDepartments(c *gin.Context) {
	regionID, ok := parseOptionalIDQuery(c, "regionId")
	if !ok {
		return
	}

	departments, err := h.service.ListDepartments(c.Request.Context(), regionID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list departments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments, "count": len(departments)})
}

// GetDepartment handles GET /api/v1/departments/:id.
func (h *DivisionHandler) GetDepartment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	department, err := h.service.GetDepartment(c.Request.Context(), id)
	if err != nil {
		divisionError(c, err, "Failed to get department")
		return
	}
	c.JSON(http.StatusOK, department)
}

// CreateDepartment handles POST /api/v1/departments.
func (h *DivisionHandler) CreateDepartment(c *gin.Context) {
	var req CreateDivisionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ParentID <= 0 {
		apierrors.BadRequest(c, "A parentId referencing the owning region is required", nil)
		return
	}

	dept, err := h.service.CreateDepartment(c.Request.Context(), req.Name, req.ParentID, req.Boundary)
	if err != nil {
		divisionError(c, err, "Failed to create department")
		return
	}
	c.JSON(http.StatusCreated, dept)
}

// UpdateDepartment handles PATCH /api/v1/departments/:id.
func (h *DivisionHandler) UpdateDepartment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateDivisionRequest
	if !bindJSON(c, &req) {
		return
	}

	dept, err := h.service.UpdateDepartment(c.Request.Context(), id, services.DivisionUpdateInput{
		Name:     req.Name,
		Boundary: req.Boundary,
		ParentID: req.ParentID,
	})
	if err != nil {
		divisionError(c, err, "Failed to update department")
		return
	}
	c.JSON(http.StatusOK, dept)
}

// DeleteDepartment handles DELETE /api/v1/departments/:id.
func (h *DivisionHandler) DeleteDepartment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDepartment(c.Request.Context(), id); err != nil {
		divisionError(c, err, "Failed to delete department")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListArrondissements handles GET /api/v1/arrondissements with optional
// regionId and departmentId filters.
func (h *DivisionHandler) ListArrondissements(c *gin.Context) {
	regionID, ok := parseOptionalIDQuery(c, "regionId")
	if !ok {
		return
	}
	departmentID, ok := parseOptionalIDQuery(c, "departmentId")
	if !ok {
		return
	}

	arrondissements, err := h.service.ListArrondissements(c.Request.Context(), regionID, departmentID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list arrondissements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"arrondissements": arrondissements, "count": len(arrondissements)})
}

// GetArrondissement handles GET /api/v1/arrondissements/:id.
func (h *DivisionHandler) GetArrondissement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	arrondissement, err := h.service.GetArrondissement(c.Request.Context(), id)
	if err != nil {
		divisionError(c, err, "Failed to get arrondissement")
		return
	}
	c.JSON(http.StatusOK, arrondissement)
}

// CreateArrondissement handles POST /api/v1/arrondissements.
func (h *DivisionHandler) CreateArrondissement(c *gin.Context) {
	var req CreateDivisionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ParentID <= 0 {
		apierrors.BadRequest(c, "A parentId referencing the owning department is required", nil)
		return
	}

	arr, err := h.service.CreateArrondissement(c.Request.Context(), req.Name, req.ParentID, req.Boundary)
	if err != nil {
		divisionError(c, err, "Failed to create arrondissement")
		return
	}
	c.JSON(http.StatusCreated, arr)
}

// UpdateArrondissement handles PATCH /api/v1/arrondissements/:id.
func (h *DivisionHandler) UpdateArrondissement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateDivisionRequest
	if !bindJSON(c, &req) {
		return
	}

	arr, err := h.service.UpdateArrondissement(c.Request.Context(), id, services.DivisionUpdateInput{
		Name:     req.Name,
		Boundary: req.Boundary,
		ParentID: req.ParentID,
	})
	if err != nil {
		divisionError(c, err, "Failed to update arrondissement")
		return
	}
	c.JSON(http.StatusOK, arr)
}

// DeleteArrondissement handles DELETE /api/v1/arrondissements/:id.
func (h *DivisionHandler) DeleteArrondissement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteArrondissement(c.Request.Context(), id); err != nil {
		divisionError(c, err, "Failed to delete arrondissement")
		return
	}
	c.Status(http.StatusNoContent)
}
