package handlers

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/geofoncier/api/internal/errors"
	"github.com/geofoncier/api/internal/middleware"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geojson"
)

// SpatialHandler handles spatial query and maintenance HTTP requests.
type SpatialHandler struct {
	service services.SpatialService
}

// NewSpatialHandler creates a new SpatialHandler instance.
func NewSpatialHandler(service services.SpatialService) *SpatialHandler {
	return &SpatialHandler{
		service: service,
	}
}

// PointRequest represents the query parameters for point lookups.
// Coordinates are pointers so a value of 0 (equator, prime meridian)
// still satisfies the required binding.
type PointRequest struct {
	Lat *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng *float64 `form:"lng" binding:"required,min=-180,max=180"`
}

// NearestRequest represents the query parameters for the nearest-division
// endpoint. MaxDistance is meters.
type NearestRequest struct {
	Lat         *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng         *float64 `form:"lng" binding:"required,min=-180,max=180"`
	MaxDistance float64  `form:"maxDistance" binding:"omitempty,gt=0"`
}

// BoundsRequest represents the query parameters for window queries.
// Pointer fields for the same reason as PointRequest: an edge at 0 is
// a valid window.
type BoundsRequest struct {
	North *float64 `form:"north" binding:"required,min=-90,max=90"`
	South *float64 `form:"south" binding:"required,min=-90,max=90"`
	East  *float64 `form:"east" binding:"required,min=-180,max=180"`
	West  *float64 `form:"west" binding:"required,min=-180,max=180"`
}

// BorderRequest represents the query parameters for border-parcel
// queries. Distance is meters.
type BorderRequest struct {
	Distance float64 `form:"distance" binding:"omitempty,gt=0"`
}

// OptimizeRequest represents the body for geometry optimization.
// Tolerance is simplification tolerance in degrees.
type OptimizeRequest struct {
	Tolerance float64 `json:"tolerance" binding:"omitempty,gt=0"`
}

func bindQuery(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindQuery(target); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return false
	}
	return true
}

// Locate handles GET /api/v1/spatial/locate.
// Resolves the full administrative hierarchy containing a point.
func (h *SpatialHandler) Locate(c *gin.Context) {
	var req PointRequest
	if !bindQuery(c, &req) {
		return
	}

	hierarchy, err := h.service.LocateByPoint(c.Request.Context(), *req.Lat, *req.Lng)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCoordinates):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrNoContainingDivision):
			apierrors.NotFound(c, "No administrative division contains this point")
		default:
			apierrors.InternalServerError(c, "Failed to locate point", err)
		}
		return
	}

	c.JSON(http.StatusOK, hierarchy)
}

// Nearest handles GET /api/v1/spatial/nearest.
func (h *SpatialHandler) Nearest(c *gin.Context) {
	var req NearestRequest
	if !bindQuery(c, &req) {
		return
	}

	nearest, err := h.service.NearestDivision(c.Request.Context(), *req.Lat, *req.Lng, req.MaxDistance)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCoordinates):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrNoNearbyDivision):
			apierrors.NotFound(c, err.Error())
		default:
			apierrors.InternalServerError(c, "Failed to find nearest division", err)
		}
		return
	}

	c.JSON(http.StatusOK, nearest)
}

// ParcelsInBounds handles GET /api/v1/spatial/parcels-in-bounds.
func (h *SpatialHandler) ParcelsInBounds(c *gin.Context) {
	var req BoundsRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := h.service.ParcelsInBounds(c.Request.Context(), models.BoundingBox{
		North: *req.North,
		South: *req.South,
		East:  *req.East,
		West:  *req.West,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidBounds) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query parcels in bounds", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ParcelsInRegion handles GET /api/v1/spatial/regions/:name/parcels.
func (h *SpatialHandler) ParcelsInRegion(c *gin.Context) {
	name := c.Param("name")

	result, err := h.service.ParcelsInRegion(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrRegionNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalServerError(c, "Failed to query parcels in region", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MultiRegionParcels handles GET /api/v1/spatial/multi-region-parcels.
func (h *SpatialHandler) MultiRegionParcels(c *gin.Context) {
	parcels, err := h.service.MultiRegionParcels(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to query multi-region parcels", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"parcels": parcels, "count": len(parcels)})
}

// BorderParcels handles GET /api/v1/spatial/border-parcels.
func (h *SpatialHandler) BorderParcels(c *gin.Context) {
	var req BorderRequest
	if !bindQuery(c, &req) {
		return
	}

	parcels, err := h.service.BorderParcels(c.Request.Context(), req.Distance)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to query border parcels", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"parcels": parcels, "count": len(parcels)})
}

// RegionArea handles GET /api/v1/regions/:id/area.
// Area is computed server-side in geodesic meters.
func (h *SpatialHandler) RegionArea(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	area, err := h.service.RegionArea(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrRegionNotFound) {
			apierrors.NotFound(c, "Region not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to compute region area", err)
		return
	}

	c.JSON(http.StatusOK, area)
}

// RegionDetailedStats handles GET /api/v1/regions/:id/stats.
func (h *SpatialHandler) RegionDetailedStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.service.RegionDetailedStats(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrRegionNotFound) {
			apierrors.NotFound(c, "Region not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to load detailed region stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportRegions handles GET /api/v1/spatial/export.
// Returns the region boundaries as a GeoJSON feature collection.
func (h *SpatialHandler) ExportRegions(c *gin.Context) {
	export, err := h.service.ExportRegions(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to export regions", err)
		return
	}

	c.JSON(http.StatusOK, export)
}

// ImportRegion handles POST /api/v1/spatial/import.
// Accepts a single GeoJSON feature with a name property.
func (h *SpatialHandler) ImportRegion(c *gin.Context) {
	var feature geojson.Feature
	if err := c.ShouldBindJSON(&feature); err != nil {
		apierrors.BadRequest(c, "Invalid GeoJSON feature", nil)
		return
	}

	region, err := h.service.ImportRegion(c.Request.Context(), &feature)
	if err != nil {
		if errors.Is(err, services.ErrMissingName) {
			apierrors.BadRequest(c, "The feature needs a name property", nil)
			return
		}
		if geometryError(c, err) {
			return
		}
		apierrors.InternalServerError(c, "Failed to import region", err)
		return
	}

	c.JSON(http.StatusCreated, region)
}

// RegionStats handles GET /api/v1/spatial/stats.
func (h *SpatialHandler) RegionStats(c *gin.Context) {
	stats, err := h.service.RegionStats(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load region statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"regions": stats, "count": len(stats)})
}

// RefreshStats handles POST /api/v1/spatial/stats/refresh.
// Recomputes the statistics view and drops the cached copy.
func (h *SpatialHandler) RefreshStats(c *gin.Context) {
	log := middleware.GetLogger(c)
	if log != nil {
		log.Info("Processing stats refresh", nil)
	}

	if err := h.service.RefreshStats(c.Request.Context()); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			apierrors.UpstreamTimeout(c, "Statistics refresh timed out", err)
			return
		}
		apierrors.InternalServerError(c, "Failed to refresh statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// ValidateIntegrity handles GET /api/v1/spatial/integrity.
// Reports consistency findings without mutating anything.
func (h *SpatialHandler) ValidateIntegrity(c *gin.Context) {
	issues, err := h.service.ValidateIntegrity(c.Request.Context())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			apierrors.UpstreamTimeout(c, "Integrity sweep timed out", err)
			return
		}
		apierrors.InternalServerError(c, "Failed to validate integrity", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": issues, "count": len(issues)})
}

// GeographicReport handles GET /api/v1/spatial/report.
func (h *SpatialHandler) GeographicReport(c *gin.Context) {
	report, err := h.service.GeographicReport(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to build geographic report", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// OptimizeGeometries handles POST /api/v1/spatial/optimize.
func (h *SpatialHandler) OptimizeGeometries(c *gin.Context) {
	var req OptimizeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	message, err := h.service.OptimizeGeometries(c.Request.Context(), req.Tolerance)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			apierrors.UpstreamTimeout(c, "Geometry optimization timed out", err)
			return
		}
		apierrors.InternalServerError(c, "Failed to optimize geometries", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "optimized", "message": message})
}
