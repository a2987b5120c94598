package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/geofoncier/api/internal/errors"
	"github.com/geofoncier/api/internal/geometry"
	"github.com/geofoncier/api/internal/middleware"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/services"
	"github.com/gin-gonic/gin"
)

// ParcelHandler handles parcel registry HTTP requests.
type ParcelHandler struct {
	service services.ParcelService
}

// NewParcelHandler creates a new ParcelHandler instance.
func NewParcelHandler(service services.ParcelService) *ParcelHandler {
	return &ParcelHandler{
		service: service,
	}
}

// ListParcelsRequest represents the query parameters for parcel listings.
type ListParcelsRequest struct {
	Division    string  `form:"division"`
	Activity    string  `form:"activity"`
	TitleStatus string  `form:"titleStatus" binding:"omitempty,oneof=titled untitled"`
	PriceMin    float64 `form:"priceMin" binding:"omitempty,gte=0"`
	PriceMax    float64 `form:"priceMax" binding:"omitempty,gte=0"`
	Limit       int     `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AttachImagesRequest represents the body for attaching images.
type AttachImagesRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,dive,url"`
}

// geometryError writes a 400 response for codec failures. Returns true
// when the error was a geometry error.
func geometryError(c *gin.Context, err error) bool {
	if errors.Is(err, geometry.ErrInvalidGeometry) || errors.Is(err, geometry.ErrUnsupportedGeometryType) {
		apierrors.BadRequest(c, err.Error(), nil)
		return true
	}
	return false
}

// Create handles POST /api/v1/parcels.
func (h *ParcelHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req services.CreateParcelInput
	if !bindJSON(c, &req) {
		return
	}

	if log != nil {
		log.Info("Processing parcel registration", map[string]interface{}{
			"matricule": req.Matricule,
			"owner_id":  req.OwnerID,
		})
	}

	parcel, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMatriculeRequired),
			errors.Is(err, services.ErrOwnerRequired):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrNoActiveSubscription):
			apierrors.Conflict(c, err.Error())
		default:
			if geometryError(c, err) {
				return
			}
			apierrors.InternalServerError(c, "Failed to register parcel", err)
		}
		return
	}

	c.JSON(http.StatusCreated, parcel)
}

// List handles GET /api/v1/parcels.
func (h *ParcelHandler) List(c *gin.Context) {
	var req ListParcelsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	parcels, err := h.service.List(c.Request.Context(), models.ParcelFilters{
		Division:    req.Division,
		Activity:    req.Activity,
		TitleStatus: req.TitleStatus,
		PriceMin:    req.PriceMin,
		PriceMax:    req.PriceMax,
		Limit:       req.Limit,
	})
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list parcels", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"parcels": parcels, "count": len(parcels)})
}

// GetByID handles GET /api/v1/parcels/:id. Soft-deleted parcels are
// still served here.
func (h *ParcelHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	parcel, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrParcelNotFound) {
			apierrors.NotFound(c, "Parcel not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to get parcel", err)
		return
	}

	c.JSON(http.StatusOK, parcel)
}

// Search handles GET /api/v1/parcels/search?matricule=fragment.
func (h *ParcelHandler) Search(c *gin.Context) {
	fragment := c.Query("matricule")

	parcels, err := h.service.SearchByMatricule(c.Request.Context(), fragment)
	if err != nil {
		if errors.Is(err, services.ErrMatriculeRequired) {
			apierrors.BadRequest(c, "A matricule query parameter is required", nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to search parcels", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"parcels": parcels, "count": len(parcels)})
}

// Update handles PATCH /api/v1/parcels/:id.
func (h *ParcelHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var update models.ParcelUpdate
	if !bindJSON(c, &update) {
		return
	}

	parcel, err := h.service.Update(c.Request.Context(), id, update)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParcelNotFound):
			apierrors.NotFound(c, "Parcel not found")
		case errors.Is(err, services.ErrMatriculeRequired):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.InternalServerError(c, "Failed to update parcel", err)
		}
		return
	}

	c.JSON(http.StatusOK, parcel)
}

// Delete handles DELETE /api/v1/parcels/:id. Deletion is soft: the
// parcel leaves listings and search but stays addressable by id.
func (h *ParcelHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.SoftDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrParcelNotFound) {
			apierrors.NotFound(c, "Parcel not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to delete parcel", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AttachImages handles POST /api/v1/parcels/:id/images.
func (h *ParcelHandler) AttachImages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AttachImagesRequest
	if !bindJSON(c, &req) {
		return
	}

	images, err := h.service.AttachImages(c.Request.Context(), id, req.URLs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParcelNotFound):
			apierrors.NotFound(c, "Parcel not found")
		case errors.Is(err, services.ErrNoImages):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.InternalServerError(c, "Failed to attach images", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"images": images, "count": len(images)})
}

// Overlaps handles GET /api/v1/parcels/:id/overlaps.
func (h *ParcelHandler) Overlaps(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	overlaps, err := h.service.CheckOverlaps(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrParcelNotFound) {
			apierrors.NotFound(c, "Parcel not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to check overlaps", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"overlaps": overlaps, "count": len(overlaps)})
}
