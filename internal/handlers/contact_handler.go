package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/geofoncier/api/internal/errors"
	"github.com/geofoncier/api/internal/middleware"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/services"
	"github.com/gin-gonic/gin"
)

// userIDHeader carries the caller identity assigned by the external
// identity provider. There is no session state in this API.
const userIDHeader = "X-User-ID"

// ContactHandler handles brokerage HTTP requests.
type ContactHandler struct {
	service services.ContactService
}

// NewContactHandler creates a new ContactHandler instance.
func NewContactHandler(service services.ContactService) *ContactHandler {
	return &ContactHandler{
		service: service,
	}
}

// CreateContactRequest represents the body for opening a contact
// request. ClientID falls back to the X-User-ID header when absent.
type CreateContactRequest struct {
	ClientID string `json:"clientId"`
	ParcelID int64  `json:"parcelId" binding:"required,gt=0"`
}

// ApproveContactResponse pairs the resolved request with the owner
// disclosure the client receives.
type ApproveContactResponse struct {
	Contact    *models.Contact             `json:"contact"`
	Disclosure *services.ContactDisclosure `json:"disclosure"`
}

// Create handles POST /api/v1/contacts.
func (h *ContactHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req CreateContactRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ClientID == "" {
		req.ClientID = c.GetHeader(userIDHeader)
	}

	if log != nil {
		log.Info("Processing contact request", map[string]interface{}{
			"client_id": req.ClientID,
			"parcel_id": req.ParcelID,
		})
	}

	contact, err := h.service.Initiate(c.Request.Context(), req.ClientID, req.ParcelID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClientRequired):
			apierrors.BadRequest(c, "A client id is required, in the body or the X-User-ID header", nil)
		case errors.Is(err, services.ErrParcelNotFound):
			apierrors.NotFound(c, "Parcel not found or no longer listed")
		default:
			apierrors.InternalServerError(c, "Failed to create contact request", err)
		}
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// GetByID handles GET /api/v1/contacts/:id.
func (h *ContactHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	contact, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			apierrors.NotFound(c, "Contact request not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to get contact request", err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// Approve handles POST /api/v1/contacts/:id/approve.
// Approval discloses the owner's contact details and the commission
// grid. Resolving an already-resolved request is a conflict.
func (h *ContactHandler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	contact, disclosure, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrContactNotFound):
			apierrors.NotFound(c, "Contact request not found")
		case errors.Is(err, services.ErrAlreadyResolved):
			apierrors.Conflict(c, err.Error())
		default:
			apierrors.InternalServerError(c, "Failed to approve contact request", err)
		}
		return
	}

	c.JSON(http.StatusOK, ApproveContactResponse{
		Contact:    contact,
		Disclosure: disclosure,
	})
}

// Reject handles POST /api/v1/contacts/:id/reject.
func (h *ContactHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	contact, err := h.service.Reject(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrContactNotFound):
			apierrors.NotFound(c, "Contact request not found")
		case errors.Is(err, services.ErrAlreadyResolved):
			apierrors.Conflict(c, err.Error())
		default:
			apierrors.InternalServerError(c, "Failed to reject contact request", err)
		}
		return
	}

	c.JSON(http.StatusOK, contact)
}

// History handles GET /api/v1/contacts/history.
// Returns every request the caller appears in, as client or owner.
func (h *ContactHandler) History(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = c.GetHeader(userIDHeader)
	}

	history, err := h.service.HistoryByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrClientRequired) {
			apierrors.BadRequest(c, "A userId is required, as a query parameter or the X-User-ID header", nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to load contact history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": history, "count": len(history)})
}
