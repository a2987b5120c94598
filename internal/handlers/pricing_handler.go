package handlers

import (
	"errors"
	"net/http"
	"strconv"

	apierrors "github.com/geofoncier/api/internal/errors"
	"github.com/geofoncier/api/internal/pricing"
	"github.com/gin-gonic/gin"
)

// PricingHandler serves the public tariff grids. Everything here is a
// pure computation; no storage is touched.
type PricingHandler struct{}

// NewPricingHandler creates a new PricingHandler instance.
func NewPricingHandler() *PricingHandler {
	return &PricingHandler{}
}

// OwnerQuote handles GET /api/v1/pricing/owner?area=N.
// Returns the tiered tariff for a declared parcel area in m².
func (h *PricingHandler) OwnerQuote(c *gin.Context) {
	area, err := strconv.ParseFloat(c.Query("area"), 64)
	if err != nil {
		apierrors.BadRequest(c, "A numeric area query parameter is required", nil)
		return
	}

	quote, err := pricing.ForOwner(area)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidArea) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to compute tariff", err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// ClientPlans handles GET /api/v1/pricing/client.
// Returns the fixed client price grid by zone and period.
func (h *PricingHandler) ClientPlans(c *gin.Context) {
	c.JSON(http.StatusOK, pricing.ForClient())
}
