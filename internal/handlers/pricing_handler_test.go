package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPricingRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewPricingHandler()
	router.GET("/api/v1/pricing/owner", handler.OwnerQuote)
	router.GET("/api/v1/pricing/client", handler.ClientPlans)
	return router
}

func TestOwnerQuote_Success(t *testing.T) {
	router := setupPricingRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/owner?area=3000", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5500.0, body["monthlyPrice"])
	assert.Equal(t, "Tier 2 (1001-5000 m²)", body["tierName"])
}

func TestOwnerQuote_MissingArea(t *testing.T) {
	router := setupPricingRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/owner", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOwnerQuote_NegativeArea(t *testing.T) {
	router := setupPricingRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/owner?area=-10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientPlans(t *testing.T) {
	router := setupPricingRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/client", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5000.0, body["africa"]["monthly"]["price"])
	assert.Equal(t, 500000.0, body["international"]["annual"]["price"])
}
