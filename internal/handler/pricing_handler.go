package handler

import (
	"errors"
	"net/http"
	"time"

	"rental-api/internal/middleware"
	"rental-api/internal/model"
	"rental-api/internal/pricing"
	"rental-api/pkg/database"
	"rental-api/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PricingHandler serves the AI surfaces: rate recommendations, guest
// messages and market-trend analyses.
type PricingHandler struct {
	advisor *pricing.Advisor
}

// NewPricingHandler creates the pricing handler.
func NewPricingHandler(advisor *pricing.Advisor) *PricingHandler {
	return &PricingHandler{advisor: advisor}
}

// Recommend returns a recommended nightly rate for a property and date
// range. The response always carries a usable rate: when the external
// generative service is unavailable the deterministic rule-based rate is
// returned with an advisory note, never an error status. Each
// recommendation counts against the tenant's API-call allowance.
func (h *PricingHandler) Recommend(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req struct {
		PropertyID uint   `json:"property_id"`
		CheckIn    string `json:"check_in"`
		CheckOut   string `json:"check_out"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "check_in must be YYYY-MM-DD"})
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "check_out must be YYYY-MM-DD"})
	}
	if !checkIn.Before(checkOut) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "check_out must be after check_in"})
	}

	result, advErr := h.advisor.Recommend(c.Request().Context(), tenant.ID, req.PropertyID, checkIn, checkOut)
	if result == nil {
		return propertyLoadError(c, advErr)
	}

	meterAPICall(c, tenant)

	response := echo.Map{
		"success":     true,
		"pricing":     result.Recommendation,
		"market_data": result.Market,
	}
	if advErr != nil {
		// Advisory only: the fallback rate above is still usable.
		response["warning"] = advErr.Error()
	}

	return c.JSON(http.StatusOK, response)
}

// GuestMessage generates guest communication text for a booking touchpoint,
// falling back to the fixed template when the external service is
// unavailable.
func (h *PricingHandler) GuestMessage(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req struct {
		Type    pricing.MessageType    `json:"type"`
		Context pricing.MessageContext `json:"context"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}
	if !req.Type.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "unknown message type"})
	}

	message, advErr := h.advisor.GuestMessage(c.Request().Context(), req.Type, req.Context)

	meterAPICall(c, tenant)

	response := echo.Map{
		"success":       true,
		"guest_message": message,
	}
	if advErr != nil {
		response["warning"] = advErr.Error()
	}

	return c.JSON(http.StatusOK, response)
}

// MarketTrends analyzes recent booking performance for one property.
func (h *PricingHandler) MarketTrends(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req struct {
		PropertyID uint `json:"property_id"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	report, advErr := h.advisor.MarketTrends(c.Request().Context(), tenant.ID, req.PropertyID)
	if report == nil {
		return propertyLoadError(c, advErr)
	}

	meterAPICall(c, tenant)

	response := echo.Map{
		"success":     true,
		"analysis":    report.Analysis,
		"data_points": report.DataPoints,
	}
	if advErr != nil {
		response["warning"] = advErr.Error()
	}

	return c.JSON(http.StatusOK, response)
}

// propertyLoadError distinguishes an unknown property from a store failure.
func propertyLoadError(c echo.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "property not found"})
	}
	logger.FromContext(c).Error("Failed to load property", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "property lookup failed"})
}

// meterAPICall counts one AI call against the tenant's monthly allowance.
// The increment and the lazy period reset run in a single SQL statement
// against the stored values, so concurrent requests cannot lose counts to a
// stale in-memory read. The in-memory counter is advanced too so the
// response reflects the call.
func meterAPICall(c echo.Context, tenant *model.Tenant) {
	columns := tenant.RecordAPICallColumns(time.Now())
	tenant.RecordAPICall()
	if err := database.GetDB().Model(tenant).Updates(columns).Error; err != nil {
		logger.FromContext(c).Error("Failed to record API call",
			zap.Uint("tenant_id", tenant.ID), zap.Error(err))
	}
}
