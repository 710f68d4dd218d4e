package handler

import (
	"net/http"
	"time"

	"rental-api/internal/middleware"
	"rental-api/internal/model"
	"rental-api/pkg/database"
	"rental-api/pkg/logger"
	"rental-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetTenant returns the authenticated tenant.
func GetTenant(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "tenant": tenant})
}

// GetSubscription returns the tenant's subscription, derived activity flags,
// plan limits and current usage in one summary.
func GetSubscription(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	limits := tenant.Limits()
	return c.JSON(http.StatusOK, echo.Map{
		"success":                true,
		"subscription":           tenant.Subscription,
		"is_trial_active":        tenant.IsTrialActive(),
		"is_subscription_active": tenant.IsSubscriptionActive(),
		"features":               model.FeaturesFor(tenant.Subscription.Plan),
		"limits": echo.Map{
			"properties": limits.Properties,
			"users":      limits.Users,
			"api_calls":  limits.APICalls,
		},
		"usage": tenant.Usage,
	})
}

// UpdateTenantSettings updates the tenant's display preferences.
func UpdateTenantSettings(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req struct {
		Currency   string `json:"currency"`
		Timezone   string `json:"timezone"`
		DateFormat string `json:"date_format"`
		Language   string `json:"language"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Currency != "" {
		updates["settings_currency"] = req.Currency
	}
	if req.Timezone != "" {
		updates["settings_timezone"] = req.Timezone
	}
	if req.DateFormat != "" {
		updates["settings_date_format"] = req.DateFormat
	}
	if req.Language != "" {
		updates["settings_language"] = req.Language
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "tenant": tenant})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(tenant).Updates(updates); result.Error != nil {
		log.Error("Failed to update tenant settings", zap.Uint("tenant_id", tenant.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "settings update failed"})
	}

	log.Info("Tenant settings updated", zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "tenant": tenant})
}
