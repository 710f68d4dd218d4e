package handler

import (
	"net/http"
	"strconv"
	"time"

	"rental-api/internal/middleware"
	"rental-api/internal/model"
	"rental-api/pkg/database"
	"rental-api/pkg/logger"
	"rental-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListProperties returns all of the tenant's properties.
func ListProperties(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var properties []model.Property
	if result := database.GetDB().Where("tenant_id = ?", tenant.ID).Order("id").Find(&properties); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list properties"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "properties": properties})
}

// GetProperty returns one property scoped to the tenant.
func GetProperty(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid property id"})
	}

	var property model.Property
	result := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&property, uint(id))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "property not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "property": property})
}

type propertyRequest struct {
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Type           model.PropertyType    `json:"type"`
	Address        model.Address         `json:"address"`
	Amenities      []string              `json:"amenities"`
	Bedrooms       int                   `json:"bedrooms"`
	Bathrooms      int                   `json:"bathrooms"`
	MaxGuests      int                   `json:"max_guests"`
	Pricing        model.PropertyPricing `json:"pricing"`
	DynamicPricing model.DynamicPricing  `json:"dynamic_pricing"`
}

// CreateProperty creates a property and advances the tenant's property
// usage counter. The usage-limit gate runs before this handler; the
// counter moves only after the write succeeds.
func CreateProperty(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req propertyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	if req.Name == "" || req.Type == "" || req.Pricing.BasePrice <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "name, type and a positive base price are required",
		})
	}

	property := model.Property{
		TenantID:       tenant.ID,
		Name:           req.Name,
		Description:    req.Description,
		Type:           req.Type,
		Address:        req.Address,
		Amenities:      req.Amenities,
		Bedrooms:       req.Bedrooms,
		Bathrooms:      req.Bathrooms,
		MaxGuests:      req.MaxGuests,
		Pricing:        req.Pricing,
		DynamicPricing: req.DynamicPricing,
		Active:         true,
	}
	if property.MaxGuests < 1 {
		property.MaxGuests = 1
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&property); result.Error != nil {
		log.Error("Failed to create property", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "property creation failed"})
	}

	database.GetDB().Model(tenant).
		Update("usage_properties", gorm.Expr("usage_properties + 1"))

	log.Info("Property created",
		zap.Uint("property_id", property.ID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "property": property})
}

// UpdateProperty updates a property scoped to the tenant.
func UpdateProperty(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid property id"})
	}

	var property model.Property
	if result := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&property, uint(id)); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "property not found"})
	}

	var req propertyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	if req.Name != "" {
		property.Name = req.Name
	}
	if req.Description != "" {
		property.Description = req.Description
	}
	if req.Type != "" {
		property.Type = req.Type
	}
	if req.Address != (model.Address{}) {
		property.Address = req.Address
	}
	if req.Amenities != nil {
		property.Amenities = req.Amenities
	}
	if req.Bedrooms > 0 {
		property.Bedrooms = req.Bedrooms
	}
	if req.Bathrooms > 0 {
		property.Bathrooms = req.Bathrooms
	}
	if req.MaxGuests > 0 {
		property.MaxGuests = req.MaxGuests
	}
	if req.Pricing.BasePrice > 0 {
		property.Pricing = req.Pricing
	}
	if req.DynamicPricing != (model.DynamicPricing{}) {
		property.DynamicPricing = req.DynamicPricing
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&property); result.Error != nil {
		log.Error("Failed to update property", zap.Uint("property_id", property.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "property update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "property": property})
}

// DeleteProperty soft-deletes a property and releases its usage slot.
func DeleteProperty(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid property id"})
	}

	var property model.Property
	if result := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&property, uint(id)); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "property not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(&property); result.Error != nil {
		log.Error("Failed to delete property", zap.Uint("property_id", property.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "property deletion failed"})
	}

	database.GetDB().Model(tenant).
		Where("usage_properties > 0").
		Update("usage_properties", gorm.Expr("usage_properties - 1"))

	log.Info("Property deleted",
		zap.Uint("property_id", property.ID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "property deleted"})
}
