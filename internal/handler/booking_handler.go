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
)

const dateLayout = "2006-01-02"

// ListBookings returns the tenant's bookings, optionally filtered by property.
func ListBookings(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	query := database.GetDB().Where("tenant_id = ?", tenant.ID)
	if propertyID := c.QueryParam("property_id"); propertyID != "" {
		id, err := strconv.ParseUint(propertyID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid property id"})
		}
		query = query.Where("property_id = ?", uint(id))
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var bookings []model.Booking
	if result := query.Order("check_in DESC").Find(&bookings); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list bookings"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": bookings})
}

// GetBooking returns one booking scoped to the tenant.
func GetBooking(c echo.Context) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid booking id"})
	}

	var booking model.Booking
	result := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&booking, uint(id))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "booking not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": booking})
}

// CreateBooking creates a booking for one of the tenant's properties.
// Pricing is computed from the property's static price components. The
// overlap invariant is enforced by the storage layer: if the booking is
// created in a slot-holding status and the window collides with another
// slot-holding booking, the insert fails atomically and is surfaced as a
// conflict, never retried.
func CreateBooking(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	var req struct {
		PropertyID uint        `json:"property_id"`
		Guest      model.Guest `json:"guest"`
		CheckIn    string      `json:"check_in"`
		CheckOut   string      `json:"check_out"`
		Confirm    bool        `json:"confirm"`
		Source     string      `json:"source"`
		ServiceFee float64     `json:"service_fee"`
		Taxes      float64     `json:"taxes"`
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
	if req.Guest.Name == "" || req.Guest.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "guest name and email are required"})
	}

	var property model.Property
	if result := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&property, req.PropertyID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "property not found"})
	}

	if req.Guest.Adults < 1 {
		req.Guest.Adults = 1
	}

	status := model.BookingPending
	if req.Confirm {
		status = model.BookingConfirmed
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	baseAmount := property.Pricing.BasePrice * float64(nights)
	booking := model.Booking{
		TenantID:   tenant.ID,
		PropertyID: property.ID,
		Guest:      req.Guest,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     status,
		Source:     req.Source,
		Pricing: model.BookingPricing{
			BaseAmount:  baseAmount,
			CleaningFee: property.Pricing.CleaningFee,
			ServiceFee:  req.ServiceFee,
			Taxes:       req.Taxes,
			TotalAmount: baseAmount + property.Pricing.CleaningFee + req.ServiceFee + req.Taxes,
			Currency:    property.Pricing.Currency,
		},
	}
	if booking.Source == "" {
		booking.Source = "direct"
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&booking); result.Error != nil {
		if database.IsBookingConflict(result.Error) {
			prometheus.BookingConflictCounter.Inc()
			log.Warn("Booking rejected by overlap constraint",
				zap.Uint("property_id", property.ID),
				zap.String("check_in", req.CheckIn),
				zap.String("check_out", req.CheckOut))
			return c.JSON(http.StatusConflict, echo.Map{
				"success": false,
				"code":    "booking_conflict",
				"message": "the property is already booked for these dates",
			})
		}
		log.Error("Failed to create booking", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "booking creation failed"})
	}

	log.Info("Booking created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("property_id", property.ID),
		zap.String("status", string(booking.Status)))

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "booking": booking})
}

// UpdateBookingStatus moves a booking through its lifecycle. Confirming a
// pending booking re-enters the overlap check at the storage layer, since
// only confirmed and checked_in bookings hold their slot.
func UpdateBookingStatus(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid booking id"})
	}

	var req struct {
		Status model.BookingStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	var booking model.Booking
	if result := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&booking, uint(id)); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "booking not found"})
	}

	if !booking.ValidTransition(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "cannot move booking from " + string(booking.Status) + " to " + string(req.Status),
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&booking).Update("status", req.Status); result.Error != nil {
		if database.IsBookingConflict(result.Error) {
			prometheus.BookingConflictCounter.Inc()
			log.Warn("Booking confirmation rejected by overlap constraint",
				zap.Uint("booking_id", booking.ID))
			return c.JSON(http.StatusConflict, echo.Map{
				"success": false,
				"code":    "booking_conflict",
				"message": "the property is already booked for these dates",
			})
		}
		log.Error("Failed to update booking status", zap.Uint("booking_id", booking.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "status update failed"})
	}

	booking.Status = req.Status
	log.Info("Booking status updated",
		zap.Uint("booking_id", booking.ID),
		zap.String("status", string(req.Status)))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": booking})
}
