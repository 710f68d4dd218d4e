package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rental-api/internal/handler"
	"rental-api/internal/middleware"
	"rental-api/internal/model"
	"rental-api/internal/pricing"
	"rental-api/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubPricingStore struct {
	propertyErr error
}

func (s *stubPricingStore) FindProperty(tenantID, propertyID uint) (*model.Property, error) {
	return nil, s.propertyErr
}

func (s *stubPricingStore) HistoricalBookings(propertyID uint, since time.Time) ([]model.Booking, error) {
	return nil, nil
}

func newPricingHandler(storeErr error) *handler.PricingHandler {
	advisor := pricing.NewAdvisor(
		&stubPricingStore{propertyErr: storeErr},
		pricing.NewGeminiClient(&config.AIConfig{Timeout: time.Second}),
		nil,
		zap.NewNop(),
	)
	return handler.NewPricingHandler(advisor)
}

func newAIContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/pricing", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextTenantKey, &model.Tenant{ID: 1, Status: model.TenantActive})
	return c, rec
}

func TestRecommend_UnknownPropertyIs404(t *testing.T) {
	h := newPricingHandler(gorm.ErrRecordNotFound)

	c, rec := newAIContext(`{"property_id": 9, "check_in": "2025-07-12", "check_out": "2025-07-14"}`)
	require.NoError(t, h.Recommend(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "property not found")
}

func TestRecommend_StoreFailureIs500(t *testing.T) {
	h := newPricingHandler(errors.New("connection refused"))

	c, rec := newAIContext(`{"property_id": 9, "check_in": "2025-07-12", "check_out": "2025-07-14"}`)
	require.NoError(t, h.Recommend(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "property lookup failed")
}

func TestRecommend_RejectsInvertedDates(t *testing.T) {
	h := newPricingHandler(nil)

	c, rec := newAIContext(`{"property_id": 9, "check_in": "2025-07-14", "check_out": "2025-07-12"}`)
	require.NoError(t, h.Recommend(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketTrends_UnknownPropertyIs404(t *testing.T) {
	h := newPricingHandler(gorm.ErrRecordNotFound)

	c, rec := newAIContext(`{"property_id": 9}`)
	require.NoError(t, h.MarketTrends(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarketTrends_StoreFailureIs500(t *testing.T) {
	h := newPricingHandler(errors.New("connection refused"))

	c, rec := newAIContext(`{"property_id": 9}`)
	require.NoError(t, h.MarketTrends(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGuestMessage_RejectsUnknownType(t *testing.T) {
	h := newPricingHandler(nil)

	c, rec := newAIContext(`{"type": "spam", "context": {}}`)
	require.NoError(t, h.GuestMessage(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown message type")
}
