package pricing_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"rental-api/internal/model"
	"rental-api/internal/pricing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMarketTrends_FallbackWhenUnconfigured(t *testing.T) {
	store := &fakeStore{
		property: baseProperty(),
		history: []model.Booking{
			{Pricing: model.BookingPricing{TotalAmount: 300}},
			{Pricing: model.BookingPricing{TotalAmount: 500}},
		},
	}
	advisor := pricing.NewAdvisor(store, unconfiguredClient(), nil, zap.NewNop())

	report, err := advisor.MarketTrends(context.Background(), 1, 1)
	require.NotNil(t, report)
	require.Error(t, err)
	require.True(t, errors.Is(err, pricing.ErrNotConfigured))

	require.Equal(t, pricing.FallbackMarketAnalysis(), report.Analysis)
	require.Equal(t, 2, report.DataPoints.RecentBookings)
	require.Equal(t, 400.0, report.DataPoints.AverageRate)
}

func TestMarketTrends_NoHistoryUsesBasePrice(t *testing.T) {
	advisor := pricing.NewAdvisor(&fakeStore{property: baseProperty()}, unconfiguredClient(), nil, zap.NewNop())

	report, _ := advisor.MarketTrends(context.Background(), 1, 1)
	require.Equal(t, 0, report.DataPoints.RecentBookings)
	require.Equal(t, 100.0, report.DataPoints.AverageRate)
}

func TestMarketTrends_ParsesAnalysis(t *testing.T) {
	client, closeFn := newGeminiServer(t, http.StatusOK,
		`{"demand_trend": "increasing", "seasonal_insights": ["Summer peak"], "recommendations": ["Raise weekend rates"], "opportunity_score": 88}`)
	defer closeFn()

	advisor := pricing.NewAdvisor(&fakeStore{property: baseProperty()}, client, nil, zap.NewNop())

	report, err := advisor.MarketTrends(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, "increasing", report.Analysis.DemandTrend)
	require.Equal(t, []string{"Summer peak"}, report.Analysis.SeasonalInsights)
	require.Equal(t, 88, report.Analysis.OpportunityScore)
}

func TestMarketTrends_ClampsOpportunityScore(t *testing.T) {
	client, closeFn := newGeminiServer(t, http.StatusOK,
		`{"demand_trend": "stable", "seasonal_insights": [], "recommendations": [], "opportunity_score": 500}`)
	defer closeFn()

	advisor := pricing.NewAdvisor(&fakeStore{property: baseProperty()}, client, nil, zap.NewNop())

	report, err := advisor.MarketTrends(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, 100, report.Analysis.OpportunityScore)
}

func TestMarketTrends_UnparseableResponseFallsBack(t *testing.T) {
	client, closeFn := newGeminiServer(t, http.StatusOK, "the market looks fine to me")
	defer closeFn()

	advisor := pricing.NewAdvisor(&fakeStore{property: baseProperty()}, client, nil, zap.NewNop())

	report, err := advisor.MarketTrends(context.Background(), 1, 1)
	require.NotNil(t, report)
	require.Error(t, err)
	require.Equal(t, pricing.FallbackMarketAnalysis(), report.Analysis)
}

func TestMarketTrends_PropertyNotFound(t *testing.T) {
	store := &fakeStore{propertyErr: errors.New("record not found")}
	advisor := pricing.NewAdvisor(store, unconfiguredClient(), nil, zap.NewNop())

	report, err := advisor.MarketTrends(context.Background(), 1, 99)
	require.Nil(t, report)
	require.Error(t, err)
}
