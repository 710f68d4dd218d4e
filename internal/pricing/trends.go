package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rental-api/internal/model"
	"rental-api/prometheus"

	"go.uber.org/zap"
)

// trendWindowMonths is how far back the market analysis looks.
const trendWindowMonths = 3

// MarketAnalysis summarizes demand and competitive positioning for one
// property.
type MarketAnalysis struct {
	DemandTrend      string   `json:"demand_trend"`
	SeasonalInsights []string `json:"seasonal_insights"`
	Recommendations  []string `json:"recommendations"`
	OpportunityScore int      `json:"opportunity_score"`
}

// TrendDataPoints are the observed inputs behind an analysis.
type TrendDataPoints struct {
	RecentBookings int     `json:"recent_bookings"`
	AverageRate    float64 `json:"average_rate"`
}

// TrendReport pairs a market analysis with its data points.
type TrendReport struct {
	Analysis   MarketAnalysis  `json:"analysis"`
	DataPoints TrendDataPoints `json:"data_points"`
}

// MarketTrends analyzes recent booking performance for a property. Same
// degrade shape as Recommend: when the external service fails the fixed
// analysis is returned and the cause rides alongside as an advisory error.
// A nil report means the property could not be loaded.
func (a *Advisor) MarketTrends(ctx context.Context, tenantID, propertyID uint) (*TrendReport, error) {
	property, err := a.store.FindProperty(tenantID, propertyID)
	if err != nil {
		return nil, err
	}

	recent, err := a.store.HistoricalBookings(propertyID, time.Now().AddDate(0, -trendWindowMonths, 0))
	if err != nil {
		a.log.Warn("Failed to load recent bookings", zap.Uint("property_id", propertyID), zap.Error(err))
		recent = nil
	}

	averageRate := property.Pricing.BasePrice
	if len(recent) > 0 {
		var sum float64
		for _, b := range recent {
			sum += b.Pricing.TotalAmount
		}
		averageRate = sum / float64(len(recent))
	}

	analysis, genErr := a.analyzeTrends(ctx, property, len(recent), averageRate)
	if genErr != nil {
		analysis = FallbackMarketAnalysis()
		prometheus.RecordAnalysisOutcome("fallback")
		a.log.Warn("Market analysis fell back to fixed insights",
			zap.Uint("property_id", propertyID), zap.Error(genErr))
		genErr = fmt.Errorf("market analysis unavailable: %w", genErr)
	} else {
		prometheus.RecordAnalysisOutcome("ai")
	}

	if analysis.OpportunityScore < 1 {
		analysis.OpportunityScore = 1
	} else if analysis.OpportunityScore > 100 {
		analysis.OpportunityScore = 100
	}

	return &TrendReport{
		Analysis:   analysis,
		DataPoints: TrendDataPoints{RecentBookings: len(recent), AverageRate: averageRate},
	}, genErr
}

func (a *Advisor) analyzeTrends(ctx context.Context, property *model.Property, recentCount int, averageRate float64) (MarketAnalysis, error) {
	if !a.gemini.Enabled() {
		return MarketAnalysis{}, ErrNotConfigured
	}

	text, err := a.gemini.GenerateContent(ctx, buildTrendPrompt(property, recentCount, averageRate))
	if err != nil {
		return MarketAnalysis{}, err
	}
	return parseAnalysis(text)
}

func buildTrendPrompt(p *model.Property, recentCount int, averageRate float64) string {
	var b strings.Builder
	b.WriteString("Analyze market trends for this short-term rental property:\n\n")
	fmt.Fprintf(&b, "Property:\n- Location: %s, %s\n- Type: %s\n- Capacity: %d guests, %d bedrooms\n\n",
		p.Address.City, p.Address.State, p.Type, p.MaxGuests, p.Bedrooms)
	fmt.Fprintf(&b, "Recent Performance (last %d months):\n- Total Bookings: %d\n- Average Rate: $%.2f\n\n",
		trendWindowMonths, recentCount, averageRate)
	b.WriteString("Provide insights on demand trends, seasonal patterns, competitive positioning and revenue opportunities.\n")
	b.WriteString("Respond in JSON format:\n")
	b.WriteString(`{"demand_trend": "increasing|stable|decreasing", "seasonal_insights": ["..."], "recommendations": ["..."], "opportunity_score": number (1-100)}`)
	return b.String()
}

func parseAnalysis(text string) (MarketAnalysis, error) {
	raw := jsonObjectPattern.FindString(text)
	if raw == "" {
		return MarketAnalysis{}, fmt.Errorf("no JSON object in analysis response")
	}

	var analysis MarketAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return MarketAnalysis{}, fmt.Errorf("unparseable analysis response: %w", err)
	}
	if analysis.DemandTrend == "" {
		return MarketAnalysis{}, fmt.Errorf("analysis response missing demand trend")
	}
	return analysis, nil
}

// FallbackMarketAnalysis is the fixed analysis used when the external
// service cannot be reached.
func FallbackMarketAnalysis() MarketAnalysis {
	return MarketAnalysis{
		DemandTrend: "stable",
		SeasonalInsights: []string{
			"Summer months typically show higher demand",
			"Weekend bookings tend to have premium pricing opportunities",
		},
		Recommendations: []string{
			"Monitor competitor pricing regularly",
			"Consider implementing dynamic pricing for weekends",
			"Optimize listing photos and description for better conversion",
		},
		OpportunityScore: 75,
	}
}
