package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"rental-api/internal/model"
	"rental-api/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Season classifies a check-in date by calendar month. Fixed table, not
// learned: summer and the winter holidays are peak, spring is shoulder,
// fall is low.
type Season string

const (
	SeasonPeak     Season = "peak"
	SeasonShoulder Season = "shoulder"
	SeasonLow      Season = "low"
)

// SeasonOf returns the season for a date.
func SeasonOf(t time.Time) Season {
	switch m := t.Month(); {
	case m >= time.June && m <= time.August:
		return SeasonPeak
	case m == time.December || m <= time.February:
		return SeasonPeak
	case m >= time.March && m <= time.May:
		return SeasonShoulder
	default:
		return SeasonLow
	}
}

// FallbackConfidence is the fixed confidence score of a rule-based result.
const FallbackConfidence = 75

const fallbackReasoning = "Rule-based pricing fallback due to AI service unavailability"

// Recommendation is the advisor's answer: a nightly rate with a confidence
// score and human-readable factors.
type Recommendation struct {
	RecommendedRate  float64  `json:"recommended_rate"`
	Confidence       int      `json:"confidence"`
	Factors          []string `json:"factors"`
	OptimizationTips []string `json:"optimization_tips"`
	Reasoning        string   `json:"reasoning"`
	Fallback         bool     `json:"fallback"`
}

// MarketData is the derived context the recommendation was computed from.
type MarketData struct {
	Season       Season  `json:"season"`
	IsWeekend    bool    `json:"is_weekend"`
	Nights       int     `json:"nights"`
	AveragePrice float64 `json:"average_price"`
	BasePrice    float64 `json:"base_price"`
}

// Result pairs a recommendation with its market context.
type Result struct {
	Recommendation Recommendation `json:"pricing"`
	Market         MarketData     `json:"market_data"`
}

// Store loads the property and its booking history for a recommendation.
type Store interface {
	FindProperty(tenantID, propertyID uint) (*model.Property, error)
	HistoricalBookings(propertyID uint, since time.Time) ([]model.Booking, error)
}

// GormStore is the database-backed Store. History is limited to bookings
// that actually generated revenue: confirmed or checked_out.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) FindProperty(tenantID, propertyID uint) (*model.Property, error) {
	var property model.Property
	err := s.DB.Where("tenant_id = ?", tenantID).First(&property, propertyID).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (s *GormStore) HistoricalBookings(propertyID uint, since time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.DB.
		Where("property_id = ? AND check_in >= ? AND status IN ?",
			propertyID, since, []model.BookingStatus{model.BookingConfirmed, model.BookingCheckedOut}).
		Order("check_in DESC").
		Find(&bookings).Error
	return bookings, err
}

// Advisor produces nightly-rate recommendations. Every code path returns a
// usable recommendation: when the external generative service fails, is
// unparseable, or is not configured, the deterministic rule-based rate is
// returned and the cause is reported alongside as an advisory error.
type Advisor struct {
	store  Store
	gemini *GeminiClient
	cache  *Cache
	log    *zap.Logger
}

// NewAdvisor creates a pricing advisor. cache may be nil.
func NewAdvisor(store Store, gemini *GeminiClient, cache *Cache, log *zap.Logger) *Advisor {
	return &Advisor{store: store, gemini: gemini, cache: cache, log: log}
}

// Recommend runs the gather/classify/generate/validate pipeline for a
// property and date range. The returned error is advisory: it is non-nil
// only when the external service failed and the result fell back to the
// rule-based rate. A nil Result means the property could not be loaded.
func (a *Advisor) Recommend(ctx context.Context, tenantID, propertyID uint, checkIn, checkOut time.Time) (*Result, error) {
	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, cacheKey(propertyID, checkIn, checkOut)); ok {
			prometheus.RecordPricingOutcome("cache")
			return cached, nil
		}
	}

	// Gather
	property, err := a.store.FindProperty(tenantID, propertyID)
	if err != nil {
		return nil, err
	}

	history, err := a.store.HistoricalBookings(propertyID, checkIn.AddDate(-1, 0, 0))
	if err != nil {
		// History is an input to the prompt, not a precondition; price
		// from the base price alone.
		a.log.Warn("Failed to load booking history", zap.Uint("property_id", propertyID), zap.Error(err))
		history = nil
	}

	averagePrice := property.Pricing.BasePrice
	if len(history) > 0 {
		var sum float64
		for _, b := range history {
			sum += b.Pricing.BaseAmount
		}
		averagePrice = sum / float64(len(history))
	}

	// Classify context
	market := MarketData{
		Season:       SeasonOf(checkIn),
		IsWeekend:    isWeekend(checkIn),
		Nights:       nightsBetween(checkIn, checkOut),
		AveragePrice: averagePrice,
		BasePrice:    property.Pricing.BasePrice,
	}

	// Generate
	rec, genErr := a.generate(ctx, property, market, len(history), checkIn, checkOut)
	if genErr != nil {
		rec = RuleBasedRecommendation(property, market)
		prometheus.RecordPricingOutcome("fallback")
		a.log.Warn("Pricing generation fell back to rule-based rate",
			zap.Uint("property_id", propertyID), zap.Error(genErr))
		genErr = fmt.Errorf("pricing service unavailable: %w", genErr)
	} else {
		prometheus.RecordPricingOutcome("ai")
	}

	// Validate: clamp into the property's configured bounds
	min, max := property.PriceBounds()
	rec.RecommendedRate = clamp(rec.RecommendedRate, min, max)
	if rec.Confidence < 1 {
		rec.Confidence = 1
	} else if rec.Confidence > 100 {
		rec.Confidence = 100
	}

	result := &Result{Recommendation: rec, Market: market}

	if a.cache != nil && genErr == nil {
		a.cache.Set(ctx, cacheKey(propertyID, checkIn, checkOut), result)
	}

	return result, genErr
}

func (a *Advisor) generate(ctx context.Context, property *model.Property, market MarketData, historyCount int, checkIn, checkOut time.Time) (Recommendation, error) {
	if !a.gemini.Enabled() {
		return Recommendation{}, ErrNotConfigured
	}

	start := time.Now()
	text, err := a.gemini.GenerateContent(ctx, buildPrompt(property, market, historyCount, checkIn, checkOut))
	prometheus.PricingCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Recommendation{}, err
	}

	rec, err := parseRecommendation(text)
	if err != nil {
		return Recommendation{}, err
	}
	return rec, nil
}

func buildPrompt(p *model.Property, market MarketData, historyCount int, checkIn, checkOut time.Time) string {
	var b strings.Builder
	b.WriteString("As an expert revenue management AI for short-term rentals, analyze the following data and provide pricing recommendations:\n\n")
	fmt.Fprintf(&b, "Property:\n- Type: %s\n- Location: %s, %s\n- Base Price: $%.2f\n- Bedrooms: %d\n- Max Guests: %d\n- Amenities: %s\n\n",
		p.Type, p.Address.City, p.Address.State, p.Pricing.BasePrice, p.Bedrooms, p.MaxGuests, strings.Join(p.Amenities, ", "))
	fmt.Fprintf(&b, "Historical Performance:\n- Total Historical Bookings: %d\n- Average Historical Price: $%.2f\n- Pricing Strategy: %s\n\n",
		historyCount, market.AveragePrice, p.DynamicPricing.Strategy)
	fmt.Fprintf(&b, "Booking Request:\n- Check-in: %s\n- Check-out: %s\n- Number of Nights: %d\n- Season: %s\n- Is Weekend: %t\n\n",
		checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"), market.Nights, market.Season, market.IsWeekend)
	b.WriteString("Respond in JSON format:\n")
	b.WriteString(`{"recommended_rate": number, "confidence": number (1-100), "factors": ["..."], "optimization_tips": ["..."], "reasoning": "..."}`)
	return b.String()
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// parseRecommendation extracts the first JSON object from the model's text
// output. Generative responses often wrap the JSON in prose or code fences.
func parseRecommendation(text string) (Recommendation, error) {
	raw := jsonObjectPattern.FindString(text)
	if raw == "" {
		return Recommendation{}, fmt.Errorf("no JSON object in pricing response")
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Recommendation{}, fmt.Errorf("unparseable pricing response: %w", err)
	}
	if rec.RecommendedRate <= 0 {
		return Recommendation{}, fmt.Errorf("pricing response missing recommended rate")
	}
	return rec, nil
}

// RuleBasedRecommendation computes the deterministic fallback rate by
// applying fixed multiplicative adjustments to the base price, in order:
// weekend, season, length of stay, strategy bias.
func RuleBasedRecommendation(p *model.Property, market MarketData) Recommendation {
	rate := p.Pricing.BasePrice
	var factors []string
	var tips []string

	if market.IsWeekend {
		rate *= 1.2
		factors = append(factors, "Weekend premium (+20%)")
	}

	switch market.Season {
	case SeasonPeak:
		rate *= 1.3
		factors = append(factors, "Peak season (+30%)")
	case SeasonLow:
		rate *= 0.8
		factors = append(factors, "Low season (-20%)")
		tips = append(tips, "Consider promotional pricing for longer stays")
	}

	if market.Nights >= 28 {
		rate *= 0.8
		factors = append(factors, "Monthly discount (-20%)")
	} else if market.Nights >= 7 {
		rate *= 0.9
		factors = append(factors, "Weekly discount (-10%)")
	}

	switch p.DynamicPricing.Strategy {
	case model.StrategyAggressive:
		rate *= 1.1
		factors = append(factors, "Aggressive pricing strategy (+10%)")
	case model.StrategyConservative:
		rate *= 0.95
		factors = append(factors, "Conservative pricing strategy (-5%)")
	}

	return Recommendation{
		RecommendedRate:  math.Round(rate),
		Confidence:       FallbackConfidence,
		Factors:          factors,
		OptimizationTips: tips,
		Reasoning:        fallbackReasoning,
		Fallback:         true,
	}
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func nightsBetween(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

func cacheKey(propertyID uint, checkIn, checkOut time.Time) string {
	return fmt.Sprintf("pricing:%d:%s:%s",
		propertyID, checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
}
