package model

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PropertyType classifies the rental unit.
type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyVilla     PropertyType = "villa"
	PropertyStudio    PropertyType = "studio"
	PropertyRoom      PropertyType = "room"
)

// PricingStrategy biases the dynamic-pricing computation.
type PricingStrategy string

const (
	StrategyConservative PricingStrategy = "conservative"
	StrategyModerate     PricingStrategy = "moderate"
	StrategyAggressive   PricingStrategy = "aggressive"
)

// Address is the property location.
type Address struct {
	Street  string `json:"street" gorm:"type:varchar(255)"`
	City    string `json:"city" gorm:"type:varchar(100)"`
	State   string `json:"state" gorm:"type:varchar(100)"`
	ZipCode string `json:"zip_code" gorm:"type:varchar(20)"`
	Country string `json:"country" gorm:"type:varchar(2);default:'US'"`
}

// PropertyPricing holds the static price components of a property.
type PropertyPricing struct {
	BasePrice       float64 `json:"base_price" gorm:"not null"`
	Currency        string  `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	CleaningFee     float64 `json:"cleaning_fee" gorm:"default:0"`
	SecurityDeposit float64 `json:"security_deposit" gorm:"default:0"`
	WeeklyDiscount  float64 `json:"weekly_discount" gorm:"default:0"`
	MonthlyDiscount float64 `json:"monthly_discount" gorm:"default:0"`
}

// DynamicPricing holds the bounds and bias fed to the pricing advisor.
// Zero-valued bounds fall back to 70%-200% of the base price.
type DynamicPricing struct {
	Enabled  bool            `json:"enabled" gorm:"default:false"`
	MinPrice float64         `json:"min_price" gorm:"default:0"`
	MaxPrice float64         `json:"max_price" gorm:"default:0"`
	Strategy PricingStrategy `json:"strategy" gorm:"type:varchar(20);default:'moderate'"`
}

// Property is a rental unit owned by one tenant.
type Property struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	TenantID       uint            `json:"tenant_id" gorm:"index;not null"`
	Name           string          `json:"name" gorm:"type:varchar(100);not null"`
	Description    string          `json:"description" gorm:"type:text"`
	Type           PropertyType    `json:"type" gorm:"type:varchar(20);not null"`
	Address        Address         `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Amenities      pq.StringArray  `json:"amenities" gorm:"type:text[]"`
	Bedrooms       int             `json:"bedrooms" gorm:"default:0"`
	Bathrooms      int             `json:"bathrooms" gorm:"default:0"`
	MaxGuests      int             `json:"max_guests" gorm:"default:1"`
	Pricing        PropertyPricing `json:"pricing" gorm:"embedded;embeddedPrefix:pricing_"`
	DynamicPricing DynamicPricing  `json:"dynamic_pricing" gorm:"embedded;embeddedPrefix:dynamic_pricing_"`
	Active         bool            `json:"active" gorm:"default:true"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

// PriceBounds returns the dynamic-pricing floor and ceiling, defaulting to
// 70% and 200% of the base price when not configured on the property.
func (p *Property) PriceBounds() (min, max float64) {
	min = p.DynamicPricing.MinPrice
	if min <= 0 {
		min = p.Pricing.BasePrice * 0.7
	}
	max = p.DynamicPricing.MaxPrice
	if max <= 0 {
		max = p.Pricing.BasePrice * 2.0
	}
	return min, max
}

// FullAddress renders the single-line address. Derived on demand rather
// than stored, so it cannot drift from the component fields.
func (p *Property) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s %s, %s",
		p.Address.Street, p.Address.City, p.Address.State, p.Address.ZipCode, p.Address.Country)
}
