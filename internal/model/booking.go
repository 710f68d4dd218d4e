package model

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus is the lifecycle state of a booking. Only confirmed and
// checked_in bookings hold their date slot; pending bookings do not.
type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked_in"
	BookingCheckedOut BookingStatus = "checked_out"
	BookingCancelled  BookingStatus = "cancelled"
)

// SlotHolding reports whether a booking in this status occupies its
// [check-in, check-out) window for overlap purposes.
func (s BookingStatus) SlotHolding() bool {
	return s == BookingConfirmed || s == BookingCheckedIn
}

// BookingPricing holds the monetary breakdown of a booking.
type BookingPricing struct {
	BaseAmount  float64 `json:"base_amount" gorm:"not null"`
	CleaningFee float64 `json:"cleaning_fee" gorm:"default:0"`
	ServiceFee  float64 `json:"service_fee" gorm:"default:0"`
	Taxes       float64 `json:"taxes" gorm:"default:0"`
	TotalAmount float64 `json:"total_amount" gorm:"not null"`
	Currency    string  `json:"currency" gorm:"type:varchar(3);default:'USD'"`
}

// Guest holds the booking contact.
type Guest struct {
	Name     string `json:"name" gorm:"type:varchar(100);not null"`
	Email    string `json:"email" gorm:"type:varchar(100);not null"`
	Phone    string `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Adults   int    `json:"adults" gorm:"default:1"`
	Children int    `json:"children" gorm:"default:0"`
}

// Booking reserves a property for a half-open [check-in, check-out) window.
// The overlap invariant for slot-holding bookings is enforced by a Postgres
// exclusion constraint (see database.Initialize), not by application locks,
// so racing writers are serialized at the storage boundary.
type Booking struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	PropertyID uint           `json:"property_id" gorm:"index;not null"`
	Guest      Guest          `json:"guest" gorm:"embedded;embeddedPrefix:guest_"`
	CheckIn    time.Time      `json:"check_in" gorm:"type:date;not null"`
	CheckOut   time.Time      `json:"check_out" gorm:"type:date;not null"`
	Pricing    BookingPricing `json:"pricing" gorm:"embedded;embeddedPrefix:pricing_"`
	Status     BookingStatus  `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Source     string         `json:"source" gorm:"type:varchar(20);default:'direct'"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Property Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}

// Nights returns the stay length in whole nights.
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Overlaps reports whether two bookings' half-open windows intersect.
// A check-out day may coincide with another booking's check-in day.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(b.CheckOut)
}

// ValidTransition reports whether a booking may move from its current
// status to the requested one.
func (b *Booking) ValidTransition(to BookingStatus) bool {
	switch b.Status {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCheckedIn || to == BookingCancelled
	case BookingCheckedIn:
		return to == BookingCheckedOut
	default:
		return false
	}
}
