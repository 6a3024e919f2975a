package restaurant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record does not exist in the
	// current tenant's database.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("record already exists")
)

// Restaurant is one venue belonging to the current tenant.
type Restaurant struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Address              string    `db:"address" json:"address"`
	Phone                string    `db:"phone" json:"phone"`
	CostForTwo           int       `db:"cost_for_two" json:"cost_for_two"`
	PureVeg              bool      `db:"pure_veg" json:"pure_veg"`
	ServesAlcohol        bool      `db:"serves_alcohol" json:"serves_alcohol"`
	WheelchairAccessible bool      `db:"wheelchair_accessible" json:"wheelchair_accessible"`
	CashOnDelivery       bool      `db:"cash_on_delivery" json:"cash_on_delivery"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// MenuItem is a dish on a restaurant's menu.
type MenuItem struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RestaurantID uuid.UUID `db:"restaurant_id" json:"restaurant_id"`
	Name         string    `db:"name" json:"name"`
	Category     string    `db:"category" json:"category"`
	PriceCents   int64     `db:"price_cents" json:"price_cents"`
	Veg          bool      `db:"veg" json:"veg"`
	Available    bool      `db:"available" json:"available"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TableBooking is a reservation at a restaurant.
type TableBooking struct {
	ID            uuid.UUID `db:"id" json:"id"`
	RestaurantID  uuid.UUID `db:"restaurant_id" json:"restaurant_id"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerPhone string    `db:"customer_phone" json:"customer_phone"`
	GuestCount    int       `db:"guest_count" json:"guest_count"`
	BookingAt     time.Time `db:"booking_at" json:"booking_at"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)
