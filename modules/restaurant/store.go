package restaurant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platekit/platekit/pkg/pg"
)

// Store performs all data access for the restaurant module. It is
// constructed per request from the handle the tenant scope resolved, so
// every query explicitly targets one tenant's database and nothing is
// rebound after construction.
type Store struct {
	db *pgxpool.Pool
}

// NewStore wraps the given tenant database handle.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateRestaurant(ctx context.Context, r *Restaurant) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.Exec(ctx, `
		INSERT INTO restaurants (id, name, address, phone, cost_for_two, pure_veg,
			serves_alcohol, wheelchair_accessible, cash_on_delivery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.Name, r.Address, r.Phone, r.CostForTwo, r.PureVeg,
		r.ServesAlcohol, r.WheelchairAccessible, r.CashOnDelivery, r.CreatedAt, r.UpdatedAt)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("create restaurant %q: %w", r.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}
	return nil
}

func (s *Store) GetRestaurant(ctx context.Context, id uuid.UUID) (*Restaurant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, address, phone, cost_for_two, pure_veg, serves_alcohol,
			wheelchair_accessible, cash_on_delivery, created_at, updated_at
		FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}

	r, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[Restaurant])
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return r, nil
}

func (s *Store) ListRestaurants(ctx context.Context) ([]*Restaurant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, address, phone, cost_for_two, pure_veg, serves_alcohol,
			wheelchair_accessible, cash_on_delivery, created_at, updated_at
		FROM restaurants ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}

	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Restaurant])
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return list, nil
}

func (s *Store) UpdateRestaurant(ctx context.Context, r *Restaurant) error {
	r.UpdatedAt = time.Now().UTC()

	tag, err := s.db.Exec(ctx, `
		UPDATE restaurants SET name = $2, address = $3, phone = $4, cost_for_two = $5,
			pure_veg = $6, serves_alcohol = $7, wheelchair_accessible = $8,
			cash_on_delivery = $9, updated_at = $10
		WHERE id = $1`,
		r.ID, r.Name, r.Address, r.Phone, r.CostForTwo, r.PureVeg,
		r.ServesAlcohol, r.WheelchairAccessible, r.CashOnDelivery, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateMenuItem(ctx context.Context, m *MenuItem) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx, `
		INSERT INTO menu_items (id, restaurant_id, name, category, price_cents, veg, available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.RestaurantID, m.Name, m.Category, m.PriceCents, m.Veg, m.Available, m.CreatedAt)
	if pg.IsForeignKeyViolationError(err) {
		return fmt.Errorf("create menu item: restaurant %s: %w", m.RestaurantID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

func (s *Store) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]*MenuItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, restaurant_id, name, category, price_cents, veg, available, created_at
		FROM menu_items WHERE restaurant_id = $1 ORDER BY category, name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}

	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[MenuItem])
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return list, nil
}

func (s *Store) CreateBooking(ctx context.Context, b *TableBooking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	b.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx, `
		INSERT INTO table_bookings (id, restaurant_id, customer_name, customer_phone,
			guest_count, booking_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.RestaurantID, b.CustomerName, b.CustomerPhone,
		b.GuestCount, b.BookingAt, b.Status, b.CreatedAt)
	if pg.IsForeignKeyViolationError(err) {
		return fmt.Errorf("create booking: restaurant %s: %w", b.RestaurantID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *Store) ListBookings(ctx context.Context, restaurantID uuid.UUID) ([]*TableBooking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, restaurant_id, customer_name, customer_phone, guest_count,
			booking_at, status, created_at
		FROM table_bookings WHERE restaurant_id = $1 ORDER BY booking_at`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[TableBooking])
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}
