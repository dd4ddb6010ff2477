package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carsapi/pkg/car"
)

// Schema creates the cars table. seq preserves first-insert order for List.
const Schema = `CREATE TABLE IF NOT EXISTS cars (
	id BIGINT PRIMARY KEY,
	brand TEXT NOT NULL,
	model TEXT NOT NULL,
	price BIGINT NOT NULL,
	seq BIGSERIAL
)`

// Repository persists cars in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate ensures the cars table exists.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

// Create inserts c under max(id)+1. The table lock serializes allocation.
func (r *Repository) Create(ctx context.Context, c car.Car) (car.Car, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return car.Car{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "LOCK TABLE cars IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return car.Car{}, fmt.Errorf("lock cars: %w", err)
	}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO cars (id,brand,model,price) SELECT COALESCE(MAX(id),0)+1,$1,$2,$3 FROM cars RETURNING id",
		c.Brand, c.Model, c.Price).Scan(&c.ID)
	if err != nil {
		return car.Car{}, err
	}
	return c, tx.Commit()
}

// Get retrieves a car by ID.
func (r *Repository) Get(ctx context.Context, id int64) (car.Car, error) {
	var c car.Car
	err := r.db.QueryRowContext(ctx, "SELECT id,brand,model,price FROM cars WHERE id=$1", id).Scan(&c.ID, &c.Brand, &c.Model, &c.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return car.Car{}, car.NotFound(id)
	}
	return c, err
}

// List fetches all cars.
func (r *Repository) List(ctx context.Context) ([]car.Car, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id,brand,model,price FROM cars ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cars []car.Car
	for rows.Next() {
		var c car.Car
		if err := rows.Scan(&c.ID, &c.Brand, &c.Model, &c.Price); err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

// Replace updates an existing car.
func (r *Repository) Replace(ctx context.Context, id int64, c car.Car) (car.Car, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE cars SET brand=$2, model=$3, price=$4 WHERE id=$1", id, c.Brand, c.Model, c.Price)
	if err != nil {
		return car.Car{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return car.Car{}, car.NotFound(id)
	}
	c.ID = id
	return c, nil
}

// Delete removes a car by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cars WHERE id=$1", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return car.NotFound(id)
	}
	return nil
}

// Upsert inserts c or overwrites the car with the same ID.
func (r *Repository) Upsert(ctx context.Context, c car.Car) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO cars (id,brand,model,price) VALUES ($1,$2,$3,$4) ON CONFLICT (id) DO UPDATE SET brand=EXCLUDED.brand, model=EXCLUDED.model, price=EXCLUDED.price",
		c.ID, c.Brand, c.Model, c.Price)
	return err
}

// Count returns the number of stored cars.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cars").Scan(&n)
	return n, err
}
