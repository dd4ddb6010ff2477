package car

import (
	"context"
	"errors"
	"fmt"
)

// Car is a single vehicle listing.
type Car struct {
	ID    int64  `json:"id" example:"1"`
	Brand string `json:"brand" example:"Toyota"`
	Model string `json:"model" example:"Avanza"`
	Price int64  `json:"price" example:"250000000"`
}

// Repository defines the storage behavior every car backend provides.
//
// Create assigns a fresh id greater than every id currently stored.
// Replace keeps the lookup id regardless of the id carried by c.
// Upsert writes c under c.ID unconditionally.
type Repository interface {
	Create(ctx context.Context, c Car) (Car, error)
	List(ctx context.Context) ([]Car, error)
	Get(ctx context.Context, id int64) (Car, error)
	Replace(ctx context.Context, id int64, c Car) (Car, error)
	Delete(ctx context.Context, id int64) error
	Upsert(ctx context.Context, c Car) error
	Count(ctx context.Context) (int, error)
}

// ErrNotFound indicates the requested car does not exist.
var ErrNotFound = errors.New("car not found")

// NotFoundError reports the id that was looked up.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("car with id %d not found", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound returns the error backends use for a missing id.
func NotFound(id int64) error {
	return &NotFoundError{ID: id}
}

// Seed returns the records loaded at startup.
func Seed() []Car {
	return []Car{
		{ID: 1, Brand: "Toyota", Model: "Avanza", Price: 250000000},
		{ID: 2, Brand: "Honda", Model: "Brio", Price: 180000000},
	}
}
