// Package memory implements an in-memory car repository.
package memory

import (
	"context"
	"sync"

	"carsapi/pkg/car"
)

// Repository provides an in-memory implementation of car.Repository.
// List returns cars in the order their ids were first stored.
type Repository struct {
	mu    sync.RWMutex
	cars  map[int64]car.Car
	order []int64
}

// New creates an empty in-memory repository.
func New() *Repository {
	return &Repository{cars: make(map[int64]car.Car)}
}

// NewSeeded creates a repository holding the given cars.
func NewSeeded(cars ...car.Car) *Repository {
	r := New()
	for _, c := range cars {
		r.put(c)
	}
	return r
}

// Create stores c under max(existing ids)+1, or 1 when empty.
func (r *Repository) Create(ctx context.Context, c car.Car) (car.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var top int64
	for i, id := range r.order {
		if i == 0 || id > top {
			top = id
		}
	}
	c.ID = top + 1
	r.put(c)
	return c, nil
}

// List returns all cars.
func (r *Repository) List(ctx context.Context) ([]car.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]car.Car, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.cars[id])
	}
	return out, nil
}

// Get retrieves a car by ID.
func (r *Repository) Get(ctx context.Context, id int64) (car.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cars[id]
	if !ok {
		return car.Car{}, car.NotFound(id)
	}
	return c, nil
}

// Replace overwrites an existing car, forcing its ID to id.
func (r *Repository) Replace(ctx context.Context, id int64, c car.Car) (car.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cars[id]; !ok {
		return car.Car{}, car.NotFound(id)
	}
	c.ID = id
	r.cars[id] = c
	return c, nil
}

// Delete removes a car by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cars[id]; !ok {
		return car.NotFound(id)
	}
	delete(r.cars, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Upsert stores c under c.ID, overwriting any existing car.
func (r *Repository) Upsert(ctx context.Context, c car.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(c)
	return nil
}

// Count returns the number of stored cars.
func (r *Repository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cars), nil
}

// put must be called with mu held for writing.
func (r *Repository) put(c car.Car) {
	if _, ok := r.cars[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.cars[c.ID] = c
}
