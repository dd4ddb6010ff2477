package car

import (
	"context"
	"fmt"
)

// Deleted acknowledges a successful delete.
type Deleted struct {
	ID      int64  `json:"-"`
	Message string `json:"message"`
}

// Service exposes create/read/update/delete on top of a Repository.
type Service struct {
	repo Repository
}

// NewService returns a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores p under a newly allocated id. Any id in p is ignored.
func (s *Service) Create(ctx context.Context, p Payload) (Car, error) {
	c, err := p.Car()
	if err != nil {
		return Car{}, err
	}
	return s.repo.Create(ctx, c)
}

// List returns every stored car. The result is never nil.
func (s *Service) List(ctx context.Context) ([]Car, error) {
	cars, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if cars == nil {
		cars = []Car{}
	}
	return cars, nil
}

// Get returns the car stored under id.
func (s *Service) Get(ctx context.Context, id int64) (Car, error) {
	return s.repo.Get(ctx, id)
}

// Update replaces brand, model and price of the car stored under id.
// The stored id always equals id.
func (s *Service) Update(ctx context.Context, id int64, p Payload) (Car, error) {
	c, err := p.Car()
	if err != nil {
		return Car{}, err
	}
	return s.repo.Replace(ctx, id, c)
}

// Delete removes the car stored under id.
func (s *Service) Delete(ctx context.Context, id int64) (Deleted, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return Deleted{}, err
	}
	return Deleted{ID: id, Message: fmt.Sprintf("car with id %d deleted", id)}, nil
}

// Count reports how many cars are stored.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Repository returns the backing store, used by bulk loaders.
func (s *Service) Repository() Repository {
	return s.repo
}
