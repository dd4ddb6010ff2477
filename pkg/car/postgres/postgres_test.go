package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"carsapi/pkg/car"
)

// newTestRepository connects to CARS_TEST_DATABASE_URL and empties the cars
// table. The database is expected to be disposable.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("CARS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CARS_TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	repo := New(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE cars"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return repo
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	c, err := repo.Create(ctx, car.Car{Brand: "Kia", Model: "Seltos", Price: 300000000})
	if err != nil || c.ID != 1 {
		t.Fatalf("create: %+v err=%v", c, err)
	}
	if err := repo.Upsert(ctx, car.Car{ID: 40, Brand: "Mazda", Model: "CX5", Price: 2}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if c, _ := repo.Create(ctx, car.Car{Brand: "Kia", Model: "Rio", Price: 1}); c.ID != 41 {
		t.Fatalf("expected id 41, got %d", c.ID)
	}

	got, err := repo.Replace(ctx, 1, car.Car{ID: 99, Brand: "Kia", Model: "Sonet", Price: 5})
	if err != nil || got.ID != 1 {
		t.Fatalf("replace: %+v err=%v", got, err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 3 || list[0].Model != "Sonet" || list[1].ID != 40 {
		t.Fatalf("list: %+v err=%v", list, err)
	}

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, op := range []error{
		func() error { _, err := repo.Get(ctx, 1); return err }(),
		func() error { _, err := repo.Replace(ctx, 1, car.Car{Brand: "a", Model: "b"}); return err }(),
		repo.Delete(ctx, 1),
	} {
		if !errors.Is(op, car.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", op)
		}
	}
}

func TestCreateAfterNegativeIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	_ = repo.Upsert(ctx, car.Car{ID: -5, Brand: "Mazda", Model: "CX5", Price: 1})

	c, err := repo.Create(ctx, car.Car{Brand: "Kia", Model: "Rio", Price: 2})
	if err != nil || c.ID != -4 {
		t.Fatalf("expected id -4, got %+v err=%v", c, err)
	}
}
