package ingest

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"carsapi/pkg/car"
	"carsapi/pkg/car/memory"
)

func TestLoadSingleRow(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	res, err := Load(ctx, repo, "cars.csv", []byte("id,brand,model,price\n5,Mazda,CX5,300000000\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Loaded != 1 || res.Filename != "cars.csv" {
		t.Fatalf("unexpected result %+v", res)
	}
	got, err := repo.Get(ctx, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := car.Car{ID: 5, Brand: "Mazda", Model: "CX5", Price: 300000000}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestLoadRejectsSuffix(t *testing.T) {
	tests := []string{"data.txt", "cars.CSV", "cars.csv.bak", "csv"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			repo := memory.New()
			_, err := Load(context.Background(), repo, name, []byte("id,brand,model,price\n1,a,b,2\n"))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat, got %v", err)
			}
			if n, _ := repo.Count(context.Background()); n != 0 {
				t.Fatalf("no row may be read, got %d", n)
			}
		})
	}
}

func TestLoadRejectsInvalidUTF8(t *testing.T) {
	_, err := Load(context.Background(), memory.New(), "cars.csv", []byte("id,brand,model,price\n1,caf\xe9,b,2\n"))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestLoadHaltsOnFirstBadRow(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	doc := "id,brand,model,price\n" +
		"10,Toyota,Yaris,1\n" +
		"11,Honda,Civic,2\n" +
		"12,Kia,Rio,abc\n" +
		"13,Suzuki,Ertiga,4\n"

	res, err := Load(ctx, repo, "cars.csv", []byte(doc))
	if !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}
	var re *RowError
	if !errors.As(err, &re) || re.Field != "price" || re.Line != 4 {
		t.Fatalf("unexpected row error %#v", err)
	}
	var ne *strconv.NumError
	if !errors.As(err, &ne) {
		t.Fatalf("expected parse cause, got %v", err)
	}
	if res.Loaded != 2 {
		t.Fatalf("expected 2 rows merged before failure, got %d", res.Loaded)
	}
	for _, id := range []int64{10, 11} {
		if _, err := repo.Get(ctx, id); err != nil {
			t.Fatalf("row %d should stay merged: %v", id, err)
		}
	}
	for _, id := range []int64{12, 13} {
		if _, err := repo.Get(ctx, id); !errors.Is(err, car.ErrNotFound) {
			t.Fatalf("row %d should be absent, got %v", id, err)
		}
	}
}

func TestLoadRowErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
		cause error
	}{
		{"missing column", "id,brand,price\n1,Toyota,2\n", "model", ErrMissingField},
		{"short row", "id,brand,model,price\n1,Toyota,Yaris\n", "price", ErrMissingField},
		{"bad id", "id,brand,model,price\nx,Toyota,Yaris,1\n", "id", strconv.ErrSyntax},
		{"empty id", "id,brand,model,price\n,Toyota,Yaris,1\n", "id", strconv.ErrSyntax},
		{"fractional price", "id,brand,model,price\n1,Toyota,Yaris,1.5\n", "price", strconv.ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Load(context.Background(), memory.New(), "cars.csv", []byte(tt.doc))
			var re *RowError
			if !errors.As(err, &re) {
				t.Fatalf("expected RowError, got %v", err)
			}
			if re.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, re.Field)
			}
			if !errors.Is(err, tt.cause) {
				t.Fatalf("expected cause %v, got %v", tt.cause, err)
			}
			if res.Loaded != 0 {
				t.Fatalf("expected nothing loaded, got %d", res.Loaded)
			}
		})
	}
}

func TestLoadHeaderVariants(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSeeded(car.Seed()...)
	doc := "\ufeffprice, model ,color,brand,id\n" +
		" 99 ,Avanza Veloz,red,Toyota, 1 \n" +
		"\n" +
		"5,Jazz,blue,Honda,7\n"

	res, err := Load(ctx, repo, "fleet.csv", []byte(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Loaded != 2 {
		t.Fatalf("expected 2 loaded, got %d", res.Loaded)
	}
	got, _ := repo.Get(ctx, 1)
	if got.Model != "Avanza Veloz" || got.Price != 99 {
		t.Fatalf("collision should overwrite, got %+v", got)
	}
	if n, _ := repo.Count(ctx); n != 3 {
		t.Fatalf("expected 3 cars, got %d", n)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "id,brand,model,price\n"} {
		res, err := Load(context.Background(), memory.New(), "empty.csv", []byte(doc))
		if err != nil || res.Loaded != 0 {
			t.Fatalf("doc %q: expected 0 loaded, got %+v err=%v", doc, res, err)
		}
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Load(ctx, memory.New(), "cars.csv", []byte("id,brand,model,price\n1,a,b,2\n"))
	if !errors.Is(err, context.Canceled) || res.Loaded != 0 {
		t.Fatalf("expected cancellation, got %+v err=%v", res, err)
	}
}

type failingStore struct{ err error }

func (f failingStore) Upsert(ctx context.Context, c car.Car) error { return f.err }

func TestLoadStoreFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(), failingStore{err: boom}, "cars.csv", []byte("id,brand,model,price\n1,a,b,2\n"))
	if !errors.Is(err, boom) || errors.Is(err, ErrInvalidRow) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestLoadRepeatedColumnUsesLast(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	if _, err := Load(ctx, repo, "cars.csv", []byte("id,brand,model,price,price\n1,Toyota,Yaris,abc,7\n")); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, _ := repo.Get(ctx, 1)
	if got.Price != 7 {
		t.Fatalf("expected last price column, got %+v", got)
	}
}
