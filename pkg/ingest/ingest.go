// Package ingest loads cars from CSV documents into a repository.
//
// A document is a header row naming at least id, brand, model and price
// (any order, extra columns ignored) followed by one car per row. Rows are
// merged one at a time; the first bad row stops the load and rows merged
// before it stay merged.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"carsapi/pkg/car"
)

// Extension is the required filename suffix.
const Extension = ".csv"

var (
	// ErrInvalidFormat reports a document that cannot be read as CSV at all.
	ErrInvalidFormat = errors.New("invalid upload format")
	// ErrInvalidRow is matched by every RowError.
	ErrInvalidRow = errors.New("invalid csv row")
	// ErrMissingField is the cause of a RowError for an absent column value.
	ErrMissingField = errors.New("missing field")
)

// Required lists the header names every document must provide.
var Required = []string{"id", "brand", "model", "price"}

// Upserter is the part of car.Repository the loader writes through.
type Upserter interface {
	Upsert(ctx context.Context, c car.Car) error
}

// RowError describes the row that stopped a load.
type RowError struct {
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %q: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func (e *RowError) Is(target error) bool { return target == ErrInvalidRow }

// Result summarizes a completed load.
type Result struct {
	Filename string `json:"filename"`
	Loaded   int    `json:"loaded"`
}

// Load parses data as CSV and upserts every row into dst.
//
// On a RowError the returned Result still carries the number of rows merged
// before the failing one.
func Load(ctx context.Context, dst Upserter, filename string, data []byte) (Result, error) {
	res := Result{Filename: filename}
	if err := CheckFilename(filename); err != nil {
		return res, err
	}
	if !utf8.Valid(data) {
		return res, fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidFormat, filename)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
	}
	columns := indexHeader(header)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return res, &RowError{Line: line, Err: err}
		}
		line, _ := r.FieldPos(0)

		c, err := parseRow(columns, record, line)
		if err != nil {
			return res, err
		}
		if err := dst.Upsert(ctx, c); err != nil {
			return res, fmt.Errorf("line %d: store car %d: %w", line, c.ID, err)
		}
		res.Loaded++
	}
}

// CheckFilename rejects names without the exact, case-sensitive .csv suffix.
func CheckFilename(filename string) error {
	if !strings.HasSuffix(filename, Extension) {
		return fmt.Errorf("%w: %q must end with %s", ErrInvalidFormat, filename, Extension)
	}
	return nil
}

// indexHeader maps names to column positions; a repeated name resolves to
// its last column.
func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.TrimSpace(name)] = i
	}
	return columns
}

func parseRow(columns map[string]int, record []string, line int) (car.Car, error) {
	fields := make(map[string]string, len(Required))
	for _, name := range Required {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return car.Car{}, &RowError{Line: line, Field: name, Err: ErrMissingField}
		}
		fields[name] = record[i]
	}

	id, err := strconv.ParseInt(strings.TrimSpace(fields["id"]), 10, 64)
	if err != nil {
		return car.Car{}, &RowError{Line: line, Field: "id", Err: err}
	}
	price, err := strconv.ParseInt(strings.TrimSpace(fields["price"]), 10, 64)
	if err != nil {
		return car.Car{}, &RowError{Line: line, Field: "price", Err: err}
	}
	return car.Car{ID: id, Brand: fields["brand"], Model: fields["model"], Price: price}, nil
}
