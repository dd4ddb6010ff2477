package car

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPayload is matched by every ValidationError.
var ErrInvalidPayload = errors.New("invalid car payload")

// ValidationError names the offending field of a payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPayload
}

// Payload is the request body accepted for create and update.
// Pointer fields distinguish an absent field from its zero value.
type Payload struct {
	ID    *int64  `json:"id,omitempty"`
	Brand *string `json:"brand"`
	Model *string `json:"model"`
	Price *int64  `json:"price"`
}

// Car validates p and returns the record it describes. The id is left
// zero; callers decide which id the record is stored under.
func (p Payload) Car() (Car, error) {
	if p.Brand == nil {
		return Car{}, &ValidationError{Field: "brand", Reason: "field required"}
	}
	if strings.TrimSpace(*p.Brand) == "" {
		return Car{}, &ValidationError{Field: "brand", Reason: "must not be empty"}
	}
	if p.Model == nil {
		return Car{}, &ValidationError{Field: "model", Reason: "field required"}
	}
	if strings.TrimSpace(*p.Model) == "" {
		return Car{}, &ValidationError{Field: "model", Reason: "must not be empty"}
	}
	if p.Price == nil {
		return Car{}, &ValidationError{Field: "price", Reason: "field required"}
	}
	return Car{Brand: *p.Brand, Model: *p.Model, Price: *p.Price}, nil
}
