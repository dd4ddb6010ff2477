package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"carsapi/pkg/car"
	"carsapi/pkg/metrics"
	"carsapi/pkg/otel"
)

// createCarHandler creates a new car.
// @Summary Create car
// @Tags cars
// @Accept json
// @Produce json
// @Param car body car.Payload true "Car"
// @Success 201 {object} car.Car
// @Failure 400 {object} ErrorResponse
// @Router /cars/ [post]
func (s *Server) createCarHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createCarHandler")
	defer span.End()

	p, err := decodePayload(w, r)
	if err != nil {
		s.respondError(ctx, w, "create car", err)
		return
	}
	c, err := s.cars.Create(ctx, p)
	if err != nil {
		s.respondError(ctx, w, "create car", err)
		return
	}
	s.refreshStoreSize(ctx)
	span.SetAttributes(attribute.Int64("car.id", c.ID))
	writeJSON(w, http.StatusCreated, c)
}

// listCarsHandler lists cars.
// @Summary List cars
// @Tags cars
// @Produce json
// @Success 200 {array} car.Car
// @Router /cars/ [get]
func (s *Server) listCarsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listCarsHandler")
	defer span.End()

	cars, err := s.cars.List(ctx)
	if err != nil {
		s.respondError(ctx, w, "list cars", err)
		return
	}
	writeJSON(w, http.StatusOK, cars)
}

// getCarHandler retrieves a car by ID.
// @Summary Get car
// @Tags cars
// @Produce json
// @Param id path int true "Car ID"
// @Success 200 {object} car.Car
// @Failure 404 {object} ErrorResponse
// @Router /cars/{id} [get]
func (s *Server) getCarHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCarHandler")
	defer span.End()

	id, err := carID(r)
	if err != nil {
		s.respondError(ctx, w, "get car", err)
		return
	}
	c, err := s.cars.Get(ctx, id)
	if err != nil {
		s.respondError(ctx, w, "get car", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// updateCarHandler replaces an existing car.
// @Summary Update car
// @Tags cars
// @Accept json
// @Produce json
// @Param id path int true "Car ID"
// @Param car body car.Payload true "Car"
// @Success 200 {object} car.Car
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /cars/{id} [put]
func (s *Server) updateCarHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateCarHandler")
	defer span.End()

	id, err := carID(r)
	if err != nil {
		s.respondError(ctx, w, "update car", err)
		return
	}
	p, err := decodePayload(w, r)
	if err != nil {
		s.respondError(ctx, w, "update car", err)
		return
	}
	c, err := s.cars.Update(ctx, id, p)
	if err != nil {
		s.respondError(ctx, w, "update car", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// deleteCarHandler removes a car.
// @Summary Delete car
// @Tags cars
// @Produce json
// @Param id path int true "Car ID"
// @Success 200 {object} car.Deleted
// @Failure 404 {object} ErrorResponse
// @Router /cars/{id} [delete]
func (s *Server) deleteCarHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteCarHandler")
	defer span.End()

	id, err := carID(r)
	if err != nil {
		s.respondError(ctx, w, "delete car", err)
		return
	}
	ack, err := s.cars.Delete(ctx, id)
	if err != nil {
		s.respondError(ctx, w, "delete car", err)
		return
	}
	s.refreshStoreSize(ctx)
	writeJSON(w, http.StatusOK, ack)
}

func carID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return id, nil
}

func decodePayload(w http.ResponseWriter, r *http.Request) (car.Payload, error) {
	var p car.Payload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&p); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return car.Payload{}, err
		}
		return car.Payload{}, fmt.Errorf("%w: %v", car.ErrInvalidPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return car.Payload{}, fmt.Errorf("%w: unexpected data after JSON object", car.ErrInvalidPayload)
	}
	return p, nil
}

func (s *Server) refreshStoreSize(ctx context.Context) {
	n, err := s.cars.Count(ctx)
	if err != nil {
		s.log.Warn(ctx, "count cars", "error", err)
		return
	}
	metrics.StoreSize.Set(float64(n))
}
