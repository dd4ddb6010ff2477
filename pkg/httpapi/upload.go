package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"carsapi/pkg/ingest"
	"carsapi/pkg/metrics"
	"carsapi/pkg/otel"
	"carsapi/pkg/uploadlog"
)

// UploadResponse reports a completed CSV load.
type UploadResponse struct {
	Message  string `json:"message"`
	Loaded   int    `json:"loaded"`
	Filename string `json:"filename"`
}

// uploadCSVHandler loads cars from an uploaded CSV file.
// @Summary Load cars from a CSV file
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV with header id,brand,model,price"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /upload-csv/ [post]
func (s *Server) uploadCSVHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "uploadCSVHandler")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var mbe *http.MaxBytesError
		if !errors.As(err, &mbe) {
			err = fmt.Errorf("%w: expected multipart form: %v", ingest.ErrInvalidFormat, err)
		}
		s.uploadFailed(ctx, w, "", ingest.Result{}, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.uploadFailed(ctx, w, "", ingest.Result{}, fmt.Errorf("%w: form field \"file\": %v", ingest.ErrInvalidFormat, err))
		return
	}
	defer file.Close()
	span.SetAttributes(attribute.String("upload.filename", header.Filename))

	if err := ingest.CheckFilename(header.Filename); err != nil {
		s.uploadFailed(ctx, w, header.Filename, ingest.Result{Filename: header.Filename}, err)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.uploadFailed(ctx, w, header.Filename, ingest.Result{Filename: header.Filename}, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := ingest.Load(ctx, s.cars.Repository(), header.Filename, data)
	metrics.IngestedRowsTotal.Add(float64(res.Loaded))
	if res.Loaded > 0 {
		s.refreshStoreSize(ctx)
	}
	if err != nil {
		s.uploadFailed(ctx, w, header.Filename, res, err)
		return
	}

	span.SetAttributes(attribute.Int("upload.loaded", res.Loaded))
	s.record(ctx, res, nil)
	s.log.Info(ctx, "csv uploaded", "filename", res.Filename, "loaded", res.Loaded)
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:  fmt.Sprintf("%d cars loaded from file %s.", res.Loaded, res.Filename),
		Loaded:   res.Loaded,
		Filename: res.Filename,
	})
}

func (s *Server) uploadFailed(ctx context.Context, w http.ResponseWriter, filename string, res ingest.Result, err error) {
	_, code := classify(err)
	metrics.UploadFailuresTotal.WithLabelValues(code).Inc()
	res.Filename = filename
	s.record(ctx, res, err)
	s.respondError(ctx, w, "upload csv", err)
}

// record appends the outcome to the journal. Journal failures are logged only.
func (s *Server) record(ctx context.Context, res ingest.Result, uploadErr error) {
	e := uploadlog.Entry{
		ID:       uuid.NewString(),
		Filename: res.Filename,
		Loaded:   res.Loaded,
		At:       time.Now().UTC(),
	}
	if uploadErr != nil {
		e.Error = uploadErr.Error()
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.log.Warn(ctx, "record upload", "error", err, "upload_id", e.ID)
	}
}

// listUploadsHandler lists recent uploads, newest first.
// @Summary Recent uploads
// @Tags upload
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {array} uploadlog.Entry
// @Router /uploads/ [get]
func (s *Server) listUploadsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listUploadsHandler")
	defer span.End()

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: codeInvalidPayload, Detail: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	entries, err := s.journal.Recent(ctx, limit)
	if err != nil {
		s.respondError(ctx, w, "list uploads", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
