// Package httpapi exposes the car service over HTTP.
package httpapi

import (
	_ "embed"
	"net/http"
	"os"
	"slices"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	_ "carsapi/docs"
	"carsapi/pkg/car"
	"carsapi/pkg/logger"
	"carsapi/pkg/otel"
	"carsapi/pkg/uploadlog"
)

//go:embed static/index.html
var indexHTML []byte

const maxJSONBody = 1 << 20

// Options configures a Server.
type Options struct {
	Service        *car.Service
	Journal        uploadlog.Journal
	Logger         *logger.Logger
	Tracer         trace.Tracer
	MaxUploadBytes int64
	CORSOrigins    []string
}

// Server routes HTTP requests to the car service.
type Server struct {
	cars      *car.Service
	journal   uploadlog.Journal
	log       *logger.Logger
	tracer    trace.Tracer
	maxUpload int64
	router    *mux.Router
	handler   http.Handler
}

// New builds a Server with every route registered.
func New(opts Options) *Server {
	s := &Server{
		cars:      opts.Service,
		journal:   opts.Journal,
		log:       opts.Logger,
		tracer:    opts.Tracer,
		maxUpload: opts.MaxUploadBytes,
		router:    mux.NewRouter(),
	}
	if s.log == nil {
		s.log = logger.New(os.Stderr, logger.LevelInfo, "carsapi", otel.GetTraceID)
	}
	if s.journal == nil {
		s.journal = uploadlog.NewMemory(100)
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 10 << 20
	}
	s.routes()
	s.handler = handlers.CORS(
		originPolicy(opts.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}),
		handlers.AllowCredentials(),
	)(s.router)
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.recoverMiddleware)
	r.Use(s.requestIDMiddleware)
	r.Use(s.traceMiddleware)
	r.Use(s.observabilityMiddleware)

	r.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)

	for _, p := range []string{"/cars", "/cars/"} {
		r.HandleFunc(p, s.createCarHandler).Methods(http.MethodPost)
		r.HandleFunc(p, s.listCarsHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/cars/{id:-?[0-9]+}", s.getCarHandler).Methods(http.MethodGet)
	r.HandleFunc("/cars/{id:-?[0-9]+}", s.updateCarHandler).Methods(http.MethodPut)
	r.HandleFunc("/cars/{id:-?[0-9]+}", s.deleteCarHandler).Methods(http.MethodDelete)

	for _, p := range []string{"/upload-csv", "/upload-csv/"} {
		r.HandleFunc(p, s.uploadCSVHandler).Methods(http.MethodPost)
	}
	for _, p := range []string{"/uploads", "/uploads/"} {
		r.HandleFunc(p, s.listUploadsHandler).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
}

// originPolicy echoes the request origin when every origin is allowed, since
// browsers refuse a literal "*" on credentialed requests.
func originPolicy(origins []string) handlers.CORSOption {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return handlers.AllowedOriginValidator(func(string) bool { return true })
	}
	return handlers.AllowedOrigins(origins)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}
