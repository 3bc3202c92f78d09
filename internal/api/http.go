package api

import (
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keyval/internal/metrics"
	"github.com/heysubinoy/keyval/internal/session"
	"github.com/heysubinoy/keyval/pkg/kv"
)

// Server wraps a kv.Store and exposes HTTP endpoints for KV operations.
// Counters are shared with every other transport serving the same store.
type Server struct {
	Store    kv.Store
	Counters session.Counters
	Logger   hclog.Logger

	// Metrics is optional; nil disables request metrics.
	Metrics *metrics.Metrics
	// MaxValueBytes caps a single value. Defaults to kv.MaxValueBytes.
	MaxValueBytes int
}

// NewServer creates a new HTTP server with the given store and counters.
func NewServer(store kv.Store, counters session.Counters, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		Store:         store,
		Counters:      counters,
		Logger:        logger,
		MaxValueBytes: kv.MaxValueBytes,
	}
}

// RegisterRoutes registers all HTTP handlers on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /v1/{key}/get", s.handleGet)
	mux.HandleFunc("GET /v1/{key}", s.handleGet)
	mux.HandleFunc("POST /v1/{key}", s.handleSetForm)
	mux.HandleFunc("GET /v1/{key}/set/{value}", s.handleSetPath)
	mux.HandleFunc("POST /v1/{key}/set/{value}", s.handleSetPath)
	mux.HandleFunc("PUT /v1/{key}/set/{value}", s.handleSetPath)
	mux.HandleFunc("POST /v1/{key}/set", s.handleSetBody)
}

// Handler registers every route on mux and wraps it in the request
// middleware. Routes already on mux are served through the middleware too.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	s.RegisterRoutes(mux)
	return s.middleware(mux)
}

// handleGet handles GET /v1/{key}/get and its /v1/{key} shorthand.
// An unknown key is an empty 200, not an error.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.Counters.IncrementReads()
	key := r.PathValue("key")

	value, err := s.Store.Get(key)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		s.logger(r).Error("read failed", "key", key, "error", err)
		http.Error(w, "Failed to read key", http.StatusInternalServerError)
		return
	}

	writeText(w, value)
}

// handleSetPath handles GET, POST and PUT /v1/{key}/set/{value}.
// The value comes from the URL; any request body is ignored.
func (s *Server) handleSetPath(w http.ResponseWriter, r *http.Request) {
	s.Counters.IncrementWrites()
	key, value := r.PathValue("key"), r.PathValue("value")

	if err := checkValue(value, s.MaxValueBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.set(w, r, key, value) {
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSetBody handles POST /v1/{key}/set with the raw body as the value.
func (s *Server) handleSetBody(w http.ResponseWriter, r *http.Request) {
	s.Counters.IncrementWrites()
	key := r.PathValue("key")

	if r.ContentLength > int64(s.MaxValueBytes) {
		s.writeError(w, r, ErrPayloadTooLarge)
		return
	}

	value, err := readValue(r.Body, s.MaxValueBytes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.set(w, r, key, value) {
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSetForm handles form posts to /v1/{key}, taking the value from the
// "msg" field. It answers with the stored value, which counts as a read too.
func (s *Server) handleSetForm(w http.ResponseWriter, r *http.Request) {
	s.Counters.IncrementWrites()
	s.Counters.IncrementReads()
	key := r.PathValue("key")

	// Percent-encoding can triple the size of the value on the wire.
	r.Body = http.MaxBytesReader(w, r.Body, int64(3*s.MaxValueBytes+1024))
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, ErrPayloadTooLarge)
			return
		}
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	if !r.PostForm.Has("msg") {
		http.Error(w, "Missing msg field", http.StatusBadRequest)
		return
	}

	value := r.PostForm.Get("msg")
	if err := checkValue(value, s.MaxValueBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.set(w, r, key, value) {
		return
	}
	writeText(w, value)
}

// set stores the value and reports whether the handler may continue.
// A failed write is answered with 500.
func (s *Server) set(w http.ResponseWriter, r *http.Request, key, value string) bool {
	if err := s.Store.Set(key, value); err != nil {
		s.logger(r).Error("write failed", "key", key, "error", err)
		http.Error(w, "Failed to set key", http.StatusInternalServerError)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	s.logger(r).Debug("rejected write", "key", r.PathValue("key"), "status", code, "error", err)
	http.Error(w, http.StatusText(code), code)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrStream):
		return http.StatusPartialContent
	default:
		return http.StatusInternalServerError
	}
}

func writeText(w http.ResponseWriter, value string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(value))
}
