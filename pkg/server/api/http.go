// Package api provides HTTP and WebSocket API endpoints for the price server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/StrathCole/pricefeed/pkg/logging"
	"github.com/StrathCole/pricefeed/pkg/metrics"
	"github.com/StrathCole/pricefeed/pkg/server/feed"
	"github.com/StrathCole/pricefeed/pkg/server/sources"
	"github.com/StrathCole/pricefeed/pkg/strategy"
)

// maxRequestBytes caps POST bodies.
const maxRequestBytes = 64 << 10

// Server represents the HTTP API server.
type Server struct {
	addr   string
	store  feed.Store
	server *http.Server
	logger *logging.Logger
}

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	Strategy     string   `json:"strategy"`
	Observations []string `json:"observations"`
	// DeviationBps is encoded into the parameter blob when Params is empty.
	DeviationBps *uint64 `json:"deviation_bps,omitempty"`
	// Params is the raw 0x-prefixed parameter blob.
	Params string `json:"params,omitempty"`
}

// ResolveResponse is the result of POST /v1/resolve.
type ResolveResponse struct {
	Price  string `json:"price"`
	NoData bool   `json:"no_data"`
}

// StrategyInfo describes a registered strategy.
type StrategyInfo struct {
	Name            string `json:"name"`
	MinObservations int    `json:"min_observations"`
	RequiresParams  bool   `json:"requires_params"`
}

// ErrorResponse is returned with every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

var (
	errMethodNotAllowed = errors.New("method not allowed")
	errBadRequest       = errors.New("bad request")
)

// NewServer creates a new HTTP API server.
func NewServer(addr string, store feed.Store, logger *logging.Logger) *Server {
	return &Server{
		addr:   addr,
		store:  store,
		logger: logger,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("/v1/prices", s.instrument("/v1/prices", s.handlePrices))
	mux.HandleFunc("/v1/resolve", s.instrument("/v1/resolve", s.handleResolve))
	mux.HandleFunc("/v1/strategies", s.instrument("/v1/strategies", s.handleStrategies))
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status), time.Since(start))
	}
}

// handleHealth handles /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePrices returns every stored resolution, or one with ?asset=.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	if asset := r.URL.Query().Get("asset"); asset != "" {
		result, err := s.store.Get(r.Context(), sources.NormalizeSymbol(asset))
		if err != nil {
			s.sendError(w, statusFor(err), err)
			return
		}
		s.sendJSON(w, http.StatusOK, NewPriceResponse(result))
		return
	}

	results, err := s.store.All(r.Context())
	if err != nil {
		s.logger.Error("Failed to read store", "error", err)
		s.sendError(w, http.StatusServiceUnavailable, err)
		return
	}
	out := make([]PriceResponse, len(results))
	for i, result := range results {
		out[i] = NewPriceResponse(result)
	}
	s.sendJSON(w, http.StatusOK, out)
}

// handleResolve applies a strategy to caller-supplied observations.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	observations, err := parseObservations(req.Observations)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}
	params, err := requestParams(&req)
	if err != nil {
		s.sendError(w, statusFor(err), err)
		return
	}

	price, err := strategy.Resolve(req.Strategy, observations, params)
	if err != nil {
		s.logger.Debug("Resolve request rejected", "strategy", req.Strategy, "error", err)
		s.sendError(w, statusFor(err), err)
		return
	}

	s.sendJSON(w, http.StatusOK, ResolveResponse{
		Price:  price.String(),
		NoData: strategy.IsNoData(price),
	})
}

// handleStrategies lists the registered strategies.
func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	names := strategy.Names()
	out := make([]StrategyInfo, 0, len(names))
	for _, name := range names {
		def, err := strategy.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, StrategyInfo{
			Name:            def.Name,
			MinObservations: def.MinObservations,
			RequiresParams:  def.RequiresParams,
		})
	}
	s.sendJSON(w, http.StatusOK, out)
}

func parseObservations(raw []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(raw))
	for i, s := range raw {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%w: observation %d is not a base-10 integer: %q", errBadRequest, i, s)
		}
		out[i] = v
	}
	return out, nil
}

func requestParams(req *ResolveRequest) ([]byte, error) {
	switch {
	case req.Params != "" && req.DeviationBps != nil:
		return nil, fmt.Errorf("%w: params and deviation_bps are mutually exclusive", errBadRequest)
	case req.Params != "":
		params, err := hexutil.Decode(req.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: params: %v", errBadRequest, err)
		}
		return params, nil
	case req.DeviationBps != nil:
		return strategy.EncodeDeviationParams(*req.DeviationBps)
	default:
		return nil, nil
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, strategy.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, strategy.ErrConfiguration), errors.Is(err, strategy.ErrParameter), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrNotFound), errors.Is(err, feed.ErrUnknownFeed):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, err error) {
	s.sendJSON(w, status, ErrorResponse{Error: err.Error()})
}
