// Package api exposes the engine's read model over HTTP: tracked
// symbols, plot declarations, full series columns, bar history and the
// latest per-symbol snapshot.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohamedkhairy/pineseries/internal/engine"
	"github.com/mohamedkhairy/pineseries/internal/models"
)

// Server wires the HTTP routes to an engine.
type Server struct {
	engine *engine.Engine
	ready  func() bool
	router *mux.Router
}

// NewServer builds the router around an engine. The ready func gates the
// readiness probe; nil reports ready unconditionally.
func NewServer(eng *engine.Engine, ready func() bool) *Server {
	s := &Server{
		engine: eng,
		ready:  ready,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the router wrapped in the standard middleware chain.
func (s *Server) Handler() http.Handler {
	chain := ChainMiddleware(
		RecoveryMiddleware(),
		CORSMiddleware(),
	)
	return chain(s.router)
}

func (s *Server) buildRouter() *mux.Router {
	router := mux.NewRouter()
	// Use instead of the outer chain: metrics labels want the matched
	// route template, which only exists after routing.
	router.Use(mux.MiddlewareFunc(MetricsMiddleware()))

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/symbols", s.ListSymbols).Methods("GET")
	v1.HandleFunc("/symbols/{symbol}/snapshot", s.GetSnapshot).Methods("GET")
	v1.HandleFunc("/symbols/{symbol}/plots", s.ListPlots).Methods("GET")
	v1.HandleFunc("/symbols/{symbol}/history", s.GetHistory).Methods("GET")
	v1.HandleFunc("/symbols/{symbol}/series/{plot}", s.GetSeries).Methods("GET")

	router.HandleFunc("/health", s.Health).Methods("GET")
	router.HandleFunc("/ready", s.Ready).Methods("GET")
	router.HandleFunc("/live", s.Live).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// ListSymbols handles GET /api/v1/symbols
func (s *Server) ListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols := s.engine.Symbols()

	if search := r.URL.Query().Get("search"); search != "" {
		searchLower := strings.ToLower(search)
		filtered := make([]string, 0, len(symbols))
		for _, symbol := range symbols {
			if strings.Contains(strings.ToLower(symbol), searchLower) {
				filtered = append(filtered, symbol)
			}
		}
		symbols = filtered
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// GetSnapshot handles GET /api/v1/symbols/:symbol/snapshot
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	snap, err := s.engine.Snapshot(symbol)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snap)
}

// ListPlots handles GET /api/v1/symbols/:symbol/plots
func (s *Server) ListPlots(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	plots, err := s.engine.Plots(symbol)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"plots":  plots,
		"count":  len(plots),
	})
}

// GetHistory handles GET /api/v1/symbols/:symbol/history
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	candles, err := s.engine.History(symbol)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(candles) {
			candles = candles[len(candles)-limit:]
		}
	}

	frames := make([]models.CandleFrame, len(candles))
	for i, c := range candles {
		frames[i] = c.Frame()
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"candles": frames,
		"count":   len(frames),
	})
}

// GetSeries handles GET /api/v1/symbols/:symbol/series/:plot
func (s *Server) GetSeries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]
	plotID := vars["plot"]

	times, values, err := s.engine.PlotValues(symbol, plotID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"plot":   plotID,
		"time":   times,
		"values": models.NullFloats(values),
	})
}

// Health handles GET /health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "UP",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"symbols":   len(s.engine.Symbols()),
	})
}

// Ready handles GET /ready
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Live handles GET /live
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownSymbol):
		respondWithError(w, http.StatusNotFound, "Symbol not found")
	case errors.Is(err, engine.ErrUnknownPlot):
		respondWithError(w, http.StatusNotFound, "Plot not found")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal error")
	}
}
