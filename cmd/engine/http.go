package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/engine"
	"copytrade-engine/internal/observability"
	"copytrade-engine/internal/similarity"
)

// apiServer exposes health, metrics, and read-only aggregate queries.
type apiServer struct {
	engine  *engine.Engine
	chain   string
	logger  *log.Logger
	started time.Time
}

// serve starts the HTTP server. Blocks until the listener fails.
func (s *apiServer) serve(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/activity", s.handleActivity)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/scan", s.handleScan)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status string `json:"status"`
	Chain  string `json:"chain"`
	Uptime string `json:"uptime"`
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		Status: "running",
		Chain:  s.chain,
		Uptime: time.Since(s.started).String(),
	})
}

// handleSummary returns the live daily summary for ?date=YYYY-MM-DD
// (default today UTC) and ?chain= (default the engine's chain).
func (s *apiServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format(domain.DateLayout)
	}
	chain := r.URL.Query().Get("chain")
	if chain == "" {
		chain = s.chain
	}

	summary, ok := s.engine.GetDailySummary(date, chain)
	if !ok {
		http.Error(w, "no summary for key", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

// handleActivity returns the live activity for ?account= and ?date=.
func (s *apiServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		http.Error(w, "account parameter is required", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format(domain.DateLayout)
	}

	activity, ok := s.engine.GetAccountActivity(account, date)
	if !ok {
		http.Error(w, "no activity for key", http.StatusNotFound)
		return
	}
	writeJSON(w, activity)
}

// handleStats returns the live lifetime stats for ?account=.
func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		http.Error(w, "account parameter is required", http.StatusBadRequest)
		return
	}

	stats, ok := s.engine.GetWatchedAccountStats(account)
	if !ok {
		http.Error(w, "no stats for account", http.StatusNotFound)
		return
	}
	writeJSON(w, stats)
}

// ScanResponse is the JSON response for /scan endpoint.
type ScanResponse struct {
	ReferenceAccount string                             `json:"reference_account"`
	SuspectAccount   string                             `json:"suspect_account"`
	WindowSeconds    int64                              `json:"window_seconds"`
	Events           []*domain.SimilarityEvent          `json:"events"`
	Summaries        map[string]*similarity.ScanSummary `json:"summaries"`
}

// handleScan runs a similarity scan over archived trade history:
// ?ref=&suspect=&window=&threshold= (threshold optional).
func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("ref")
	suspect := q.Get("suspect")
	if ref == "" || suspect == "" {
		http.Error(w, "ref and suspect parameters are required", http.StatusBadRequest)
		return
	}

	window, err := strconv.ParseInt(q.Get("window"), 10, 64)
	if err != nil || window < 0 {
		http.Error(w, "window parameter must be a non-negative integer", http.StatusBadRequest)
		return
	}

	var threshold float64
	if raw := q.Get("threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "threshold parameter must be a number", http.StatusBadRequest)
			return
		}
	}

	events, err := s.engine.RunSimilarityScan(r.Context(), ref, suspect, window, threshold)
	if err != nil {
		s.logger.Printf("Scan error: %v", err)
		http.Error(w, "scan failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ScanResponse{
		ReferenceAccount: ref,
		SuspectAccount:   suspect,
		WindowSeconds:    window,
		Events:           events,
		Summaries:        similarity.Summarize(events),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
