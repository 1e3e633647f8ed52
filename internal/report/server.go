// internal/report/server.go
package report

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/scanner"
)

const timestampLayout = "2006-01-02 15:04:05"

// Server exposes the current opportunity set over HTTP for external display.
// It is a strict read-only consumer of the store: it reflects whatever the
// last successful publish contained and surfaces no partial-cycle errors.
type Server struct {
	store   *scanner.Store
	history *scanner.History
	http    *http.Server
	logger  *zap.Logger
}

// NewServer creates the reporting server listening on addr.
func NewServer(addr string, store *scanner.Store, history *scanner.History, logger *zap.Logger) *Server {
	s := &Server{
		store:   store,
		history: history,
		logger:  logger.Named("report-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /opportunities", s.handleOpportunities)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("📡 Report server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("report server shutdown error", zap.Error(err))
		}
		return ctx.Err()
	}
}

// opportunityView is the wire rendering of an opportunity: net profit in
// human base-token units to six decimal places, calendar timestamps.
type opportunityView struct {
	Pair          string  `json:"pair"`
	Direction     string  `json:"direction"`
	Capital       string  `json:"capital"`
	NetProfit     string  `json:"net_profit"`
	NetProfitRaw  int64   `json:"net_profit_raw"`
	ProfitPercent float64 `json:"profit_percentage"`
	BuyVenue      string  `json:"buy_platform"`
	SellVenue     string  `json:"sell_platform"`
	JupiterLink   string  `json:"jupiter_link"`
	MeteoraLink   string  `json:"meteora_link"`
	Timestamp     string  `json:"timestamp"`
}

type opportunitiesResponse struct {
	UpdatedAt     string            `json:"updated_at"`
	Count         int               `json:"count"`
	Opportunities []opportunityView `json:"opportunities"`
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	current := s.store.Current()

	views := make([]opportunityView, 0, len(current))
	for _, opp := range current {
		views = append(views, opportunityView{
			Pair:          opp.Pair,
			Direction:     string(opp.Direction),
			Capital:       opp.Capital,
			NetProfit:     opp.NetProfitHuman(),
			NetProfitRaw:  opp.NetProfitRaw,
			ProfitPercent: opp.ProfitPercent,
			BuyVenue:      opp.BuyVenue,
			SellVenue:     opp.SellVenue,
			JupiterLink:   opp.JupiterLink,
			MeteoraLink:   opp.MeteoraLink,
			Timestamp:     opp.DiscoveredAt.Format(timestampLayout),
		})
	}

	updatedAt := ""
	if t := s.store.UpdatedAt(); !t.IsZero() {
		updatedAt = t.Format(timestampLayout)
	}

	s.writeJSON(w, opportunitiesResponse{
		UpdatedAt:     updatedAt,
		Count:         len(views),
		Opportunities: views,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.history.Stats()

	lastCycle := ""
	if !stats.LastCycleAt.IsZero() {
		lastCycle = stats.LastCycleAt.Format(timestampLayout)
	}

	s.writeJSON(w, map[string]interface{}{
		"total_cycles":          stats.TotalCycles,
		"total_found":           stats.TotalFound,
		"best_profit_percent":   stats.BestProfitPercent,
		"last_cycle_at":         lastCycle,
		"current_opportunities": len(s.store.Current()),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
