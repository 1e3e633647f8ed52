// internal/scanner/history.go
package scanner

import (
	"sync"
	"time"
)

// History keeps a bounded in-memory record of detected opportunities across
// cycles, with running statistics. Oldest entries are dropped first.
type History struct {
	mu      sync.RWMutex
	entries []Opportunity
	max     int

	totalCycles       int
	totalFound        int
	bestProfitPercent float64
	lastCycleAt       time.Time
}

// HistoryStats summarizes scanning activity since process start.
type HistoryStats struct {
	TotalCycles       int
	TotalFound        int
	BestProfitPercent float64
	LastCycleAt       time.Time
}

// NewHistory creates a history bounded at max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 1000
	}
	return &History{
		entries: make([]Opportunity, 0, max),
		max:     max,
	}
}

// RecordCycle appends a cycle's opportunities and updates statistics.
func (h *History) RecordCycle(opportunities []Opportunity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalCycles++
	h.totalFound += len(opportunities)
	h.lastCycleAt = time.Now()

	for _, opp := range opportunities {
		if opp.ProfitPercent > h.bestProfitPercent {
			h.bestProfitPercent = opp.ProfitPercent
		}
		h.entries = append(h.entries, opp)
	}

	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Entries returns a copy of the retained opportunities, oldest first.
func (h *History) Entries() []Opportunity {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]Opportunity, len(h.entries))
	copy(entries, h.entries)
	return entries
}

// Stats returns the running statistics.
func (h *History) Stats() HistoryStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return HistoryStats{
		TotalCycles:       h.totalCycles,
		TotalFound:        h.totalFound,
		BestProfitPercent: h.bestProfitPercent,
		LastCycleAt:       h.lastCycleAt,
	}
}
