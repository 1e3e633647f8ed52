// internal/scanner/service.go
package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink receives each completed cycle's opportunity set. Sinks run after the
// set has been published; a sink failure is logged and never fails the cycle.
type Sink interface {
	PublishCycle(ctx context.Context, opportunities []Opportunity) error
}

// Service runs the scan loop on a fixed interval. Cycles never overlap: the
// next tick is only honored after the previous Scan call returns.
type Service struct {
	scanner  *Scanner
	history  *History
	interval time.Duration
	sinks    []Sink
	logger   *zap.Logger
}

// NewService creates the scan loop service.
func NewService(scanner *Scanner, history *History, interval time.Duration, sinks []Sink, logger *zap.Logger) *Service {
	return &Service{
		scanner:  scanner,
		history:  history,
		interval: interval,
		sinks:    sinks,
		logger:   logger.Named("scan-loop"),
	}
}

// Run blocks until the context is canceled. A failed cycle is followed by a
// normal wait for the next scheduled tick; the loop itself never gives up.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("🚀 Scan loop started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if err := s.scanner.Scan(ctx); err != nil {
		s.logger.Warn("scan cycle failed, waiting for next tick", zap.Error(err))
		return
	}

	opportunities := s.scanner.Store().Current()
	s.history.RecordCycle(opportunities)

	for _, sink := range s.sinks {
		if err := sink.PublishCycle(ctx, opportunities); err != nil {
			s.logger.Warn("cycle sink failed", zap.Error(err))
		}
	}
}
