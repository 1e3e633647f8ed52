// internal/storage/sink.go
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/scanner"
	"github.com/rovshanmuradov/solana-arb-bot/internal/storage/models"
)

// CycleSink persists each scan cycle's opportunities. Implements scanner.Sink.
type CycleSink struct {
	storage Storage
	logger  *zap.Logger
}

// NewCycleSink создает sink, сохраняющий возможности каждого цикла.
func NewCycleSink(st Storage, logger *zap.Logger) *CycleSink {
	return &CycleSink{
		storage: st,
		logger:  logger.Named("storage-sink"),
	}
}

// PublishCycle converts and saves the cycle's opportunities.
func (s *CycleSink) PublishCycle(ctx context.Context, opportunities []scanner.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	records := make([]*models.OpportunityRecord, 0, len(opportunities))
	for _, opp := range opportunities {
		records = append(records, &models.OpportunityRecord{
			Pair:          opp.Pair,
			Direction:     string(opp.Direction),
			Capital:       opp.Capital,
			NetProfitRaw:  opp.NetProfitRaw,
			ProfitPercent: opp.ProfitPercent,
			BuyVenue:      opp.BuyVenue,
			SellVenue:     opp.SellVenue,
			JupiterLink:   opp.JupiterLink,
			MeteoraLink:   opp.MeteoraLink,
			DiscoveredAt:  opp.DiscoveredAt,
		})
	}

	if err := s.storage.SaveOpportunities(ctx, records); err != nil {
		return fmt.Errorf("save opportunities: %w", err)
	}

	s.logger.Debug("cycle opportunities persisted", zap.Int("count", len(records)))
	return nil
}
