// internal/scanner/scanner.go
package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/jupiter"
	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/meteora"
	"github.com/rovshanmuradov/solana-arb-bot/internal/token"
)

// QuoteClient requests best-route swap quotes from the quote service.
type QuoteClient interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amountRaw uint64, slippageBps int) (*jupiter.Quote, error)
}

// PoolCatalog lists candidate liquidity pools for a cycle.
type PoolCatalog interface {
	ListPools(ctx context.Context) ([]meteora.PoolRecord, error)
}

// TokenResolver resolves token metadata; never fails, possibly degraded.
type TokenResolver interface {
	Resolve(ctx context.Context, mint string) token.Info
}

// Config contains the profitability parameters of the scanner.
type Config struct {
	// MinProfitPercent is the threshold in percent (0.1 means 0.1%).
	MinProfitPercent float64
	// TradeCapital is the fixed per-trade capital in human base-token units.
	TradeCapital float64
	// BaseMints maps base-token mint addresses to their symbols.
	BaseMints map[string]string
	// QuoteSlippageBps is forwarded to the quote service.
	QuoteSlippageBps int
}

// Scanner orchestrates one full arbitrage scan cycle across candidate pools.
type Scanner struct {
	cfg       Config
	catalog   PoolCatalog
	quotes    QuoteClient
	tokens    TokenResolver
	simulator *Simulator
	store     *Store
	logger    *zap.Logger
}

// NewScanner creates a scanner publishing into the given store.
func NewScanner(cfg Config, catalog PoolCatalog, quotes QuoteClient, tokens TokenResolver, simulator *Simulator, store *Store, logger *zap.Logger) *Scanner {
	return &Scanner{
		cfg:       cfg,
		catalog:   catalog,
		quotes:    quotes,
		tokens:    tokens,
		simulator: simulator,
		store:     store,
		logger:    logger.Named("scanner"),
	}
}

// Store returns the store this scanner publishes into.
func (s *Scanner) Store() *Store {
	return s.store
}

// Scan recomputes the opportunity set from scratch and atomically replaces
// the published one. Per-pool and per-direction failures are contained; the
// only condition that aborts a cycle is a total pool-listing failure, in
// which case the previously published set stays visible.
func (s *Scanner) Scan(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("🔍 Starting arbitrage scan cycle")

	pools, err := s.catalog.ListPools(ctx)
	if err != nil {
		s.logger.Warn("pool listing failed, keeping previous opportunity set", zap.Error(err))
		return fmt.Errorf("scan cycle aborted: %w", err)
	}

	var found []Opportunity
	for _, pool := range pools {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		found = append(found, s.scanPool(ctx, pool)...)
	}

	// Rank by estimated profitability before publishing.
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].ProfitPercent > found[j].ProfitPercent
	})

	s.store.Publish(found)

	s.logger.Info("✅ Scan cycle completed",
		zap.Int("pools", len(pools)),
		zap.Int("opportunities", len(found)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// scanPool evaluates both trade directions for one pool. Any failure,
// including a panic, is contained here so the remaining pools still run.
func (s *Scanner) scanPool(ctx context.Context, pool meteora.PoolRecord) (found []Opportunity) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pool evaluation panic recovered",
				zap.String("pool", pool.Address),
				zap.Any("panic", r))
			found = nil
		}
	}()

	if pool.Address == "" || pool.MintX == "" || pool.MintY == "" {
		s.logger.Debug("skipping incomplete pool", zap.String("pool", pool.Address))
		return nil
	}

	baseMint, memeMint, baseSymbol, ok := s.classifyPair(pool)
	if !ok {
		return nil
	}

	baseInfo := s.tokens.Resolve(ctx, baseMint)
	if baseSymbol == "" {
		baseSymbol = baseInfo.Symbol
	}
	memeInfo := s.tokens.Resolve(ctx, memeMint)
	pair := memeInfo.Symbol + "/" + baseSymbol

	capitalRaw, err := token.ToRaw(s.cfg.TradeCapital, int(baseInfo.Decimals))
	if err != nil || capitalRaw == 0 {
		s.logger.Warn("cannot convert trade capital for pool, skipping",
			zap.String("pool", pool.Address),
			zap.Float64("capital", s.cfg.TradeCapital),
			zap.Uint8("decimals", baseInfo.Decimals),
			zap.Error(err))
		return nil
	}

	s.logger.Debug("analyzing pair",
		zap.String("pair", pair),
		zap.String("pool", pool.Address))

	base := pairContext{
		pool:       pool,
		pair:       pair,
		baseMint:   baseMint,
		memeMint:   memeMint,
		baseSymbol: baseSymbol,
		memeSymbol: memeInfo.Symbol,
		baseInfo:   baseInfo,
		capitalRaw: capitalRaw,
	}

	// Both directions are evaluated independently: a failed quote on one
	// side must not suppress the other.
	if opp, ok := s.evalBuyJupiterSellMeteora(ctx, base); ok {
		found = append(found, opp)
	}
	if opp, ok := s.evalBuyMeteoraSellJupiter(ctx, base); ok {
		found = append(found, opp)
	}
	return found
}

// classifyPair assigns the base and meme side of the pool against the
// configured base-token set. Pools pairing no base token are skipped.
func (s *Scanner) classifyPair(pool meteora.PoolRecord) (baseMint, memeMint, baseSymbol string, ok bool) {
	if symbol, isBase := s.cfg.BaseMints[pool.MintX]; isBase {
		return pool.MintX, pool.MintY, symbol, true
	}
	if symbol, isBase := s.cfg.BaseMints[pool.MintY]; isBase {
		return pool.MintY, pool.MintX, symbol, true
	}
	return "", "", "", false
}

type pairContext struct {
	pool       meteora.PoolRecord
	pair       string
	baseMint   string
	memeMint   string
	baseSymbol string
	memeSymbol string
	baseInfo   token.Info
	capitalRaw uint64
}

// evalBuyJupiterSellMeteora buys the meme token on the quote service with the
// trade capital and simulates selling it into the pool.
func (s *Scanner) evalBuyJupiterSellMeteora(ctx context.Context, pc pairContext) (Opportunity, bool) {
	quote, err := s.quotes.GetQuote(ctx, pc.baseMint, pc.memeMint, pc.capitalRaw, s.cfg.QuoteSlippageBps)
	if err != nil {
		s.logger.Debug("no buy quote, skipping direction",
			zap.String("pair", pc.pair),
			zap.String("direction", string(DirectionJupiterToMeteora)),
			zap.Error(err))
		return Opportunity{}, false
	}

	memeAmount, err := quote.OutAmountRaw()
	if err != nil || memeAmount == 0 {
		s.logger.Debug("unusable buy quote, skipping direction",
			zap.String("pair", pc.pair),
			zap.Error(err))
		return Opportunity{}, false
	}

	sim, err := s.simulator.Simulate(pc.pool, pc.memeMint, pc.baseMint, memeAmount)
	if err != nil {
		s.logger.Debug("pool sell simulation failed, skipping direction",
			zap.String("pair", pc.pair),
			zap.Error(err))
		return Opportunity{}, false
	}
	if sim.OutAmount == 0 {
		return Opportunity{}, false
	}

	return s.qualify(pc, DirectionJupiterToMeteora, sim.OutAmount, pc.capitalRaw)
}

// evalBuyMeteoraSellJupiter simulates buying the meme token from the pool
// with the trade capital, then quotes selling it on the quote service.
func (s *Scanner) evalBuyMeteoraSellJupiter(ctx context.Context, pc pairContext) (Opportunity, bool) {
	sim, err := s.simulator.Simulate(pc.pool, pc.baseMint, pc.memeMint, pc.capitalRaw)
	if err != nil {
		s.logger.Debug("pool buy simulation failed, skipping direction",
			zap.String("pair", pc.pair),
			zap.Error(err))
		return Opportunity{}, false
	}
	if sim.OutAmount == 0 {
		return Opportunity{}, false
	}

	quote, err := s.quotes.GetQuote(ctx, pc.memeMint, pc.baseMint, sim.OutAmount, s.cfg.QuoteSlippageBps)
	if err != nil {
		s.logger.Debug("no sell quote, skipping direction",
			zap.String("pair", pc.pair),
			zap.String("direction", string(DirectionMeteoraToJupiter)),
			zap.Error(err))
		return Opportunity{}, false
	}

	baseOut, err := quote.OutAmountRaw()
	if err != nil || baseOut == 0 {
		s.logger.Debug("unusable sell quote, skipping direction",
			zap.String("pair", pc.pair),
			zap.Error(err))
		return Opportunity{}, false
	}

	return s.qualify(pc, DirectionMeteoraToJupiter, baseOut, pc.capitalRaw)
}

// qualify applies the profit threshold and builds the Opportunity.
// Net profit and capital are in the same base-token raw units.
func (s *Scanner) qualify(pc pairContext, direction Direction, finalOut, capitalRaw uint64) (Opportunity, bool) {
	netProfit := int64(finalOut) - int64(capitalRaw)
	profitPercent := float64(netProfit) / float64(capitalRaw) * 100

	if profitPercent < s.cfg.MinProfitPercent {
		return Opportunity{}, false
	}

	buyVenue, sellVenue := "Jupiter", "Meteora"
	if direction == DirectionMeteoraToJupiter {
		buyVenue, sellVenue = "Meteora", "Jupiter"
	}

	opp := Opportunity{
		Pair:          pc.pair,
		Direction:     direction,
		Capital:       fmt.Sprintf("%g %s", s.cfg.TradeCapital, pc.baseSymbol),
		NetProfitRaw:  netProfit,
		ProfitPercent: profitPercent,
		BuyVenue:      buyVenue,
		SellVenue:     sellVenue,
		JupiterLink:   fmt.Sprintf("https://jup.ag/swap/%s-%s?amount=%g", pc.baseSymbol, pc.memeSymbol, s.cfg.TradeCapital),
		MeteoraLink:   fmt.Sprintf("https://app.meteora.ag/pools/%s", pc.pool.Address),
		DiscoveredAt:  time.Now(),
		BaseSymbol:    pc.baseSymbol,
		BaseDecimals:  pc.baseInfo.Decimals,
	}

	s.logger.Info("💰 Opportunity detected",
		zap.String("pair", opp.Pair),
		zap.String("direction", string(opp.Direction)),
		zap.Float64("profit_percent", profitPercent),
		zap.Int64("net_profit_raw", netProfit))
	return opp, true
}
