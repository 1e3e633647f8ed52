package scanner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/jupiter"
	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/meteora"
	"github.com/rovshanmuradov/solana-arb-bot/internal/token"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	memeMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

type fakeCatalog struct {
	pools []meteora.PoolRecord
	err   error
	calls int
}

func (f *fakeCatalog) ListPools(ctx context.Context) ([]meteora.PoolRecord, error) {
	f.calls++
	return f.pools, f.err
}

// fakeQuoteClient serves scripted responses keyed by "inputMint->outputMint".
type fakeQuoteClient struct {
	outAmounts map[string]uint64
	errs       map[string]error
	calls      []string
}

func (f *fakeQuoteClient) GetQuote(ctx context.Context, inputMint, outputMint string, amountRaw uint64, slippageBps int) (*jupiter.Quote, error) {
	key := inputMint + "->" + outputMint
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	out, ok := f.outAmounts[key]
	if !ok {
		return nil, jupiter.ErrQuoteUnavailable
	}
	return &jupiter.Quote{
		InputMint:  inputMint,
		OutputMint: outputMint,
		InAmount:   strconv.FormatUint(amountRaw, 10),
		OutAmount:  strconv.FormatUint(out, 10),
	}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, mint string) token.Info {
	if mint == solMint {
		return token.Info{Mint: mint, Decimals: 9, Symbol: "SOL"}
	}
	return token.Info{Mint: mint, Decimals: 5, Symbol: "BONK"}
}

func scannerPool() meteora.PoolRecord {
	return meteora.PoolRecord{
		Address:  "Pool1111111111111111111111111111111111111111",
		Name:     "SOL-BONK",
		MintX:    solMint,
		MintY:    memeMint,
		ReserveX: 1_000_000_000_000,
		ReserveY: 1_000_000_000_000_000,
		// Price of X (SOL) in Y units: 1 raw SOL buys 2 raw BONK.
		CurrentPrice: 0.5,
	}
}

func newTestScanner(t *testing.T, catalog *fakeCatalog, quotes *fakeQuoteClient) *Scanner {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewScanner(Config{
		MinProfitPercent: 0.1,
		TradeCapital:     0.1, // 1e8 raw at 9 decimals
		BaseMints:        map[string]string{solMint: "SOL"},
		QuoteSlippageBps: 50,
	}, catalog, quotes, fakeResolver{}, NewSimulator(SimulatorConfig{}, logger), NewStore(), logger)
}

func TestScanFindsProfitableDirection(t *testing.T) {
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{scannerPool()}}
	quotes := &fakeQuoteClient{
		outAmounts: map[string]uint64{
			// Buy leg: 1e8 raw SOL buys 2.1e8 raw BONK on the aggregator.
			// Selling that into the pool returns 1.05e8 raw SOL: +5%.
			solMint + "->" + memeMint: 210_000_000,
			// Reverse direction sells at a loss and must not qualify.
			memeMint + "->" + solMint: 99_000_000,
		},
	}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))

	found := scn.Store().Current()
	require.Len(t, found, 1)
	opp := found[0]
	assert.Equal(t, DirectionJupiterToMeteora, opp.Direction)
	assert.Equal(t, "BONK/SOL", opp.Pair)
	assert.Equal(t, int64(5_000_000), opp.NetProfitRaw)
	assert.InDelta(t, 5.0, opp.ProfitPercent, 1e-9)
	assert.Equal(t, "Jupiter", opp.BuyVenue)
	assert.Equal(t, "Meteora", opp.SellVenue)
	assert.Contains(t, opp.MeteoraLink, catalog.pools[0].Address)
	assert.Contains(t, opp.JupiterLink, "SOL-BONK")
	assert.Equal(t, "0.005000 SOL", opp.NetProfitHuman())
}

func TestScanEvaluatesSecondDirectionWhenFirstQuoteFails(t *testing.T) {
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{scannerPool()}}
	quotes := &fakeQuoteClient{
		errs: map[string]error{
			solMint + "->" + memeMint: jupiter.ErrQuoteUnavailable,
		},
		outAmounts: map[string]uint64{
			// Pool buy yields 2e8 raw BONK; aggregator sells it for +2%.
			memeMint + "->" + solMint: 102_000_000,
		},
	}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))

	found := scn.Store().Current()
	require.Len(t, found, 1)
	assert.Equal(t, DirectionMeteoraToJupiter, found[0].Direction)
	assert.Equal(t, "Meteora", found[0].BuyVenue)
	// Both direction legs were attempted despite the first failure.
	assert.Contains(t, quotes.calls, solMint+"->"+memeMint)
	assert.Contains(t, quotes.calls, memeMint+"->"+solMint)
}

func TestScanAppliesProfitThreshold(t *testing.T) {
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{scannerPool()}}
	quotes := &fakeQuoteClient{
		outAmounts: map[string]uint64{
			// Sell leg returns +0.05%, below the 0.1% threshold.
			memeMint + "->" + solMint: 100_050_000,
		},
	}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))
	assert.Empty(t, scn.Store().Current())
}

func TestScanSkipsPoolsWithoutBaseToken(t *testing.T) {
	pool := scannerPool()
	pool.MintX = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" // not configured as base
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{pool}}
	quotes := &fakeQuoteClient{}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))
	assert.Empty(t, scn.Store().Current())
	assert.Empty(t, quotes.calls)
}

func TestScanListingFailureKeepsPreviousSet(t *testing.T) {
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{scannerPool()}}
	quotes := &fakeQuoteClient{
		outAmounts: map[string]uint64{
			solMint + "->" + memeMint: 210_000_000,
		},
	}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))
	require.Len(t, scn.Store().Current(), 1)

	catalog.err = errors.New("listing api down")
	catalog.pools = nil
	err := scn.Scan(context.Background())
	require.Error(t, err)

	// The previously published set stays visible.
	assert.Len(t, scn.Store().Current(), 1)
}

func TestScanRanksByProfitDescending(t *testing.T) {
	secondPool := scannerPool()
	secondPool.Address = "Pool2222222222222222222222222222222222222222"
	secondPool.MintY = "WiF1111111111111111111111111111111111111111"
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{scannerPool(), secondPool}}
	quotes := &fakeQuoteClient{
		outAmounts: map[string]uint64{
			// First pool: +5% via the pool sell leg.
			solMint + "->" + memeMint: 210_000_000,
			// Second pool: +10% via the aggregator sell leg.
			secondPool.MintY + "->" + solMint: 110_000_000,
		},
	}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))

	found := scn.Store().Current()
	require.Len(t, found, 2)
	assert.Greater(t, found[0].ProfitPercent, found[1].ProfitPercent)
	assert.InDelta(t, 10.0, found[0].ProfitPercent, 1e-9)
}

func TestScanContainsPerPoolFailures(t *testing.T) {
	broken := scannerPool()
	broken.Address = "PoolBroken1111111111111111111111111111111111"
	broken.CurrentPrice = 0 // unusable for simulation
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{broken, scannerPool()}}
	quotes := &fakeQuoteClient{
		outAmounts: map[string]uint64{
			solMint + "->" + memeMint: 210_000_000,
		},
	}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))

	found := scn.Store().Current()
	require.Len(t, found, 1)
	assert.Equal(t, "Pool1111111111111111111111111111111111111111", found[0].MeteoraLink[len("https://app.meteora.ag/pools/"):])
}

func TestScanCanceledContext(t *testing.T) {
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{scannerPool()}}
	scn := newTestScanner(t, catalog, &fakeQuoteClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := scn.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQualifyCapitalRendering(t *testing.T) {
	catalog := &fakeCatalog{pools: []meteora.PoolRecord{scannerPool()}}
	quotes := &fakeQuoteClient{
		outAmounts: map[string]uint64{
			solMint + "->" + memeMint: 210_000_000,
		},
	}
	scn := newTestScanner(t, catalog, quotes)

	require.NoError(t, scn.Scan(context.Background()))
	found := scn.Store().Current()
	require.Len(t, found, 1)
	assert.Equal(t, fmt.Sprintf("%g SOL", 0.1), found[0].Capital)
}
