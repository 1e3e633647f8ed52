package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/meteora"
)

const (
	testMintX = "So11111111111111111111111111111111111111112"
	testMintY = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

func testPool() meteora.PoolRecord {
	return meteora.PoolRecord{
		Address:  "Pool1111111111111111111111111111111111111111",
		Name:     "BONK-SOL",
		MintX:    testMintX,
		MintY:    testMintY,
		ReserveX: 1_000_000_000_000,
		ReserveY: 10_000_000_000_000,
		// Price of X denominated in Y units.
		CurrentPrice: 0.0001,
	}
}

func TestSimulateConstantPriceEstimate(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))
	pool := testPool()

	// 1e8 of X at price 0.0001 buys 1e12 of Y. Impact ratio is 0.0001,
	// which rounds to zero slippage; no fees configured.
	result, err := sim.Simulate(pool, testMintX, testMintY, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000), result.OutAmount)
	assert.Equal(t, uint64(0), result.SlippageBps)

	// Reverse direction multiplies by the price instead.
	result, err = sim.Simulate(pool, testMintY, testMintX, 1_000_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), result.OutAmount)
}

func TestSimulateAppliesFeeHaircuts(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))
	pool := testPool()
	pool.BaseFeeRate = 0.0025
	pool.ProtocolFeeRate = 0.0005

	// 30 bps of combined fees on a 1e12 estimate.
	result, err := sim.Simulate(pool, testMintX, testMintY, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(997_000_000_000), result.OutAmount)
}

func TestSimulateHaircutOrderAndTruncation(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))
	pool := meteora.PoolRecord{
		Address:      "Pool2222222222222222222222222222222222222222",
		MintX:        testMintX,
		MintY:        testMintY,
		ReserveX:     9_990,
		ReserveY:     9_990,
		CurrentPrice: 1.0,
		BaseFeeRate:  0.005,
	}

	// Estimate 999, impact 999/9990 -> 100 bps slippage, then 50 bps fee.
	// 999 * 9900 / 10000 = 989 (truncated), 989 * 9950 / 10000 = 984.
	result, err := sim.Simulate(pool, testMintX, testMintY, 999)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), result.SlippageBps)
	assert.Equal(t, uint64(984), result.OutAmount)
}

func TestSimulateSlippageCap(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))
	pool := testPool()

	// Trading the entire input reserve implies 1000 bps, clamped to 500.
	result, err := sim.Simulate(pool, testMintX, testMintY, pool.ReserveX)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), result.SlippageBps)

	// A configured cap overrides the default.
	tight := NewSimulator(SimulatorConfig{SlippageCapBps: 100}, zaptest.NewLogger(t))
	result, err = tight.Simulate(pool, testMintX, testMintY, pool.ReserveX)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), result.SlippageBps)
}

func TestSimulateMintMismatch(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))
	pool := testPool()

	_, err := sim.Simulate(pool, testMintX, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 1000)
	assert.ErrorIs(t, err, ErrMintMismatch)

	// Same-mint "pair" is a mismatch too.
	_, err = sim.Simulate(pool, testMintX, testMintX, 1000)
	assert.ErrorIs(t, err, ErrMintMismatch)
}

func TestSimulateIncompletePoolData(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))

	pool := testPool()
	pool.CurrentPrice = 0
	_, err := sim.Simulate(pool, testMintX, testMintY, 1000)
	assert.ErrorIs(t, err, ErrIncompletePoolData)

	pool = testPool()
	pool.ReserveX = 0
	_, err = sim.Simulate(pool, testMintX, testMintY, 1000)
	assert.ErrorIs(t, err, ErrIncompletePoolData)

	pool = testPool()
	pool.MintY = ""
	_, err = sim.Simulate(pool, testMintX, pool.MintY, 1000)
	assert.ErrorIs(t, err, ErrIncompletePoolData)
}

func TestSimulateEstimateOutOfRange(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))

	// A vanishingly small but positive price passes pool validation, yet the
	// scaled estimate no longer fits in uint64. That is a simulation failure,
	// never a silently converted garbage amount.
	pool := testPool()
	pool.CurrentPrice = 1e-15
	_, err := sim.Simulate(pool, testMintX, testMintY, 100_000_000)
	assert.ErrorIs(t, err, ErrIncompletePoolData)

	// Same for the multiplying direction with an extreme price.
	pool = testPool()
	pool.CurrentPrice = 1e30
	_, err = sim.Simulate(pool, testMintY, testMintX, 100_000_000)
	assert.ErrorIs(t, err, ErrIncompletePoolData)

	// Just inside the range still simulates.
	pool = testPool()
	pool.CurrentPrice = 1e-9
	result, err := sim.Simulate(pool, testMintX, testMintY, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000_000_000_000), result.OutAmount)
}

func TestSimulateFeeOverflowClampsToZeroOutput(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, zaptest.NewLogger(t))
	pool := testPool()
	pool.BaseFeeRate = 1.5 // malformed listing data

	result, err := sim.Simulate(pool, testMintX, testMintY, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.OutAmount)
}
