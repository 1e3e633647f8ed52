// internal/scanner/simulator.go
package scanner

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/meteora"
)

const (
	bpsDenominator = 10_000

	// DefaultSlippageImpactFactor maps trade-size-to-reserve ratio to bps:
	// a 100% impact ratio estimates 1000 bps of slippage. Heuristic, not a
	// replica of the DAMM v2 bin model.
	DefaultSlippageImpactFactor = 1000
	// DefaultSlippageCapBps clamps the estimate for thin pools.
	DefaultSlippageCapBps = 500
)

var (
	// ErrMintMismatch means the requested mint pair is not the pool's pair.
	ErrMintMismatch = errors.New("mints do not match pool")
	// ErrIncompletePoolData means the pool snapshot lacks the fields
	// required for simulation.
	ErrIncompletePoolData = errors.New("incomplete pool data")
)

// SimulationResult holds the estimated swap outcome.
type SimulationResult struct {
	OutAmount   uint64
	SlippageBps uint64
}

// SimulatorConfig configures the swap simulator's heuristic constants.
type SimulatorConfig struct {
	SlippageImpactFactor uint64
	SlippageCapBps       uint64
}

// Simulator estimates the output of a hypothetical swap against a DAMM v2
// pool snapshot. The model is a constant-price approximation with a
// reserve-impact slippage heuristic and fee haircut; it does not replicate
// the on-chain liquidity-curve mathematics.
type Simulator struct {
	impactFactor uint64
	capBps       uint64
	logger       *zap.Logger
}

// NewSimulator creates a swap simulator.
func NewSimulator(cfg SimulatorConfig, logger *zap.Logger) *Simulator {
	impactFactor := cfg.SlippageImpactFactor
	if impactFactor == 0 {
		impactFactor = DefaultSlippageImpactFactor
	}
	capBps := cfg.SlippageCapBps
	if capBps == 0 {
		capBps = DefaultSlippageCapBps
	}
	return &Simulator{
		impactFactor: impactFactor,
		capBps:       capBps,
		logger:       logger.Named("simulator"),
	}
}

// Simulate estimates swapping inputRaw of inputMint into outputMint against
// the pool. Malformed numeric fields are recovered and reported as an error
// rather than propagating; the caller treats the pool as unusable this cycle.
func (s *Simulator) Simulate(pool meteora.PoolRecord, inputMint, outputMint string, inputRaw uint64) (result SimulationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("simulation panic recovered",
				zap.String("pool", pool.Address),
				zap.Any("panic", r))
			result = SimulationResult{}
			err = fmt.Errorf("simulation failure for pool %s: %v", pool.Address, r)
		}
	}()

	xToY := inputMint == pool.MintX && outputMint == pool.MintY
	yToX := inputMint == pool.MintY && outputMint == pool.MintX
	if !xToY && !yToX {
		return SimulationResult{}, fmt.Errorf("%w: pool %s, input %s, output %s",
			ErrMintMismatch, pool.Address, inputMint, outputMint)
	}

	if err := validatePool(pool); err != nil {
		return SimulationResult{}, err
	}

	// Naive constant-price estimate, truncating. The float value must be
	// range-checked before conversion: uint64 of an out-of-range float is
	// implementation-defined, not an error.
	var scaled float64
	if xToY {
		scaled = float64(inputRaw) / pool.CurrentPrice
	} else {
		scaled = float64(inputRaw) * pool.CurrentPrice
	}
	if scaled >= math.MaxUint64 {
		return SimulationResult{}, fmt.Errorf("%w: pool %s estimate exceeds uint64 range", ErrIncompletePoolData, pool.Address)
	}
	estimate := uint64(scaled)

	totalFeeBps := uint64(math.Round((pool.BaseFeeRate + pool.ProtocolFeeRate) * bpsDenominator))
	if totalFeeBps > bpsDenominator {
		totalFeeBps = bpsDenominator
	}

	inputReserve := pool.ReserveX
	if yToX {
		inputReserve = pool.ReserveY
	}

	slippageBps := uint64(math.Round(float64(inputRaw) / float64(inputReserve) * float64(s.impactFactor)))
	if slippageBps > s.capBps {
		slippageBps = s.capBps
	}

	// Successive multiplicative haircuts, each division truncating.
	out := applyBpsHaircut(estimate, slippageBps)
	out = applyBpsHaircut(out, totalFeeBps)

	return SimulationResult{OutAmount: out, SlippageBps: slippageBps}, nil
}

func validatePool(pool meteora.PoolRecord) error {
	if pool.MintX == "" || pool.MintY == "" {
		return fmt.Errorf("%w: pool %s missing mints", ErrIncompletePoolData, pool.Address)
	}
	if pool.CurrentPrice <= 0 || math.IsNaN(pool.CurrentPrice) || math.IsInf(pool.CurrentPrice, 0) {
		return fmt.Errorf("%w: pool %s has invalid price", ErrIncompletePoolData, pool.Address)
	}
	if pool.ReserveX == 0 || pool.ReserveY == 0 {
		return fmt.Errorf("%w: pool %s has empty reserves", ErrIncompletePoolData, pool.Address)
	}
	return nil
}

// applyBpsHaircut computes amount * (10000 - bps) / 10000 in 256-bit
// arithmetic so thick-pool amounts cannot overflow the intermediate product.
func applyBpsHaircut(amount, bps uint64) uint64 {
	if bps >= bpsDenominator {
		return 0
	}
	v := uint256.NewInt(amount)
	v.Mul(v, uint256.NewInt(bpsDenominator-bps))
	v.Div(v, uint256.NewInt(bpsDenominator))
	return v.Uint64()
}
