// internal/scanner/opportunity.go
package scanner

import (
	"fmt"
	"math"
	"time"
)

// Direction identifies which venue the capital is bought on and which it is
// sold on. Exactly two directions exist per pool.
type Direction string

const (
	// DirectionJupiterToMeteora buys on the quote service, sells into the pool.
	DirectionJupiterToMeteora Direction = "Jupiter -> Meteora"
	// DirectionMeteoraToJupiter buys into the pool, sells on the quote service.
	DirectionMeteoraToJupiter Direction = "Meteora -> Jupiter"
)

// Opportunity is a detected, threshold-qualifying arbitrage for a fixed
// capital amount. Immutable once created; each scan cycle replaces the
// previous set wholesale.
type Opportunity struct {
	Pair          string    `json:"pair"`
	Direction     Direction `json:"direction"`
	Capital       string    `json:"capital"`
	NetProfitRaw  int64     `json:"net_profit_raw"`
	ProfitPercent float64   `json:"profit_percentage"`
	BuyVenue      string    `json:"buy_venue"`
	SellVenue     string    `json:"sell_venue"`
	JupiterLink   string    `json:"jupiter_link"`
	MeteoraLink   string    `json:"meteora_link"`
	DiscoveredAt  time.Time `json:"timestamp"`

	BaseSymbol   string `json:"base_symbol"`
	BaseDecimals uint8  `json:"-"`
}

// NetProfitHuman renders the net profit in base-token human units to six
// decimal places with a symbol suffix.
func (o Opportunity) NetProfitHuman() string {
	human := float64(o.NetProfitRaw) / math.Pow10(int(o.BaseDecimals))
	return fmt.Sprintf("%.6f %s", human, o.BaseSymbol)
}
