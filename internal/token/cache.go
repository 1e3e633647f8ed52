// internal/token/cache.go
package token

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Info хранит метаданные токена, используемые сканером.
type Info struct {
	Mint     string
	Decimals uint8
	Symbol   string
}

// Metadata is the result of an on-chain metadata lookup.
type Metadata struct {
	Decimals uint8
	Symbol   string
}

// MetadataClient resolves mint metadata from an external source (RPC).
type MetadataClient interface {
	GetMintMetadata(ctx context.Context, mint solana.PublicKey) (Metadata, error)
}

// CacheConfig configures the token info cache.
type CacheConfig struct {
	// Known contains fixed entries for well-known tokens (base assets),
	// keyed by mint address. These never hit the metadata client.
	Known map[string]Info
	// DefaultDecimals is substituted when a lookup fails or returns no decimals.
	DefaultDecimals uint8
}

// Cache resolves and memoizes token metadata per mint. Entries are kept for
// the lifetime of the process: decimals and symbol are immutable on-chain
// properties, so staleness is acceptable and eviction is deliberately absent.
type Cache struct {
	client          MetadataClient
	known           map[string]Info
	defaultDecimals uint8
	logger          *zap.Logger

	mu      sync.RWMutex
	entries map[string]Info
}

// NewCache создает новый кэш метаданных токенов.
func NewCache(client MetadataClient, cfg CacheConfig, logger *zap.Logger) *Cache {
	known := make(map[string]Info, len(cfg.Known))
	for mint, info := range cfg.Known {
		info.Mint = mint
		known[mint] = info
	}
	return &Cache{
		client:          client,
		known:           known,
		defaultDecimals: cfg.DefaultDecimals,
		logger:          logger.Named("token-cache"),
		entries:         make(map[string]Info),
	}
}

// Resolve returns usable token info for a mint. It never fails: on lookup
// failure or missing decimals the configured default is substituted, logged
// as degraded, and cached — the lookup is not retried for the same mint
// within the process lifetime.
func (c *Cache) Resolve(ctx context.Context, mint string) Info {
	if info, ok := c.known[mint]; ok {
		return info
	}

	c.mu.RLock()
	info, ok := c.entries[mint]
	c.mu.RUnlock()
	if ok {
		return info
	}

	info = c.lookup(ctx, mint)

	c.mu.Lock()
	// Last-write-wins: lookups are deterministic per mint, so a concurrent
	// duplicate resolve is harmless.
	c.entries[mint] = info
	c.mu.Unlock()

	return info
}

func (c *Cache) lookup(ctx context.Context, mint string) Info {
	info := Info{Mint: mint}

	pubkey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		c.logger.Warn("invalid mint address, using default decimals",
			zap.String("mint", mint),
			zap.Uint8("decimals", c.defaultDecimals),
			zap.Error(err))
		info.Decimals = c.defaultDecimals
		info.Symbol = shortMint(mint)
		return info
	}

	meta, err := c.client.GetMintMetadata(ctx, pubkey)
	if err != nil || meta.Decimals == 0 {
		c.logger.Warn("token metadata lookup degraded, using default decimals",
			zap.String("mint", mint),
			zap.Uint8("decimals", c.defaultDecimals),
			zap.Error(err))
		info.Decimals = c.defaultDecimals
	} else {
		info.Decimals = meta.Decimals
	}

	if meta.Symbol != "" {
		info.Symbol = meta.Symbol
	} else {
		// Synthetic symbol from the mint address; no registry is available
		// for fresh memecoins and pool display names are not trustworthy.
		info.Symbol = shortMint(mint)
	}

	return info
}

// WellKnown returns fixed metadata for tokens whose decimals and symbols
// are settled; these never require a lookup.
func WellKnown() map[string]Info {
	return map[string]Info{
		"So11111111111111111111111111111111111111112":  {Decimals: 9, Symbol: "SOL"},  // wSOL
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Decimals: 6, Symbol: "USDC"}, // USDC
		"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {Decimals: 5, Symbol: "BONK"}, // Bonk
	}
}

// shortMint возвращает сокращенный адрес mint'а как синтетический символ.
func shortMint(mint string) string {
	if len(mint) >= 8 {
		return mint[:4] + "..." + mint[len(mint)-4:]
	}
	return "TOKEN"
}
