// internal/blockchain/client.go
package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/token"
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

// ErrMetadataUnavailable возвращается, когда метаданные mint'а недоступны.
var ErrMetadataUnavailable = errors.New("token metadata unavailable")

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("solana-client"),
	}
}

// GetMintMetadata читает SPL mint аккаунт и извлекает decimals.
// Decimals живут в байте 44 данных mint аккаунта; символ on-chain
// недоступен без отдельной metadata-программы, поэтому остается пустым.
func (c *Client) GetMintMetadata(ctx context.Context, mint solana.PublicKey) (token.Metadata, error) {
	acc, err := c.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return token.Metadata{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}

	if acc == nil || acc.Value == nil {
		return token.Metadata{}, fmt.Errorf("%w: account not found: %s", ErrMetadataUnavailable, mint.String())
	}

	data := acc.Value.Data.GetBinary()
	if len(data) < 45 {
		return token.Metadata{}, fmt.Errorf("%w: invalid mint account data length: %d", ErrMetadataUnavailable, len(data))
	}

	return token.Metadata{Decimals: data[44]}, nil
}
