package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// transferSelector is the ERC-20 transfer(address,uint256) selector.
var transferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

// DiscoveryMetrics counts discovered contracts.
type DiscoveryMetrics interface {
	ContractsDiscoveredAdd(n int)
}

// Scanner walks recent blocks looking for newly created token contracts.
type Scanner struct {
	client  EthClient
	chain   string
	blocks  uint64
	metrics DiscoveryMetrics
}

func NewScanner(client EthClient, chain string, blocks uint64, metrics DiscoveryMetrics) *Scanner {
	if blocks == 0 {
		blocks = 20
	}
	return &Scanner{client: client, chain: chain, blocks: blocks, metrics: metrics}
}

// Discover returns addresses of ERC-20 contracts created in the most recent
// blocks, newest block first, capped at limit when limit > 0. Per-transaction
// lookup failures are logged and skipped.
func (s *Scanner) Discover(ctx context.Context, limit int) ([]string, error) {
	latest, err := s.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: latest block: %w", err)
	}

	var found []string
	for i := uint64(0); i < s.blocks && i <= latest; i++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		num := latest - i
		block, err := s.client.BlockByNumber(ctx, new(big.Int).SetUint64(num))
		if err != nil {
			log.Warn().Err(err).Str("chain", s.chain).Uint64("block", num).Msg("Block lookup failed")
			continue
		}

		for _, tx := range block.Transactions() {
			if tx.To() != nil {
				continue
			}
			receipt, err := s.client.TransactionReceipt(ctx, tx.Hash())
			if err != nil || receipt == nil || receipt.ContractAddress == (common.Address{}) {
				continue
			}
			code, err := s.client.CodeAt(ctx, receipt.ContractAddress, nil)
			if err != nil || !IsERC20(code) {
				continue
			}

			addr := strings.ToLower(receipt.ContractAddress.Hex())
			log.Info().Str("chain", s.chain).Str("token", addr).Uint64("block", num).Msg("New token contract")
			found = append(found, addr)
			if limit > 0 && len(found) >= limit {
				s.record(len(found))
				return found, nil
			}
		}
	}

	s.record(len(found))
	return found, nil
}

func (s *Scanner) record(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.ContractsDiscoveredAdd(n)
	}
}

// IsERC20 reports whether runtime bytecode exposes the ERC-20 transfer selector.
func IsERC20(code []byte) bool {
	return len(code) > 0 && bytes.Contains(code, transferSelector)
}
