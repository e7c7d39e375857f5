package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/mollybeach/ai-rug-checker/internal/features"
)

// defaultDecimals is assumed for raw log values; most ERC-20s use 18.
const defaultDecimals = 18

// TransferReader pulls Transfer logs for a token over a trailing block window.
type TransferReader struct {
	client   EthClient
	lookback uint64
}

// NewTransferReader reads the last lookback blocks of history.
func NewTransferReader(client EthClient, lookback uint64) *TransferReader {
	if lookback == 0 {
		lookback = 5000
	}
	return &TransferReader{client: client, lookback: lookback}
}

// Transfers returns decoded Transfer events for token, newest first. Gas
// price is not available from logs and is left at zero.
func (r *TransferReader) Transfers(ctx context.Context, token string) ([]features.Transfer, error) {
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("chain: invalid token address %q", token)
	}

	latest, err := r.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: latest block: %w", err)
	}
	var from uint64
	if latest > r.lookback {
		from = latest - r.lookback
	}

	logs, err := r.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(latest),
		Addresses: []common.Address{common.HexToAddress(token)},
		Topics:    [][]common.Hash{{TransferTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("chain: filter transfer logs: %w", err)
	}

	times := make(map[uint64]int64)
	transfers := make([]features.Transfer, 0, len(logs))
	for _, lg := range logs {
		t, ok := decodeTransfer(lg)
		if !ok {
			continue
		}
		ts, seen := times[lg.BlockNumber]
		if !seen {
			header, err := r.client.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
			if err != nil {
				return nil, fmt.Errorf("chain: header %d: %w", lg.BlockNumber, err)
			}
			ts = int64(header.Time)
			times[lg.BlockNumber] = ts
		}
		t.Timestamp = ts
		transfers = append(transfers, t)
	}

	sort.SliceStable(transfers, func(i, j int) bool {
		return transfers[i].Timestamp > transfers[j].Timestamp
	})
	return transfers, nil
}

// decodeTransfer parses a standard ERC-20 Transfer log. ERC-721 transfers
// index the token id and carry no data, so they are rejected.
func decodeTransfer(lg types.Log) (features.Transfer, bool) {
	if len(lg.Topics) != 3 || lg.Topics[0] != TransferTopic || len(lg.Data) != 32 {
		return features.Transfer{}, false
	}
	value := new(big.Int).SetBytes(lg.Data)
	return features.Transfer{
		From:  strings.ToLower(common.BytesToAddress(lg.Topics[1].Bytes()).Hex()),
		To:    strings.ToLower(common.BytesToAddress(lg.Topics[2].Bytes()).Hex()),
		Value: decimal.NewFromBigInt(value, -defaultDecimals).InexactFloat64(),
	}, true
}
