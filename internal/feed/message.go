package feed

import (
	"encoding/json"
	"fmt"
	"math/big"

	"copytrade-engine/internal/domain"
)

// swapMessage is the wire format of one swap event pushed by the feed.
// Raw deltas are decimal strings: int256 values do not fit JSON numbers.
type swapMessage struct {
	Type        string `json:"type"`
	TxHash      string `json:"txHash"`
	LogIndex    int    `json:"logIndex"`
	BlockNumber int64  `json:"blockNumber"`
	Timestamp   int64  `json:"timestamp"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount0     string `json:"amount0"`
	Amount1     string `json:"amount1"`
	Pool        string `json:"pool"`
}

// subscribeRequest asks the feed to stream swaps for the given pools.
type subscribeRequest struct {
	Type  string   `json:"type"`
	Pools []string `json:"pools"`
}

// DecodeSwapEvent parses one feed message into a domain event.
// Messages of other types return (nil, nil).
func DecodeSwapEvent(data []byte) (*domain.SwapEvent, error) {
	var msg swapMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode feed message: %w", err)
	}
	if msg.Type != "swap" {
		return nil, nil
	}
	if msg.TxHash == "" || msg.Pool == "" {
		return nil, fmt.Errorf("swap message missing identity fields")
	}

	amount0, err := parseBigInt(msg.Amount0)
	if err != nil {
		return nil, fmt.Errorf("parse amount0: %w", err)
	}
	amount1, err := parseBigInt(msg.Amount1)
	if err != nil {
		return nil, fmt.Errorf("parse amount1: %w", err)
	}

	return &domain.SwapEvent{
		TxHash:      msg.TxHash,
		LogIndex:    msg.LogIndex,
		BlockNumber: msg.BlockNumber,
		Timestamp:   msg.Timestamp,
		Sender:      msg.Sender,
		Recipient:   msg.Recipient,
		Amount0:     amount0,
		Amount1:     amount1,
		Pool:        msg.Pool,
	}, nil
}

// parseBigInt parses a signed decimal string. Empty means zero.
func parseBigInt(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	return v, nil
}
