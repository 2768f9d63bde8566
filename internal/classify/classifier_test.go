package classify

import (
	"math/big"
	"testing"

	"copytrade-engine/internal/domain"
)

// ethUsdcPool mirrors a WETH/USDC pool where token0 is the base asset.
func ethUsdcPool() *domain.PoolMetadata {
	return &domain.PoolMetadata{
		Pool:           "0xpool1",
		Label:          "ETH/USDC 0.05%",
		FeeTier:        500,
		BaseIsToken0:   true,
		Token0Decimals: 18,
		Token1Decimals: 6,
	}
}

// swap builds an event with the given raw deltas. Positive flows out of
// the pool to the recipient, negative flows in from the sender.
func swap(amount0, amount1 int64) *domain.SwapEvent {
	return &domain.SwapEvent{
		TxHash:      "0xtx1",
		LogIndex:    1,
		BlockNumber: 19000000,
		Timestamp:   1700000000,
		Sender:      "0xsender",
		Recipient:   "0xrecipient",
		Amount0:     big.NewInt(amount0),
		Amount1:     big.NewInt(amount1),
		Pool:        "0xpool1",
	}
}

func TestDirection_TruthTable(t *testing.T) {
	meta := ethUsdcPool()

	tests := []struct {
		name    string
		amount0 int64 // base delta (BaseIsToken0)
		amount1 int64 // quote delta
		role    domain.Role
		want    domain.Direction
	}{
		{
			name:    "recipient receives base",
			amount0: 1000, amount1: -3000000,
			role: domain.RoleRecipient,
			want: domain.DirectionBuy,
		},
		{
			name:    "recipient receives quote",
			amount0: -1000, amount1: 3000000,
			role: domain.RoleRecipient,
			want: domain.DirectionSell,
		},
		{
			name:    "sender provides base",
			amount0: -1000, amount1: 3000000,
			role: domain.RoleSender,
			want: domain.DirectionSell,
		},
		{
			name:    "sender provides quote",
			amount0: 1000, amount1: -3000000,
			role: domain.RoleSender,
			want: domain.DirectionBuy,
		},
		{
			name:    "zero deltas are indeterminate",
			amount0: 0, amount1: 0,
			role: domain.RoleRecipient,
			want: domain.DirectionIndeterminate,
		},
		{
			name:    "recipient with both deltas negative",
			amount0: -1000, amount1: -3000000,
			role: domain.RoleRecipient,
			want: domain.DirectionIndeterminate,
		},
		{
			name:    "sender with both deltas positive",
			amount0: 1000, amount1: 3000000,
			role: domain.RoleSender,
			want: domain.DirectionIndeterminate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Direction(swap(tt.amount0, tt.amount1), meta, tt.role)
			if got != tt.want {
				t.Errorf("Direction() = %s, want %s", got, tt.want)
			}
		})
	}
}

// The classification must not change when the pool stores the base asset
// as token1 instead of token0.
func TestDirection_OrientationAgnostic(t *testing.T) {
	flipped := &domain.PoolMetadata{
		Pool:           "0xpool2",
		BaseIsToken0:   false,
		Token0Decimals: 6,
		Token1Decimals: 18,
	}

	// Base flows out to the recipient via token1.
	event := swap(-3000000, 1000)

	if got := Direction(event, flipped, domain.RoleRecipient); got != domain.DirectionBuy {
		t.Errorf("recipient on flipped pool = %s, want BUY", got)
	}
	if got := Direction(event, flipped, domain.RoleSender); got != domain.DirectionBuy {
		t.Errorf("sender on flipped pool = %s, want BUY", got)
	}
}

func TestDirection_NilAmounts(t *testing.T) {
	event := swap(0, 0)
	event.Amount0 = nil
	event.Amount1 = nil

	got := Direction(event, ethUsdcPool(), domain.RoleRecipient)
	if got != domain.DirectionIndeterminate {
		t.Errorf("Direction() with nil amounts = %s, want INDETERMINATE", got)
	}
}

func TestDirection_UnknownRole(t *testing.T) {
	got := Direction(swap(1000, -3000000), ethUsdcPool(), domain.Role("OBSERVER"))
	if got != domain.DirectionIndeterminate {
		t.Errorf("Direction() with unknown role = %s, want INDETERMINATE", got)
	}
}
