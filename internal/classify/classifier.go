// Package classify infers trade direction from signed swap deltas.
package classify

import (
	"math/big"

	"copytrade-engine/internal/domain"
)

// Direction infers BUY/SELL from a watched account's perspective given its
// role in the swap. Classification depends only on which asset moved and in
// which direction relative to the pool, so it is pool-orientation agnostic
// once metadata resolves the base/quote roles.
//
// A positive delta flows out of the pool to the recipient; a negative
// delta flows into the pool from the sender.
//
//   - recipient with base flowing out: received base -> BUY
//   - recipient with quote flowing out: received quote -> SELL
//   - sender with base flowing in: gave up base -> SELL
//   - sender with quote flowing in: gave up quote -> BUY
//
// Anything else is INDETERMINATE: a malformed or zero-amount swap. That is
// a terminal classification, not an error; the caller emits no trade.
func Direction(event *domain.SwapEvent, meta *domain.PoolMetadata, role domain.Role) domain.Direction {
	baseDelta, quoteDelta := splitDeltas(event, meta)

	switch role {
	case domain.RoleRecipient:
		if sign(baseDelta) > 0 {
			return domain.DirectionBuy
		}
		if sign(quoteDelta) > 0 {
			return domain.DirectionSell
		}
	case domain.RoleSender:
		if sign(baseDelta) < 0 {
			return domain.DirectionSell
		}
		if sign(quoteDelta) < 0 {
			return domain.DirectionBuy
		}
	}

	return domain.DirectionIndeterminate
}

// splitDeltas resolves which raw delta is the base asset per pool metadata.
func splitDeltas(event *domain.SwapEvent, meta *domain.PoolMetadata) (base, quote *big.Int) {
	if meta.BaseIsToken0 {
		return event.Amount0, event.Amount1
	}
	return event.Amount1, event.Amount0
}

func sign(v *big.Int) int {
	if v == nil {
		return 0
	}
	return v.Sign()
}
