package engine

import "math/rand"

// fillSimulator turns a quoted market price into a realistic fill. Market
// orders pay a slippage percentage drawn uniformly from [slipMin, slipMax],
// always against the trader: up for buys, down for sells. Limit and stop
// orders fill instantly at the requested price when one is given.
type fillSimulator struct {
	rng            *rand.Rand
	slipMin        float64
	slipMax        float64
	commissionRate float64
}

func (s *fillSimulator) slippage() float64 {
	return s.slipMin + s.rng.Float64()*(s.slipMax-s.slipMin)
}

// openFill prices the opening leg of req against marketPrice.
func (s *fillSimulator) openFill(marketPrice float64, req OrderRequest) float64 {
	if req.Type != OrderMarket {
		if req.LimitPrice != nil {
			return *req.LimitPrice
		}
		return marketPrice
	}

	slip := s.slippage()
	if req.Side == SideLong {
		return marketPrice * (1 + slip)
	}
	return marketPrice * (1 - slip)
}

// closeFill prices the offsetting leg for a position on side: a long closes
// with a sell, a short with a buy, so slippage flips sign.
func (s *fillSimulator) closeFill(marketPrice float64, side Side) float64 {
	slip := s.slippage()
	if side == SideLong {
		return marketPrice * (1 - slip)
	}
	return marketPrice * (1 + slip)
}

// commission is charged per leg on the notional stake.
func (s *fillSimulator) commission(amount float64) float64 {
	return amount * s.commissionRate
}
