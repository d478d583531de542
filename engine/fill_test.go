package engine

import (
	"math/rand"
	"testing"
)

func newSim(min, max, rate float64) *fillSimulator {
	return &fillSimulator{
		rng:            rand.New(rand.NewSource(7)),
		slipMin:        min,
		slipMax:        max,
		commissionRate: rate,
	}
}

func TestOpenFillSlippageIsAdverse(t *testing.T) {
	const market = 100.0

	t.Run("long fills above market", func(t *testing.T) {
		s := newSim(0.001, 0.005, 0)
		for i := 0; i < 1000; i++ {
			px := s.openFill(market, OrderRequest{Side: SideLong, Type: OrderMarket})
			if px < market*1.001 || px > market*1.005 {
				t.Fatalf("fill %.6f outside adverse band", px)
			}
		}
	})

	t.Run("short fills below market", func(t *testing.T) {
		s := newSim(0.001, 0.005, 0)
		for i := 0; i < 1000; i++ {
			px := s.openFill(market, OrderRequest{Side: SideShort, Type: OrderMarket})
			if px > market*0.999 || px < market*0.995 {
				t.Fatalf("fill %.6f outside adverse band", px)
			}
		}
	})
}

func TestCloseFillSlippageFlipsSide(t *testing.T) {
	const market = 100.0

	s := newSim(0.001, 0.005, 0)
	for i := 0; i < 1000; i++ {
		// closing a long is a sell: fills below market
		if px := s.closeFill(market, SideLong); px >= market {
			t.Fatalf("long close fill %.6f not below market", px)
		}
		// closing a short is a buy: fills above market
		if px := s.closeFill(market, SideShort); px <= market {
			t.Fatalf("short close fill %.6f not above market", px)
		}
	}
}

func TestLimitAndStopOrdersSkipSlippage(t *testing.T) {
	s := newSim(0.001, 0.005, 0)

	limit := 99.5
	px := s.openFill(100, OrderRequest{Side: SideLong, Type: OrderLimit, LimitPrice: &limit})
	if px != limit {
		t.Fatalf("limit fill: got %.4f want %.4f", px, limit)
	}

	px = s.openFill(100, OrderRequest{Side: SideLong, Type: OrderStop})
	if px != 100 {
		t.Fatalf("stop without price should fall back to market: got %.4f", px)
	}
}

func TestZeroSlippageRange(t *testing.T) {
	s := newSim(0, 0, 0)
	if px := s.openFill(100, OrderRequest{Side: SideLong, Type: OrderMarket}); px != 100 {
		t.Fatalf("zero slippage fill: got %.6f", px)
	}
}

func TestCommission(t *testing.T) {
	s := newSim(0, 0, 0.001)
	if c := s.commission(1000); c != 1 {
		t.Fatalf("commission: got %.4f want 1", c)
	}
}

func TestSeededFillsReproducible(t *testing.T) {
	a := newSim(0.001, 0.005, 0)
	b := newSim(0.001, 0.005, 0)
	for i := 0; i < 100; i++ {
		pa := a.openFill(100, OrderRequest{Side: SideLong, Type: OrderMarket})
		pb := b.openFill(100, OrderRequest{Side: SideLong, Type: OrderMarket})
		if pa != pb {
			t.Fatalf("same seed diverged at draw %d: %.9f vs %.9f", i, pa, pb)
		}
	}
}
