package features

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func TestVolumeAnomaly(t *testing.T) {
	testCases := []struct {
		name     string
		volume   Windows
		expected float64
		ok       bool
	}{
		{"even spread", Windows{H24: 2_400_000, H6: 600_000, H1: 100_000}, 0, true},
		{"no recent volume", Windows{H24: 2_000_000}, 0.8, true},
		{"moderate 6h surge", Windows{H24: 4_000_000, H6: 1_500_000, H1: 250_000}, 0.2, true}, // (0.5+0)/2/1.25
		{"late spike", Windows{H24: 1_500_000, H6: 1_200_000, H1: 1_000_000}, 1, true},
		{"missing 24h", Windows{H6: 100, H1: 10}, 0, false},
		{"negative 24h", Windows{H24: -5}, 0, false},
		{"NaN 24h", Windows{H24: math.NaN()}, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := VolumeAnomaly(tc.volume)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if math.Abs(result-tc.expected) > tolerance {
				t.Errorf("Expected %.10f, got %.10f", tc.expected, result)
			}
		})
	}
}

func TestLiquidityRisk(t *testing.T) {
	testCases := []struct {
		name      string
		liquidity float64
		marketCap float64
		expected  float64
		ok        bool
	}{
		{"thin pool", 200_000, 2_000_000, 0.8, true},
		{"quarter of cap", 500_000, 2_000_000, 0.5, true},
		{"deep pool", 1_000_000, 2_000_000, 0, true},
		{"pool larger than cap", 5_000_000, 2_000_000, 0, true},
		{"no liquidity", 0, 2_000_000, 0, false},
		{"no market cap", 200_000, 0, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := LiquidityRisk(tc.liquidity, tc.marketCap)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if math.Abs(result-tc.expected) > tolerance {
				t.Errorf("Expected %.10f, got %.10f", tc.expected, result)
			}
		})
	}
}

func TestPriceVolatility(t *testing.T) {
	testCases := []struct {
		name     string
		change   Windows
		expected float64
	}{
		{"unchanged", Windows{}, 0},
		{"largest move wins", Windows{H24: -50, H6: 10, H1: 5}, 0.5},
		{"clipped", Windows{H24: 250}, 1},
		{"NaN ignored", Windows{H24: math.NaN(), H1: -20}, 0.2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := PriceVolatility(tc.change)
			if math.Abs(result-tc.expected) > tolerance {
				t.Errorf("Expected %.10f, got %.10f", tc.expected, result)
			}
		})
	}
}

func TestMarketCapRisk(t *testing.T) {
	testCases := []struct {
		name      string
		marketCap float64
		expected  float64
		ok        bool
	}{
		{"at anchor", 1_000_000, 0, true},
		{"three orders above", 1e9, 0.5, true},
		{"three orders below", 1e3, 0.5, true},
		{"dust", 1, 1, true},
		{"far above", 1e14, 1, true},
		{"slightly above", 2_000_000, math.Log10(2) / 6, true},
		{"zero", 0, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := MarketCapRisk(tc.marketCap)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if math.Abs(result-tc.expected) > tolerance {
				t.Errorf("Expected %.10f, got %.10f", tc.expected, result)
			}
		})
	}
}

func TestSellPressure(t *testing.T) {
	testCases := []struct {
		name        string
		buys, sells int
		expected    float64
		ok          bool
	}{
		{"mostly buys", 80, 20, 0.2, true},
		{"balanced", 50, 50, 0.5, true},
		{"only sells", 0, 5, 1, true},
		{"no trades", 0, 0, 0, false},
		{"negative count", -1, 3, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := SellPressure(tc.buys, tc.sells)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if math.Abs(result-tc.expected) > tolerance {
				t.Errorf("Expected %.10f, got %.10f", tc.expected, result)
			}
		})
	}
}

func TestHolderConcentration(t *testing.T) {
	pingPong := []Transfer{
		{From: "0xA", To: "0xB"},
		{From: "0xb", To: "0xa"},
		{From: "0xA", To: "0xB"},
		{From: "0xB", To: "0xA"},
	}
	var spread []Transfer
	for i := 0; i < 10; i++ {
		spread = append(spread, Transfer{From: addr("from", i), To: addr("to", i)})
	}

	testCases := []struct {
		name      string
		transfers []Transfer
		expected  float64
		ok        bool
	}{
		{"no history", nil, 0, false},
		{"single transfer", []Transfer{{From: "0xA", To: "0xB"}}, 0, false},
		{"self transfers", []Transfer{{From: "0xA", To: "0xa"}, {From: "0xA", To: "0xA"}}, 1, true},
		{"two wallets trading", pingPong, 0.5, true}, // 1 - ln2/ln4
		{"every transfer new wallets", spread, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := HolderConcentration(tc.transfers)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if math.Abs(result-tc.expected) > tolerance {
				t.Errorf("Expected %.10f, got %.10f", tc.expected, result)
			}
		})
	}
}

func TestAccumulationRate(t *testing.T) {
	transfers := []Transfer{
		{From: "0x1", To: "0xA"},
		{From: "0x2", To: "0xa"},
		{From: "0x3", To: "0xB"},
		{From: "0x4", To: "0xB"},
	}
	if got := AccumulationRate(transfers); math.Abs(got-0.5) > tolerance {
		t.Errorf("Expected 0.5, got %f", got)
	}
	if got := AccumulationRate(nil); got != 0 {
		t.Errorf("Expected 0 for empty history, got %f", got)
	}
}

func BenchmarkVolumeAnomaly(b *testing.B) {
	v := Windows{H24: 4_000_000, H6: 1_500_000, H1: 250_000}
	for i := 0; i < b.N; i++ {
		_, _ = VolumeAnomaly(v)
	}
}
