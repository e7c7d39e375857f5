package features

import (
	"math"
	"math/rand"
	"testing"
)

// scripted returns n transfers from sender at a fixed interval with varied
// sizes, the signature of a timing bot.
func scripted(sender string, start int64, n int) []Transfer {
	out := make([]Transfer, n)
	for i := range out {
		out[i] = Transfer{
			From:      sender,
			To:        addr("rcv"+sender, i),
			Value:     float64((i + 1) * (i + 1) * 37),
			Timestamp: start + int64(i)*60,
		}
	}
	return out
}

// organic returns three transfers with irregular timing and sizes.
func organic(sender string, start int64) []Transfer {
	return []Transfer{
		{From: sender, To: "0xr1", Value: 1, Timestamp: start},
		{From: sender, To: "0xr2", Value: 5, Timestamp: start + 10},
		{From: sender, To: "0xr3", Value: 20, Timestamp: start + 310},
	}
}

func TestDetectBundler(t *testing.T) {
	testCases := []struct {
		name      string
		transfers []Transfer
		eligible  int
		flagged   int
		active    bool
		pattern   float64
	}{
		{"no transfers", nil, 0, 0, false, 0.5},
		{"groups too small", []Transfer{{From: "0x1", To: "0x2"}, {From: "0x1", To: "0x3"}}, 0, 0, false, 0.5},
		{"single scripted sender", scripted("0xbot", 1000, 4), 1, 1, true, 1},
		{"single organic sender", organic("0xhuman", 1000), 1, 0, false, 0},
		{"tie is not a majority", append(scripted("0xbot", 1000, 3), organic("0xhuman", 5000)...), 2, 1, false, 0.5},
		{
			"majority scripted",
			append(append(scripted("0xbot1", 1000, 3), scripted("0xbot2", 9000, 5)...), organic("0xhuman", 5000)...),
			3, 2, true, 2.0 / 3.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := DetectBundler(tc.transfers, 0.1, 3)
			if r.Eligible != tc.eligible || r.Flagged != tc.flagged {
				t.Errorf("Expected eligible=%d flagged=%d, got eligible=%d flagged=%d",
					tc.eligible, tc.flagged, r.Eligible, r.Flagged)
			}
			if r.Active() != tc.active {
				t.Errorf("Expected active=%v, got %v", tc.active, r.Active())
			}
			if math.Abs(r.Pattern()-tc.pattern) > tolerance {
				t.Errorf("Expected pattern %.4f, got %.4f", tc.pattern, r.Pattern())
			}
		})
	}
}

func TestDetectBundler_ConstantSizesFlagged(t *testing.T) {
	transfers := []Transfer{
		{From: "0xbot", To: "0x1", Value: 100, Timestamp: 1},
		{From: "0xbot", To: "0x2", Value: 100, Timestamp: 50},
		{From: "0xbot", To: "0x3", Value: 100, Timestamp: 900},
	}
	r := DetectBundler(transfers, 0.1, 3)
	if r.Flagged != 1 {
		t.Errorf("Expected identical transfer sizes to be flagged, got %+v", r)
	}
}

func TestDetectBundler_OrderIndependent(t *testing.T) {
	transfers := append(append(scripted("0xbot1", 1000, 6), organic("0xhuman", 5000)...), scripted("0xBOT2", 100, 4)...)
	want := DetectBundler(transfers, 0.1, 3)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Transfer(nil), transfers...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := DetectBundler(shuffled, 0.1, 3); got != want {
			t.Fatalf("Shuffle %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestDetectBundler_DoesNotReorderInput(t *testing.T) {
	transfers := []Transfer{
		{From: "0xbot", To: "0x1", Value: 3, Timestamp: 300},
		{From: "0xbot", To: "0x2", Value: 2, Timestamp: 200},
		{From: "0xbot", To: "0x3", Value: 1, Timestamp: 100},
	}
	DetectBundler(transfers, 0.1, 3)
	if transfers[0].Timestamp != 300 || transfers[2].Timestamp != 100 {
		t.Error("DetectBundler must not mutate the caller's slice")
	}
}

func TestNormalizedVariance(t *testing.T) {
	testCases := []struct {
		name     string
		xs       []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"constant", []float64{5, 5, 5}, 0},
		{"all zero", []float64{0, 0}, 0},
		{"two points", []float64{1, 3}, 0.25}, // var 1, mean 2
		{"zero mean", []float64{-1, 1}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := NormalizedVariance(tc.xs)
			if math.Abs(result-tc.expected) > tolerance {
				t.Errorf("Expected %.10f, got %.10f", tc.expected, result)
			}
		})
	}
}
