package ledger

import "testing"

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		4.725:   "$4.73",
		0:       "$0.00",
		-0.001:  "$0.00",
		-1:      "-$1.00",
		1234.5:  "$1234.50",
		0.005:   "$0.01",
		99.9949: "$99.99",
	}
	for in, want := range cases {
		if got := FormatAmount("$", in); got != want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundAmount(t *testing.T) {
	if got := RoundAmount(0.225); got != 0.23 {
		t.Fatalf("expected 0.23, got %v", got)
	}
	if got := RoundAmount(-2.345); got != -2.35 {
		t.Fatalf("expected -2.35, got %v", got)
	}
}
