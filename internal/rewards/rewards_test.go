package rewards

import "testing"

func TestQuantity(t *testing.T) {
	tests := map[string]string{
		"12 kg":         "12",
		"about 3.75kg":  "3.75",
		"two bags":      "0",
		"":              "0",
		"5 bags, 20 kg": "5",
	}

	for amount, want := range tests {
		if got := Quantity(amount).String(); got != want {
			t.Errorf("Quantity(%q) = %s, want %s", amount, got, want)
		}
	}
}

func TestPolicy_Points(t *testing.T) {
	p := Policy{BasePoints: 10, PointsPerUnit: 2}

	if got := p.Points("7.9 kg"); got != 24 {
		t.Errorf("expected 24 points, got %d", got)
	}
	if got := p.Points("a pile"); got != 10 {
		t.Errorf("expected base points only, got %d", got)
	}
}

func TestPolicy_PointsCapped(t *testing.T) {
	p := Policy{BasePoints: 10, PointsPerUnit: 1}

	for _, amount := range []string{
		"9223372036854775808 kg",
		"18446744073709551615 kg",
		"99999999999999999999 kg",
		"2147483640 kg",
	} {
		if got := p.Points(amount); got != MaxPoints {
			t.Errorf("Points(%q) = %d, want %d", amount, got, MaxPoints)
		}
	}

	if got := p.Points("2147483637 kg"); got != MaxPoints {
		t.Errorf("expected points to reach the cap exactly, got %d", got)
	}
	if got := p.Points("2147483636 kg"); got != MaxPoints-1 {
		t.Errorf("expected points just under the cap, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	impact := Summarize([]string{"1.25 kg", "2 kg", "unknown"}, []int{10, 15})

	if impact.WasteCollected.String() != "3.3" {
		t.Errorf("expected 3.3 waste collected, got %s", impact.WasteCollected)
	}
	if impact.CO2Offset.String() != "1.6" {
		t.Errorf("expected 1.6 co2 offset, got %s", impact.CO2Offset)
	}
	if impact.ReportsSubmitted != 3 {
		t.Errorf("expected 3 reports, got %d", impact.ReportsSubmitted)
	}
	if impact.TokensEarned != 25 {
		t.Errorf("expected 25 tokens, got %d", impact.TokensEarned)
	}
}
