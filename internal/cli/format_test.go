package cli

import "testing"

func TestFormatNumber(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for n, want := range cases {
		if got := FormatNumber(n); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatDaysSince(t *testing.T) {
	if got := FormatDaysSince(12); got != "12d" {
		t.Errorf("12 days = %q", got)
	}
	if got := FormatDaysSince(45); got != "6w" {
		t.Errorf("45 days = %q", got)
	}
	if got := FormatDaysSince(400); got != "13mo" {
		t.Errorf("400 days = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.375); got != "37.5%" {
		t.Errorf("0.375 = %q, want 37.5%%", got)
	}
	if got := FormatPercent(1); got != "100.0%" {
		t.Errorf("1 = %q, want 100.0%%", got)
	}
}

func TestTruncateUser(t *testing.T) {
	if got := TruncateUser("alice@contoso.com", 30); got != "alice@contoso.com" {
		t.Errorf("no-op truncate = %q", got)
	}
	if got := TruncateUser("alice@contoso.com", 10); got != "alice@…" {
		t.Errorf("truncate = %q", got)
	}
}
