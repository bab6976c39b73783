package receipt

import (
	"errors"
	"math"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "json fence",
			in:   "```json\n{\"items\": [], \"total\": 0}\n```",
			want: `{"items": [], "total": 0}`,
		},
		{
			name: "bare fence",
			in:   "```\n{\"total\": 1}\n```",
			want: `{"total": 1}`,
		},
		{
			name: "no fence",
			in:   `{"total": 1}`,
			want: `{"total": 1}`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n```json\n{}\n```  \n",
			want: "{}",
		},
		{
			name: "unterminated fence still stripped at front",
			in:   "```json\n{\"total\": 2}",
			want: `{"total": 2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	raw := "```json\n" + `{
		"items": [
			{"store_name": "Metro", "item_name": "Bread", "quantity": 1, "subtotal": 3.50, "tax_code": "D", "tax_amount": 0.0, "total": 3.50},
			{"item_name": "Soap", "quantity": 2, "subtotal": 8.00, "tax_code": "A", "tax_amount": 1.04, "total": 9.04}
		],
		"total": 12.54
	}` + "\n```"

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(parsed.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(parsed.Items))
	}
	if parsed.StoreName() != "Metro" {
		t.Errorf("store name = %q, want Metro", parsed.StoreName())
	}
	if math.Abs(parsed.Total-12.54) > 0.001 {
		t.Errorf("total = %v, want 12.54", parsed.Total)
	}
	if parsed.Items[1].TaxCode != "A" {
		t.Errorf("tax code = %q, want A", parsed.Items[1].TaxCode)
	}
}

func TestParseRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantInvalid bool // ErrInvalidResponse vs plain parse error
	}{
		{name: "not json", raw: "sorry, I could not read the receipt"},
		{name: "json array not object", raw: `[1, 2, 3]`},
		{name: "missing items", raw: `{"total": 5.0}`, wantInvalid: true},
		{name: "missing total", raw: `{"items": []}`, wantInvalid: true},
		{name: "empty object", raw: `{}`, wantInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantInvalid && !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("error = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestRateForCode(t *testing.T) {
	tests := []struct {
		code string
		want float64
	}{
		{"A", 0.13},
		{"B", 0.08},
		{"C", 0.13},
		{"D", 0},
		{"E", 0.13},
		{"H", 0},
		{"J", 0.13},
		{"K", 0.08},
		{"Y", 0.05},
		{"Z", 0.05},
		{"a", 0.13},  // case-insensitive
		{" Y ", 0.05},
		{"", 0},   // no code
		{"Q", 0},  // unknown code
	}

	for _, tt := range tests {
		if got := RateForCode(tt.code); math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("RateForCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestAllowedContentTypes(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"} {
		if !AllowedContentTypes[ct] {
			t.Errorf("%s should be allowed", ct)
		}
	}
	for _, ct := range []string{"text/plain", "image/gif", "application/json", ""} {
		if AllowedContentTypes[ct] {
			t.Errorf("%s should not be allowed", ct)
		}
	}
}
