package calculator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/p-n-ai/pai-finance/internal/calculator"
)

func TestForConcept(t *testing.T) {
	tests := []struct {
		concept string
		want    string
		ok      bool
	}{
		{"CurrentRatio", "current-ratio", true},
		{"QuickRatio", "quick-ratio", true},
		{"ReturnOnEquity", "return-on-equity", true},
		{"DuPontROE", "return-on-equity", true},
		{"ReturnOnAssets", "return-on-assets", true},
		{"DebtToEquity", "debt-to-equity", true},
		{"FinancialStatements", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.concept, func(t *testing.T) {
			c, ok := calculator.ForConcept(tt.concept)
			if ok != tt.ok {
				t.Fatalf("ForConcept(%q) ok = %v, want %v", tt.concept, ok, tt.ok)
			}
			if ok && c.ID != tt.want {
				t.Errorf("ForConcept(%q) = %s, want %s", tt.concept, c.ID, tt.want)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		calc     string
		in       map[string]float64
		want     float64
		wantTone string
		wantErr  error
	}{
		{
			name: "current-stress", calc: "current-ratio",
			in:   map[string]float64{"current_assets": 90, "current_liabilities": 100},
			want: 0.9, wantTone: calculator.ToneWarning,
		},
		{
			name: "current-modest", calc: "current-ratio",
			in:   map[string]float64{"current_assets": 120, "current_liabilities": 100},
			want: 1.2, wantTone: calculator.ToneInfo,
		},
		{
			name: "current-comfortable", calc: "current-ratio",
			in:   map[string]float64{"current_assets": 300, "current_liabilities": 150},
			want: 2, wantTone: calculator.ToneSuccess,
		},
		{
			name: "current-zero-liabilities", calc: "current-ratio",
			in:      map[string]float64{"current_assets": 300, "current_liabilities": 0},
			wantErr: calculator.ErrZeroDenominator,
		},
		{
			name: "quick-strong", calc: "quick-ratio",
			in:   map[string]float64{"cash": 50, "marketable_securities": 30, "receivables": 40, "current_liabilities": 100},
			want: 1.2, wantTone: calculator.ToneSuccess,
		},
		{
			name: "quick-weak", calc: "quick-ratio",
			in:   map[string]float64{"cash": 10, "marketable_securities": 0, "receivables": 40, "current_liabilities": 100},
			want: 0.5, wantTone: calculator.ToneWarning,
		},
		{
			name: "roe", calc: "return-on-equity",
			in:   map[string]float64{"net_income": 50, "beginning_equity": 350, "ending_equity": 450},
			want: 12.5, wantTone: calculator.ToneInfo,
		},
		{
			name: "roa-zero-assets", calc: "return-on-assets",
			in:      map[string]float64{"net_income": 50, "beginning_assets": 0, "ending_assets": 0},
			wantErr: calculator.ErrZeroDenominator,
		},
		{
			name: "debt-to-equity", calc: "debt-to-equity",
			in:   map[string]float64{"total_debt": 300, "total_equity": 200},
			want: 1.5, wantTone: calculator.ToneInfo,
		},
		{
			name: "missing", calc: "debt-to-equity",
			in:      map[string]float64{"total_debt": 300},
			wantErr: calculator.ErrMissingInput,
		},
		{
			name: "negative", calc: "debt-to-equity",
			in:      map[string]float64{"total_debt": -1, "total_equity": 200},
			wantErr: calculator.ErrNegativeInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := calculator.ByID(tt.calc)
			if !ok {
				t.Fatalf("ByID(%q) not found", tt.calc)
			}

			res, err := c.Compute(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Compute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if math.Abs(res.Value-tt.want) > 1e-9 {
				t.Errorf("Value = %v, want %v", res.Value, tt.want)
			}
			if res.Tone != tt.wantTone {
				t.Errorf("Tone = %q, want %q", res.Tone, tt.wantTone)
			}
			if res.Display == "" || res.Advice == "" {
				t.Error("Display and Advice should be set")
			}
		})
	}
}

func TestAll_FieldsNamed(t *testing.T) {
	for _, c := range calculator.All() {
		if len(c.Fields) == 0 {
			t.Errorf("%s has no fields", c.ID)
		}
		for _, f := range c.Fields {
			if f.Name == "" || f.Label == "" {
				t.Errorf("%s has an unnamed field", c.ID)
			}
		}
	}
}
